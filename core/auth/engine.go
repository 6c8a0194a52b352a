package auth

import (
	"context"
	"fmt"
	"net/mail"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core"
)

const defaultFetchTimeout = 10 * time.Second

type (
	// SessionAPI is the hosted platform's session contract.
	SessionAPI interface {
		// CurrentSession returns the active session, or nil when signed out.
		CurrentSession(ctx context.Context) (*Session, error)
		// SessionEvents subscribes to session change notifications.
		// The returned func unsubscribes and releases the channel.
		SessionEvents(ctx context.Context) (<-chan SessionEvent, func())
		SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
		SignUp(ctx context.Context, email, password string) (*Session, error)
		// SignOut invalidates the active session; ErrNoActiveSession when there is none.
		SignOut(ctx context.Context) error
		// DeleteCredential removes a credential by subject id (admin operation).
		DeleteCredential(ctx context.Context, subjectID string) error
	}

	// ProfileRepository is the hosted platform's profile row contract.
	ProfileRepository interface {
		GetProfileBySubject(ctx context.Context, subjectID string) (Profile, error)
		GetProfileBySubjectAndRole(ctx context.Context, subjectID, role string) (Profile, error)
		// CreateProfile inserts a profile; ErrProfileExists on a duplicate subject id.
		CreateProfile(ctx context.Context, p Profile) (Profile, error)
	}

	Deps struct {
		Sessions SessionAPI
		Profiles ProfileRepository
		Logger   core.Logger
		Mail     core.EmailService // optional
		Conf     *core.Config
	}

	// Engine is the single source of truth for "who is logged in and as what
	// role". It reconciles session change notifications from the platform with
	// profile lookups and publishes a {profile, loading} view of the outcome.
	Engine struct {
		sessions SessionAPI
		profiles ProfileRepository
		logger   core.Logger
		mail     core.EmailService
		conf     *core.Config

		fetchTimeout time.Duration

		mu       sync.RWMutex
		state    State
		gen      uint64 // bumped per resolution; stale fetches lose
		watchers []chan State

		fetching int32 // single-flight guard for profile fetches
	}
)

func NewEngine(deps Deps) *Engine {
	timeout := defaultFetchTimeout
	if deps.Conf != nil && deps.Conf.Backend.ProfileFetchTimeout > 0 {
		timeout = deps.Conf.Backend.ProfileFetchTimeout
	}
	return &Engine{
		sessions:     deps.Sessions,
		profiles:     deps.Profiles,
		logger:       deps.Logger,
		mail:         deps.Mail,
		conf:         deps.Conf,
		fetchTimeout: timeout,
		state:        State{Loading: true, Phase: PhaseIdle},
	}
}

// Run probes the platform for an active session, subscribes to session change
// notifications and reconciles until ctx is cancelled. It is the only writer
// of the published state.
func (e *Engine) Run(ctx context.Context) error {
	e.publish(e.nextGen(), State{Loading: true, Phase: PhaseProbing})

	events, unsubscribe := e.sessions.SessionEvents(ctx)
	defer unsubscribe()

	// the startup probe and the event stream are not ordered relative to each
	// other; both feed the same resolution path
	probe := make(chan *Session, 1)
	go func() {
		sess, err := e.sessions.CurrentSession(ctx)
		if err != nil {
			// passive path: degrade to signed-out, never crash
			e.logger.Warn(fmt.Sprintf("session probe failed: %v", err), err)
			sess = nil
		}
		select {
		case probe <- sess:
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case sess := <-probe:
			probe = nil
			e.resolveSession(ctx, sess)
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			e.resolveSession(ctx, ev.Session)
		}
	}
}

// resolveSession reconciles a session value with the profile store.
// A call arriving while a profile fetch is already in flight is dropped, not
// queued; the last completed resolution wins.
func (e *Engine) resolveSession(ctx context.Context, sess *Session) {
	if sess == nil {
		e.publish(e.nextGen(), State{Phase: PhaseUnauthenticated})
		return
	}
	if !atomic.CompareAndSwapInt32(&e.fetching, 0, 1) {
		return // fetch already in flight
	}
	gen := e.nextGen()
	go func() {
		defer atomic.StoreInt32(&e.fetching, 0)
		e.fetchProfile(ctx, gen, sess)
	}()
}

func (e *Engine) fetchProfile(ctx context.Context, gen uint64, sess *Session) {
	fctx, cancel := context.WithTimeout(ctx, e.fetchTimeout)
	defer cancel()

	prof, err := e.profiles.GetProfileBySubject(fctx, sess.SubjectID)
	if err != nil && errors.Cause(err) == ErrProfileNotFound {
		prof, err = e.provisionProfile(fctx, sess)
	}
	if err == nil {
		e.publish(gen, State{Profile: &prof, Phase: PhaseResolved})
		return
	}
	if ctx.Err() != nil {
		return // torn down; drop the result
	}
	if fctx.Err() == context.DeadlineExceeded {
		err = ErrFetchTimeout
	}

	// never leave the app half-authenticated: drop the profile and kill the
	// session the lookup failed for. If a newer resolution has already won,
	// this failure lost the race and must not touch the winner's session.
	e.logger.Error(fmt.Sprintf("resolving profile for subject %s: %v", sess.SubjectID, err), err)
	if e.publish(gen, State{Phase: PhaseError}) {
		e.forceSignOut()
	}
}

// provisionProfile lazily creates a missing profile for a valid session,
// defaulting to the student role with a name derived from the email.
func (e *Engine) provisionProfile(ctx context.Context, sess *Session) (Profile, error) {
	// the subject may have been deleted since; confirm it is still authenticated
	cur, err := e.sessions.CurrentSession(ctx)
	if err != nil {
		return Profile{}, errors.Wrap(err, "confirming session")
	}
	if cur == nil || cur.SubjectID != sess.SubjectID {
		return Profile{}, ErrNoActiveSession
	}

	e.logger.Warn(fmt.Sprintf("auto-provisioning missing profile for subject %s as %s", sess.SubjectID, RoleStudent))
	prof, err := e.profiles.CreateProfile(ctx, Profile{
		SubjectID: sess.SubjectID,
		FirstName: core.EmailLocalPart(sess.Email),
		Email:     sess.Email,
		Role:      RoleStudent,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Cause(err) == ErrProfileExists {
		// lost a race with another writer; use the winner's row
		return e.profiles.GetProfileBySubject(ctx, sess.SubjectID)
	}
	return prof, errors.Wrap(err, "creating profile")
}

func (e *Engine) forceSignOut() {
	ctx, cancel := context.WithTimeout(context.Background(), e.fetchTimeout)
	defer cancel()
	if err := e.sessions.SignOut(ctx); err != nil && errors.Cause(err) != ErrNoActiveSession {
		e.logger.Error(fmt.Sprintf("forcing sign-out: %v", err), err)
	}
}

// Login verifies credentials and fetches the profile filtered by role: a valid
// credential holder cannot log in under a role they do not hold. On success the
// profile is returned synchronously and published.
func (e *Engine) Login(ctx context.Context, email, password, role string) (Profile, error) {
	email = core.CleanString(email, true /* lower */)

	sess, err := e.sessions.SignInWithPassword(ctx, email, password)
	if err != nil {
		if errors.Cause(err) == ErrInvalidCredentials {
			return Profile{}, ErrInvalidCredentials
		}
		return Profile{}, errors.Wrap(err, "verifying credentials")
	}

	prof, err := e.profiles.GetProfileBySubjectAndRole(ctx, sess.SubjectID, role)
	if err != nil {
		e.publish(e.nextGen(), State{Phase: PhaseUnauthenticated})
		e.forceSignOut()
		if errors.Cause(err) == ErrProfileNotFound {
			return Profile{}, ErrAuthenticationFailed
		}
		return Profile{}, errors.Wrap(err, "fetching profile")
	}

	e.publish(e.nextGen(), State{Profile: &prof, Phase: PhaseResolved})
	return prof, nil
}

// Register creates a credential then inserts the profile row tied to the new
// subject id. It does not log the user in. If the profile insert fails, the
// just-created credential is deleted (best effort) so no orphan is left behind.
func (e *Engine) Register(ctx context.Context, reg Registration) (Profile, error) {
	sess, err := e.sessions.SignUp(ctx, reg.Email, reg.Password)
	if err != nil {
		return Profile{}, &RegistrationError{Stage: "credential", Err: err}
	}

	prof, err := e.profiles.CreateProfile(ctx, Profile{
		SubjectID: sess.SubjectID,
		FirstName: reg.FirstName,
		LastName:  reg.LastName,
		Email:     reg.Email,
		Role:      reg.Role,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		if delErr := e.sessions.DeleteCredential(ctx, sess.SubjectID); delErr != nil {
			e.logger.Error(fmt.Sprintf("deleting orphaned credential %s: %v", sess.SubjectID, delErr), delErr)
		}
		return Profile{}, &RegistrationError{Stage: "profile", Err: err}
	}

	e.sendWelcomeEmail(prof)
	return prof, nil
}

// Logout invalidates the platform session and clears the published state.
// Calling it with no active session is a no-op success.
func (e *Engine) Logout(ctx context.Context) error {
	if err := e.sessions.SignOut(ctx); err != nil {
		if errors.Cause(err) == ErrNoActiveSession {
			return nil
		}
		return errors.Wrap(err, "invalidating session")
	}
	e.publish(e.nextGen(), State{Phase: PhaseUnauthenticated})
	return nil
}

// State returns a snapshot of the published auth state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

func (e *Engine) IsStudent() bool {
	st := e.State()
	return st.Profile != nil && st.Profile.IsStudent()
}

func (e *Engine) IsFaculty() bool {
	st := e.State()
	return st.Profile != nil && st.Profile.IsFaculty()
}

// Subscribe registers a watcher notified on every published state change.
// Slow watchers miss intermediate states rather than block the engine.
func (e *Engine) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 8)
	e.mu.Lock()
	e.watchers = append(e.watchers, ch)
	e.mu.Unlock()

	unsubscribe := func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		for i, w := range e.watchers {
			if w == ch {
				e.watchers = append(e.watchers[:i], e.watchers[i+1:]...)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (e *Engine) nextGen() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.gen++
	return e.gen
}

// publish installs st unless a newer resolution has been started since gen was
// taken, in which case the result is dropped. It reports whether st was
// installed.
func (e *Engine) publish(gen uint64, st State) bool {
	e.mu.Lock()
	if gen != e.gen {
		e.mu.Unlock()
		return false
	}
	e.state = st
	watchers := append([]chan State(nil), e.watchers...)
	e.mu.Unlock()

	for _, w := range watchers {
		select {
		case w <- st:
		default:
		}
	}
	return true
}

func (e *Engine) sendWelcomeEmail(prof Profile) {
	if e.mail == nil {
		return
	}
	e.mail.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: prof.FullName(), Address: prof.Email}},
		Subject: "Welcome!",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour %s account has been created. You can now log in to the %s portal.\n",
			prof.FirstName, prof.Role, prof.Role,
		),
	})
}
