package dummybackend

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kampala/campushub/core/auth"
)

type sessionAPI struct {
	db *DB
}

var _ auth.SessionAPI = (*sessionAPI)(nil) // interface compliance check

func NewSessionAPI(db *DB) auth.SessionAPI {
	return &sessionAPI{db: db}
}

func (api *sessionAPI) CurrentSession(ctx context.Context) (*auth.Session, error) {
	api.db.mu.RLock()
	defer api.db.mu.RUnlock()

	if api.db.session == nil || api.db.session.Expired() {
		return nil, nil
	}
	sess := *api.db.session
	return &sess, nil
}

func (api *sessionAPI) SessionEvents(ctx context.Context) (<-chan auth.SessionEvent, func()) {
	ch := make(chan auth.SessionEvent, 8)
	api.db.mu.Lock()
	api.db.subscribers = append(api.db.subscribers, ch)
	api.db.mu.Unlock()

	unsubscribe := func() {
		api.db.mu.Lock()
		defer api.db.mu.Unlock()
		for i, sub := range api.db.subscribers {
			if sub == ch {
				api.db.subscribers = append(api.db.subscribers[:i], api.db.subscribers[i+1:]...)
				return
			}
		}
	}
	return ch, unsubscribe
}

func (api *sessionAPI) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()

	cred, ok := api.db.credentials[email]
	if !ok {
		return nil, auth.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(cred.passwordHash, []byte(password)); err != nil {
		return nil, auth.ErrInvalidCredentials
	}

	sess := &auth.Session{
		SubjectID:   cred.subjectID,
		Email:       cred.email,
		AccessToken: uuid.New().String(),
		ExpiresAt:   time.Now().Add(time.Hour),
	}
	api.db.session = sess
	evSess := *sess
	api.db.broadcast(auth.SessionEvent{Type: auth.EventSignedIn, Session: &evSess})

	out := *sess
	return &out, nil
}

func (api *sessionAPI) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()

	if _, ok := api.db.credentials[email]; ok {
		return nil, auth.ErrEmailExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	cred := &credential{
		subjectID:    uuid.New().String(),
		email:        email,
		passwordHash: hash,
	}
	api.db.credentials[email] = cred

	// a fresh sign-up does not become the active session
	return &auth.Session{SubjectID: cred.subjectID, Email: cred.email}, nil
}

func (api *sessionAPI) SignOut(ctx context.Context) error {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()

	if api.db.session == nil {
		return auth.ErrNoActiveSession
	}
	api.db.session = nil
	api.db.broadcast(auth.SessionEvent{Type: auth.EventSignedOut})
	return nil
}

func (api *sessionAPI) DeleteCredential(ctx context.Context, subjectID string) error {
	api.db.mu.Lock()
	defer api.db.mu.Unlock()

	for email, cred := range api.db.credentials {
		if cred.subjectID == subjectID {
			delete(api.db.credentials, email)
			if api.db.session != nil && api.db.session.SubjectID == subjectID {
				api.db.session = nil
				api.db.broadcast(auth.SessionEvent{Type: auth.EventSignedOut})
			}
			return nil
		}
	}
	return auth.ErrNoActiveSession
}

// Test helpers

// SetSession installs a session as the active one and notifies subscribers;
// simulates a sign-in performed elsewhere.
func (db *DB) SetSession(sess *auth.Session) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.session = sess
	if sess != nil {
		evSess := *sess
		db.broadcast(auth.SessionEvent{Type: auth.EventSignedIn, Session: &evSess})
	} else {
		db.broadcast(auth.SessionEvent{Type: auth.EventSignedOut})
	}
}

// HasCredential reports whether a credential exists for email.
func (db *DB) HasCredential(email string) bool {
	db.mu.RLock()
	defer db.mu.RUnlock()
	_, ok := db.credentials[email]
	return ok
}
