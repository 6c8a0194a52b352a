package restbackend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core/auth"
)

var _ auth.SessionAPI = (*Client)(nil) // interface compliance check

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

func (c *Client) CurrentSession(ctx context.Context) (*auth.Session, error) {
	c.mu.RLock()
	sess := c.session
	c.mu.RUnlock()
	if sess == nil {
		return nil, nil
	}

	// confirm the platform still recognizes the token
	var user struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/v1/user", nil, nil, &user)
	if err != nil {
		if status := statusOf(err); status == http.StatusUnauthorized || status == http.StatusForbidden {
			c.dropSession()
			return nil, nil
		}
		return nil, errors.Wrap(err, "probing session")
	}
	out := *sess
	return &out, nil
}

func (c *Client) SessionEvents(ctx context.Context) (<-chan auth.SessionEvent, func()) {
	ch := make(chan auth.SessionEvent, 8)
	c.mu.Lock()
	c.subscribers = append(c.subscribers, ch)
	if !c.polling {
		// the poller lives as long as ctx; a later subscriber restarts it
		c.polling = true
		go func() {
			defer func() {
				c.mu.Lock()
				c.polling = false
				c.mu.Unlock()
			}()
			c.pollSession(ctx)
		}()
	}
	c.mu.Unlock()

	unsubscribe := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.subscribers {
			if sub == ch {
				c.subscribers = append(c.subscribers[:i], c.subscribers[i+1:]...)
				return
			}
		}
	}
	return ch, unsubscribe
}

// pollSession keeps the cached session fresh, renewing the token before it
// expires and notifying subscribers of refreshes and expiries.
func (c *Client) pollSession(ctx context.Context) {
	interval := c.pollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		c.mu.RLock()
		sess, refresh := c.session, c.refreshToken
		c.mu.RUnlock()
		if sess == nil {
			continue
		}

		// renew when within one poll interval of expiry
		if time.Until(sess.ExpiresAt) > interval {
			continue
		}

		var tok tokenResponse
		query := url.Values{"grant_type": {"refresh_token"}}
		err := c.do(ctx, http.MethodPost, "/auth/v1/token", query,
			map[string]string{"refresh_token": refresh}, &tok)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn(fmt.Sprintf("refreshing session: %v", err), err)
			if statusOf(err) >= http.StatusBadRequest {
				c.dropSession()
			}
			continue
		}
		c.storeToken(tok, auth.EventTokenRefreshed)
	}
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*auth.Session, error) {
	var tok tokenResponse
	query := url.Values{"grant_type": {"password"}}
	err := c.do(ctx, http.MethodPost, "/auth/v1/token", query,
		map[string]string{"email": email, "password": password}, &tok)
	if err != nil {
		if status := statusOf(err); status == http.StatusBadRequest || status == http.StatusUnauthorized {
			return nil, auth.ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "verifying credentials")
	}
	sess := c.storeToken(tok, auth.EventSignedIn)
	return sess, nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*auth.Session, error) {
	var user struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/v1/signup", nil,
		map[string]string{"email": email, "password": password}, &user)
	if err != nil {
		status := statusOf(err)
		if status == http.StatusUnprocessableEntity ||
			(status == http.StatusBadRequest && strings.Contains(err.Error(), "registered")) {
			return nil, auth.ErrEmailExists
		}
		return nil, errors.Wrap(err, "creating credential")
	}
	// a fresh sign-up does not become the active session
	return &auth.Session{SubjectID: user.ID, Email: user.Email}, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.RLock()
	sess := c.session
	c.mu.RUnlock()
	if sess == nil {
		return auth.ErrNoActiveSession
	}

	err := c.do(ctx, http.MethodPost, "/auth/v1/logout", nil, nil, nil)
	if err != nil && statusOf(err) != http.StatusUnauthorized {
		return errors.Wrap(err, "invalidating session")
	}
	c.dropSession()
	return nil
}

func (c *Client) DeleteCredential(ctx context.Context, subjectID string) error {
	// admin endpoint; authenticated with the service api key
	err := c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+subjectID, nil, nil, nil,
		"Authorization", "Bearer "+c.apiKey)
	return errors.Wrap(err, "deleting credential")
}

// storeToken installs a fresh token as the active session and notifies
// subscribers.
func (c *Client) storeToken(tok tokenResponse, eventType string) *auth.Session {
	sess := &auth.Session{
		SubjectID:   tok.User.ID,
		Email:       tok.User.Email,
		AccessToken: tok.AccessToken,
		ExpiresAt:   time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second),
	}

	c.mu.Lock()
	if eventType == auth.EventTokenRefreshed && c.session != nil {
		// a refresh keeps the subject; the password grant response may omit it
		if sess.SubjectID == "" {
			sess.SubjectID = c.session.SubjectID
			sess.Email = c.session.Email
		}
	}
	c.session = sess
	c.refreshToken = tok.RefreshToken
	evSess := *sess
	subs := append([]chan auth.SessionEvent(nil), c.subscribers...)
	c.mu.Unlock()

	notify(subs, auth.SessionEvent{Type: eventType, Session: &evSess})
	out := *sess
	return &out
}

func (c *Client) dropSession() {
	c.mu.Lock()
	hadSession := c.session != nil
	c.session = nil
	c.refreshToken = ""
	subs := append([]chan auth.SessionEvent(nil), c.subscribers...)
	c.mu.Unlock()

	if hadSession {
		notify(subs, auth.SessionEvent{Type: auth.EventSignedOut})
	}
}

func notify(subs []chan auth.SessionEvent, ev auth.SessionEvent) {
	for _, sub := range subs {
		select {
		case sub <- ev:
		default:
		}
	}
}
