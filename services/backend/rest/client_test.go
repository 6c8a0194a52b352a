package restbackend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/auth"
)

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client := NewClient(&core.Config{
		Backend: core.BackendConfig{URL: ts.URL, APIKey: "service-key"},
	}, nopLogger{})
	return client, ts
}

func writeJSON(t *testing.T, w http.ResponseWriter, code int, v interface{}) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encoding response: %v", err)
	}
}

func TestClient_SignInWithPassword(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.URL.Query().Get("grant_type"); got != "password" {
			t.Errorf("grant_type = %q, want password", got)
		}
		if got := r.Header.Get("apikey"); got != "service-key" {
			t.Errorf("apikey header = %q, want service-key", got)
		}

		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "goodpass1" {
			writeJSON(t, w, http.StatusBadRequest, map[string]string{"message": "invalid login credentials"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"access_token":  "tok-123",
			"refresh_token": "ref-123",
			"expires_in":    3600,
			"user":          map[string]string{"id": "sub1", "email": creds["email"]},
		})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	if _, err := client.SignInWithPassword(ctx, "jane@campus.test", "bad"); err != auth.ErrInvalidCredentials {
		t.Errorf("SignInWithPassword() error = %v, want ErrInvalidCredentials", err)
	}

	events, unsubscribe := client.SessionEvents(ctx)
	defer unsubscribe()

	sess, err := client.SignInWithPassword(ctx, "jane@campus.test", "goodpass1")
	if err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if sess.SubjectID != "sub1" || sess.AccessToken != "tok-123" {
		t.Errorf("session = %+v", sess)
	}
	if sess.Expired() {
		t.Error("fresh session reports expired")
	}
	if got := client.bearerToken(); got != "tok-123" {
		t.Errorf("bearerToken() = %q, want the session token", got)
	}

	select {
	case ev := <-events:
		if ev.Type != auth.EventSignedIn || ev.Session == nil {
			t.Errorf("event = %+v, want SIGNED_IN", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("no SIGNED_IN notification")
	}
}

func TestClient_SessionEvents_restartsPolling(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		// expires_in 0 keeps the session inside the renewal window
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-123", "refresh_token": "ref-123", "expires_in": 0,
			"user": map[string]string{"id": "sub1", "email": "jane@campus.test"},
		})
	})

	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	client := NewClient(&core.Config{
		Backend: core.BackendConfig{URL: ts.URL, APIKey: "service-key", EventPollInterval: 5 * time.Millisecond},
	}, nopLogger{})

	// first subscriber comes and goes, taking its poller with it
	ctx1, cancel1 := context.WithCancel(context.Background())
	_, unsub1 := client.SessionEvents(ctx1)
	cancel1()
	unsub1()

	deadline := time.Now().Add(2 * time.Second)
	for {
		client.mu.RLock()
		polling := client.polling
		client.mu.RUnlock()
		if !polling {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("poller did not stop after its context ended")
		}
		time.Sleep(2 * time.Millisecond)
	}

	if _, err := client.SignInWithPassword(context.Background(), "jane@campus.test", "goodpass1"); err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}

	// a later subscriber must get a live poller feeding its channel
	ctx2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	events, unsub2 := client.SessionEvents(ctx2)
	defer unsub2()

	for {
		select {
		case ev := <-events:
			if ev.Type == auth.EventTokenRefreshed {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatal("no TOKEN_REFRESHED after resubscribing")
		}
	}
}

func TestClient_SignUp(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/signup", func(w http.ResponseWriter, r *http.Request) {
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["email"] == "taken@campus.test" {
			writeJSON(t, w, http.StatusUnprocessableEntity, map[string]string{"msg": "User already registered"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"id": "sub-new", "email": creds["email"]})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	sess, err := client.SignUp(ctx, "new@campus.test", "goodpass1")
	if err != nil {
		t.Fatalf("SignUp() error = %v", err)
	}
	if sess.SubjectID != "sub-new" {
		t.Errorf("SubjectID = %q, want sub-new", sess.SubjectID)
	}

	// a fresh sign-up must not become the active session
	cur, err := client.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession() error = %v", err)
	}
	if cur != nil {
		t.Errorf("CurrentSession() = %+v, want nil", cur)
	}

	if _, err := client.SignUp(ctx, "taken@campus.test", "goodpass1"); err != auth.ErrEmailExists {
		t.Errorf("SignUp() error = %v, want ErrEmailExists", err)
	}
}

func TestClient_SignOut(t *testing.T) {
	var logouts int
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-123", "refresh_token": "ref-123", "expires_in": 3600,
			"user": map[string]string{"id": "sub1", "email": "jane@campus.test"},
		})
	})
	mux.HandleFunc("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		logouts++
		w.WriteHeader(http.StatusNoContent)
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	if err := client.SignOut(ctx); err != auth.ErrNoActiveSession {
		t.Errorf("SignOut() without session error = %v, want ErrNoActiveSession", err)
	}

	if _, err := client.SignInWithPassword(ctx, "jane@campus.test", "goodpass1"); err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}
	if err := client.SignOut(ctx); err != nil {
		t.Fatalf("SignOut() error = %v", err)
	}
	if logouts != 1 {
		t.Errorf("logout calls = %d, want 1", logouts)
	}
	if got := client.bearerToken(); got != "service-key" {
		t.Errorf("bearerToken() after sign-out = %q, want the api key", got)
	}
}

func TestClient_CurrentSession_dropsRejectedToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, map[string]interface{}{
			"access_token": "tok-123", "refresh_token": "ref-123", "expires_in": 3600,
			"user": map[string]string{"id": "sub1", "email": "jane@campus.test"},
		})
	})
	mux.HandleFunc("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid token"})
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	if _, err := client.SignInWithPassword(ctx, "jane@campus.test", "goodpass1"); err != nil {
		t.Fatalf("SignInWithPassword() error = %v", err)
	}

	sess, err := client.CurrentSession(ctx)
	if err != nil {
		t.Fatalf("CurrentSession() error = %v", err)
	}
	if sess != nil {
		t.Errorf("CurrentSession() = %+v, want nil after token rejection", sess)
	}
	if got := client.bearerToken(); got != "service-key" {
		t.Error("cached session not dropped")
	}
}

func TestClient_Profiles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if r.URL.Query().Get("subject_id") == "eq.sub1" {
				role := r.URL.Query().Get("role")
				if role == "" || role == "eq.student" {
					writeJSON(t, w, http.StatusOK, []map[string]string{{
						"id": "p1", "subject_id": "sub1", "first_name": "Jane", "role": "student",
					}})
					return
				}
			}
			writeJSON(t, w, http.StatusOK, []map[string]string{})
		case http.MethodPost:
			if r.Header.Get("Prefer") != "return=representation" {
				t.Errorf("Prefer header = %q", r.Header.Get("Prefer"))
			}
			var rows []map[string]string
			_ = json.NewDecoder(r.Body).Decode(&rows)
			if len(rows) == 1 && rows[0]["subject_id"] == "dup" {
				writeJSON(t, w, http.StatusConflict, map[string]string{"message": "duplicate key value"})
				return
			}
			rows[0]["id"] = "p-new"
			writeJSON(t, w, http.StatusCreated, rows)
		}
	})

	client, _ := newTestClient(t, mux)
	ctx := context.Background()

	prof, err := client.GetProfileBySubject(ctx, "sub1")
	if err != nil {
		t.Fatalf("GetProfileBySubject() error = %v", err)
	}
	if prof.ID != "p1" || prof.FirstName != "Jane" {
		t.Errorf("profile = %+v", prof)
	}

	if _, err := client.GetProfileBySubject(ctx, "ghost"); err != auth.ErrProfileNotFound {
		t.Errorf("GetProfileBySubject(ghost) error = %v, want ErrProfileNotFound", err)
	}

	if _, err := client.GetProfileBySubjectAndRole(ctx, "sub1", auth.RoleFaculty); err != auth.ErrProfileNotFound {
		t.Errorf("GetProfileBySubjectAndRole(faculty) error = %v, want ErrProfileNotFound", err)
	}

	created, err := client.CreateProfile(ctx, auth.Profile{SubjectID: "sub2", FirstName: "New", Role: auth.RoleStudent})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if created.ID != "p-new" {
		t.Errorf("created.ID = %q, want p-new", created.ID)
	}

	if _, err := client.CreateProfile(ctx, auth.Profile{SubjectID: "dup"}); err != auth.ErrProfileExists {
		t.Errorf("CreateProfile(dup) error = %v, want ErrProfileExists", err)
	}
}

func TestClient_backendDown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/v1/profiles", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	client, ts := newTestClient(t, mux)
	ctx := context.Background()

	if _, err := client.GetProfileBySubject(ctx, "sub1"); errors.Cause(err) != auth.ErrBackendUnavailable {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}

	// connection refused maps the same way
	ts.Close()
	if _, err := client.GetProfileBySubject(ctx, "sub1"); errors.Cause(err) != auth.ErrBackendUnavailable {
		t.Errorf("error = %v, want ErrBackendUnavailable", err)
	}
}
