package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kampala/campushub/core"
	"github.com/kampala/campushub/core/auth"
)

func newTestMock() (*mockServer, http.Handler) {
	srv := newMockServer(&core.Config{
		TestMode:  true,
		SecretKey: "test-secret",
		Server:    core.ServerConfig{JWTExpirationDelta: time.Hour},
	})
	return srv, srv.app()
}

func do(handler http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, handler http.Handler, email, password string) string {
	t.Helper()
	rec := do(handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestMock_login(t *testing.T) {
	_, handler := newTestMock()

	// seeded demo accounts
	login(t, handler, "student@example.com", "password123")
	login(t, handler, "faculty@example.com", "password123")

	rec := do(handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "student@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(handler, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "ghost@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMock_register(t *testing.T) {
	_, handler := newTestMock()

	rec := do(handler, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "New@Example.com", "password": "longenough", "role": auth.RoleFaculty,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Token string   `json:"token"`
		User  mockUser `json:"user"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "new@example.com", resp.User.Email)
	assert.Equal(t, auth.RoleFaculty, resp.User.Role)
	assert.Equal(t, "new", resp.User.Name) // derived from the email local part

	// duplicate email
	rec = do(handler, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "new@example.com", "password": "longenough",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	// short password
	rec = do(handler, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "short@example.com", "password": "tiny",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// the fresh token works right away
	rec = do(handler, http.MethodGet, "/api/auth/verify", resp.Token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMock_verifyAndDashboard(t *testing.T) {
	_, handler := newTestMock()

	rec := do(handler, http.MethodGet, "/api/auth/verify", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	studentToken := login(t, handler, "student@example.com", "password123")
	facultyToken := login(t, handler, "faculty@example.com", "password123")

	rec = do(handler, http.MethodGet, "/api/auth/verify", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "student@example.com")

	var dash struct {
		Greeting string   `json:"greeting"`
		Role     string   `json:"role"`
		Widgets  []string `json:"widgets"`
	}

	rec = do(handler, http.MethodGet, "/api/dashboard", studentToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, auth.RoleStudent, dash.Role)
	assert.Contains(t, dash.Widgets, "attendance")

	rec = do(handler, http.MethodGet, "/api/dashboard", facultyToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dash))
	assert.Equal(t, auth.RoleFaculty, dash.Role)
	assert.Contains(t, dash.Widgets, "attendance-sheets")
}
