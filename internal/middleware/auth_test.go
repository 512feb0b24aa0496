package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ArenaX-Network/arena_layer/internal/errors"
)

type fakeValidator struct {
	userID string
	err    error
}

func (f fakeValidator) UserIDFromToken(context.Context, string) (string, error) {
	return f.userID, f.err
}

type fakeAgentAuth struct {
	agentID string
	err     error
}

func (f fakeAgentAuth) AgentIDFromAPIKey(context.Context, string) (string, error) {
	return f.agentID, f.err
}

func authedHandler(t *testing.T, gotUser, gotAgent *string) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*gotUser = GetUserID(r.Context())
		*gotAgent = GetAgentID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthBearerToken(t *testing.T) {
	var user, agentID string
	m := NewAuthMiddleware(fakeValidator{userID: "user-1"}, nil, nil, nil)
	h := m.Handler(authedHandler(t, &user, &agentID))

	req := httptest.NewRequest(http.MethodGet, "/competitions", nil)
	req.Header.Set("Authorization", "Bearer some-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if user != "user-1" {
		t.Fatalf("user id = %q, want user-1", user)
	}
}

func TestAuthRejectsBadToken(t *testing.T) {
	var user, agentID string
	m := NewAuthMiddleware(fakeValidator{err: errors.Unauthorized("invalid token")}, nil, nil, nil)
	h := m.Handler(authedHandler(t, &user, &agentID))

	req := httptest.NewRequest(http.MethodGet, "/competitions", nil)
	req.Header.Set("Authorization", "Bearer bad")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthMissingHeader(t *testing.T) {
	m := NewAuthMiddleware(fakeValidator{userID: "user-1"}, nil, nil, nil)
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req := httptest.NewRequest(http.MethodGet, "/competitions", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAuthSkipPaths(t *testing.T) {
	m := NewAuthMiddleware(fakeValidator{err: errors.Unauthorized("nope")}, nil, nil, []string{"/health"})
	called := false
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if !called {
		t.Fatal("skip path should bypass authentication")
	}
}

func TestAuthAPIKey(t *testing.T) {
	var user, agentID string
	m := NewAuthMiddleware(fakeValidator{err: errors.Unauthorized("no token")}, fakeAgentAuth{agentID: "agent-7"}, nil, nil)
	h := m.Handler(authedHandler(t, &user, &agentID))

	req := httptest.NewRequest(http.MethodPost, "/trading/execute", nil)
	req.Header.Set("X-API-Key", "agent-key")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if agentID != "agent-7" {
		t.Fatalf("agent id = %q, want agent-7", agentID)
	}
}

func TestRequireUserID(t *testing.T) {
	h := RequireUserID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req = req.WithContext(WithUserID(req.Context(), "user-1"))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
