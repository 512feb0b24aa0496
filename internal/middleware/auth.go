package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ArenaX-Network/arena_layer/internal/errors"
	"github.com/ArenaX-Network/arena_layer/pkg/logger"
)

// TokenValidator resolves a bearer token to a user ID. Satisfied by the
// auth service, which also checks session revocation.
type TokenValidator interface {
	UserIDFromToken(ctx context.Context, token string) (string, error)
}

// AgentAuthenticator resolves an API key to an agent ID. Satisfied by the
// auth service.
type AgentAuthenticator interface {
	AgentIDFromAPIKey(ctx context.Context, apiKey string) (string, error)
}

// AuthMiddleware authenticates requests with either a user bearer token or
// an agent API key (X-API-Key header).
type AuthMiddleware struct {
	tokens    TokenValidator
	agents    AgentAuthenticator
	log       *logger.Logger
	skipPaths map[string]bool
}

// NewAuthMiddleware creates an authentication middleware. Requests to
// skipPaths pass through unauthenticated.
func NewAuthMiddleware(tokens TokenValidator, agents AgentAuthenticator, log *logger.Logger, skipPaths []string) *AuthMiddleware {
	if log == nil {
		log = logger.NewDefault("middleware")
	}
	skip := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skip[path] = true
	}
	return &AuthMiddleware{
		tokens:    tokens,
		agents:    agents,
		log:       log,
		skipPaths: skip,
	}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		if apiKey := r.Header.Get("X-API-Key"); apiKey != "" && m.agents != nil {
			agentID, err := m.agents.AgentIDFromAPIKey(r.Context(), apiKey)
			if err != nil {
				m.respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAgentID(r.Context(), agentID)))
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("missing credentials"))
			return
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondError(w, r, errors.Unauthorized("malformed Authorization header"))
			return
		}

		userID, err := m.tokens.UserIDFromToken(r.Context(), parts[1])
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	m.log.WithError(err).WithFields(map[string]any{
		"path":   r.URL.Path,
		"method": r.Method,
	}).Warn("authentication failed")

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(errors.StatusOf(err))
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"error": map[string]any{
			"code":    errors.CodeOf(err),
			"message": err.Error(),
		},
	})
}

// RequireUserID rejects requests whose context lacks an authenticated user.
func RequireUserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserID(r.Context()) == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   map[string]any{"code": errors.CodeUnauthorized, "message": "authentication required"},
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}
