package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/harborchat/harbor/internal/handlers"
	"github.com/harborchat/harbor/internal/logging"
	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/services"
)

const sessionCookieName = "session_token"

type SessionLookup interface {
	Lookup(ctx context.Context, token string) (*models.SessionUser, error)
}

type AuthMiddleware struct {
	sessions SessionLookup
}

func NewAuthMiddleware(sessions SessionLookup) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// Authenticate resolves the session token, when one is present, and attaches
// the user to the request context. Requests without a valid session pass
// through anonymous; per-route RequireSession decides whether that is
// acceptable.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.sessions.Lookup(r.Context(), token)
		if err != nil {
			if !errors.Is(err, services.ErrSessionNotFound) {
				logging.Error("Session lookup failed", map[string]interface{}{"error": err.Error()})
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(handlers.ContextWithUser(r.Context(), user)))
	})
}

// RequireSession rejects requests that did not authenticate.
func (m *AuthMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handlers.GetUserFromContext(r.Context()) == nil {
			writeError(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return ""
}
