package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/harborchat/harbor/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// ContextWithUser attaches the authenticated user; the auth middleware is the
// only production caller.
func ContextWithUser(ctx context.Context, user *models.SessionUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext returns the authenticated user, or nil when the request
// never passed authentication.
func GetUserFromContext(ctx context.Context) *models.SessionUser {
	user, ok := ctx.Value(userContextKey).(*models.SessionUser)
	if !ok {
		return nil
	}
	return user
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
