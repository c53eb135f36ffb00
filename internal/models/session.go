package models

import "github.com/google/uuid"

// SessionUser is the authenticated identity supplied by the session
// collaborator on every inbound call. The engine never authenticates; it
// only authorizes chat membership.
type SessionUser struct {
	ID   uuid.UUID `json:"user_id"`
	Name string    `json:"name"`
}
