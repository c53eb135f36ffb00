package models

import (
	"time"

	"github.com/google/uuid"
)

// Message belongs to exactly one chat. The text/image payload is opaque to
// the reaction engine; only the viewer set is mutated here, and it only
// grows.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	ChatID    uuid.UUID   `json:"chat_id"`
	SenderID  uuid.UUID   `json:"sender_id"`
	Text      string      `json:"text,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	Viewers   []uuid.UUID `json:"viewers"`
	CreatedAt time.Time   `json:"created_at"`
}
