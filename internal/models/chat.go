package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation between a fixed set of members. The engine never
// creates or destroys chats; it only reads membership and refreshes the
// last-activity summary.
type Chat struct {
	ID           uuid.UUID        `json:"id"`
	Members      []uuid.UUID      `json:"members"`
	LastActivity *ActivitySummary `json:"last_activity,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// ActivitySummary is the denormalized "most recent notable event" cache kept
// on a chat for list-view previews. Best effort: out-of-order completions may
// leave it one event behind.
type ActivitySummary struct {
	Text       string    `json:"text"`
	SenderID   uuid.UUID `json:"sender_id"`
	SenderName string    `json:"sender_name"`
	Timestamp  time.Time `json:"timestamp"`
}
