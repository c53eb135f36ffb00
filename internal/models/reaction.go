package models

import (
	"time"

	"github.com/google/uuid"
)

// ReactionValue is the closed set of reactions a user may put on a message.
type ReactionValue string

const (
	ReactionLike  ReactionValue = "like"
	ReactionLove  ReactionValue = "love"
	ReactionLaugh ReactionValue = "laugh"
	ReactionSad   ReactionValue = "sad"
	ReactionAngry ReactionValue = "angry"
)

// AllowedReactions lists every valid reaction value in display order.
var AllowedReactions = []ReactionValue{
	ReactionLike,
	ReactionLove,
	ReactionLaugh,
	ReactionSad,
	ReactionAngry,
}

var reactionEmojis = map[ReactionValue]string{
	ReactionLike:  "\U0001F44D",
	ReactionLove:  "❤️",
	ReactionLaugh: "\U0001F602",
	ReactionSad:   "\U0001F622",
	ReactionAngry: "\U0001F621",
}

func (v ReactionValue) Valid() bool {
	_, ok := reactionEmojis[v]
	return ok
}

// Emoji returns the rendered form used in chat activity summaries.
func (v ReactionValue) Emoji() string {
	return reactionEmojis[v]
}

func (v ReactionValue) String() string {
	return string(v)
}

// Reaction is a single user's reaction to one message. The store enforces
// at most one live row per (user_id, message_id).
type Reaction struct {
	MessageID uuid.UUID     `json:"message_id"`
	UserID    uuid.UUID     `json:"user_id"`
	Value     ReactionValue `json:"value"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type ReactionSummary struct {
	Value ReactionValue `json:"value"`
	Count int           `json:"count"`
}
