package models

import "github.com/google/uuid"

// Event names published to connected clients. Clients must tolerate
// duplicate identical events; delivery is at-most-once per publish with no
// ordering guarantee across events.
const (
	EventReactionAdded   = "REACTION_ADDED"
	EventReactionRemoved = "REACTION_REMOVED"
	EventMessageViewed   = "MESSAGE_VIEWED"
)

// ReactionAddedPayload is broadcast on the owning chat's channel.
type ReactionAddedPayload struct {
	MessageID uuid.UUID     `json:"messageId"`
	Reaction  ReactionValue `json:"reaction"`
	UserID    uuid.UUID     `json:"userId"`
}

// ReactionRemovedPayload is broadcast on the owning chat's channel when the
// chat is still resolvable from the message.
type ReactionRemovedPayload struct {
	MessageID uuid.UUID `json:"messageId"`
	UserID    uuid.UUID `json:"userId"`
}

// MessageViewedPayload is broadcast on the message's own channel; the
// audience is whoever is currently viewing the message.
type MessageViewedPayload struct {
	ViewerID  uuid.UUID `json:"viewerId"`
	MessageID uuid.UUID `json:"messageId"`
}
