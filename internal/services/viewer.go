package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/store"
)

// ViewerService records which users have seen a message. The viewer set only
// grows; there is no membership check here because a "seen" signal is not a
// durable authored artifact.
type ViewerService struct {
	db     store.DB
	events *EventBus
}

func NewViewerService(db store.DB, events *EventBus) *ViewerService {
	return &ViewerService{db: db, events: events}
}

// MarkViewed adds viewerID to the message's viewer set with set-union
// semantics: marking twice leaves the set unchanged and is not an error.
// The MESSAGE_VIEWED event is emitted on every call, deduplicated never.
func (s *ViewerService) MarkViewed(ctx context.Context, viewerID, messageID uuid.UUID) error {
	var exists bool
	err := s.db.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1)",
		messageID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("checking message: %w", err)
	}
	if !exists {
		return ErrMessageNotFound
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO message_viewers (message_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT (message_id, user_id) DO NOTHING`,
		messageID, viewerID,
	)
	if err != nil {
		// Message deleted between the check and the insert.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrMessageNotFound
		}
		return fmt.Errorf("recording viewer: %w", err)
	}

	s.events.PublishAsync(messageID.String(), models.EventMessageViewed, models.MessageViewedPayload{
		ViewerID:  viewerID,
		MessageID: messageID,
	})
	return nil
}

// GetMessage loads a message with its viewer set. Reads are member-only;
// non-members get ErrMessageNotFound, same as a missing message.
func (s *ViewerService) GetMessage(ctx context.Context, userID, messageID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	var isMember bool
	err := s.db.QueryRow(ctx,
		`SELECT m.id, m.chat_id, m.sender_id, COALESCE(m.text, ''), COALESCE(m.image_url, ''), m.created_at,
		        ARRAY(SELECT user_id FROM message_viewers WHERE message_id = m.id ORDER BY viewed_at),
		        EXISTS (SELECT 1 FROM chat_members cm
		                WHERE cm.chat_id = m.chat_id AND cm.user_id = $2)
		 FROM messages m
		 WHERE m.id = $1`,
		messageID, userID,
	).Scan(&msg.ID, &msg.ChatID, &msg.SenderID, &msg.Text, &msg.ImageURL, &msg.CreatedAt, &msg.Viewers, &isMember)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrMessageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading message: %w", err)
	}
	if !isMember {
		return nil, ErrMessageNotFound
	}
	return &msg, nil
}
