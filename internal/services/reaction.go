package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/harborchat/harbor/internal/logging"
	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/store"
)

var (
	ErrReactionNotFound = errors.New("reaction not found")
	ErrInvalidReaction  = errors.New("invalid reaction value")
	// ErrNotChatMember deliberately covers both "message does not exist" and
	// "user is not a member" on the add path, so non-members cannot probe
	// which messages exist.
	ErrNotChatMember = errors.New("message does not exist or user is not part of the chat")
)

const pgForeignKeyViolation = "23503"

// ReactionService reconciles reaction intents against the store's
// one-reaction-per-user invariant and hands the results to the activity
// summarizer and the event bus.
type ReactionService struct {
	db         store.DB
	membership *MembershipService
	activity   *ActivityService
	events     *EventBus
}

func NewReactionService(db store.DB, membership *MembershipService, activity *ActivityService, events *EventBus) *ReactionService {
	return &ReactionService{
		db:         db,
		membership: membership,
		activity:   activity,
		events:     events,
	}
}

// Apply reconciles a user's reaction intent for one message. A nil intent
// clears the user's reaction; a concrete intent creates it or supersedes the
// previous value. Repeating the same value is idempotent and still notifies.
func (s *ReactionService) Apply(ctx context.Context, user models.SessionUser, messageID uuid.UUID, intent *models.ReactionValue) error {
	if intent == nil {
		return s.clear(ctx, user, messageID)
	}
	return s.add(ctx, user, messageID, *intent)
}

func (s *ReactionService) add(ctx context.Context, user models.SessionUser, messageID uuid.UUID, value models.ReactionValue) error {
	if !value.Valid() {
		return ErrInvalidReaction
	}

	var chatID uuid.UUID
	var isMember bool
	err := s.db.QueryRow(ctx,
		`SELECT m.chat_id,
		        EXISTS (SELECT 1 FROM chat_members cm
		                WHERE cm.chat_id = m.chat_id AND cm.user_id = $2)
		 FROM messages m
		 WHERE m.id = $1`,
		messageID, user.ID,
	).Scan(&chatID, &isMember)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotChatMember
	}
	if err != nil {
		return fmt.Errorf("resolving message chat: %w", err)
	}
	if !isMember {
		return ErrNotChatMember
	}

	// Single conditional write. A read-then-write pair would race with a
	// concurrent request for the same (user, message) key and could leave
	// duplicate rows or a lost update.
	_, err = s.db.Exec(ctx,
		`INSERT INTO reactions (user_id, message_id, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, message_id)
		 DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		user.ID, messageID, string(value),
	)
	if err != nil {
		// The message can disappear between the membership check and the
		// upsert; surface that the same way as a missing message.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return ErrNotChatMember
		}
		return fmt.Errorf("upserting reaction: %w", err)
	}

	s.activity.RecordAsync(chatID, models.ActivitySummary{
		Text:       fmt.Sprintf("reacted %s to a message", value.Emoji()),
		SenderID:   user.ID,
		SenderName: user.Name,
		Timestamp:  time.Now().UTC(),
	})
	s.events.PublishAsync(chatID.String(), models.EventReactionAdded, models.ReactionAddedPayload{
		MessageID: messageID,
		Reaction:  value,
		UserID:    user.ID,
	})
	return nil
}

func (s *ReactionService) clear(ctx context.Context, user models.SessionUser, messageID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		"DELETE FROM reactions WHERE user_id = $1 AND message_id = $2",
		user.ID, messageID,
	)
	if err != nil {
		return fmt.Errorf("removing reaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReactionNotFound
	}

	// The owning message may be gone by now. The deletion stands either way;
	// without a resolvable chat there is no channel to notify.
	chatID, err := s.membership.ResolveChatForMessage(ctx, messageID)
	if err != nil {
		if !errors.Is(err, ErrMessageNotFound) {
			logging.Warn("Chat resolution failed after reaction removal", map[string]interface{}{
				"message_id": messageID.String(),
				"error":      err.Error(),
			})
		}
		return nil
	}

	s.events.PublishAsync(chatID.String(), models.EventReactionRemoved, models.ReactionRemovedPayload{
		MessageID: messageID,
		UserID:    user.ID,
	})
	return nil
}

// ListForMessage returns every reaction on a message, oldest first. Callers
// must be members of the owning chat; the same merged error as the add path
// applies.
func (s *ReactionService) ListForMessage(ctx context.Context, user models.SessionUser, messageID uuid.UUID) ([]models.Reaction, error) {
	if err := s.requireMember(ctx, user.ID, messageID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT message_id, user_id, value, created_at, updated_at
		 FROM reactions
		 WHERE message_id = $1
		 ORDER BY created_at`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing reactions: %w", err)
	}
	defer rows.Close()

	reactions := []models.Reaction{}
	for rows.Next() {
		var r models.Reaction
		var value string
		if err := rows.Scan(&r.MessageID, &r.UserID, &value, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning reaction: %w", err)
		}
		r.Value = models.ReactionValue(value)
		reactions = append(reactions, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing reactions: %w", err)
	}
	return reactions, nil
}

// SummaryForMessage returns per-value counts for a message, most used first.
func (s *ReactionService) SummaryForMessage(ctx context.Context, user models.SessionUser, messageID uuid.UUID) ([]models.ReactionSummary, error) {
	if err := s.requireMember(ctx, user.ID, messageID); err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx,
		`SELECT value, COUNT(*)
		 FROM reactions
		 WHERE message_id = $1
		 GROUP BY value
		 ORDER BY COUNT(*) DESC, value`,
		messageID,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing reactions: %w", err)
	}
	defer rows.Close()

	summary := []models.ReactionSummary{}
	for rows.Next() {
		var entry models.ReactionSummary
		var value string
		var count int64
		if err := rows.Scan(&value, &count); err != nil {
			return nil, fmt.Errorf("scanning reaction summary: %w", err)
		}
		entry.Value = models.ReactionValue(value)
		entry.Count = int(count)
		summary = append(summary, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("summarizing reactions: %w", err)
	}
	return summary, nil
}

func (s *ReactionService) requireMember(ctx context.Context, userID, messageID uuid.UUID) error {
	var isMember bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_members cm
		                JOIN messages m ON m.chat_id = cm.chat_id
		                WHERE m.id = $1 AND cm.user_id = $2)`,
		messageID, userID,
	).Scan(&isMember)
	if err != nil {
		return fmt.Errorf("checking chat membership: %w", err)
	}
	if !isMember {
		return ErrNotChatMember
	}
	return nil
}
