package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/store"
)

var (
	ErrChatNotFound    = errors.New("chat not found")
	ErrMessageNotFound = errors.New("message not found")
)

// MembershipService answers whether a user belongs to a chat. Side-effect
// free; "not a member" is a false result, never an error, so callers can
// tell a missing entity apart from an unauthorized one.
type MembershipService struct {
	db store.DB
}

func NewMembershipService(db store.DB) *MembershipService {
	return &MembershipService{db: db}
}

func (s *MembershipService) IsMember(ctx context.Context, userID, chatID uuid.UUID) (bool, error) {
	var chatExists, isMember bool
	err := s.db.QueryRow(ctx,
		`SELECT
		     EXISTS (SELECT 1 FROM chats WHERE id = $1),
		     EXISTS (SELECT 1 FROM chat_members WHERE chat_id = $1 AND user_id = $2)`,
		chatID, userID,
	).Scan(&chatExists, &isMember)
	if err != nil {
		return false, fmt.Errorf("checking chat membership: %w", err)
	}
	if !chatExists {
		return false, ErrChatNotFound
	}
	return isMember, nil
}

// GetChat loads a chat with its member list and last-activity summary.
// Non-members get ErrChatNotFound, same as a missing chat, so they cannot
// probe which chats exist.
func (s *MembershipService) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*models.Chat, error) {
	member, err := s.IsMember(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, ErrChatNotFound
	}

	var chat models.Chat
	var activityJSON []byte
	err = s.db.QueryRow(ctx,
		`SELECT c.id, c.created_at, c.last_activity,
		        ARRAY(SELECT user_id FROM chat_members WHERE chat_id = c.id ORDER BY joined_at)
		 FROM chats c
		 WHERE c.id = $1`,
		chatID,
	).Scan(&chat.ID, &chat.CreatedAt, &activityJSON, &chat.Members)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrChatNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading chat: %w", err)
	}

	if len(activityJSON) > 0 {
		var summary models.ActivitySummary
		if err := json.Unmarshal(activityJSON, &summary); err != nil {
			return nil, fmt.Errorf("decoding chat activity: %w", err)
		}
		chat.LastActivity = &summary
	}
	return &chat, nil
}

// ResolveChatForMessage returns the chat owning the message, or
// ErrMessageNotFound when the message no longer exists.
func (s *MembershipService) ResolveChatForMessage(ctx context.Context, messageID uuid.UUID) (uuid.UUID, error) {
	var chatID uuid.UUID
	err := s.db.QueryRow(ctx,
		"SELECT chat_id FROM messages WHERE id = $1",
		messageID,
	).Scan(&chatID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, ErrMessageNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("resolving message chat: %w", err)
	}
	return chatID, nil
}
