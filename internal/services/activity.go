package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harborchat/harbor/internal/logging"
	"github.com/harborchat/harbor/internal/models"
	"github.com/harborchat/harbor/internal/store"
)

// ActivityService maintains the denormalized last-activity summary on a
// chat. Best effort by contract: a summary that fails to write is logged and
// forgotten, and out-of-order completions may leave the summary one event
// behind.
type ActivityService struct {
	db     store.DB
	logger *logging.Logger

	mu       sync.Mutex
	asyncCtx context.Context
	wg       sync.WaitGroup
}

func NewActivityService(db store.DB, logger *logging.Logger) *ActivityService {
	return &ActivityService{
		db:       db,
		logger:   logger,
		asyncCtx: context.Background(),
	}
}

// SetAsyncContext bounds the lifetime of detached summary updates.
func (s *ActivityService) SetAsyncContext(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.asyncCtx = ctx
}

// RecordActivity overwrites the chat's last-activity summary with a single
// statement.
func (s *ActivityService) RecordActivity(ctx context.Context, chatID uuid.UUID, summary models.ActivitySummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encoding activity summary: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		"UPDATE chats SET last_activity = $2 WHERE id = $1",
		chatID, data,
	)
	if err != nil {
		return fmt.Errorf("updating chat activity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrChatNotFound
	}
	return nil
}

// RecordAsync runs RecordActivity on a detached goroutine. The originating
// operation has already committed; a summary failure never reaches its
// caller.
func (s *ActivityService) RecordAsync(chatID uuid.UUID, summary models.ActivitySummary) {
	s.mu.Lock()
	parent := s.asyncCtx
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(parent, 5*time.Second)
		defer cancel()
		if err := s.RecordActivity(ctx, chatID, summary); err != nil {
			s.logger.Warn("Activity summary update failed", map[string]interface{}{
				"chat_id": chatID.String(),
				"error":   err.Error(),
			})
		}
	}()
}

// Wait blocks until in-flight summary updates finish. Used by shutdown and
// tests.
func (s *ActivityService) Wait() {
	s.wg.Wait()
}
