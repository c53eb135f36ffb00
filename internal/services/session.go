package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/harborchat/harbor/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// SessionService resolves opaque session tokens to authenticated users.
// Session establishment (register/login) lives in the auth service; this
// engine only reads what it wrote.
type SessionService struct {
	redis RedisClient
}

func NewSessionService(redis RedisClient) *SessionService {
	return &SessionService{redis: redis}
}

func (s *SessionService) Lookup(ctx context.Context, token string) (*models.SessionUser, error) {
	data, err := s.redis.Get(ctx, sessionKeyPrefix+token)
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	var user models.SessionUser
	if err := json.Unmarshal([]byte(data), &user); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if user.ID == uuid.Nil {
		return nil, ErrSessionNotFound
	}
	return &user, nil
}

// Save stores a session. Used by operational tooling and tests; the engine
// itself never creates sessions.
func (s *SessionService) Save(ctx context.Context, token string, user models.SessionUser, ttl time.Duration) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKeyPrefix+token, data, ttl); err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	return nil
}

func (s *SessionService) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, sessionKeyPrefix+token); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
