package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/harborchat/harbor/internal/logging"
)

// Publisher is the fire-and-forget broadcast primitive. Channels are named
// by chat id or message id; subscribers are external.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// RedisPublisher broadcasts through redis PUBLISH.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

// Envelope is the wire shape of every published event.
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// EventBus dispatches events to connected clients after a durable mutation
// commits. Delivery is at-most-once-attempted: no retry, no ordering across
// publishes, and a failed dispatch is logged, never surfaced to the request
// that triggered it.
type EventBus struct {
	publisher Publisher
	logger    *logging.Logger
	timeout   time.Duration

	mu       sync.Mutex
	asyncCtx context.Context
	wg       sync.WaitGroup
}

func NewEventBus(publisher Publisher, logger *logging.Logger) *EventBus {
	return &EventBus{
		publisher: publisher,
		logger:    logger,
		timeout:   5 * time.Second,
		asyncCtx:  context.Background(),
	}
}

// SetAsyncContext bounds the lifetime of detached publishes; main cancels it
// on shutdown.
func (b *EventBus) SetAsyncContext(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.asyncCtx = ctx
}

// PublishAsync broadcasts an event on a detached goroutine. The caller's
// durable write has already committed by the time this runs; its outcome
// never gates the caller's response.
func (b *EventBus) PublishAsync(channel, event string, payload interface{}) {
	data, err := json.Marshal(Envelope{Event: event, Payload: payload})
	if err != nil {
		b.logger.Warn("Event encode failed", map[string]interface{}{
			"channel": channel,
			"event":   event,
			"error":   err.Error(),
		})
		return
	}

	b.mu.Lock()
	parent := b.asyncCtx
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(parent, b.timeout)
		defer cancel()
		if err := b.publisher.Publish(ctx, channel, data); err != nil {
			b.logger.Warn("Event publish failed", map[string]interface{}{
				"channel": channel,
				"event":   event,
				"error":   err.Error(),
			})
		}
	}()
}

// Wait blocks until in-flight publishes finish. Used by shutdown and tests.
func (b *EventBus) Wait() {
	b.wg.Wait()
}
