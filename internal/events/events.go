// Package events carries the change feed: every successful mutation is
// published on a redis channel and fanned out to websocket watchers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Channel is the redis pub/sub channel changes are published on.
const Channel = "cms:changes"

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event announces that a record of Resource changed.
type Event struct {
	Resource string    `json:"resource"`
	Action   Action    `json:"action"`
	ID       uint      `json:"id"`
	At       time.Time `json:"at"`
}

// Publisher announces changes. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// RedisPublisher publishes events as JSON on Channel.
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := p.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s %s: %w", ev.Resource, ev.Action, err)
	}
	return nil
}

// Subscriber streams raw payloads from Channel. The returned channel closes
// once ctx ends or the close function has been called.
type Subscriber interface {
	Subscribe(ctx context.Context) (<-chan string, func() error, error)
}

// RedisSubscriber reads Channel through redis pub/sub.
type RedisSubscriber struct {
	client redis.UniversalClient
}

func NewRedisSubscriber(client redis.UniversalClient) *RedisSubscriber {
	return &RedisSubscriber{client: client}
}

func (s *RedisSubscriber) Subscribe(ctx context.Context) (<-chan string, func() error, error) {
	pubsub := s.client.Subscribe(ctx, Channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", Channel, err)
	}

	out := make(chan string)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- msg.Payload:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, pubsub.Close, nil
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Notify publishes ev and logs a failure instead of returning it.
func Notify(ctx context.Context, pub Publisher, logger *slog.Logger, ev Event) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev); err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("publish change event failed",
			slog.String("resource", ev.Resource),
			slog.String("action", string(ev.Action)),
			slog.Uint64("id", uint64(ev.ID)),
			slog.Any("error", err),
		)
	}
}

// Decode parses a payload received from Channel.
func Decode(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.Resource == "" {
		return Event{}, fmt.Errorf("decode event: missing resource")
	}
	return ev, nil
}
