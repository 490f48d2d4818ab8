package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/stockroom-backend/pkg/redis"
)

// Guard remembers which envelope event ids were already delivered to a topic.
// The publisher marks an event before committing the outbox row, so a rolled
// back batch does not publish the same event a second time.
// Keys follow the `sr:idempotency:evt:delivered:<topic>:<event_id>` pattern.
type Guard struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

func NewGuard(store redis.IdempotencyStore, ttl time.Duration) (*Guard, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Guard{store: store, ttl: ttl}, nil
}

// Delivered reports whether the event was already published to topic.
func (g *Guard) Delivered(ctx context.Context, topic, eventID string) (bool, error) {
	key, err := g.key(topic, eventID)
	if err != nil {
		return false, err
	}
	val, err := g.store.Get(ctx, key)
	if err != nil {
		if redis.IsNil(err) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}

// MarkDelivered records a successful publish. It returns false when the mark already existed.
func (g *Guard) MarkDelivered(ctx context.Context, topic, eventID string) (bool, error) {
	key, err := g.key(topic, eventID)
	if err != nil {
		return false, err
	}
	return g.store.SetNX(ctx, key, "1", g.ttl)
}

// Forget drops the mark, forcing the next batch to publish again.
func (g *Guard) Forget(ctx context.Context, topic, eventID string) error {
	key, err := g.key(topic, eventID)
	if err != nil {
		return err
	}
	return g.store.Del(ctx, key)
}

func (g *Guard) key(topic, eventID string) (string, error) {
	if strings.TrimSpace(topic) == "" {
		return "", errors.New("topic is required")
	}
	if strings.TrimSpace(eventID) == "" {
		return "", errors.New("event id is required")
	}
	return g.store.IdempotencyKey(fmt.Sprintf("evt:delivered:%s", topic), eventID), nil
}
