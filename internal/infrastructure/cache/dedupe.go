package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventDeduper records processed outbox messages so that a redelivered
// message is handled once.
type EventDeduper interface {
	// MarkProcessed returns true when eventID was not seen before.
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	// Forget drops the mark so a failed handler can run again.
	Forget(ctx context.Context, eventID string) error
}

type RedisDeduper struct {
	client redis.Cmdable
}

func NewRedisDeduper(client redis.Cmdable) *RedisDeduper {
	return &RedisDeduper{client: client}
}

func dedupeKey(eventID string) string { return KeyPrefix + "event:" + eventID }

func (d *RedisDeduper) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupeKey(eventID), "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark event %s: %w", eventID, err)
	}
	return ok, nil
}

func (d *RedisDeduper) Forget(ctx context.Context, eventID string) error {
	return d.client.Del(ctx, dedupeKey(eventID)).Err()
}

// MemoryDeduper is the single-process variant.
type MemoryDeduper struct {
	mu   sync.Mutex
	now  func() time.Time
	seen map[string]time.Time
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{now: time.Now, seen: make(map[string]time.Time)}
}

func (d *MemoryDeduper) MarkProcessed(_ context.Context, eventID string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, exp := range d.seen {
		if now.After(exp) {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[eventID]; ok {
		return false, nil
	}
	d.seen[eventID] = now.Add(ttl)
	return true, nil
}

func (d *MemoryDeduper) Forget(_ context.Context, eventID string) error {
	d.mu.Lock()
	delete(d.seen, eventID)
	d.mu.Unlock()
	return nil
}
