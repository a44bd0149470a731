package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"workshop/internal/core/apperror"
	"workshop/internal/domain"
)

const (
	idempotencyPending = "pending"
	idempotencyDone    = "done"

	// a pending key older than this belongs to a crashed request
	pendingLease = time.Minute
)

type idempotencyRecord struct {
	Status    string                    `json:"status"`
	UserID    string                    `json:"userId"`
	Operation string                    `json:"operation"`
	Hash      string                    `json:"hash"`
	Replay    *domain.IdempotencyReplay `json:"replay,omitempty"`
}

// IdempotencyStore keeps idempotency keys in Redis. A key is claimed with
// SET NX while its request runs and overwritten with the response when done.
type IdempotencyStore struct {
	client redis.Cmdable
}

func NewIdempotencyStore(client redis.Cmdable) *IdempotencyStore {
	return &IdempotencyStore{client: client}
}

func idempotencyKey(key string) string { return KeyPrefix + "idem:" + key }

func (s *IdempotencyStore) Acquire(ctx context.Context, req domain.IdempotencyRequest, ttl time.Duration) (*domain.IdempotencyReplay, error) {
	rec := idempotencyRecord{Status: idempotencyPending, UserID: req.UserID, Operation: req.Operation, Hash: req.Hash}
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}

	ok, err := s.client.SetNX(ctx, idempotencyKey(req.Key), data, pendingLease).Result()
	if err != nil {
		return nil, fmt.Errorf("claim idempotency key: %w", err)
	}
	if ok {
		return nil, nil
	}

	raw, err := s.client.Get(ctx, idempotencyKey(req.Key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// expired between SETNX and GET; the next attempt will claim it
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}
	var stored idempotencyRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("decode idempotency key: %w", err)
	}

	if stored.UserID != req.UserID || stored.Operation != req.Operation || stored.Hash != req.Hash {
		return nil, apperror.NewIdempotencyMismatch(req.Key).
			WithDetail("stored_operation", stored.Operation).
			WithDetail("request_operation", req.Operation)
	}
	if stored.Status == idempotencyDone && stored.Replay != nil {
		return stored.Replay, nil
	}
	return nil, apperror.NewIdempotencyConflict(req.Key)
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, replay domain.IdempotencyReplay, ttl time.Duration) error {
	raw, err := s.client.Get(ctx, idempotencyKey(key)).Bytes()
	if err != nil {
		return fmt.Errorf("read idempotency key: %w", err)
	}
	var rec idempotencyRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fmt.Errorf("decode idempotency key: %w", err)
	}
	rec.Status = idempotencyDone
	rec.Replay = &replay
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, idempotencyKey(key), data, ttl).Err()
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	return s.client.Del(ctx, idempotencyKey(key)).Err()
}

var _ domain.IdempotencyStore = (*IdempotencyStore)(nil)
