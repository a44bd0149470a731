package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"workshop/internal/core/apperror"
	"workshop/internal/domain"
)

const (
	idempotencyPending = "pending"
	idempotencyDone    = "done"
)

// IdempotencyStore keeps idempotency keys in sys_idempotency. It backs the
// HTTP middleware when Redis is disabled.
type IdempotencyStore struct {
	txManager *TxManager
	now       func() time.Time
	// staleAfter reclaims pending keys of crashed requests
	staleAfter time.Duration
}

func NewIdempotencyStore(txManager *TxManager) *IdempotencyStore {
	return &IdempotencyStore{txManager: txManager, now: time.Now, staleAfter: time.Minute}
}

type idempotencyRow struct {
	UserID      string
	Operation   string
	Status      string
	RequestHash string
	Response    []byte
	StatusCode  int
	ContentType string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Acquire inserts the key or reports what the existing key holds. It runs
// outside any request transaction so the claim is visible to concurrent
// requests at once.
func (s *IdempotencyStore) Acquire(ctx context.Context, req domain.IdempotencyRequest, ttl time.Duration) (*domain.IdempotencyReplay, error) {
	now := s.now().UTC()
	q := s.txManager.pool

	tag, err := q.Exec(ctx, `
		INSERT INTO sys_idempotency (idempotency_key, user_id, operation, status, request_hash, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6, $7)
		ON CONFLICT (idempotency_key) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			operation = EXCLUDED.operation,
			status = EXCLUDED.status,
			request_hash = EXCLUDED.request_hash,
			response = NULL,
			created_at = EXCLUDED.created_at,
			updated_at = EXCLUDED.updated_at,
			expires_at = EXCLUDED.expires_at
		WHERE sys_idempotency.expires_at < $6
	`, req.Key, req.UserID, req.Operation, idempotencyPending, req.Hash, now, now.Add(ttl))
	if err != nil {
		return nil, fmt.Errorf("acquire idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil, nil
	}

	var row idempotencyRow
	err = q.QueryRow(ctx, `
		SELECT user_id, operation, status, request_hash, response, response_status, response_content_type, created_at, updated_at
		FROM sys_idempotency WHERE idempotency_key = $1
	`, req.Key).Scan(&row.UserID, &row.Operation, &row.Status, &row.RequestHash,
		&row.Response, &row.StatusCode, &row.ContentType, &row.CreatedAt, &row.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperror.NewIdempotencyConflict(req.Key)
	}
	if err != nil {
		return nil, fmt.Errorf("read idempotency key: %w", err)
	}

	if row.UserID != req.UserID || row.Operation != req.Operation || row.RequestHash != req.Hash {
		return nil, apperror.NewIdempotencyMismatch(req.Key).
			WithDetail("stored_operation", row.Operation).
			WithDetail("request_operation", req.Operation)
	}

	switch row.Status {
	case idempotencyDone:
		return &domain.IdempotencyReplay{
			StatusCode:  replayStatus(row.StatusCode),
			ContentType: replayContentType(row.ContentType),
			Body:        row.Response,
		}, nil
	case idempotencyPending:
		if now.Sub(row.UpdatedAt) > s.staleAfter {
			tag, err := q.Exec(ctx, `
				UPDATE sys_idempotency SET updated_at = $1
				WHERE idempotency_key = $2 AND status = $3 AND updated_at = $4
			`, now, req.Key, idempotencyPending, row.UpdatedAt)
			if err != nil {
				return nil, fmt.Errorf("reclaim stale key: %w", err)
			}
			if tag.RowsAffected() == 1 {
				return nil, nil
			}
		}
	}
	return nil, apperror.NewIdempotencyConflict(req.Key)
}

func (s *IdempotencyStore) Complete(ctx context.Context, key string, replay domain.IdempotencyReplay, ttl time.Duration) error {
	now := s.now().UTC()
	_, err := s.txManager.pool.Exec(ctx, `
		UPDATE sys_idempotency
		SET status = $1,
		    response = $2,
		    response_status = $3,
		    response_content_type = $4,
		    updated_at = $5,
		    expires_at = $6
		WHERE idempotency_key = $7
	`, idempotencyDone, replay.Body, replay.StatusCode, replay.ContentType, now, now.Add(ttl), key)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	_, err := s.txManager.pool.Exec(ctx, `DELETE FROM sys_idempotency WHERE idempotency_key = $1 AND status = $2`, key, idempotencyPending)
	return err
}

// CleanupExpired removes expired keys.
func (s *IdempotencyStore) CleanupExpired(ctx context.Context) (int64, error) {
	tag, err := s.txManager.pool.Exec(ctx, `DELETE FROM sys_idempotency WHERE expires_at < $1`, s.now().UTC())
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func replayStatus(status int) int {
	if status == 0 {
		return 200
	}
	return status
}

func replayContentType(ct string) string {
	if ct == "" {
		return "application/json"
	}
	return ct
}

var _ domain.IdempotencyStore = (*IdempotencyStore)(nil)
