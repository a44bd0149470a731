package domain

import (
	"context"
	"time"
)

// IdempotencyRequest identifies one mutating request under a client key.
type IdempotencyRequest struct {
	Key       string
	UserID    string
	Operation string // "POST /api/v1/document/sales-invoices/:id/submit"
	Hash      string // sha256 of the body
}

// IdempotencyReplay is a stored response returned for a repeated key.
type IdempotencyReplay struct {
	StatusCode  int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

// IdempotencyStore remembers responses of keyed requests.
//
// Acquire returns (nil, nil) when the caller owns the key and must call
// Complete or Release; a replay when the key already finished; an
// IDEMPOTENCY_CONFLICT error while another request holds it; and a mismatch
// error when the key was used for a different request.
type IdempotencyStore interface {
	Acquire(ctx context.Context, req IdempotencyRequest, ttl time.Duration) (*IdempotencyReplay, error)
	Complete(ctx context.Context, key string, replay IdempotencyReplay, ttl time.Duration) error
	// Release forgets a key whose request failed so the client may retry.
	Release(ctx context.Context, key string) error
}
