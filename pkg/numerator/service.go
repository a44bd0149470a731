// Package numerator implements gapless document numbering on the sys_sequences table.
package numerator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	corenumerator "workshop/internal/core/numerator"
)

// Querier is the subset of pgx used by the service. Both pgxpool.Pool and
// pgx.Tx satisfy it.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// QuerierFunc resolves the querier for a call, usually the transaction in ctx.
type QuerierFunc func(ctx context.Context) Querier

// Service issues numbers with one UPSERT ... RETURNING per call. Run inside
// the business transaction so a rolled back submit does not burn a number.
type Service struct {
	querier QuerierFunc
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a service bound to a fixed querier.
func New(q Querier) *Service {
	return &Service{querier: func(context.Context) Querier { return q }}
}

// NewWithResolver creates a service that resolves its querier per call.
func NewWithResolver(fn QuerierFunc) *Service {
	return &Service{querier: fn}
}

// GetNextNumber generates the next document number, e.g. INV-2025-00001.
func (s *Service) GetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	if s == nil || s.querier == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	key := cfg.Key(period)
	var num int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, 1)
		ON CONFLICT (key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, key).Scan(&num)
	if err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}

	return cfg.Format(period, num), nil
}

// SetNextNumber makes the next issued number equal value.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	if value < 1 {
		return fmt.Errorf("next number must be positive, got %d", value)
	}

	key := cfg.Key(period)
	var stored int64
	err := s.querier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (key, current_val)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET current_val = $2
		RETURNING current_val
	`, key, value-1).Scan(&stored)
	if err != nil {
		return fmt.Errorf("set next number for %s: %w", key, err)
	}
	return nil
}

// ParseNumber extracts the counter from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	idx := strings.LastIndex(formatted, "-")
	if idx < 0 || idx == len(formatted)-1 {
		return -1
	}
	num, err := strconv.ParseInt(formatted[idx+1:], 10, 64)
	if err != nil || num < 0 {
		return -1
	}
	return num
}
