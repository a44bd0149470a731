// Package numeratortest provides an in-memory numerator.Generator for domain
// service tests.
package numeratortest

import (
	"context"
	"sync"
	"time"

	"workshop/internal/core/numerator"
)

var _ numerator.Generator = (*Counter)(nil)

// Counter numbers every series from one shared in-memory counter.
type Counter struct {
	// Next overrides numbering when set
	Next func(ctx context.Context, cfg numerator.Config, period time.Time) (string, error)

	mu sync.Mutex
	n  int64
}

// GetNextNumber counts from 1 unless Next is set.
func (c *Counter) GetNextNumber(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	if c.Next != nil {
		return c.Next(ctx, cfg, period)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return cfg.Format(period, c.n), nil
}

// SetNextNumber makes the following call return value.
func (c *Counter) SetNextNumber(_ context.Context, _ numerator.Config, _ time.Time, value int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = value - 1
	return nil
}
