// Package numerator provides domain contracts for document auto-numbering.
// Implementations live in pkg/numerator.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// ResetPeriod controls when a series starts again from 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config describes a naming series such as INV-2025-00001.
type Config struct {
	// Prefix added to all numbers (e.g., "INV")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum counter width (default 5)
	PadWidth int

	ResetPeriod ResetPeriod
}

// DefaultConfig returns the PREFIX-YYYY-NNNNN series reset every year.
func DefaultConfig(prefix string) Config {
	return Config{
		Prefix:      prefix,
		IncludeYear: true,
		PadWidth:    5,
		ResetPeriod: ResetYearly,
	}
}

// Key identifies the sequence row for the period.
func (c Config) Key(period time.Time) string {
	switch c.ResetPeriod {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders counter n for the period.
func (c Config) Format(period time.Time, n int64) string {
	width := c.PadWidth
	if width <= 0 {
		width = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), width, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, width, n)
}

// Generator issues gapless document numbers.
type Generator interface {
	// GetNextNumber increments the series counter and returns the formatted number.
	GetNextNumber(ctx context.Context, cfg Config, period time.Time) (string, error)

	// SetNextNumber moves the series counter (data migration from another system).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
