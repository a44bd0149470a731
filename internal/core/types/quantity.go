package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Quantity is a fixed-point quantity with 4 decimal places (scale = 1e4).
// Labour hours (1.5) and part counts share the same representation and are
// stored as BIGINT.
type Quantity int64

const QuantityScale int64 = 10_000

const quantityExp int32 = -4

// NewQuantity converts a decimal to Quantity, rounding to 4 places.
func NewQuantity(d decimal.Decimal) Quantity {
	return Quantity(d.Round(-quantityExp).Shift(-quantityExp).IntPart())
}

// NewQuantityFromInt creates a whole-unit Quantity.
func NewQuantityFromInt(v int64) Quantity { return Quantity(v * QuantityScale) }

func (q Quantity) Int64Scaled() int64 { return int64(q) }

// Decimal returns the exact decimal value.
func (q Quantity) Decimal() decimal.Decimal { return decimal.New(int64(q), quantityExp) }

func (q Quantity) IsZero() bool     { return q == 0 }
func (q Quantity) IsPositive() bool { return q > 0 }

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	return q.Decimal().StringFixed(-quantityExp)
}

// MarshalJSON encodes Quantity as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a string.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	s := string(data)
	if len(data) >= 2 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("empty quantity")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("parse quantity: %w", err)
	}
	*q = NewQuantity(d)
	return nil
}
