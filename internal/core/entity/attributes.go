// Package entity provides base types for all domain entities.
package entity

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Attributes holds values of custom fields that a DocType customization adds on
// top of the built-in schema. Stored as JSONB.
//
// Numbers are decoded as json.Number so money values keep all 3 decimals.
type Attributes map[string]any

// Scan implements sql.Scanner for reading from PostgreSQL JSONB.
func (a *Attributes) Scan(src any) error {
	if src == nil {
		*a = nil
		return nil
	}

	var source []byte
	switch v := src.(type) {
	case []byte:
		source = v
	case string:
		source = []byte(v)
	case map[string]any:
		*a = v
		return nil
	default:
		return fmt.Errorf("unsupported type for Attributes: %T", src)
	}

	if len(source) == 0 {
		*a = nil
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(source))
	decoder.UseNumber()

	var result map[string]any
	if err := decoder.Decode(&result); err != nil {
		return fmt.Errorf("decode attributes: %w", err)
	}

	*a = result
	return nil
}

// Value implements driver.Valuer for writing to PostgreSQL JSONB.
func (a Attributes) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

// Plain returns the values with JSON numbers converted to int64 or float64
// so rule expressions can compare them. Nested objects are converted too.
func (a Attributes) Plain() map[string]any {
	if a == nil {
		return nil
	}
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case decimal.Decimal:
		f, _ := t.Float64()
		return f
	case map[string]any:
		return Attributes(t).Plain()
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = plainValue(item)
		}
		return out
	}
	return v
}
