// Package types provides money and quantity primitives shared by all domains.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
type Money = decimal.Decimal

// OMRScale is the number of fraction digits of the Omani Rial (1 OMR = 1000 Baisa).
const OMRScale int32 = 3

// BaisaPerRial is the minor-unit multiplier of OMR.
const BaisaPerRial int64 = 1000

// NewMoneyFromString parses a decimal string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney parses a decimal string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// RoundOMR rounds half away from zero to 3 decimals.
func RoundOMR(m Money) Money {
	return m.Round(OMRScale)
}

// SumOMR adds the amounts and rounds the result to OMR precision.
func SumOMR(amounts ...Money) Money {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return RoundOMR(total)
}

// PercentOf returns pct percent of base without rounding.
func PercentOf(base Money, pct decimal.Decimal) Money {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// Baisa is an OMR amount in minor units.
type Baisa int64

// BaisaFromOMR converts an OMR amount to Baisa, rounding to OMR precision first.
func BaisaFromOMR(m Money) Baisa {
	return Baisa(RoundOMR(m).Shift(OMRScale).IntPart())
}

// OMR converts Baisa back to a 3-decimal OMR amount.
func (b Baisa) OMR() Money {
	return decimal.New(int64(b), -OMRScale)
}

func (b Baisa) IsZero() bool     { return b == 0 }
func (b Baisa) IsNegative() bool { return b < 0 }
func (b Baisa) Abs() Baisa {
	if b < 0 {
		return -b
	}
	return b
}
