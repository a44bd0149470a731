// Package vat implements Oman VAT arithmetic, VAT registration numbers and
// the per-company VAT Configuration.
package vat

import (
	"github.com/shopspring/decimal"

	"workshop/internal/core/types"
)

// StandardRate is the Oman standard VAT rate (5 %).
var StandardRate = decimal.RequireFromString("0.05")

// ZeroRate applies to zero-rated, exempt and out-of-scope supplies.
var ZeroRate = decimal.Zero

// Category classifies a supply for VAT.
type Category string

const (
	CategoryStandard   Category = "standard"
	CategoryZeroRated  Category = "zero_rated"
	CategoryExempt     Category = "exempt"
	CategoryOutOfScope Category = "out_of_scope"
)

// Categories lists all categories in reporting order.
var Categories = []Category{CategoryStandard, CategoryZeroRated, CategoryExempt, CategoryOutOfScope}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryStandard, CategoryZeroRated, CategoryExempt, CategoryOutOfScope:
		return true
	}
	return false
}

// RateFor returns the VAT rate of the category. Unknown categories are taxed
// at the standard rate.
func RateFor(c Category) decimal.Decimal {
	switch c {
	case CategoryZeroRated, CategoryExempt, CategoryOutOfScope:
		return ZeroRate
	default:
		return StandardRate
	}
}

// Calculate returns the standard-rate VAT of base rounded to 3 decimals.
func Calculate(base types.Money) types.Money {
	return CalculateAt(base, StandardRate)
}

// CalculateAt returns round3(base × rate).
func CalculateAt(base types.Money, rate decimal.Decimal) types.Money {
	return types.RoundOMR(base.Mul(rate))
}

// ExtractInclusive splits a VAT-inclusive amount. net + vat == gross exactly
// when gross has at most 3 decimals.
func ExtractInclusive(gross types.Money, rate decimal.Decimal) (net, vat types.Money) {
	if rate.IsZero() {
		return gross, decimal.Zero
	}
	net = types.RoundOMR(gross.Div(decimal.NewFromInt(1).Add(rate)))
	return net, gross.Sub(net)
}

// Allocate distributes total over weights proportionally. Each share is rounded
// to 3 decimals and the rounding remainder goes to the largest weight, so the
// shares always sum to total.
func Allocate(total types.Money, weights []types.Money) []types.Money {
	if len(weights) == 0 {
		return nil
	}

	shares := make([]types.Money, len(weights))
	sum := decimal.Zero
	largest := 0
	for i, w := range weights {
		sum = sum.Add(w)
		if w.Abs().GreaterThan(weights[largest].Abs()) {
			largest = i
		}
	}

	allocated := decimal.Zero
	for i, w := range weights {
		if sum.IsZero() {
			shares[i] = decimal.Zero
			continue
		}
		shares[i] = types.RoundOMR(total.Mul(w).Div(sum))
		allocated = allocated.Add(shares[i])
	}

	shares[largest] = shares[largest].Add(total.Sub(allocated))
	return shares
}
