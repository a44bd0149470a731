package vat

import (
	"github.com/shopspring/decimal"

	"workshop/internal/core/types"
)

// Line is one taxable amount of an invoice: the line amount after discount,
// VAT-exclusive or VAT-inclusive depending on the invoice.
type Line struct {
	Amount   types.Money
	Category Category
}

// CategoryTotal is the taxable base and VAT of one category.
type CategoryTotal struct {
	Category Category        `json:"category"`
	Rate     decimal.Decimal `json:"rate"`
	Taxable  types.Money     `json:"taxable"`
	VAT      types.Money     `json:"vat"`
}

// Breakdown is the VAT result of a whole invoice.
type Breakdown struct {
	Categories []CategoryTotal `json:"categories"`
	// LineNet and LineVAT are parallel to the input lines
	LineNet    []types.Money `json:"lineNet"`
	LineVAT    []types.Money `json:"lineVat"`
	NetTotal   types.Money   `json:"netTotal"`
	VATTotal   types.Money   `json:"vatTotal"`
	GrandTotal types.Money   `json:"grandTotal"`
}

// Compute rounds VAT once per category at invoice level and allocates it back
// to the lines of that category. With pricesIncludeVAT the line amounts are
// gross and the net is extracted per category.
func Compute(lines []Line, pricesIncludeVAT bool) Breakdown {
	b := Breakdown{
		LineNet:    make([]types.Money, len(lines)),
		LineVAT:    make([]types.Money, len(lines)),
		NetTotal:   decimal.Zero,
		VATTotal:   decimal.Zero,
		GrandTotal: decimal.Zero,
	}

	for _, cat := range Categories {
		var idx []int
		var weights []types.Money
		amount := decimal.Zero
		for i, l := range lines {
			if normalizeCategory(l.Category) != cat {
				continue
			}
			a := types.RoundOMR(l.Amount)
			idx = append(idx, i)
			weights = append(weights, a)
			amount = amount.Add(a)
		}
		if len(idx) == 0 {
			continue
		}

		rate := RateFor(cat)
		var net, tax types.Money
		if pricesIncludeVAT {
			net, tax = ExtractInclusive(amount, rate)
		} else {
			net, tax = amount, CalculateAt(amount, rate)
		}

		shares := Allocate(tax, weights)
		for k, i := range idx {
			b.LineVAT[i] = shares[k]
			if pricesIncludeVAT {
				b.LineNet[i] = weights[k].Sub(shares[k])
			} else {
				b.LineNet[i] = weights[k]
			}
		}

		b.Categories = append(b.Categories, CategoryTotal{Category: cat, Rate: rate, Taxable: net, VAT: tax})
		b.NetTotal = b.NetTotal.Add(net)
		b.VATTotal = b.VATTotal.Add(tax)
	}

	b.GrandTotal = b.NetTotal.Add(b.VATTotal)
	return b
}

// TotalFor returns the category entry, zero when the category is absent.
func (b Breakdown) TotalFor(c Category) CategoryTotal {
	for _, ct := range b.Categories {
		if ct.Category == c {
			return ct
		}
	}
	return CategoryTotal{Category: c, Rate: RateFor(c), Taxable: decimal.Zero, VAT: decimal.Zero}
}

func normalizeCategory(c Category) Category {
	if c == "" || !c.IsValid() {
		return CategoryStandard
	}
	return c
}
