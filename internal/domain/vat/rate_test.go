package vat

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/types"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "want %s, got %s", want, got)
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		base string
		want string
	}{
		{"100", "5"},
		{"0.010", "0.001"},  // 0.0005 rounds up
		{"0.009", "0"},      // 0.00045 rounds down
		{"12.345", "0.617"}, // 0.61725
		{"-12.345", "-0.617"},
		{"0.030", "0.002"}, // 0.0015 half away from zero
		{"-0.030", "-0.002"},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			assertMoney(t, tt.want, Calculate(d(tt.base)))
		})
	}
}

func TestRateFor(t *testing.T) {
	assertMoney(t, "0.05", RateFor(CategoryStandard))
	assertMoney(t, "0", RateFor(CategoryZeroRated))
	assertMoney(t, "0", RateFor(CategoryExempt))
	assertMoney(t, "0", RateFor(CategoryOutOfScope))
	assertMoney(t, "0.05", RateFor("bogus"))
}

func TestExtractInclusive(t *testing.T) {
	net, tax := ExtractInclusive(d("105"), StandardRate)
	assertMoney(t, "100", net)
	assertMoney(t, "5", tax)

	net, tax = ExtractInclusive(d("10"), StandardRate)
	assertMoney(t, "9.524", net)
	assertMoney(t, "0.476", tax)
	assertMoney(t, "10", net.Add(tax))

	net, tax = ExtractInclusive(d("10"), ZeroRate)
	assertMoney(t, "10", net)
	assertMoney(t, "0", tax)
}

func TestAllocateSumsToTotal(t *testing.T) {
	weights := []types.Money{d("0.333"), d("0.333"), d("0.334")}
	shares := Allocate(d("0.050"), weights)
	require.Len(t, shares, 3)
	assertMoney(t, "0.050", types.SumOMR(shares...))
	assertMoney(t, "0.016", shares[2]) // remainder lands on the largest weight

	assert.Nil(t, Allocate(d("1"), nil))

	zero := Allocate(d("0.005"), []types.Money{decimal.Zero, decimal.Zero})
	assertMoney(t, "0.005", types.SumOMR(zero...))
}

func TestComputeExclusive(t *testing.T) {
	lines := []Line{
		{Amount: d("3.333"), Category: CategoryStandard},
		{Amount: d("3.333"), Category: CategoryStandard},
		{Amount: d("3.333"), Category: CategoryStandard},
		{Amount: d("20"), Category: CategoryZeroRated},
	}
	b := Compute(lines, false)

	// invoice level: round3(9.999 × 0.05) = 0.500, not 3 × round3(0.16665) = 0.501
	assertMoney(t, "0.5", b.VATTotal)
	assertMoney(t, "29.999", b.NetTotal)
	assertMoney(t, "30.499", b.GrandTotal)
	assertMoney(t, "0.5", types.SumOMR(b.LineVAT...))
	assertMoney(t, "0", b.LineVAT[3])

	require.Len(t, b.Categories, 2)
	assertMoney(t, "9.999", b.TotalFor(CategoryStandard).Taxable)
	assertMoney(t, "20", b.TotalFor(CategoryZeroRated).Taxable)
	assertMoney(t, "0", b.TotalFor(CategoryExempt).Taxable)
}

func TestComputeInclusive(t *testing.T) {
	lines := []Line{
		{Amount: d("10"), Category: CategoryStandard},
		{Amount: d("5.25"), Category: ""},
	}
	b := Compute(lines, true)

	assertMoney(t, "15.25", b.GrandTotal)
	assertMoney(t, "14.524", b.NetTotal)
	assertMoney(t, "0.726", b.VATTotal)
	for i, l := range lines {
		assertMoney(t, l.Amount.String(), b.LineNet[i].Add(b.LineVAT[i]))
	}
}
