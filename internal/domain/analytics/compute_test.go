package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/id"
	"workshop/internal/core/types"
	"workshop/internal/domain/vat"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, dd int) time.Time { return time.Date(y, m, dd, 0, 0, 0, 0, time.UTC) }

func ptr[T any](v T) *T { return &v }

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.Equal(t, want, got.StringFixed(types.OMRScale))
}

var (
	custX = id.New()
	custY = id.New()
)

func sampleInvoices() []InvoiceFact {
	return []InvoiceFact{
		{ID: id.New(), Number: "INV-2025-00001", Date: day(2025, 1, 15), CustomerID: custX, CustomerName: "Al Noor Trading",
			NetTotal: d("100"), VATTotal: d("5"), GrandTotal: d("105"), PaidAmount: d("105"), Outstanding: d("0")},
		{ID: id.New(), Number: "INV-2025-00002", Date: day(2025, 2, 10), DueDate: ptr(day(2025, 2, 20)), CustomerID: custY, CustomerName: "Sohar Logistics",
			NetTotal: d("200"), VATTotal: d("10"), GrandTotal: d("210"), PaidAmount: d("50"), Outstanding: d("160")},
		{ID: id.New(), Number: "INV-2025-00003", Date: day(2025, 2, 25), DueDate: ptr(day(2025, 3, 27)), CustomerID: custX, CustomerName: "Al Noor Trading",
			NetTotal: d("40"), VATTotal: d("2"), GrandTotal: d("42"), PaidAmount: d("0"), Outstanding: d("42")},
	}
}

func sampleLines() []LineFact {
	return []LineFact{
		{ItemType: "part", VATCategory: vat.CategoryStandard, NetAmount: d("240"), VATAmount: d("12")},
		{ItemType: "labour", VATCategory: vat.CategoryStandard, NetAmount: d("100"), VATAmount: d("5")},
	}
}

func TestBuildDashboard(t *testing.T) {
	f := Filter{CompanyID: id.New(), From: day(2025, 1, 1), To: day(2025, 3, 31), AsOf: day(2025, 3, 31)}
	db := BuildDashboard(f, sampleInvoices(), sampleLines())

	assert.Equal(t, 3, db.InvoiceCount)
	assertMoney(t, "340.000", db.NetRevenue)
	assertMoney(t, "17.000", db.VATCollected)
	assertMoney(t, "357.000", db.GrossRevenue)
	assertMoney(t, "155.000", db.Collected)
	assertMoney(t, "202.000", db.Outstanding)
	assertMoney(t, "119.000", db.AverageInvoice)
	assert.Equal(t, "43.42", db.CollectionRate.StringFixed(2))

	require.Len(t, db.MonthlyTrend, 2)
	assert.Equal(t, "2025-01", db.MonthlyTrend[0].Month)
	assert.Equal(t, 2, db.MonthlyTrend[1].InvoiceCount)
	assertMoney(t, "252.000", db.MonthlyTrend[1].Gross)

	require.Len(t, db.TopCustomers, 2)
	assert.Equal(t, custY, db.TopCustomers[0].CustomerID)
	assertMoney(t, "147.000", db.TopCustomers[1].Gross)
	assertMoney(t, "42.000", db.TopCustomers[1].Outstanding)

	require.Len(t, db.ByItemType, 2)
	assert.Equal(t, "part", db.ByItemType[0].ItemType)
	assert.Equal(t, "70.59", db.ByItemType[0].Share.StringFixed(2))
	assert.Equal(t, "29.41", db.ByItemType[1].Share.StringFixed(2))

	assertMoney(t, "0.000", db.Aging.Current)
	assertMoney(t, "42.000", db.Aging.Days1To30)
	assertMoney(t, "160.000", db.Aging.Days31To60)
	assertMoney(t, "202.000", db.Aging.Total())
}

func TestBuildDashboardTopN(t *testing.T) {
	f := Filter{CompanyID: id.New(), TopN: 1, AsOf: day(2025, 3, 31)}
	db := BuildDashboard(f, sampleInvoices(), nil)
	require.Len(t, db.TopCustomers, 1)
	assert.Equal(t, "Sohar Logistics", db.TopCustomers[0].CustomerName)
	assert.Empty(t, db.ByItemType)
}

func TestBuildDashboardEmpty(t *testing.T) {
	db := BuildDashboard(Filter{}, nil, nil)
	assert.Zero(t, db.InvoiceCount)
	assert.True(t, db.AverageInvoice.IsZero())
	assert.True(t, db.CollectionRate.IsZero())
	assert.NotNil(t, db.MonthlyTrend)
	assert.NotNil(t, db.TopCustomers)
}

func TestAgeReceivables(t *testing.T) {
	asOf := day(2025, 6, 30)
	invoices := []InvoiceFact{
		{Date: day(2025, 6, 1), DueDate: ptr(day(2025, 7, 1)), Outstanding: d("1")},
		{Date: day(2025, 6, 30), Outstanding: d("2")},
		{Date: day(2025, 5, 31), Outstanding: d("4")},
		{Date: day(2025, 5, 1), Outstanding: d("8")},
		{Date: day(2025, 4, 1), Outstanding: d("16")},
		{Date: day(2025, 3, 1), Outstanding: d("32")},
		{Date: day(2025, 1, 1), Outstanding: d("0")},
	}
	a := AgeReceivables(invoices, asOf)

	assertMoney(t, "3.000", a.Current)
	assertMoney(t, "4.000", a.Days1To30)
	assertMoney(t, "8.000", a.Days31To60)
	assertMoney(t, "16.000", a.Days61To90)
	assertMoney(t, "32.000", a.Over90)
}

func TestBuildVATReturn(t *testing.T) {
	lines := []LineFact{
		{ItemType: "part", VATCategory: vat.CategoryStandard, NetAmount: d("240.500"), VATAmount: d("12.025")},
		{ItemType: "labour", VATCategory: vat.CategoryZeroRated, NetAmount: d("20")},
		{ItemType: "service", VATCategory: vat.CategoryExempt, NetAmount: d("15")},
		{ItemType: "service", VATCategory: vat.CategoryOutOfScope, NetAmount: d("5")},
	}
	r := BuildVATReturn(Filter{}, 4, lines)

	assert.Equal(t, 4, r.InvoiceCount)
	assertMoney(t, "240.500", r.StandardRatedSupplies)
	assertMoney(t, "12.025", r.OutputVAT)
	assertMoney(t, "20.000", r.ZeroRatedSupplies)
	assertMoney(t, "15.000", r.ExemptSupplies)
	assertMoney(t, "5.000", r.OutOfScopeSupplies)
	assertMoney(t, "280.500", r.TotalSupplies)
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := Filter{CompanyID: id.New(), From: day(2025, 1, 1), To: day(2025, 3, 31), AsOf: day(2025, 3, 31)}
	db := BuildDashboard(f, sampleInvoices(), sampleLines())

	snap := NewSnapshot("2025-Q1", db)
	require.NoError(t, snap.Validate(context.Background()))
	back := snap.Dashboard()
	assert.Equal(t, db.Aging, back.Aging)
	assert.Equal(t, db.TopCustomers, back.TopCustomers)
	assertMoney(t, "357.000", back.GrossRevenue)

	snap.PeriodEnd = day(2024, 12, 31)
	assert.Error(t, snap.Validate(context.Background()))
}
