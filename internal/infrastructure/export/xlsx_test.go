package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
)

func sampleWorkbook(arabic bool) analytics.Workbook {
	d := decimal.RequireFromString
	due := time.Date(2025, 2, 9, 0, 0, 0, 0, time.UTC)
	return analytics.Workbook{
		Arabic: arabic,
		Dashboard: &analytics.Dashboard{
			From:           time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			To:             time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			InvoiceCount:   2,
			NetRevenue:     d("200.000"),
			VATCollected:   d("10.000"),
			GrossRevenue:   d("210.000"),
			Collected:      d("105.000"),
			Outstanding:    d("105.000"),
			AverageInvoice: d("105.000"),
			CollectionRate: d("50"),
			MonthlyTrend: []analytics.MonthPoint{
				{Month: "2025-01", InvoiceCount: 2, Net: d("200"), VAT: d("10"), Gross: d("210")},
			},
			TopCustomers: []analytics.CustomerRevenue{
				{CustomerID: id.New(), CustomerName: "Al Amal Trading", InvoiceCount: 2, Gross: d("210.0004"), Outstanding: d("105")},
			},
			ByItemType: []analytics.ItemTypeRevenue{{ItemType: "part", Net: d("200"), VAT: d("10"), Share: d("100")}},
		},
		VATReturn: &analytics.VATReturn{
			Period:                "2025-Q1",
			InvoiceCount:          2,
			StandardRatedSupplies: d("200"),
			OutputVAT:             d("10"),
			TotalSupplies:         d("200"),
		},
		Invoices: []analytics.InvoiceFact{
			{Number: "INV-2025-00001", Date: due.AddDate(0, 0, -30), DueDate: &due, CustomerName: "Al Amal Trading",
				NetTotal: d("100"), VATTotal: d("5"), GrandTotal: d("105"), PaidAmount: d("105"), Outstanding: d("0")},
			{Number: "INV-2025-00002", Date: due.AddDate(0, 0, -25), CustomerName: "Al Amal Trading",
				NetTotal: d("100"), VATTotal: d("5"), GrandTotal: d("105"), PaidAmount: d("0"), Outstanding: d("105")},
		},
	}
}

func TestBuildSheets(t *testing.T) {
	f, err := Build(sampleWorkbook(false))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSummary, SheetMonthlyTrend, SheetTopCustomers, SheetVATReturn, SheetInvoices}, f.GetSheetList())

	v, err := f.GetCellValue(SheetSummary, "A5")
	require.NoError(t, err)
	assert.Equal(t, "Net revenue", v)
	v, _ = f.GetCellValue(SheetSummary, "B5")
	assert.Equal(t, "200.000", v)
	v, _ = f.GetCellValue(SheetSummary, "B2")
	assert.Equal(t, "2025-01-01", v)

	v, _ = f.GetCellValue(SheetTopCustomers, "D2")
	assert.Equal(t, "210.000", v, "amounts are rounded to Baisa")

	v, _ = f.GetCellValue(SheetVATReturn, "B5")
	assert.Equal(t, "10.000", v)

	v, _ = f.GetCellValue(SheetInvoices, "A3")
	assert.Equal(t, "INV-2025-00002", v)
	v, _ = f.GetCellValue(SheetInvoices, "C3")
	assert.Equal(t, "", v)
	v, _ = f.GetCellValue(SheetInvoices, "I3")
	assert.Equal(t, "105.000", v)
}

func TestBuildArabic(t *testing.T) {
	f, err := Build(sampleWorkbook(true))
	require.NoError(t, err)
	defer f.Close()

	v, _ := f.GetCellValue(SheetSummary, "A1")
	assert.Equal(t, "المؤشر", v)

	opts, err := f.GetSheetView(SheetSummary, 0)
	require.NoError(t, err)
	require.NotNil(t, opts.RightToLeft)
	assert.True(t, *opts.RightToLeft)
}

func TestWriteProducesReadableFile(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewXLSX().Write(&buf, sampleWorkbook(false)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetMonthlyTrend)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2025-01", rows[1][0])
}

func TestBuildRequiresDashboard(t *testing.T) {
	_, err := Build(analytics.Workbook{})
	assert.Error(t, err)
}
