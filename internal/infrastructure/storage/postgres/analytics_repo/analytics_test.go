package analytics_repo

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
)

func testFilter() analytics.Filter {
	return analytics.Filter{
		CompanyID: id.New(),
		From:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		To:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestLineFactsQuery(t *testing.T) {
	f := testFilter()

	sql, args, err := NewAnalyticsRepo().lineFactsQuery(f).ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT l.item_type, l.vat_category, SUM(l.net_amount) AS net_amount, SUM(l.vat_amount) AS vat_amount "+
			"FROM doc_sales_invoice_lines l JOIN doc_sales_invoices d ON d.id = l.document_id "+
			"WHERE (d.company_id = $1 AND d.deletion_mark = $2 AND d.docstatus = $3 AND d.date >= $4 AND d.date <= $5) "+
			"GROUP BY l.item_type, l.vat_category ORDER BY l.item_type, l.vat_category",
		sql)
	assert.Equal(t, []any{f.CompanyID, false, "submitted", f.From, f.To}, args)
}

func TestInvoiceFactsQuery(t *testing.T) {
	f := testFilter()

	sql, _, err := NewAnalyticsRepo().invoiceFactsQuery(f).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "SELECT id, number, date, due_date, customer_id, customer_name, net_total")
	assert.Contains(t, sql, "WHERE (company_id = $1 AND deletion_mark = $2 AND docstatus = $3 AND date >= $4 AND date <= $5)")
	assert.Contains(t, sql, "ORDER BY date, number")
}

func TestUpsertQuery(t *testing.T) {
	s := analytics.NewSnapshot("2025-03", &analytics.Dashboard{
		CompanyID:  id.New(),
		NetRevenue: decimal.RequireFromString("65.000"),
		MonthlyTrend: []analytics.MonthPoint{
			{Month: "2025-03", InvoiceCount: 1, Net: decimal.RequireFromString("65.000")},
		},
	})

	sql, args, err := NewAnalyticsRepo().upsertQuery(s)
	require.NoError(t, err)

	assert.Contains(t, sql, "INSERT INTO ana_snapshots (id, deletion_mark, version")
	assert.Contains(t, sql, "ON CONFLICT (company_id, period) DO UPDATE SET")
	assert.Contains(t, sql, "net_revenue = EXCLUDED.net_revenue")
	assert.Contains(t, sql, "details = EXCLUDED.details")
	assert.Contains(t, sql, "version = ana_snapshots.version + 1")
	assert.NotContains(t, sql, "id = EXCLUDED.id")
	assert.NotContains(t, sql, "created_at = EXCLUDED")
	assert.Contains(t, sql, "RETURNING id, created_at, created_by, version")

	var d details
	require.NoError(t, json.Unmarshal(args[len(args)-1].([]byte), &d))
	require.Len(t, d.MonthlyTrend, 1)
	assert.Equal(t, "2025-03", d.MonthlyTrend[0].Month)
}

func TestSnapshotRowDecodesDetails(t *testing.T) {
	payload, err := json.Marshal(details{
		TopCustomers: []analytics.CustomerRevenue{{CustomerName: "Al Noor Trading", InvoiceCount: 3}},
	})
	require.NoError(t, err)

	row := snapshotRow{Snapshot: analytics.Snapshot{Period: "2025-Q1"}, Details: payload}
	s, err := row.snapshot()
	require.NoError(t, err)
	assert.Equal(t, "2025-Q1", s.Period)
	require.Len(t, s.TopCustomers, 1)
	assert.Equal(t, "Al Noor Trading", s.TopCustomers[0].CustomerName)

	row.Details = []byte("{")
	_, err = row.snapshot()
	assert.Error(t, err)
}
