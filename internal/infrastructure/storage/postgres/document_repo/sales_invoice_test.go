package document_repo

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/types"
	"workshop/internal/domain"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/filter"
)

func whereClause(t *testing.T, sql string) string {
	t.Helper()
	_, where, ok := strings.Cut(sql, " WHERE ")
	require.True(t, ok, sql)
	return where
}

func TestSalesInvoiceListConditions(t *testing.T) {
	repo := NewSalesInvoiceRepo()
	customerID := id.New()
	companyID := id.New()

	f := sales_invoice.ListFilter{
		ListFilter: domain.ListFilter{CompanyID: &companyID, Search: "A 1234"},
		CustomerID: &customerID,
		Statuses:   []sales_invoice.Status{sales_invoice.StatusUnpaid, sales_invoice.StatusOverdue},
		DocStatus:  "submitted",
	}
	q, err := repo.filteredSelect(f.ListFilter, invoiceConditions(f)...)
	require.NoError(t, err)

	sql, args, err := q.ToSql()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sql, "SELECT id, deletion_mark, version"), sql)
	assert.Equal(t,
		"deletion_mark = $1 AND (number ILIKE $2 OR customer_name ILIKE $3 OR vehicle_plate ILIKE $4 OR job_card ILIKE $5) "+
			"AND company_id = $6 AND customer_id = $7 AND status IN ($8,$9) AND docstatus = $10",
		whereClause(t, sql))
	assert.Equal(t, []any{
		false, "%A 1234%", "%A 1234%", "%A 1234%", "%A 1234%",
		companyID, customerID, "unpaid", "overdue", "submitted",
	}, args)
}

func TestSalesInvoiceAdvancedFilterColumns(t *testing.T) {
	repo := NewSalesInvoiceRepo()

	q, err := repo.filteredSelect(domain.ListFilter{AdvancedFilters: []filter.Item{
		{Field: "grand_total", Operator: filter.Greater, Value: 100},
	}})
	require.NoError(t, err)
	sql, _, err := q.ToSql()
	require.NoError(t, err)
	assert.Equal(t, "deletion_mark = $1 AND grand_total > $2", whereClause(t, sql))

	_, err = repo.filteredSelect(domain.ListFilter{AdvancedFilters: []filter.Item{
		{Field: "lines", Operator: filter.Equal, Value: 1},
	}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestSalesInvoiceOrderBy(t *testing.T) {
	repo := NewSalesInvoiceRepo()

	order, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "date DESC", order)

	order, err = repo.parseOrderBy("-grand_total")
	require.NoError(t, err)
	assert.Equal(t, "grand_total DESC", order)

	order, err = repo.parseOrderBy("+due_date")
	require.NoError(t, err)
	assert.Equal(t, "due_date ASC", order)

	_, err = repo.parseOrderBy("1; DROP TABLE doc_sales_invoices")
	assert.Error(t, err)
}

func TestLineRows(t *testing.T) {
	docID := id.New()
	inv := sales_invoice.NewSalesInvoice(id.New(), id.New())
	inv.AddLine("OIL-5W30", sales_invoice.ItemPart, types.NewQuantityFromInt(2), decimal.RequireFromString("12.5"))
	inv.AddLine("LAB-SVC", sales_invoice.ItemLabour, types.NewQuantityFromInt(1), decimal.NewFromInt(40))

	cols, rows := lineRows(docID, inv.Lines)
	require.Len(t, rows, 2)
	assert.Equal(t, "document_id", cols[0])
	assert.Contains(t, cols, "vat_amount")
	assert.NotContains(t, cols, "lines")

	for _, row := range rows {
		assert.Len(t, row, len(cols))
		assert.Equal(t, docID, row[0])
	}

	idx := func(col string) int {
		for i, c := range cols {
			if c == col {
				return i
			}
		}
		t.Fatalf("column %s missing", col)
		return -1
	}
	assert.Equal(t, "OIL-5W30", rows[0][idx("item_code")])
	assert.Equal(t, 2, rows[1][idx("line_no")])
	assert.True(t, decimal.RequireFromString("1.25").Equal(rows[0][idx("vat_amount")].(types.Money)))
}
