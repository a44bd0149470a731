//go:build integration

package document_repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/core/types"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/catalogs/currency"
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/infrastructure/storage/postgres/catalog_repo"
	"workshop/internal/infrastructure/storage/postgres/document_repo"
	"workshop/internal/infrastructure/storage/postgres/pgtest"
)

func TestSalesInvoiceRepoRoundTrip(t *testing.T) {
	db := pgtest.New(t)
	ctx := db.Context(context.Background())

	omr := currency.NewOMR()
	co := company.NewCompany("MSC", "Muscat Service Centre", omr.ID)
	cust := customer.NewCustomer("C-001", "Al Amal Trading")

	repo := document_repo.NewSalesInvoiceRepo()
	inv := sales_invoice.NewSalesInvoice(co.ID, cust.ID)
	inv.CurrencyID = omr.ID
	inv.CustomerName = cust.Name
	inv.Date = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	due := inv.Date.AddDate(0, 0, 30)
	inv.DueDate = &due
	inv.AddLine("OIL-5W30", sales_invoice.ItemPart, types.NewQuantityFromInt(2), decimal.RequireFromString("4.250"))
	inv.AddLine("LAB-SRV", sales_invoice.ItemLabour, types.NewQuantityFromInt(1), decimal.RequireFromString("12.000"))

	err := db.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := catalog_repo.NewCurrencyRepo().Create(ctx, omr); err != nil {
			return err
		}
		if err := catalog_repo.NewCompanyRepo().Create(ctx, co); err != nil {
			return err
		}
		if err := catalog_repo.NewCustomerRepo().Create(ctx, cust); err != nil {
			return err
		}
		if err := repo.Create(ctx, inv); err != nil {
			return err
		}
		return repo.SaveLines(ctx, inv.ID, inv.Lines)
	})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, cust.ID, got.CustomerID)
	assert.True(t, inv.GrandTotal.Equal(got.GrandTotal), "grand total %s", got.GrandTotal)

	lines, err := repo.GetLines(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "OIL-5W30", lines[0].ItemCode)
	assert.Equal(t, types.NewQuantityFromInt(2), lines[0].Quantity)
	assert.True(t, inv.Lines[1].VATAmount.Equal(lines[1].VATAmount))

	// replacing lines keeps only the new set
	require.NoError(t, db.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.SaveLines(ctx, inv.ID, inv.Lines[:1])
	}))
	lines, err = repo.GetLines(ctx, inv.ID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	// submitted and unpaid past its due date
	inv.DocStatus = entity.DocStatusSubmitted
	inv.Status = sales_invoice.StatusUnpaid
	require.NoError(t, db.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.Update(ctx, inv)
	}))

	overdue, err := repo.ListOverdueCandidates(ctx, due.AddDate(0, 0, 1), 10)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, inv.ID, overdue[0].ID)

	none, err := repo.ListOverdueCandidates(ctx, due, 10)
	require.NoError(t, err)
	assert.Empty(t, none)

	payment := sales_invoice.Payment{
		ID:        id.New(),
		InvoiceID: inv.ID,
		Date:      due,
		Amount:    decimal.RequireFromString("5.000"),
		Method:    "cash",
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.TxManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.AddPayment(ctx, payment)
	}))
	payments, err := repo.ListPayments(ctx, inv.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "cash", payments[0].Method)
	assert.True(t, payment.Amount.Equal(payments[0].Amount))
}
