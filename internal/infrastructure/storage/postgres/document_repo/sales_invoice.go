package document_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/infrastructure/storage/postgres"
)

const (
	salesInvoiceTable        = "doc_sales_invoices"
	salesInvoiceLinesTable   = "doc_sales_invoice_lines"
	salesInvoicePaymentTable = "doc_sales_invoice_payments"
)

var (
	salesInvoiceLineCols    = postgres.ExtractDBColumns[sales_invoice.Line]()
	salesInvoicePaymentCols = postgres.ExtractDBColumns[sales_invoice.Payment]()
)

// SalesInvoiceRepo implements sales_invoice.Repository.
type SalesInvoiceRepo struct {
	*BaseDocumentRepo[*sales_invoice.SalesInvoice]
}

// NewSalesInvoiceRepo creates a new sales invoice repository.
func NewSalesInvoiceRepo() *SalesInvoiceRepo {
	return &SalesInvoiceRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			salesInvoiceTable,
			postgres.ExtractDBColumns[sales_invoice.SalesInvoice](),
			[]string{"number", "customer_name", "vehicle_plate", "job_card"},
			func() *sales_invoice.SalesInvoice { return &sales_invoice.SalesInvoice{} },
		),
	}
}

var _ sales_invoice.Repository = (*SalesInvoiceRepo)(nil)

// List applies the invoice-specific filters on top of the common ones.
func (r *SalesInvoiceRepo) List(ctx context.Context, f sales_invoice.ListFilter) (domain.ListResult[*sales_invoice.SalesInvoice], error) {
	return r.BaseDocumentRepo.List(ctx, f.ListFilter, invoiceConditions(f)...)
}

func invoiceConditions(f sales_invoice.ListFilter) []squirrel.Sqlizer {
	var conds []squirrel.Sqlizer
	if f.CustomerID != nil {
		conds = append(conds, squirrel.Eq{"customer_id": *f.CustomerID})
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		conds = append(conds, squirrel.Eq{"status": statuses})
	}
	if f.DocStatus != "" {
		conds = append(conds, squirrel.Eq{"docstatus": f.DocStatus})
	}
	return conds
}

// ListOverdueCandidates returns open submitted invoices due before date,
// oldest due date first.
func (r *SalesInvoiceRepo) ListOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]*sales_invoice.SalesInvoice, error) {
	return r.FindMany(ctx, squirrel.And{
		squirrel.Eq{
			"docstatus":     string(entity.DocStatusSubmitted),
			"status":        []string{string(sales_invoice.StatusUnpaid), string(sales_invoice.StatusPartlyPaid)},
			"deletion_mark": false,
		},
		squirrel.Lt{"due_date": before},
	}, "due_date ASC", limit)
}

// GetLines returns the lines of a document ordered by line number.
func (r *SalesInvoiceRepo) GetLines(ctx context.Context, docID id.ID) ([]sales_invoice.Line, error) {
	sql, args, err := r.Builder().
		Select(salesInvoiceLineCols...).
		From(salesInvoiceLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	lines := make([]sales_invoice.Line, 0)
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces the lines of a document: delete, then COPY.
func (r *SalesInvoiceRepo) SaveLines(ctx context.Context, docID id.ID, lines []sales_invoice.Line) error {
	txm := r.getTxManager(ctx)

	sql, args, err := r.Builder().
		Delete(salesInvoiceLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}
	if _, err := txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	cols, rows := lineRows(docID, lines)
	if _, err := postgres.NewBatchInserter(txm).CopyFromSlice(ctx, salesInvoiceLinesTable, cols, rows); err != nil {
		return fmt.Errorf("copy lines: %w", err)
	}
	return nil
}

// lineRows converts lines to COPY rows, document_id first.
func lineRows(docID id.ID, lines []sales_invoice.Line) ([]string, [][]any) {
	cols := append([]string{"document_id"}, salesInvoiceLineCols...)
	rows := make([][]any, len(lines))
	for i := range lines {
		values := postgres.StructToMap(&lines[i])
		row := make([]any, len(cols))
		row[0] = docID
		for j, col := range salesInvoiceLineCols {
			row[j+1] = values[col]
		}
		rows[i] = row
	}
	return cols, rows
}

// AddPayment stores a receipt.
func (r *SalesInvoiceRepo) AddPayment(ctx context.Context, p sales_invoice.Payment) error {
	sql, args, err := r.Builder().
		Insert(salesInvoicePaymentTable).
		SetMap(postgres.StructToMap(&p)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert payment: %w", err)
	}
	if _, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// ListPayments returns receipts of an invoice in date order.
func (r *SalesInvoiceRepo) ListPayments(ctx context.Context, docID id.ID) ([]sales_invoice.Payment, error) {
	sql, args, err := r.Builder().
		Select(salesInvoicePaymentCols...).
		From(salesInvoicePaymentTable).
		Where(squirrel.Eq{"invoice_id": docID}).
		OrderBy("date", "created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	payments := make([]sales_invoice.Payment, 0)
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return payments, nil
}
