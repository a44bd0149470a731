package sales_invoice

import (
	"context"
	"time"

	"workshop/internal/core/id"
	"workshop/internal/domain"
)

// Repository defines operations for sales invoices.
type Repository interface {
	Create(ctx context.Context, doc *SalesInvoice) error
	GetByID(ctx context.Context, docID id.ID) (*SalesInvoice, error)
	GetByNumber(ctx context.Context, number string) (*SalesInvoice, error)
	// Update writes the header with optimistic locking
	Update(ctx context.Context, doc *SalesInvoice) error
	SetDeletionMark(ctx context.Context, docID id.ID, marked bool) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	// SaveLines replaces all lines of the invoice
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	AddPayment(ctx context.Context, p Payment) error
	ListPayments(ctx context.Context, docID id.ID) ([]Payment, error)

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesInvoice], error)

	// ListOverdueCandidates returns open submitted invoices due before date.
	ListOverdueCandidates(ctx context.Context, before time.Time, limit int) ([]*SalesInvoice, error)

	// GetForUpdate retrieves the header with a row lock.
	GetForUpdate(ctx context.Context, docID id.ID) (*SalesInvoice, error)
}

// ListFilter for filtering sales invoices.
type ListFilter struct {
	domain.ListFilter

	CustomerID *id.ID
	Statuses   []Status
	DocStatus  string
}
