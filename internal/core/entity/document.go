package entity

import (
	"context"
	"time"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
)

// DocStatus is the lifecycle state shared by all submittable documents.
type DocStatus string

const (
	DocStatusDraft     DocStatus = "draft"
	DocStatusSubmitted DocStatus = "submitted"
	DocStatusCancelled DocStatus = "cancelled"
)

// Document is the base type for business transactions (invoices, payments).
type Document struct {
	BaseDocument

	// Number is assigned from the naming series, at latest on submit
	Number string `db:"number" json:"number"`

	// Date is the business (posting) date of the document
	Date time.Time `db:"date" json:"date"`

	DocStatus   DocStatus  `db:"docstatus" json:"docstatus"`
	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	CancelledAt *time.Time `db:"cancelled_at" json:"cancelledAt,omitempty"`

	// CompanyID is the issuing company (seller)
	CompanyID id.ID `db:"company_id" json:"companyId"`

	Remarks string `db:"remarks" json:"remarks,omitempty"`
}

// NewDocument creates a draft document dated today.
func NewDocument(companyID id.ID) Document {
	return Document{
		BaseDocument: NewBaseDocument(),
		Date:         time.Now().UTC().Truncate(24 * time.Hour),
		DocStatus:    DocStatusDraft,
		CompanyID:    companyID,
	}
}

// Validate implements Validatable interface.
func (d *Document) Validate(ctx context.Context) error {
	missing := make(map[string]string)
	if id.IsNil(d.CompanyID) {
		missing["companyId"] = "required"
	}
	if d.Date.IsZero() {
		missing["date"] = "required"
	}
	if len(missing) > 0 {
		return apperror.NewRequiredFields(missing)
	}
	return nil
}

// IsDraft reports whether the document can still be edited.
func (d *Document) IsDraft() bool {
	return d.DocStatus == "" || d.DocStatus == DocStatusDraft
}

// CanModify checks if document can be modified.
func (d *Document) CanModify() error {
	if !d.IsDraft() {
		return apperror.NewInvoiceNotDraft(d.Number, string(d.DocStatus))
	}
	return nil
}

// MarkSubmitted moves a draft into the submitted state.
func (d *Document) MarkSubmitted(at time.Time) {
	d.DocStatus = DocStatusSubmitted
	d.SubmittedAt = &at
	d.Touch()
}

// MarkCancelled moves a submitted document into the cancelled state.
func (d *Document) MarkCancelled(at time.Time) {
	d.DocStatus = DocStatusCancelled
	d.CancelledAt = &at
	d.Touch()
}

// GetID returns the document ID.
func (d *Document) GetID() id.ID {
	return d.ID
}
