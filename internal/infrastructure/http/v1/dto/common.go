// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"workshop/internal/core/entity"
	"workshop/internal/core/id"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Base DTOs ---

// BaseResponse contains common response fields.
type BaseResponse struct {
	ID           string            `json:"id"`
	DeletionMark bool              `json:"deletionMark"`
	Version      int               `json:"version"`
	Attributes   entity.Attributes `json:"attributes,omitempty"`
}

func fromBase(b entity.BaseEntity) BaseResponse {
	return BaseResponse{
		ID:           b.ID.String(),
		DeletionMark: b.DeletionMark,
		Version:      b.Version,
		Attributes:   b.Attributes,
	}
}

// CatalogResponse contains catalog fields.
type CatalogResponse struct {
	BaseResponse
	Code string `json:"code"`
	Name string `json:"name"`
}

// FromCatalog creates CatalogResponse from entity.Catalog.
func FromCatalog(c entity.Catalog) CatalogResponse {
	return CatalogResponse{
		BaseResponse: fromBase(c.BaseEntity),
		Code:         c.Code,
		Name:         c.Name,
	}
}

// DocumentResponse contains document header fields.
type DocumentResponse struct {
	BaseResponse
	Number      string     `json:"number"`
	Date        string     `json:"date"`
	DocStatus   string     `json:"docstatus"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`
	CompanyID   string     `json:"companyId"`
	Remarks     string     `json:"remarks,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	UpdatedBy   string     `json:"updatedBy,omitempty"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d entity.Document) DocumentResponse {
	return DocumentResponse{
		BaseResponse: fromBase(d.BaseEntity),
		Number:       d.Number,
		Date:         d.Date.Format(time.DateOnly),
		DocStatus:    string(d.DocStatus),
		SubmittedAt:  d.SubmittedAt,
		CancelledAt:  d.CancelledAt,
		CompanyID:    d.CompanyID.String(),
		Remarks:      d.Remarks,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
		CreatedBy:    d.CreatedBy,
		UpdatedBy:    d.UpdatedBy,
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// SetDeletionMarkRequest toggles the soft-delete flag.
type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

// parseID reads an ID already checked by the "uuid" binding tag; "" gives
// the zero ID.
func parseID(s string) id.ID {
	v, err := id.Parse(s)
	if err != nil {
		return id.ID{}
	}
	return v
}

func idString(v id.ID) string {
	if id.IsNil(v) {
		return ""
	}
	return v.String()
}

// parseDate reads a date already checked by the "datetime=2006-01-02" tag.
func parseDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t := parseDate(*s)
	return &t
}

func formatOptionalDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
