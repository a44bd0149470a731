// Package apperror provides structured error handling following RFC 7807 Problem Details.
// Every business error leaving the domain layer is an *AppError so the HTTP layer
// can render {code, message, details} without knowing the domain.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
)

// Error codes
const (
	// Infrastructure errors (5xx)
	CodeInternal = "INTERNAL_ERROR"
	CodeDatabase = "DATABASE_ERROR"

	// Validation errors (400)
	CodeValidation       = "VALIDATION_ERROR"
	CodeRequiredField    = "REQUIRED_FIELD"
	CodeInvalidVATNumber = "INVALID_VAT_NUMBER"
	CodeQRFieldTooLong   = "QR_FIELD_TOO_LONG"

	// Business rule violations (409, 422)
	CodeBusinessRule              = "BUSINESS_RULE_VIOLATION"
	CodeInvoiceNotDraft           = "INVOICE_NOT_DRAFT"
	CodeVATPeriodLocked           = "VAT_PERIOD_LOCKED"
	CodeVATNotConfigured          = "VAT_NOT_CONFIGURED"
	CodePaymentExceedsOutstanding = "PAYMENT_EXCEEDS_OUTSTANDING"
	CodeConcurrentModification    = "CONCURRENT_MODIFICATION"

	// Authorization errors (401, 403)
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Not found (404)
	CodeNotFound = "NOT_FOUND"

	// Conflict (409)
	CodeConflict    = "CONFLICT"
	CodeDuplicate   = "DUPLICATE_ENTRY"
	CodeIdempotency = "IDEMPOTENCY_CONFLICT"
)

// AppError is the standard error type of the application.
type AppError struct {
	// Code is a machine-readable error identifier
	Code string `json:"code"`

	// Message is a human-readable error description
	Message string `json:"message"`

	// Details contains additional context (field errors, amounts, etc.)
	Details map[string]any `json:"details,omitempty"`

	// HTTPStatus is the suggested HTTP status code
	HTTPStatus int `json:"-"`

	// Err is the underlying error (not exposed in JSON)
	Err error `json:"-"`
}

// Error implements error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail adds a key-value pair to error details
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// WithCause sets the underlying error
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// --- Factory functions ---

// NewValidation creates a validation error (400)
func NewValidation(message string) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewRequiredFields reports every missing or invalid field at once.
// fields maps field name to a short reason ("required", "must be positive", ...).
func NewRequiredFields(fields map[string]string) *AppError {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	msg := "missing required fields"
	if len(names) == 1 {
		msg = fmt.Sprintf("field %s is required", names[0])
	}

	return &AppError{
		Code:       CodeRequiredField,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"fields": fields},
	}
}

// NewInvalidVATNumber is returned for a VAT registration number that does not
// match the Omani format.
func NewInvalidVATNumber(field, value string) *AppError {
	return &AppError{
		Code:       CodeInvalidVATNumber,
		Message:    "VAT registration number must be OM followed by 10 digits",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "value": value},
	}
}

// NewFieldTooLong is returned when a QR field value does not fit a single TLV.
func NewFieldTooLong(field string, length, max int) *AppError {
	return &AppError{
		Code:       CodeQRFieldTooLong,
		Message:    fmt.Sprintf("%s is too long for the QR payload", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field, "length": length, "max": max},
	}
}

// NewNotFound creates a not found error (404)
func NewNotFound(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", entity),
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewBusinessRule creates a business rule violation error (422)
func NewBusinessRule(code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// NewInvoiceNotDraft is returned when a submitted or cancelled invoice is edited.
func NewInvoiceNotDraft(number, docStatus string) *AppError {
	return &AppError{
		Code:       CodeInvoiceNotDraft,
		Message:    "Invoice is not a draft",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"number": number, "docstatus": docStatus},
	}
}

// NewVATPeriodLocked is returned when a document date falls into a filed VAT return period.
func NewVATPeriodLocked(lockedUntil string) *AppError {
	return &AppError{
		Code:       CodeVATPeriodLocked,
		Message:    fmt.Sprintf("VAT period is locked until %s", lockedUntil),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"locked_until": lockedUntil},
	}
}

// NewVATNotConfigured is returned when a company has no active VAT Configuration on a date.
func NewVATNotConfigured(companyID, date string) *AppError {
	return &AppError{
		Code:       CodeVATNotConfigured,
		Message:    "No active VAT configuration for the company on this date",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"companyId": companyID, "date": date},
	}
}

// NewPaymentExceedsOutstanding rejects over-payment of an invoice.
func NewPaymentExceedsOutstanding(amount, outstanding string) *AppError {
	return &AppError{
		Code:       CodePaymentExceedsOutstanding,
		Message:    "Payment amount exceeds outstanding amount",
		HTTPStatus: http.StatusUnprocessableEntity,
		Details:    map[string]any{"amount": amount, "outstanding": outstanding},
	}
}

// NewConcurrentModification creates an optimistic locking error
func NewConcurrentModification(entity string, id any) *AppError {
	return &AppError{
		Code:       CodeConcurrentModification,
		Message:    "Record was modified by another user. Please refresh and try again.",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "id": id},
	}
}

// NewInternal creates an internal server error (hides details from client)
func NewInternal(err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewUnauthorized creates an authentication error (401)
func NewUnauthorized(message string) *AppError {
	return &AppError{
		Code:       CodeUnauthorized,
		Message:    message,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewForbidden creates an authorization error (403)
func NewForbidden(message string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
	}
}

// NewIdempotencyConflict creates error when operation is already in progress
func NewIdempotencyConflict(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Operation already in progress",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewIdempotencyMismatch is returned when the same idempotency key is reused for
// a different request (different user/operation/body hash).
func NewIdempotencyMismatch(key string) *AppError {
	return &AppError{
		Code:       CodeIdempotency,
		Message:    "Idempotency key mismatch",
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"idempotency_key": key},
	}
}

// NewConflict creates a conflict error (409)
func NewConflict(message string) *AppError {
	return &AppError{
		Code:       CodeConflict,
		Message:    message,
		HTTPStatus: http.StatusConflict,
	}
}

// NewDuplicate creates a duplicate entry error (409)
func NewDuplicate(entity, field, value string) *AppError {
	return &AppError{
		Code:       CodeDuplicate,
		Message:    fmt.Sprintf("%s with this %s already exists", entity, field),
		HTTPStatus: http.StatusConflict,
		Details:    map[string]any{"entity": entity, "field": field, "value": value},
	}
}

// --- Helper functions ---

// IsAppError checks if error is AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError extracts AppError from error chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// GetHTTPStatus returns appropriate HTTP status for any error
func GetHTTPStatus(err error) int {
	if appErr, ok := AsAppError(err); ok {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// IsNotFound checks if error is CodeNotFound
func IsNotFound(err error) bool {
	return HasCode(err, CodeNotFound)
}

// IsConcurrentModification checks if error is CodeConcurrentModification
func IsConcurrentModification(err error) bool {
	return HasCode(err, CodeConcurrentModification)
}
