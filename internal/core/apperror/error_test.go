package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRequiredFields(t *testing.T) {
	err := NewRequiredFields(map[string]string{"customer_id": "required"})
	assert.Equal(t, CodeRequiredField, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus)
	assert.Equal(t, "field customer_id is required", err.Message)

	multi := NewRequiredFields(map[string]string{"a": "required", "b": "required"})
	assert.Equal(t, "missing required fields", multi.Message)
	assert.Len(t, multi.Details["fields"], 2)
}

func TestHasCodeThroughWrapping(t *testing.T) {
	base := NewInvalidVATNumber("vat_number", "OM12")
	wrapped := fmt.Errorf("create company: %w", base)

	assert.True(t, HasCode(wrapped, CodeInvalidVATNumber))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.Equal(t, http.StatusBadRequest, GetHTTPStatus(wrapped))

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "vat_number", appErr.Details["field"])
}

func TestGetHTTPStatusUnknown(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("boom")))
	assert.False(t, IsNotFound(errors.New("boom")))
}

func TestWithCauseUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternal(nil).WithCause(cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
