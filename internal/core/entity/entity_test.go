package entity

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
)

func TestDocumentLifecycle(t *testing.T) {
	doc := NewDocument(id.New())
	require.True(t, doc.IsDraft())
	require.NoError(t, doc.CanModify())

	now := time.Now().UTC()
	doc.MarkSubmitted(now)
	assert.Equal(t, DocStatusSubmitted, doc.DocStatus)
	assert.Equal(t, now, *doc.SubmittedAt)
	assert.True(t, apperror.HasCode(doc.CanModify(), apperror.CodeInvoiceNotDraft))

	doc.MarkCancelled(now)
	assert.Equal(t, DocStatusCancelled, doc.DocStatus)
}

func TestDocumentValidateListsAllMissing(t *testing.T) {
	doc := Document{}
	err := doc.Validate(context.Background())
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	fields := appErr.Details["fields"].(map[string]string)
	assert.Contains(t, fields, "companyId")
	assert.Contains(t, fields, "date")
}

func TestCatalogValidate(t *testing.T) {
	c := NewCatalog(" C-1 ", "  ")
	assert.Equal(t, "C-1", c.Code)
	assert.True(t, apperror.HasCode(c.Validate(context.Background()), apperror.CodeRequiredField))
}

func TestAttributesScanKeepsPrecision(t *testing.T) {
	var a Attributes
	require.NoError(t, a.Scan([]byte(`{"deposit": 12.345, "bay": 4, "note": "x", "extra": {"km": 120500}}`)))
	assert.Equal(t, "12.345", a["deposit"].(json.Number).String())

	plain := a.Plain()
	assert.Equal(t, 12.345, plain["deposit"])
	assert.Equal(t, int64(4), plain["bay"])
	assert.Equal(t, "x", plain["note"])
	assert.Equal(t, map[string]any{"km": int64(120500)}, plain["extra"])

	require.NoError(t, a.Scan(nil))
	assert.Nil(t, a)
	assert.Nil(t, a.Plain())
}
