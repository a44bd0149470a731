package company

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/domain/domaintest"
)

type memRepo struct {
	*domaintest.MemRepo[*Company]
}

func (r memRepo) GetDefault(context.Context) (*Company, error) {
	c, ok := r.Find(func(c *Company) bool { return c.IsDefault })
	if !ok {
		return nil, apperror.NewNotFound("company", "default")
	}
	return c, nil
}

func (r memRepo) ClearDefault(context.Context) error {
	for _, c := range r.Items {
		c.IsDefault = false
	}
	return nil
}

func TestCompanyValidate(t *testing.T) {
	ctx := context.Background()
	vatNo := "OM-1100-0123-45"
	cr := " 1234567 "

	c := NewCompany("MAIN", "Al Noor Auto Workshop", id.New())
	c.NameAr = " ورشة النور للسيارات "
	c.VATNumber = &vatNo
	c.CRNumber = &cr
	require.NoError(t, c.Validate(ctx))
	assert.Equal(t, "OM1100012345", *c.VATNumber)
	assert.Equal(t, "1234567", *c.CRNumber)
	assert.Equal(t, "ورشة النور للسيارات", c.DisplayName(true))
	assert.Equal(t, "Al Noor Auto Workshop", c.DisplayName(false))

	bad := "OM12"
	c.VATNumber = &bad
	err := c.Validate(ctx)
	require.True(t, apperror.HasCode(err, apperror.CodeInvalidVATNumber))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "vatNumber", appErr.Details["field"])
}

func TestServiceKeepsSingleDefault(t *testing.T) {
	repo := memRepo{domaintest.NewMemRepo("company", func(c *Company, d bool) { c.DeletionMark = d })}
	svc := NewService(repo, tx.NoopManager{})
	ctx := context.Background()

	a := NewCompany("A", "Branch A", id.New())
	a.IsDefault = true
	require.NoError(t, svc.Create(ctx, a))

	b := NewCompany("B", "Branch B", id.New())
	b.IsDefault = true
	require.NoError(t, svc.Create(ctx, b))

	assert.False(t, a.IsDefault)
	def, err := svc.GetDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, def.ID)
}
