package customer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/numerator/numeratortest"
	"workshop/internal/core/tx"
	"workshop/internal/domain/domaintest"
)

type memRepo struct {
	*domaintest.MemRepo[*Customer]
}

func (r memRepo) FindByVATNumber(_ context.Context, n string) (*Customer, error) {
	c, ok := r.Find(func(c *Customer) bool { return c.VATNumber != nil && *c.VATNumber == n })
	if !ok {
		return nil, apperror.NewNotFound("customer", n)
	}
	return c, nil
}

func newService() (*Service, memRepo) {
	repo := memRepo{domaintest.NewMemRepo("customer", func(c *Customer, d bool) { c.DeletionMark = d })}
	return NewService(repo, &numeratortest.Counter{}, tx.NoopManager{}), repo
}

func ptr(s string) *string { return &s }

func TestCustomerValidate(t *testing.T) {
	ctx := context.Background()

	c := NewCustomer("", "Said Al Harthy")
	c.Phone = ptr("9123 4567")
	c.Email = ptr(" Said@Example.OM ")
	c.VATNumber = ptr("om 1100 0123 45")
	require.NoError(t, c.Validate(ctx))
	assert.Equal(t, "+96891234567", *c.Phone)
	assert.Equal(t, "said@example.om", *c.Email)
	assert.Equal(t, "OM1100012345", *c.VATNumber)

	c.VATNumber = ptr("   ")
	require.NoError(t, c.Validate(ctx))
	assert.Nil(t, c.VATNumber)

	tests := []struct {
		name   string
		mutate func(*Customer)
		code   string
	}{
		{"empty name", func(c *Customer) { c.Name = "" }, apperror.CodeRequiredField},
		{"bad type", func(c *Customer) { c.Type = "vip" }, apperror.CodeValidation},
		{"bad vat number", func(c *Customer) { c.VATNumber = ptr("OM123") }, apperror.CodeInvalidVATNumber},
		{"bad email", func(c *Customer) { c.Email = ptr("not-an-email") }, apperror.CodeValidation},
		{"bad phone", func(c *Customer) { c.Phone = ptr("12ab") }, apperror.CodeValidation},
		{"negative credit days", func(c *Customer) { c.CreditDays = -1 }, apperror.CodeValidation},
		{"letters in CR", func(c *Customer) { c.CRNumber = ptr("12A45") }, apperror.CodeValidation},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCustomer("C1", "Customer")
			tc.mutate(c)
			err := c.Validate(ctx)
			assert.True(t, apperror.HasCode(err, tc.code), "got %v", err)
		})
	}
}

func TestCustomerDueDate(t *testing.T) {
	c := NewCustomer("C1", "Fleet LLC")
	c.CreditDays = 30
	d := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC), c.DueDate(d))
}

func TestServiceAssignsCodeAndAudit(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	c := NewCustomer("", "Muscat Fleet LLC")
	c.Type = TypeCompany
	require.NoError(t, svc.Create(ctx, c))
	assert.Equal(t, "CUST-00001", c.Code)
	assert.Contains(t, repo.Items, c.ID)

	other := NewCustomer("", "Nizwa Motors")
	require.NoError(t, svc.Create(ctx, other))
	assert.Equal(t, "CUST-00002", other.Code)

	kept := NewCustomer("VIP-1", "Kept Code")
	require.NoError(t, svc.Create(ctx, kept))
	assert.Equal(t, "VIP-1", kept.Code)
}

func TestServiceRejectsDuplicateVATNumber(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	first := NewCustomer("", "Muscat Fleet LLC")
	first.VATNumber = ptr("OM1100012345")
	require.NoError(t, svc.Create(ctx, first))

	second := NewCustomer("", "Copy Cat LLC")
	second.VATNumber = ptr("OM 1100012345")
	err := svc.Create(ctx, second)
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	// updating the owner itself is fine
	first.Phone = ptr("24123456")
	assert.NoError(t, svc.Update(ctx, first))
}

func TestServiceDeleteIsSoft(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	c := NewCustomer("C1", "Walk-in")
	require.NoError(t, svc.Create(ctx, c))
	require.NoError(t, svc.Delete(ctx, c.ID))
	assert.True(t, repo.Items[c.ID].DeletionMark)

	_, err := svc.GetByCode(ctx, "C1")
	assert.True(t, apperror.IsNotFound(err))
}
