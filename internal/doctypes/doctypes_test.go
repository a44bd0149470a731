package doctypes

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/domaintest"
	"workshop/internal/domain/vat"
	"workshop/internal/metadata"
)

func registry(t *testing.T) *metadata.Registry {
	t.Helper()
	r, err := NewRegistry()
	require.NoError(t, err)
	return r
}

func invoice() *sales_invoice.SalesInvoice {
	inv := sales_invoice.NewSalesInvoice(id.New(), id.New())
	inv.Date = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	inv.AddLine("OIL-5W30", sales_invoice.ItemPart, types.NewQuantityFromInt(2), decimal.RequireFromString("12.500"))
	return inv
}

func TestRegistryHoldsEveryDocType(t *testing.T) {
	r := registry(t)

	names := make([]string, 0)
	for _, def := range r.List() {
		names = append(names, def.Name)
	}
	assert.ElementsMatch(t, []string{
		Currency, Company, Customer, VATConfiguration, SalesInvoice, SalesInvoiceItem,
		FinancialAnalytics, FinancialAnalyticsMonth, FinancialAnalyticsCustomer, FinancialAnalyticsItemType,
	}, names)

	for _, def := range r.List() {
		assert.NotEmpty(t, def.LabelAr, def.Name)
		for _, s := range def.Sections {
			if s.Name == metadata.DefaultSection {
				assert.Equal(t, "التفاصيل", s.LabelAr, def.Name)
			}
		}
	}
}

func TestSalesInvoiceSchema(t *testing.T) {
	def, ok := registry(t).Get(SalesInvoice)
	require.True(t, ok)
	assert.True(t, def.Submittable)
	assert.Equal(t, metadata.KindDocument, def.Kind)

	lines, ok := def.Field("lines")
	require.True(t, ok)
	assert.Equal(t, metadata.TypeTable, lines.Type)
	assert.Equal(t, SalesInvoiceItem, lines.ChildType)

	f, _ := def.Field("customerId")
	assert.Equal(t, Customer, f.ReferenceType)
	assert.True(t, f.Required)
	f, _ = def.Field("currencyId")
	assert.Equal(t, Currency, f.ReferenceType)
	f, _ = def.Field("grandTotal")
	assert.Equal(t, metadata.TypeMoney, f.Type)
	assert.Equal(t, 3, f.Scale)
	assert.True(t, f.ReadOnly)
	f, _ = def.Field("companyId")
	assert.True(t, f.Required)

	einvoice := def.FieldsIn("einvoice")
	require.Len(t, einvoice, 3)
	assert.Equal(t, "qrPayload", einvoice[2].Name)
}

func TestSalesInvoiceValidation(t *testing.T) {
	r := registry(t)
	ctx := context.Background()

	inv := invoice()
	assert.NoError(t, r.Validate(ctx, SalesInvoice, metadata.ToValues(inv)))

	due := inv.Date.AddDate(0, 0, -1)
	inv.DueDate = &due
	err := r.Validate(ctx, SalesInvoice, metadata.ToValues(inv))
	require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "Due date must not be before the invoice date", appErr.Message)

	inv = invoice()
	inv.Lines[0].DiscountPercent = decimal.NewFromInt(120)
	bad := "OM123"
	inv.CustomerVATNumber = &bad
	err = r.Validate(appctx.WithLocale(ctx, "ar"), SalesInvoice, metadata.ToValues(inv))
	appErr, _ = apperror.AsAppError(err)
	failures := appErr.Details["rules"].([]metadata.RuleFailure)
	require.Len(t, failures, 2)
	assert.Equal(t, "discount_range", failures[0].Rule)
	assert.Equal(t, "customerVatNumber_format", failures[1].Rule)
	assert.Equal(t, "يجب أن يتكون الرقم الضريبي من OM متبوعا بعشرة أرقام", failures[1].Message)
}

func TestSalesInvoiceRequiredFields(t *testing.T) {
	r := registry(t)

	err := r.Validate(context.Background(), SalesInvoice, map[string]any{
		"lines": []any{map[string]any{"quantity": 1.0, "rate": 5.0, "discountPercent": 0.0}},
	})
	require.True(t, apperror.HasCode(err, apperror.CodeRequiredField))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, map[string]string{
		"companyId":         "required",
		"customerId":        "required",
		"date":              "required",
		"lines[0].itemCode": "required",
	}, appErr.Details["fields"])
}

func TestVATConfigurationRules(t *testing.T) {
	r := registry(t)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cfg := vat.NewConfiguration(id.New(), "OM1100012345", "Muscat Auto Care LLC", from)
	assert.NoError(t, r.Validate(context.Background(), VATConfiguration, metadata.ToValues(cfg)))

	cfg.VATNumber = "1100012345"
	to := from.AddDate(0, 0, -1)
	cfg.EffectiveTo = &to
	err := r.Validate(context.Background(), VATConfiguration, metadata.ToValues(cfg))
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Len(t, appErr.Details["rules"], 2)
}

func TestCustomerVATNumberHiddenForIndividuals(t *testing.T) {
	def, _ := registry(t).Get(Customer)
	f, ok := def.Field("vatNumber")
	require.True(t, ok)
	assert.Equal(t, `doc.customerType == "company"`, f.DependsOn)
	assert.Equal(t, "tax", f.Section)
}

func TestFinancialAnalyticsChildren(t *testing.T) {
	r := registry(t)
	def, _ := r.Get(FinancialAnalytics)
	assert.Equal(t, metadata.KindSnapshot, def.Kind)

	for field, child := range map[string]string{
		"monthlyTrend": FinancialAnalyticsMonth,
		"topCustomers": FinancialAnalyticsCustomer,
		"byItemType":   FinancialAnalyticsItemType,
	} {
		f, ok := def.Field(field)
		require.True(t, ok, field)
		assert.Equal(t, child, f.ChildType)
	}

	item, _ := r.Get(FinancialAnalyticsItemType)
	share, _ := item.Field("share")
	assert.Equal(t, metadata.TypePercent, share.Type)
}

type customerRepo struct {
	*domaintest.MemRepo[*customer.Customer]
}

func (customerRepo) FindByVATNumber(_ context.Context, n string) (*customer.Customer, error) {
	return nil, apperror.NewNotFound("customer", n)
}

func TestCustomizationsEnforcedOnCatalogWrites(t *testing.T) {
	ctx := context.Background()
	r := registry(t)
	require.NoError(t, r.Customize(Customer, metadata.Customization{
		Overrides: map[string]metadata.FieldOverride{"phone": {Required: ptr(true)}},
		Validations: []metadata.Rule{{
			Name:       "credit_days_cap",
			Expression: `doc.creditDays <= 90`,
			Message:    "Credit days must not exceed 90",
		}},
	}))

	repo := customerRepo{domaintest.NewMemRepo("customer", func(c *customer.Customer, d bool) { c.DeletionMark = d })}
	svc := customer.NewService(repo, nil, tx.NoopManager{})
	svc.UseValidator(r, Customer)

	c := customer.NewCustomer("C1", "Said")
	err := svc.Create(ctx, c)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeRequiredField))
	_, stored := repo.Find(func(x *customer.Customer) bool { return x.Code == "C1" })
	assert.False(t, stored)

	phone := "91234567"
	c.Phone = &phone
	require.NoError(t, svc.Create(ctx, c))

	c.CreditDays = 120
	err = svc.Update(ctx, c)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	c.CreditDays = 30
	require.NoError(t, svc.Update(ctx, c))
}

func ptr[T any](v T) *T { return &v }
