package metadata

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/core/types"
)

func invoiceDocTypes() (DocType, DocType) {
	parent := DocType{
		Name:        "Test Invoice",
		Kind:        KindDocument,
		Submittable: true,
		Sections:    []Section{{Name: "main"}, {Name: "totals"}},
		Fields: []FieldDef{
			{Name: "customerId", Type: TypeReference, ReferenceType: "Test Customer", Required: true, Section: "main"},
			{Name: "customerType", Type: TypeEnum, Options: []string{"individual", "company"}, Section: "main"},
			{Name: "customerVatNumber", Type: TypeString, Section: "main",
				DependsOn: `doc.customerType == "company"`, MandatoryDependsOn: `doc.customerType == "company"`},
			{Name: "lines", Type: TypeTable, ChildType: "Test Invoice Item", Required: true, Section: "main"},
			{Name: "grandTotal", Type: TypeMoney, Scale: 3, ReadOnly: true, Required: true, Section: "totals"},
		},
		Validations: []Rule{{
			Name:       "positive_total",
			Expression: `doc.grandTotal == null || doc.grandTotal > 0.0`,
			Message:    "Grand total must be positive",
			MessageAr:  "يجب أن يكون الإجمالي موجبا",
		}},
	}
	child := DocType{
		Name: "Test Invoice Item",
		Kind: KindChild,
		Fields: []FieldDef{
			{Name: "itemCode", Type: TypeString, Required: true},
			{Name: "qty", Type: TypeNumber, Required: true},
		},
	}
	return parent, child
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r := NewRegistry()
	parent, child := invoiceDocTypes()
	require.NoError(t, r.Register(parent))
	require.NoError(t, r.Register(child))
	require.NoError(t, r.Register(DocType{Name: "Test Customer", Fields: []FieldDef{{Name: "name", Type: TypeString}}}))
	return r
}

func TestRegisterRejectsBadDefinitions(t *testing.T) {
	r := newTestRegistry(t)
	parent, _ := invoiceDocTypes()

	assert.Error(t, r.Register(parent), "duplicate name")

	cases := []struct {
		name string
		def  DocType
	}{
		{"empty name", DocType{}},
		{"duplicate field", DocType{Name: "X", Fields: []FieldDef{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeString}}}},
		{"unknown type", DocType{Name: "X", Fields: []FieldDef{{Name: "a", Type: "blob"}}}},
		{"undeclared section", DocType{Name: "X", Sections: []Section{{Name: "main"}}, Fields: []FieldDef{{Name: "a", Type: TypeString, Section: "other"}}}},
		{"link without target", DocType{Name: "X", Fields: []FieldDef{{Name: "a", Type: TypeReference}}}},
		{"enum without options", DocType{Name: "X", Fields: []FieldDef{{Name: "a", Type: TypeEnum}}}},
		{"bad expression", DocType{Name: "X", Fields: []FieldDef{{Name: "a", Type: TypeString, DependsOn: "doc.a ==="}}}},
		{"non boolean rule", DocType{Name: "X", Validations: []Rule{{Name: "r", Expression: `"text"`}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Error(t, r.Register(tc.def))
		})
	}
}

func TestListSortedAndVerify(t *testing.T) {
	r := newTestRegistry(t)

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "Test Customer", list[0].Name)
	assert.Equal(t, "Test Invoice", list[1].Name)
	assert.NoError(t, r.Verify())

	require.NoError(t, r.Register(DocType{Name: "Dangling", Fields: []FieldDef{
		{Name: "currencyId", Type: TypeReference, ReferenceType: "Currency"},
	}}))
	assert.ErrorContains(t, r.Verify(), "Currency")
}

func TestVerifyRejectsNonChildTable(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(DocType{Name: "Row", Kind: KindCatalog}))
	require.NoError(t, r.Register(DocType{Name: "Parent", Fields: []FieldDef{{Name: "rows", Type: TypeTable, ChildType: "Row"}}}))
	assert.ErrorContains(t, r.Verify(), "not a child")
}

func TestValidateCollectsEveryMissingField(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Validate(context.Background(), "Test Invoice", map[string]any{
		"customerType": "company",
		"lines": []any{
			map[string]any{"itemCode": "OIL-5W30", "qty": 2.0},
			map[string]any{"itemCode": " "},
		},
	})
	require.True(t, apperror.HasCode(err, apperror.CodeRequiredField))
	appErr, _ := apperror.AsAppError(err)
	fields := appErr.Details["fields"].(map[string]string)

	assert.Equal(t, map[string]string{
		"customerId":        "required",
		"customerVatNumber": "required",
		"lines[1].itemCode": "required",
		"lines[1].qty":      "required",
	}, fields)
}

func TestValidateHiddenFieldNotRequired(t *testing.T) {
	r := newTestRegistry(t)

	err := r.Validate(context.Background(), "Test Invoice", map[string]any{
		"customerId":   id.New().String(),
		"customerType": "individual",
		"lines":        []any{map[string]any{"itemCode": "LAB-1", "qty": 1.0}},
		"grandTotal":   10.5,
	})
	assert.NoError(t, err)
}

func TestValidateRulesUseLocale(t *testing.T) {
	r := newTestRegistry(t)
	values := map[string]any{
		"customerId": id.New().String(),
		"lines":      []any{map[string]any{"itemCode": "LAB-1", "qty": 1.0}},
		"grandTotal": -1.0,
	}

	err := r.Validate(context.Background(), "Test Invoice", values)
	require.True(t, apperror.HasCode(err, apperror.CodeValidation))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, "Grand total must be positive", appErr.Message)

	ctx := appctx.WithLocale(context.Background(), "ar-OM")
	err = r.Validate(ctx, "Test Invoice", values)
	appErr, _ = apperror.AsAppError(err)
	failures := appErr.Details["rules"].([]RuleFailure)
	require.Len(t, failures, 1)
	assert.Equal(t, "يجب أن يكون الإجمالي موجبا", failures[0].Message)

	assert.True(t, apperror.IsNotFound(r.Validate(ctx, "Nope", nil)))
}

func TestCustomize(t *testing.T) {
	r := newTestRegistry(t)
	label := "Job Card"
	required := true

	err := r.Customize("Test Invoice", Customization{
		Fields: []FieldDef{{Name: "jobCard", Type: TypeString}},
		Overrides: map[string]FieldOverride{
			"customerType": {Label: &label, Required: &required},
		},
	})
	require.NoError(t, err)

	def, ok := r.Get("Test Invoice")
	require.True(t, ok)
	f, ok := def.Field("jobCard")
	require.True(t, ok)
	assert.True(t, f.Custom)
	assert.Equal(t, "totals", f.Section)

	f, _ = def.Field("customerType")
	assert.Equal(t, "Job Card", f.Label)
	assert.True(t, f.Required)

	// applying the same overlay twice keeps one field
	require.NoError(t, r.Customize("Test Invoice", Customization{Fields: []FieldDef{{Name: "jobCard", Type: TypeText}}}))
	def, _ = r.Get("Test Invoice")
	assert.Len(t, def.FieldsIn("totals"), 2)

	assert.Error(t, r.Customize("Test Invoice", Customization{Fields: []FieldDef{{Name: "lines", Type: TypeString}}}))
	assert.Error(t, r.Customize("Test Invoice", Customization{Overrides: map[string]FieldOverride{"nope": {}}}))
	assert.Error(t, r.Customize("Missing", Customization{}))
}

func TestConcurrentCustomizeKeepsEveryOverlay(t *testing.T) {
	r := newTestRegistry(t)

	const overlays = 16
	var wg sync.WaitGroup
	errs := make(chan error, overlays)
	for i := 0; i < overlays; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- r.Customize("Test Invoice", Customization{
				Fields: []FieldDef{{Name: fmt.Sprintf("custom%d", i), Type: TypeString}},
			})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	def, ok := r.Get("Test Invoice")
	require.True(t, ok)
	for i := 0; i < overlays; i++ {
		_, ok := def.Field(fmt.Sprintf("custom%d", i))
		assert.True(t, ok, "custom%d", i)
	}
}

type sampleLine struct {
	ItemCode string         `json:"itemCode" binding:"required"`
	Quantity types.Quantity `json:"quantity"`
}

type sampleInvoice struct {
	entity.Document
	CustomerID id.ID           `json:"customerId" binding:"required" meta:"label=Customer;label_ar=العميل;ref=Customer;section=party"`
	DueDate    *time.Time      `json:"dueDate,omitempty" meta:"section=party"`
	GrandTotal decimal.Decimal `json:"grandTotal" meta:"section=totals;readonly"`
	Status     string          `json:"status" meta:"options=unpaid|paid;section=totals"`
	Lines      []sampleLine    `json:"lines" meta:"child=Sample Line;section=items"`
	Internal   string          `json:"-"`
	NotExposed string          `json:"notExposed" meta:"-"`
}

func TestInspect(t *testing.T) {
	def := Inspect(&sampleInvoice{}, "Sample Invoice", KindDocument)

	assert.Equal(t, "Sample Invoice", def.Name)
	names := make([]string, len(def.Sections))
	for i, s := range def.Sections {
		names[i] = s.Name
	}
	assert.Equal(t, []string{"main", "party", "totals", "items"}, names)

	f, ok := def.Field("customerId")
	require.True(t, ok)
	assert.Equal(t, TypeReference, f.Type)
	assert.Equal(t, "Customer", f.ReferenceType)
	assert.Equal(t, "العميل", f.LabelAr)
	assert.True(t, f.Required)

	f, _ = def.Field("companyId")
	assert.Equal(t, "Company", f.ReferenceType)
	f, _ = def.Field("dueDate")
	assert.Equal(t, TypeDate, f.Type)
	f, _ = def.Field("submittedAt")
	assert.Equal(t, TypeDatetime, f.Type)
	assert.True(t, f.ReadOnly)
	f, _ = def.Field("grandTotal")
	assert.Equal(t, TypeMoney, f.Type)
	assert.Equal(t, 3, f.Scale)
	assert.True(t, f.ReadOnly)
	f, _ = def.Field("status")
	assert.Equal(t, TypeEnum, f.Type)
	f, _ = def.Field("lines")
	assert.Equal(t, TypeTable, f.Type)
	assert.Equal(t, "Sample Line", f.ChildType)

	_, ok = def.Field("notExposed")
	assert.False(t, ok)
	_, ok = def.Field("attributes")
	assert.False(t, ok)

	line := Inspect(sampleLine{}, "Sample Line", KindChild)
	f, _ = line.Field("quantity")
	assert.Equal(t, TypeNumber, f.Type)
	assert.Equal(t, 4, f.Scale)

	labeled := def.WithSections(Section{Name: "party", Label: "Customer", LabelAr: "العميل"})
	assert.Equal(t, "Customer", labeled.Sections[1].Label)
	assert.Equal(t, "Party", def.Sections[1].Label)
}

func TestToValues(t *testing.T) {
	inv := &sampleInvoice{
		Document:   entity.NewDocument(id.New()),
		GrandTotal: decimal.RequireFromString("105.5"),
		Status:     "unpaid",
		Lines:      []sampleLine{{ItemCode: "OIL", Quantity: types.NewQuantityFromInt(2)}},
	}
	inv.SetAttribute("jobCard", "JC-77")

	v := ToValues(inv)
	assert.Equal(t, 105.5, v["grandTotal"])
	assert.Nil(t, v["customerId"])
	assert.Nil(t, v["dueDate"])
	assert.Equal(t, inv.CompanyID.String(), v["companyId"])
	assert.Equal(t, "draft", v["docstatus"])
	assert.Equal(t, "JC-77", v["jobCard"])
	assert.Equal(t, int64(1), v["version"])

	lines := v["lines"].([]any)
	require.Len(t, lines, 1)
	assert.Equal(t, 2.0, lines[0].(map[string]any)["quantity"])

	r := NewRegistry()
	ok, err := r.Evaluate(`doc.grandTotal > 100.0 && doc.jobCard == "JC-77"`, v)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSetCustomizationStartsFromRegisteredDefinition(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Customize("Test Invoice", Customization{Fields: []FieldDef{{Name: "jobCard", Type: TypeString}}}))

	require.NoError(t, r.SetCustomization("Test Invoice", Customization{Fields: []FieldDef{{Name: "mileage", Type: TypeInteger}}}))
	def, _ := r.Get("Test Invoice")
	_, ok := def.Field("jobCard")
	assert.False(t, ok)
	_, ok = def.Field("mileage")
	assert.True(t, ok)

	require.NoError(t, r.SetCustomization("Test Invoice", Customization{}))
	def, _ = r.Get("Test Invoice")
	parent, _ := invoiceDocTypes()
	assert.Len(t, def.Fields, len(parent.Fields))
}
