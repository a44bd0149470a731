// Package doctypes registers the DocTypes of the application with the
// metadata registry: catalogs, the Sales Invoice, the VAT Configuration and
// the Financial Analytics snapshot.
package doctypes

import (
	"fmt"

	"workshop/internal/domain/analytics"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/catalogs/currency"
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/vat"
	"workshop/internal/metadata"
)

const (
	Currency         = "Currency"
	Company          = "Company"
	Customer         = "Customer"
	VATConfiguration = "VAT Configuration"
	SalesInvoice     = sales_invoice.DocTypeName
	SalesInvoiceItem = "Sales Invoice Item"

	FinancialAnalytics         = analytics.SnapshotDocType
	FinancialAnalyticsMonth    = "Financial Analytics Month"
	FinancialAnalyticsCustomer = "Financial Analytics Customer"
	FinancialAnalyticsItemType = "Financial Analytics Item Type"
)

// vatNumberRule checks an optional VAT number field against the Oman format.
func vatNumberRule(field, label string) metadata.Rule {
	return metadata.Rule{
		Name: field + "_format",
		Expression: fmt.Sprintf(`doc.%[1]s == null || doc.%[1]s == "" || doc.%[1]s.matches(r"%[2]s")`,
			field, vat.NumberPattern.String()),
		Message:   label + " must be OM followed by 10 digits",
		MessageAr: "يجب أن يتكون الرقم الضريبي من OM متبوعا بعشرة أرقام",
	}
}

// Definitions returns every DocType in registration order.
func Definitions() []metadata.DocType {
	return []metadata.DocType{
		currencyDocType(),
		companyDocType(),
		customerDocType(),
		vatConfigurationDocType(),
		salesInvoiceItemDocType(),
		salesInvoiceDocType(),
		analyticsMonthDocType(),
		analyticsCustomerDocType(),
		analyticsItemTypeDocType(),
		financialAnalyticsDocType(),
	}
}

// Register adds every DocType to r and verifies the links between them.
func Register(r *metadata.Registry) error {
	for _, def := range Definitions() {
		if err := r.Register(def); err != nil {
			return err
		}
	}
	return r.Verify()
}

// NewRegistry returns a registry holding every DocType.
func NewRegistry() (*metadata.Registry, error) {
	r := metadata.NewRegistry()
	if err := Register(r); err != nil {
		return nil, fmt.Errorf("register doctypes: %w", err)
	}
	return r, nil
}

// markRequired marks fields required.
func markRequired(def *metadata.DocType, names ...string) {
	for _, name := range names {
		for i := range def.Fields {
			if def.Fields[i].Name == name {
				def.Fields[i].Required = true
			}
		}
	}
}

// mainSection is the label of the untitled first section.
var mainSection = metadata.Section{Name: metadata.DefaultSection, Label: "Details", LabelAr: "التفاصيل"}

func currencyDocType() metadata.DocType {
	def := metadata.Inspect(&currency.Currency{}, Currency, metadata.KindCatalog).
		WithSections(mainSection)
	def.LabelAr = "العملة"
	def.Module = "Setup"
	def.TableName = "cat_currencies"
	markRequired(&def, "name")
	def.Validations = []metadata.Rule{{
		Name:       "decimal_places_range",
		Expression: `doc.decimalPlaces >= 0 && doc.decimalPlaces <= 4`,
		Message:    "Decimal places must be between 0 and 4",
		MessageAr:  "يجب أن تكون المنازل العشرية بين ٠ و ٤",
	}}
	return def
}

func companyDocType() metadata.DocType {
	def := metadata.Inspect(&company.Company{}, Company, metadata.KindCatalog).
		WithSections(
			mainSection,
			metadata.Section{Name: "registration", Label: "Registration", LabelAr: "التسجيل"},
			metadata.Section{Name: "contact", Label: "Contact", LabelAr: "الاتصال", Collapsible: true},
		)
	def.LabelAr = "الشركة"
	def.Module = "Setup"
	def.TableName = "cat_companies"
	markRequired(&def, "code", "name", "defaultCurrencyId")
	def.Validations = []metadata.Rule{vatNumberRule("vatNumber", "VAT number")}
	return def
}

func customerDocType() metadata.DocType {
	def := metadata.Inspect(&customer.Customer{}, Customer, metadata.KindCatalog).
		WithSections(
			mainSection,
			metadata.Section{Name: "tax", Label: "Tax and Credit", LabelAr: "الضريبة والائتمان"},
			metadata.Section{Name: "contact", Label: "Contact", LabelAr: "الاتصال", Collapsible: true},
		)
	def.LabelAr = "العميل"
	def.Module = "Selling"
	def.TableName = "cat_customers"
	def.NamingSeries = "CUST-#####"
	markRequired(&def, "name", "customerType")
	def.Validations = []metadata.Rule{
		vatNumberRule("vatNumber", "VAT number"),
		{
			Name:       "credit_days_not_negative",
			Expression: `doc.creditDays == null || doc.creditDays >= 0`,
			Message:    "Credit days must not be negative",
			MessageAr:  "يجب ألا تكون أيام الائتمان سالبة",
		},
	}
	return def
}

func vatConfigurationDocType() metadata.DocType {
	def := metadata.Inspect(&vat.Configuration{}, VATConfiguration, metadata.KindCatalog).
		WithSections(
			mainSection,
			metadata.Section{Name: "registration", Label: "Registration", LabelAr: "التسجيل الضريبي"},
			metadata.Section{Name: "rates", Label: "Rates", LabelAr: "النسب"},
			metadata.Section{Name: "returns", Label: "Returns", LabelAr: "الإقرارات الضريبية"},
		)
	def.Label = "VAT Configuration"
	def.LabelAr = "إعدادات ضريبة القيمة المضافة"
	def.Module = "Accounts"
	def.TableName = "cat_vat_configurations"
	markRequired(&def, "companyId", "vatNumber", "registrationName", "effectiveFrom")
	def.Validations = []metadata.Rule{
		vatNumberRule("vatNumber", "VAT registration number"),
		{
			Name:       "effective_range",
			Expression: `doc.effectiveTo == null || doc.effectiveFrom == null || doc.effectiveTo >= doc.effectiveFrom`,
			Message:    "Effective to must not be before effective from",
			MessageAr:  "يجب ألا يسبق تاريخ الانتهاء تاريخ السريان",
		},
	}
	return def
}

func salesInvoiceItemDocType() metadata.DocType {
	def := metadata.Inspect(sales_invoice.Line{}, SalesInvoiceItem, metadata.KindChild).
		WithSections(mainSection)
	def.LabelAr = "بند فاتورة المبيعات"
	def.Module = "Selling"
	def.TableName = "doc_sales_invoice_lines"
	return def
}

func salesInvoiceDocType() metadata.DocType {
	def := metadata.Inspect(&sales_invoice.SalesInvoice{}, SalesInvoice, metadata.KindDocument).
		WithSections(
			mainSection,
			metadata.Section{Name: "customer", Label: "Customer", LabelAr: "العميل"},
			metadata.Section{Name: "items", Label: "Items", LabelAr: "البنود"},
			metadata.Section{Name: "totals", Label: "Totals", LabelAr: "الإجماليات"},
			metadata.Section{Name: "einvoice", Label: "E-Invoice", LabelAr: "الفاتورة الإلكترونية", Collapsible: true},
		)
	def.LabelAr = "فاتورة مبيعات"
	def.Module = "Selling"
	def.TableName = "doc_sales_invoices"
	def.Submittable = true
	def.NamingSeries = "INV-YYYY-#####"
	markRequired(&def, "companyId", "date")
	def.Validations = []metadata.Rule{
		{
			Name:       "due_date_after_date",
			Expression: `doc.dueDate == null || doc.date == null || doc.dueDate >= doc.date`,
			Message:    "Due date must not be before the invoice date",
			MessageAr:  "يجب ألا يسبق تاريخ الاستحقاق تاريخ الفاتورة",
		},
		{
			Name:       "positive_quantity",
			Expression: `doc.lines == null || doc.lines.all(l, l.quantity > 0.0)`,
			Message:    "Quantity must be positive on every line",
			MessageAr:  "يجب أن تكون الكمية موجبة في كل بند",
		},
		{
			Name:       "rate_not_negative",
			Expression: `doc.lines == null || doc.lines.all(l, l.rate >= 0.0)`,
			Message:    "Rate must not be negative",
			MessageAr:  "يجب ألا يكون السعر سالبا",
		},
		{
			Name:       "discount_range",
			Expression: `doc.lines == null || doc.lines.all(l, l.discountPercent >= 0.0 && l.discountPercent <= 100.0)`,
			Message:    "Discount must be between 0 and 100 percent",
			MessageAr:  "يجب أن تكون نسبة الخصم بين ٠ و ١٠٠",
		},
		vatNumberRule("customerVatNumber", "Customer VAT number"),
	}
	return def
}

func analyticsMonthDocType() metadata.DocType {
	def := metadata.Inspect(analytics.MonthPoint{}, FinancialAnalyticsMonth, metadata.KindChild).
		WithSections(mainSection)
	def.LabelAr = "الاتجاه الشهري"
	def.Module = "Analytics"
	return def
}

func analyticsCustomerDocType() metadata.DocType {
	def := metadata.Inspect(analytics.CustomerRevenue{}, FinancialAnalyticsCustomer, metadata.KindChild).
		WithSections(mainSection)
	def.LabelAr = "إيرادات العميل"
	def.Module = "Analytics"
	return def
}

func analyticsItemTypeDocType() metadata.DocType {
	def := metadata.Inspect(analytics.ItemTypeRevenue{}, FinancialAnalyticsItemType, metadata.KindChild).
		WithSections(mainSection)
	def.LabelAr = "الإيرادات حسب نوع البند"
	def.Module = "Analytics"
	for i := range def.Fields {
		if def.Fields[i].Name == "share" {
			def.Fields[i].Type = metadata.TypePercent
			def.Fields[i].Scale = 2
		}
	}
	return def
}

func financialAnalyticsDocType() metadata.DocType {
	def := metadata.Inspect(&analytics.Snapshot{}, FinancialAnalytics, metadata.KindSnapshot).
		WithSections(
			mainSection,
			metadata.Section{Name: "period", Label: "Period", LabelAr: "الفترة"},
			metadata.Section{Name: "revenue", Label: "Revenue", LabelAr: "الإيرادات"},
			metadata.Section{Name: "aging", Label: "Receivables Aging", LabelAr: "أعمار الذمم المدينة"},
			metadata.Section{Name: "details", Label: "Details", LabelAr: "التفاصيل", Collapsible: true},
		)
	def.LabelAr = "التحليلات المالية"
	def.Module = "Analytics"
	def.TableName = "ana_snapshots"
	def.Validations = []metadata.Rule{{
		Name:       "period_range",
		Expression: `doc.periodStart == null || doc.periodEnd == null || doc.periodEnd >= doc.periodStart`,
		Message:    "Period end must not be before period start",
		MessageAr:  "يجب ألا تسبق نهاية الفترة بدايتها",
	}}
	return def
}
