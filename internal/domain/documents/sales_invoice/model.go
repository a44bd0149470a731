// Package sales_invoice provides the Sales Invoice document: a VAT invoice
// issued by a company to a customer for parts, labour and services.
package sales_invoice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/core/types"
	"workshop/internal/domain/einvoice"
	"workshop/internal/domain/vat"
)

// DocTypeName is the registered DocType of the invoice.
const DocTypeName = "Sales Invoice"

// Status is the payment state of an invoice.
type Status string

const (
	StatusDraft      Status = "draft"
	StatusUnpaid     Status = "unpaid"
	StatusPartlyPaid Status = "partly_paid"
	StatusPaid       Status = "paid"
	StatusOverdue    Status = "overdue"
	StatusCancelled  Status = "cancelled"
)

// ItemType classifies invoice lines for analytics.
type ItemType string

const (
	ItemPart    ItemType = "part"
	ItemLabour  ItemType = "labour"
	ItemService ItemType = "service"
)

var hundred = decimal.NewFromInt(100)

// SalesInvoice is the invoice header with its lines.
type SalesInvoice struct {
	entity.Document
	entity.CurrencyAware

	CustomerID        id.ID      `db:"customer_id" json:"customerId" binding:"required" meta:"label=Customer;label_ar=العميل;section=customer"`
	CustomerName      string     `db:"customer_name" json:"customerName" meta:"label_ar=اسم العميل;section=customer;readonly"`
	CustomerVATNumber *string    `db:"customer_vat_number" json:"customerVatNumber,omitempty" meta:"label=Customer VAT Number;label_ar=الرقم الضريبي للعميل;section=customer;readonly"`
	DueDate           *time.Time `db:"due_date" json:"dueDate,omitempty" meta:"label_ar=تاريخ الاستحقاق;section=customer"`

	VehiclePlate string `db:"vehicle_plate" json:"vehiclePlate,omitempty" meta:"label_ar=رقم اللوحة;section=customer"`
	JobCard      string `db:"job_card" json:"jobCard,omitempty" meta:"label=Job Card;label_ar=بطاقة العمل;section=customer"`

	PricesIncludeVAT bool   `db:"prices_include_vat" json:"pricesIncludeVat" meta:"label=Prices Include VAT;label_ar=الأسعار شاملة الضريبة;section=items"`
	Status           Status `db:"status" json:"status" meta:"label_ar=الحالة;section=totals;readonly;options=draft|unpaid|partly_paid|paid|overdue|cancelled"`

	Lines []Line `db:"-" json:"lines" binding:"required" meta:"label=Items;label_ar=البنود;child=Sales Invoice Item;section=items"`

	NetTotal    types.Money `db:"net_total" json:"netTotal" meta:"label_ar=الإجمالي قبل الضريبة;section=totals;readonly"`
	VATTotal    types.Money `db:"vat_total" json:"vatTotal" meta:"label=VAT Total;label_ar=إجمالي الضريبة;section=totals;readonly"`
	GrandTotal  types.Money `db:"grand_total" json:"grandTotal" meta:"label_ar=الإجمالي;section=totals;readonly"`
	PaidAmount  types.Money `db:"paid_amount" json:"paidAmount" meta:"label_ar=المبلغ المدفوع;section=totals;readonly"`
	Outstanding types.Money `db:"outstanding_amount" json:"outstandingAmount" meta:"label_ar=المبلغ المستحق;section=totals;readonly"`

	// Seller registration captured on submit from the VAT Configuration
	SellerName      string `db:"seller_name" json:"sellerName,omitempty" meta:"label_ar=اسم البائع;section=einvoice;readonly"`
	SellerVATNumber string `db:"seller_vat_number" json:"sellerVatNumber,omitempty" meta:"label=Seller VAT Number;label_ar=الرقم الضريبي للبائع;section=einvoice;readonly"`
	QRPayload       string `db:"qr_payload" json:"qrPayload,omitempty" meta:"label=QR Payload;label_ar=رمز الاستجابة السريعة;section=einvoice;readonly"`
}

// Line is one row of the invoice.
type Line struct {
	LineID          id.ID           `db:"line_id" json:"lineId" meta:"-"`
	LineNo          int             `db:"line_no" json:"lineNo" meta:"label=No.;readonly"`
	ItemCode        string          `db:"item_code" json:"itemCode" binding:"required" meta:"label_ar=رمز الصنف"`
	Description     string          `db:"description" json:"description,omitempty" meta:"label_ar=الوصف"`
	ItemType        ItemType        `db:"item_type" json:"itemType" meta:"label_ar=نوع البند;options=part|labour|service"`
	Quantity        types.Quantity  `db:"quantity" json:"quantity" binding:"required" meta:"label_ar=الكمية"`
	Rate            types.Money     `db:"rate" json:"rate" meta:"label_ar=السعر"`
	DiscountPercent decimal.Decimal `db:"discount_percent" json:"discountPercent" meta:"label=Discount %;label_ar=نسبة الخصم;type=percent;scale=2"`
	NetAmount       types.Money     `db:"net_amount" json:"netAmount" meta:"label_ar=المبلغ الصافي;readonly"`
	VATCategory     vat.Category    `db:"vat_category" json:"vatCategory" meta:"label=VAT Category;label_ar=فئة الضريبة;options=standard|zero_rated|exempt|out_of_scope"`
	VATRate         decimal.Decimal `db:"vat_rate" json:"vatRate" meta:"label=VAT Rate;label_ar=نسبة الضريبة;type=percent;scale=2;readonly"`
	VATAmount       types.Money     `db:"vat_amount" json:"vatAmount" meta:"label=VAT Amount;label_ar=مبلغ الضريبة;readonly"`
	LineTotal       types.Money     `db:"line_total" json:"lineTotal" meta:"label_ar=الإجمالي;readonly"`
}

// NewSalesInvoice creates a draft invoice dated today.
func NewSalesInvoice(companyID, customerID id.ID) *SalesInvoice {
	return &SalesInvoice{
		Document:    entity.NewDocument(companyID),
		CustomerID:  customerID,
		Status:      StatusDraft,
		Lines:       make([]Line, 0),
		NetTotal:    decimal.Zero,
		VATTotal:    decimal.Zero,
		GrandTotal:  decimal.Zero,
		PaidAmount:  decimal.Zero,
		Outstanding: decimal.Zero,
	}
}

// AddLine appends a standard-rated line and recalculates totals.
func (inv *SalesInvoice) AddLine(itemCode string, itemType ItemType, qty types.Quantity, rate types.Money) *Line {
	inv.Lines = append(inv.Lines, Line{
		LineID:          id.New(),
		ItemCode:        itemCode,
		ItemType:        itemType,
		Quantity:        qty,
		Rate:            rate,
		DiscountPercent: decimal.Zero,
		VATCategory:     vat.CategoryStandard,
	})
	inv.Recalculate()
	return &inv.Lines[len(inv.Lines)-1]
}

// Amount is quantity × rate less discount, rounded to Baisa. It is VAT
// inclusive when the invoice prices include VAT.
func (l *Line) Amount() types.Money {
	gross := l.Quantity.Decimal().Mul(l.Rate)
	if !l.DiscountPercent.IsZero() {
		gross = gross.Sub(gross.Mul(l.DiscountPercent).Div(hundred))
	}
	return types.RoundOMR(gross)
}

// Recalculate numbers the lines, computes VAT per category at invoice level
// and refreshes totals and the outstanding amount.
func (inv *SalesInvoice) Recalculate() vat.Breakdown {
	input := make([]vat.Line, len(inv.Lines))
	for i := range inv.Lines {
		l := &inv.Lines[i]
		l.LineNo = i + 1
		if id.IsNil(l.LineID) {
			l.LineID = id.New()
		}
		if l.VATCategory == "" {
			l.VATCategory = vat.CategoryStandard
		}
		if l.ItemType == "" {
			l.ItemType = ItemPart
		}
		input[i] = vat.Line{Amount: l.Amount(), Category: l.VATCategory}
	}

	b := vat.Compute(input, inv.PricesIncludeVAT)
	for i := range inv.Lines {
		l := &inv.Lines[i]
		l.NetAmount = b.LineNet[i]
		l.VATAmount = b.LineVAT[i]
		l.VATRate = vat.RateFor(l.VATCategory).Mul(hundred)
		l.LineTotal = l.NetAmount.Add(l.VATAmount)
	}

	inv.NetTotal = b.NetTotal
	inv.VATTotal = b.VATTotal
	inv.GrandTotal = b.GrandTotal
	inv.Outstanding = inv.GrandTotal.Sub(inv.PaidAmount)
	return b
}

// Validate implements entity.Validatable. Missing fields are reported
// together; the first rule violation otherwise.
func (inv *SalesInvoice) Validate(ctx context.Context) error {
	missing := make(map[string]string)
	if err := inv.Document.Validate(ctx); err != nil {
		if appErr, ok := apperror.AsAppError(err); ok && appErr.Code == apperror.CodeRequiredField {
			if fields, ok := appErr.Details["fields"].(map[string]string); ok {
				for k, v := range fields {
					missing[k] = v
				}
			}
		} else {
			return err
		}
	}
	if id.IsNil(inv.CustomerID) {
		missing["customerId"] = "required"
	}
	if len(inv.Lines) == 0 {
		missing["lines"] = "required"
	}
	for i, l := range inv.Lines {
		if strings.TrimSpace(l.ItemCode) == "" {
			missing[fmt.Sprintf("lines[%d].itemCode", i)] = "required"
		}
	}
	if len(missing) > 0 {
		return apperror.NewRequiredFields(missing)
	}

	for i, l := range inv.Lines {
		lineErr := func(msg, field string) error {
			return apperror.NewValidation(msg).
				WithDetail("field", fmt.Sprintf("lines[%d].%s", i, field)).
				WithDetail("lineNo", i+1)
		}
		switch {
		case !l.Quantity.IsPositive():
			return lineErr("quantity must be positive", "quantity")
		case l.Rate.IsNegative():
			return lineErr("rate must not be negative", "rate")
		case l.DiscountPercent.IsNegative() || l.DiscountPercent.GreaterThan(hundred):
			return lineErr("discount must be between 0 and 100 percent", "discountPercent")
		case !l.VATCategory.IsValid() && l.VATCategory != "":
			return lineErr("unknown VAT category", "vatCategory")
		case l.ItemType != "" && l.ItemType != ItemPart && l.ItemType != ItemLabour && l.ItemType != ItemService:
			return lineErr("item type must be part, labour or service", "itemType")
		}
	}

	if inv.DueDate != nil && vat.DateOnly(*inv.DueDate).Before(vat.DateOnly(inv.Date)) {
		return apperror.NewValidation("due date must not be before the invoice date").
			WithDetail("field", "dueDate")
	}
	return nil
}

// IsOpen reports whether payments can still be recorded.
func (inv *SalesInvoice) IsOpen() bool {
	switch inv.Status {
	case StatusUnpaid, StatusPartlyPaid, StatusOverdue:
		return true
	}
	return false
}

// RefreshStatus derives the payment status of a submitted invoice.
func (inv *SalesInvoice) RefreshStatus(today time.Time) {
	switch inv.DocStatus {
	case entity.DocStatusDraft, "":
		inv.Status = StatusDraft
		return
	case entity.DocStatusCancelled:
		inv.Status = StatusCancelled
		return
	}

	inv.Outstanding = inv.GrandTotal.Sub(inv.PaidAmount)
	switch {
	case !inv.Outstanding.IsPositive():
		inv.Status = StatusPaid
	case inv.IsOverdue(today):
		inv.Status = StatusOverdue
	case inv.PaidAmount.IsPositive():
		inv.Status = StatusPartlyPaid
	default:
		inv.Status = StatusUnpaid
	}
}

// IsOverdue reports whether the due date has passed with money outstanding.
func (inv *SalesInvoice) IsOverdue(today time.Time) bool {
	return inv.DueDate != nil &&
		inv.Outstanding.IsPositive() &&
		vat.DateOnly(today).After(vat.DateOnly(*inv.DueDate))
}

// ApplyPayment adds amount to the paid amount. Amounts above the outstanding
// balance are rejected.
func (inv *SalesInvoice) ApplyPayment(amount types.Money, today time.Time) error {
	if inv.DocStatus != entity.DocStatusSubmitted || !inv.IsOpen() {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "payments can only be recorded on open submitted invoices").
			WithDetail("status", string(inv.Status))
	}
	amount = types.RoundOMR(amount)
	if !amount.IsPositive() {
		return apperror.NewValidation("payment amount must be positive").WithDetail("field", "amount")
	}
	if amount.GreaterThan(inv.Outstanding) {
		return apperror.NewPaymentExceedsOutstanding(amount.StringFixed(types.OMRScale), inv.Outstanding.StringFixed(types.OMRScale))
	}
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	inv.RefreshStatus(today)
	return nil
}

// QRData builds the e-invoice payload from the captured seller registration.
func (inv *SalesInvoice) QRData() einvoice.Payload {
	ts := inv.Date
	if inv.SubmittedAt != nil {
		ts = *inv.SubmittedAt
	}
	return einvoice.Payload{
		SellerName: inv.SellerName,
		VATNumber:  inv.SellerVATNumber,
		Timestamp:  ts,
		Total:      inv.GrandTotal,
		VATTotal:   inv.VATTotal,
	}
}

// Payment is a receipt recorded against an invoice.
type Payment struct {
	ID        id.ID       `db:"id" json:"id"`
	InvoiceID id.ID       `db:"invoice_id" json:"invoiceId"`
	Date      time.Time   `db:"date" json:"date"`
	Amount    types.Money `db:"amount" json:"amount"`
	Method    string      `db:"method" json:"method"`
	Reference string      `db:"reference" json:"reference,omitempty"`
	CreatedAt time.Time   `db:"created_at" json:"createdAt"`
	CreatedBy string      `db:"created_by" json:"createdBy,omitempty"`
}

// PaymentMethods accepted by RecordPayment.
var PaymentMethods = []string{"cash", "card", "bank_transfer", "cheque"}
