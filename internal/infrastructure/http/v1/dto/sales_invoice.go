package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/entity"
	"workshop/internal/core/types"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/einvoice"
	"workshop/internal/domain/vat"
	"workshop/pkg/omr"
)

// SalesInvoiceLineRequest is one invoice row in a request.
type SalesInvoiceLineRequest struct {
	ItemCode        string          `json:"itemCode" binding:"required"`
	Description     string          `json:"description"`
	ItemType        string          `json:"itemType" binding:"omitempty,oneof=part labour service"`
	Quantity        types.Quantity  `json:"quantity" binding:"required"`
	Rate            decimal.Decimal `json:"rate"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	VATCategory     string          `json:"vatCategory" binding:"omitempty,oneof=standard zero_rated exempt out_of_scope"`
}

func (l SalesInvoiceLineRequest) toLine() sales_invoice.Line {
	return sales_invoice.Line{
		ItemCode:        l.ItemCode,
		Description:     l.Description,
		ItemType:        sales_invoice.ItemType(l.ItemType),
		Quantity:        l.Quantity,
		Rate:            l.Rate,
		DiscountPercent: l.DiscountPercent,
		VATCategory:     vat.Category(l.VATCategory),
	}
}

// CreateSalesInvoiceRequest is the request body for a draft invoice.
// PricesIncludeVAT defaults to the VAT configuration of the company.
type CreateSalesInvoiceRequest struct {
	CompanyID        string                    `json:"companyId" binding:"required,uuid"`
	CustomerID       string                    `json:"customerId" binding:"required,uuid"`
	CurrencyID       string                    `json:"currencyId" binding:"omitempty,uuid"`
	Date             string                    `json:"date" binding:"omitempty,datetime=2006-01-02"`
	DueDate          *string                   `json:"dueDate" binding:"omitempty,datetime=2006-01-02"`
	PricesIncludeVAT *bool                     `json:"pricesIncludeVat"`
	VehiclePlate     string                    `json:"vehiclePlate"`
	JobCard          string                    `json:"jobCard"`
	Remarks          string                    `json:"remarks"`
	Lines            []SalesInvoiceLineRequest `json:"lines" binding:"required,min=1,dive"`
	Attributes       entity.Attributes         `json:"attributes"`
}

// ToEntity converts DTO to domain entity. defaultPricing is used when the
// request does not say whether prices include VAT.
func (r *CreateSalesInvoiceRequest) ToEntity(defaultPricing func(inv *sales_invoice.SalesInvoice) bool) *sales_invoice.SalesInvoice {
	inv := sales_invoice.NewSalesInvoice(parseID(r.CompanyID), parseID(r.CustomerID))
	r.fill(inv)
	if r.PricesIncludeVAT == nil && defaultPricing != nil {
		inv.PricesIncludeVAT = defaultPricing(inv)
	}
	return inv
}

func (r *CreateSalesInvoiceRequest) fill(inv *sales_invoice.SalesInvoice) {
	if r.CurrencyID != "" {
		inv.CurrencyID = parseID(r.CurrencyID)
	}
	if r.Date != "" {
		inv.Date = parseDate(r.Date)
	}
	inv.DueDate = parseOptionalDate(r.DueDate)
	if r.PricesIncludeVAT != nil {
		inv.PricesIncludeVAT = *r.PricesIncludeVAT
	}
	inv.VehiclePlate = r.VehiclePlate
	inv.JobCard = r.JobCard
	inv.Remarks = r.Remarks
	inv.Attributes = r.Attributes
	inv.Lines = make([]sales_invoice.Line, len(r.Lines))
	for i, l := range r.Lines {
		inv.Lines[i] = l.toLine()
	}
	inv.Recalculate()
}

// UpdateSalesInvoiceRequest replaces the editable fields of a draft.
type UpdateSalesInvoiceRequest struct {
	CreateSalesInvoiceRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSalesInvoiceRequest) ApplyTo(inv *sales_invoice.SalesInvoice) {
	inv.CustomerID = parseID(r.CustomerID)
	r.fill(inv)
	inv.Version = r.Version
}

// CancelSalesInvoiceRequest carries the optional cancellation reason.
type CancelSalesInvoiceRequest struct {
	Reason string `json:"reason"`
}

// RecordPaymentRequest is a receipt against a submitted invoice.
type RecordPaymentRequest struct {
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Date      string          `json:"date" binding:"omitempty,datetime=2006-01-02"`
	Method    string          `json:"method" binding:"omitempty,oneof=cash card bank_transfer cheque"`
	Reference string          `json:"reference"`
}

// ToPayment converts DTO to domain payment.
func (r *RecordPaymentRequest) ToPayment() sales_invoice.Payment {
	p := sales_invoice.Payment{
		Amount:    r.Amount,
		Method:    r.Method,
		Reference: r.Reference,
	}
	if r.Date != "" {
		p.Date = parseDate(r.Date)
	}
	return p
}

// SalesInvoiceLineResponse is one invoice row.
type SalesInvoiceLineResponse struct {
	LineID          string `json:"lineId"`
	LineNo          int    `json:"lineNo"`
	ItemCode        string `json:"itemCode"`
	Description     string `json:"description,omitempty"`
	ItemType        string `json:"itemType"`
	Quantity        string `json:"quantity"`
	Rate            string `json:"rate"`
	DiscountPercent string `json:"discountPercent"`
	NetAmount       string `json:"netAmount"`
	VATCategory     string `json:"vatCategory"`
	VATRate         string `json:"vatRate"`
	VATAmount       string `json:"vatAmount"`
	LineTotal       string `json:"lineTotal"`
}

// SalesInvoiceResponse is the response body for an invoice. Amounts are
// fixed 3-decimal strings; Display holds the same totals formatted for the
// request locale.
type SalesInvoiceResponse struct {
	DocumentResponse
	CustomerID        string                     `json:"customerId"`
	CustomerName      string                     `json:"customerName"`
	CustomerVATNumber *string                    `json:"customerVatNumber,omitempty"`
	CurrencyID        string                     `json:"currencyId,omitempty"`
	DueDate           *string                    `json:"dueDate,omitempty"`
	VehiclePlate      string                     `json:"vehiclePlate,omitempty"`
	JobCard           string                     `json:"jobCard,omitempty"`
	PricesIncludeVAT  bool                       `json:"pricesIncludeVat"`
	Status            string                     `json:"status"`
	Lines             []SalesInvoiceLineResponse `json:"lines,omitempty"`
	NetTotal          string                     `json:"netTotal"`
	VATTotal          string                     `json:"vatTotal"`
	GrandTotal        string                     `json:"grandTotal"`
	PaidAmount        string                     `json:"paidAmount"`
	Outstanding       string                     `json:"outstandingAmount"`
	SellerName        string                     `json:"sellerName,omitempty"`
	SellerVATNumber   string                     `json:"sellerVatNumber,omitempty"`
	QRPayload         string                     `json:"qrPayload,omitempty"`
	Display           map[string]string          `json:"display"`
}

func money(m types.Money) string { return types.RoundOMR(m).StringFixed(types.OMRScale) }

// FromSalesInvoice creates response DTO from domain entity.
func FromSalesInvoice(inv *sales_invoice.SalesInvoice, locale string) *SalesInvoiceResponse {
	resp := &SalesInvoiceResponse{
		DocumentResponse:  FromDocument(inv.Document),
		CustomerID:        idString(inv.CustomerID),
		CustomerName:      inv.CustomerName,
		CustomerVATNumber: inv.CustomerVATNumber,
		CurrencyID:        idString(inv.CurrencyID),
		DueDate:           formatOptionalDate(inv.DueDate),
		VehiclePlate:      inv.VehiclePlate,
		JobCard:           inv.JobCard,
		PricesIncludeVAT:  inv.PricesIncludeVAT,
		Status:            string(inv.Status),
		NetTotal:          money(inv.NetTotal),
		VATTotal:          money(inv.VATTotal),
		GrandTotal:        money(inv.GrandTotal),
		PaidAmount:        money(inv.PaidAmount),
		Outstanding:       money(inv.Outstanding),
		SellerName:        inv.SellerName,
		SellerVATNumber:   inv.SellerVATNumber,
		QRPayload:         inv.QRPayload,
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, SalesInvoiceLineResponse{
			LineID:          l.LineID.String(),
			LineNo:          l.LineNo,
			ItemCode:        l.ItemCode,
			Description:     l.Description,
			ItemType:        string(l.ItemType),
			Quantity:        l.Quantity.String(),
			Rate:            money(l.Rate),
			DiscountPercent: l.DiscountPercent.StringFixed(2),
			NetAmount:       money(l.NetAmount),
			VATCategory:     string(l.VATCategory),
			VATRate:         l.VATRate.StringFixed(2),
			VATAmount:       money(l.VATAmount),
			LineTotal:       money(l.LineTotal),
		})
	}
	opts := omr.Options{Locale: locale}
	resp.Display = map[string]string{
		"netTotal":          omr.Format(inv.NetTotal, opts),
		"vatTotal":          omr.Format(inv.VATTotal, opts),
		"grandTotal":        omr.Format(inv.GrandTotal, opts),
		"outstandingAmount": omr.Format(inv.Outstanding, opts),
	}
	return resp
}

// PaymentResponse is one receipt.
type PaymentResponse struct {
	ID        string    `json:"id"`
	InvoiceID string    `json:"invoiceId"`
	Date      string    `json:"date"`
	Amount    string    `json:"amount"`
	Method    string    `json:"method"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy,omitempty"`
}

// FromPayment creates response DTO from domain payment.
func FromPayment(p sales_invoice.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		InvoiceID: p.InvoiceID.String(),
		Date:      p.Date.Format(time.DateOnly),
		Amount:    money(p.Amount),
		Method:    p.Method,
		Reference: p.Reference,
		CreatedAt: p.CreatedAt,
		CreatedBy: p.CreatedBy,
	}
}

// QRResponse is the stored QR payload with its decoded fields.
type QRResponse struct {
	Payload   string `json:"payload"`
	Seller    string `json:"sellerName"`
	VATNumber string `json:"vatNumber"`
	Timestamp string `json:"timestamp"`
	Total     string `json:"total"`
	VATTotal  string `json:"vatTotal"`
}

// FromQR creates the QR response.
func FromQR(payload string, p einvoice.Payload) QRResponse {
	return QRResponse{
		Payload:   payload,
		Seller:    p.SellerName,
		VATNumber: p.VATNumber,
		Timestamp: p.Timestamp.UTC().Format(einvoice.TimestampLayout),
		Total:     money(p.Total),
		VATTotal:  money(p.VATTotal),
	}
}
