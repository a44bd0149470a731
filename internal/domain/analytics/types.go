// Package analytics provides descriptive dashboards over submitted invoices,
// the VAT return summary and persisted Financial Analytics snapshots.
package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/id"
	"workshop/internal/core/types"
	"workshop/internal/domain/vat"
)

// Filter selects the invoices of one company dated From..To (inclusive).
type Filter struct {
	CompanyID id.ID
	From      time.Time
	To        time.Time

	// TopN limits the customer ranking (default 10)
	TopN int

	// AsOf is the aging reference date (default today)
	AsOf time.Time
}

// InvoiceFact is one submitted, non-cancelled invoice as seen by analytics.
type InvoiceFact struct {
	ID           id.ID       `db:"id"`
	Number       string      `db:"number"`
	Date         time.Time   `db:"date"`
	DueDate      *time.Time  `db:"due_date"`
	CustomerID   id.ID       `db:"customer_id"`
	CustomerName string      `db:"customer_name"`
	NetTotal     types.Money `db:"net_total"`
	VATTotal     types.Money `db:"vat_total"`
	GrandTotal   types.Money `db:"grand_total"`
	PaidAmount   types.Money `db:"paid_amount"`
	Outstanding  types.Money `db:"outstanding_amount"`
}

// LineFact is the net amount and VAT of invoice lines grouped by item type
// and VAT category.
type LineFact struct {
	ItemType    string       `db:"item_type"`
	VATCategory vat.Category `db:"vat_category"`
	NetAmount   types.Money  `db:"net_amount"`
	VATAmount   types.Money  `db:"vat_amount"`
}

// MonthPoint is one month of the revenue trend.
type MonthPoint struct {
	Month        string      `json:"month"`
	InvoiceCount int         `json:"invoiceCount"`
	Net          types.Money `json:"net"`
	VAT          types.Money `json:"vat"`
	Gross        types.Money `json:"gross"`
}

// CustomerRevenue ranks customers by gross revenue.
type CustomerRevenue struct {
	CustomerID   id.ID       `json:"customerId"`
	CustomerName string      `json:"customerName"`
	InvoiceCount int         `json:"invoiceCount"`
	Gross        types.Money `json:"gross"`
	Outstanding  types.Money `json:"outstanding"`
}

// ItemTypeRevenue splits net revenue into parts, labour and services.
type ItemTypeRevenue struct {
	ItemType string      `json:"itemType"`
	Net      types.Money `json:"net"`
	VAT      types.Money `json:"vat"`
	// Share is the percentage of total net revenue
	Share decimal.Decimal `json:"share"`
}

// Aging groups outstanding amounts by days past due.
type Aging struct {
	Current    types.Money `json:"current"`
	Days1To30  types.Money `json:"days1To30"`
	Days31To60 types.Money `json:"days31To60"`
	Days61To90 types.Money `json:"days61To90"`
	Over90     types.Money `json:"over90"`
}

// Total is the sum of all buckets.
func (a Aging) Total() types.Money {
	return types.SumOMR(a.Current, a.Days1To30, a.Days31To60, a.Days61To90, a.Over90)
}

// Dashboard is the BI summary of one company and date range.
type Dashboard struct {
	CompanyID   id.ID     `json:"companyId"`
	From        time.Time `json:"from"`
	To          time.Time `json:"to"`
	GeneratedAt time.Time `json:"generatedAt"`

	InvoiceCount   int         `json:"invoiceCount"`
	NetRevenue     types.Money `json:"netRevenue"`
	VATCollected   types.Money `json:"vatCollected"`
	GrossRevenue   types.Money `json:"grossRevenue"`
	Collected      types.Money `json:"collected"`
	Outstanding    types.Money `json:"outstanding"`
	AverageInvoice types.Money `json:"averageInvoice"`
	// CollectionRate is collected / gross in percent, 2 decimals
	CollectionRate decimal.Decimal `json:"collectionRate"`

	MonthlyTrend []MonthPoint      `json:"monthlyTrend"`
	TopCustomers []CustomerRevenue `json:"topCustomers"`
	ByItemType   []ItemTypeRevenue `json:"byItemType"`
	Aging        Aging             `json:"aging"`
}

// VATReturn summarizes supplies and output VAT of a return period.
type VATReturn struct {
	CompanyID id.ID     `json:"companyId"`
	Period    string    `json:"period"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`

	InvoiceCount          int         `json:"invoiceCount"`
	StandardRatedSupplies types.Money `json:"standardRatedSupplies"`
	OutputVAT             types.Money `json:"outputVat"`
	ZeroRatedSupplies     types.Money `json:"zeroRatedSupplies"`
	ExemptSupplies        types.Money `json:"exemptSupplies"`
	OutOfScopeSupplies    types.Money `json:"outOfScopeSupplies"`
	TotalSupplies         types.Money `json:"totalSupplies"`
}
