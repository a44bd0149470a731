package dto

import (
	"time"

	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
	"workshop/internal/domain/vat"
)

// DashboardQuery selects the dashboard range. Empty dates mean the current
// month to date.
type DashboardQuery struct {
	CompanyID string `form:"companyId" binding:"required,uuid"`
	From      string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	TopN      int    `form:"topN" binding:"omitempty,min=1,max=100"`
	AsOf      string `form:"asOf" binding:"omitempty,datetime=2006-01-02"`
}

// ToFilter converts the query to the analytics filter.
func (q *DashboardQuery) ToFilter() analytics.Filter {
	f := analytics.Filter{CompanyID: parseID(q.CompanyID), TopN: q.TopN}
	if q.From != "" {
		f.From = parseDate(q.From)
	}
	if q.To != "" {
		f.To = parseDate(q.To)
	}
	if q.AsOf != "" {
		f.AsOf = parseDate(q.AsOf)
	}
	return f
}

// PeriodQuery names the return period containing Date.
type PeriodQuery struct {
	CompanyID string `form:"companyId" json:"companyId" binding:"required,uuid"`
	Date      string `form:"date" json:"date" binding:"omitempty,datetime=2006-01-02"`
	Period    string `form:"period" json:"period" binding:"omitempty,oneof=monthly quarterly"`
}

// Values returns the company, the date (today when empty) and the period
// (empty means the company's configured period).
func (q *PeriodQuery) Values(now time.Time) (companyID id.ID, date time.Time, period vat.ReturnPeriod) {
	date = vat.DateOnly(now)
	if q.Date != "" {
		date = parseDate(q.Date)
	}
	return parseID(q.CompanyID), date, vat.ReturnPeriod(q.Period)
}

// SnapshotListQuery lists the latest snapshots of a company.
type SnapshotListQuery struct {
	CompanyID string `form:"companyId" binding:"required,uuid"`
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=120"`
}

// SnapshotSummary is a snapshot without its detail tables.
type SnapshotSummary struct {
	ID           string `json:"id"`
	CompanyID    string `json:"companyId"`
	Period       string `json:"period"`
	PeriodStart  string `json:"periodStart"`
	PeriodEnd    string `json:"periodEnd"`
	GeneratedAt  string `json:"generatedAt"`
	InvoiceCount int    `json:"invoiceCount"`
	GrossRevenue string `json:"grossRevenue"`
	VATCollected string `json:"vatCollected"`
	Outstanding  string `json:"outstanding"`
}

// FromSnapshotSummary creates the list item of a snapshot.
func FromSnapshotSummary(s *analytics.Snapshot) SnapshotSummary {
	return SnapshotSummary{
		ID:           s.ID.String(),
		CompanyID:    s.CompanyID.String(),
		Period:       s.Period,
		PeriodStart:  s.PeriodStart.Format(time.DateOnly),
		PeriodEnd:    s.PeriodEnd.Format(time.DateOnly),
		GeneratedAt:  s.GeneratedAt.UTC().Format(time.RFC3339),
		InvoiceCount: s.InvoiceCount,
		GrossRevenue: money(s.GrossRevenue),
		VATCollected: money(s.VATCollected),
		Outstanding:  money(s.Outstanding),
	}
}
