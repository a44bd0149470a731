package analytics

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/core/types"
)

// SnapshotDocType is the DocType name of persisted dashboards.
const SnapshotDocType = "Financial Analytics"

// Snapshot is a dashboard frozen for one company and period. The headline
// figures are columns; trend, ranking and item-type rows are child tables.
type Snapshot struct {
	entity.BaseDocument

	CompanyID   id.ID     `db:"company_id" json:"companyId" binding:"required" meta:"label=Company;label_ar=الشركة;section=period"`
	Period      string    `db:"period" json:"period" binding:"required" meta:"label_ar=الفترة;section=period"`
	PeriodStart time.Time `db:"period_start" json:"periodStart" binding:"required" meta:"label_ar=بداية الفترة;section=period"`
	PeriodEnd   time.Time `db:"period_end" json:"periodEnd" binding:"required" meta:"label_ar=نهاية الفترة;section=period"`
	GeneratedAt time.Time `db:"generated_at" json:"generatedAt" meta:"label_ar=تاريخ الإنشاء;section=period;readonly"`

	InvoiceCount   int             `db:"invoice_count" json:"invoiceCount" meta:"label_ar=عدد الفواتير;section=revenue;readonly"`
	NetRevenue     types.Money     `db:"net_revenue" json:"netRevenue" meta:"label_ar=صافي الإيرادات;section=revenue;readonly"`
	VATCollected   types.Money     `db:"vat_collected" json:"vatCollected" meta:"label=VAT Collected;label_ar=الضريبة المحصلة;section=revenue;readonly"`
	GrossRevenue   types.Money     `db:"gross_revenue" json:"grossRevenue" meta:"label_ar=إجمالي الإيرادات;section=revenue;readonly"`
	Collected      types.Money     `db:"collected" json:"collected" meta:"label_ar=المبالغ المحصلة;section=revenue;readonly"`
	Outstanding    types.Money     `db:"outstanding" json:"outstanding" meta:"label_ar=المبالغ المستحقة;section=revenue;readonly"`
	AverageInvoice types.Money     `db:"average_invoice" json:"averageInvoice" meta:"label_ar=متوسط الفاتورة;section=revenue;readonly"`
	CollectionRate decimal.Decimal `db:"collection_rate" json:"collectionRate" meta:"label_ar=نسبة التحصيل;type=percent;scale=2;section=revenue;readonly"`

	AgingCurrent types.Money `db:"aging_current" json:"agingCurrent" meta:"label=Current;label_ar=غير مستحق;section=aging;readonly"`
	Aging1To30   types.Money `db:"aging_1_30" json:"aging1To30" meta:"label=1-30 Days;label_ar=١-٣٠ يوم;section=aging;readonly"`
	Aging31To60  types.Money `db:"aging_31_60" json:"aging31To60" meta:"label=31-60 Days;label_ar=٣١-٦٠ يوم;section=aging;readonly"`
	Aging61To90  types.Money `db:"aging_61_90" json:"aging61To90" meta:"label=61-90 Days;label_ar=٦١-٩٠ يوم;section=aging;readonly"`
	AgingOver90  types.Money `db:"aging_over_90" json:"agingOver90" meta:"label=Over 90 Days;label_ar=أكثر من ٩٠ يوم;section=aging;readonly"`

	MonthlyTrend []MonthPoint      `db:"-" json:"monthlyTrend" meta:"label_ar=الاتجاه الشهري;child=Financial Analytics Month;section=details;readonly"`
	TopCustomers []CustomerRevenue `db:"-" json:"topCustomers" meta:"label_ar=أفضل العملاء;child=Financial Analytics Customer;section=details;readonly"`
	ByItemType   []ItemTypeRevenue `db:"-" json:"byItemType" meta:"label=Revenue by Item Type;label_ar=الإيرادات حسب نوع البند;child=Financial Analytics Item Type;section=details;readonly"`
}

// NewSnapshot freezes d under the period label.
func NewSnapshot(period string, d *Dashboard) *Snapshot {
	return &Snapshot{
		BaseDocument:   entity.NewBaseDocument(),
		CompanyID:      d.CompanyID,
		Period:         period,
		PeriodStart:    d.From,
		PeriodEnd:      d.To,
		GeneratedAt:    d.GeneratedAt,
		InvoiceCount:   d.InvoiceCount,
		NetRevenue:     d.NetRevenue,
		VATCollected:   d.VATCollected,
		GrossRevenue:   d.GrossRevenue,
		Collected:      d.Collected,
		Outstanding:    d.Outstanding,
		AverageInvoice: d.AverageInvoice,
		CollectionRate: d.CollectionRate,
		AgingCurrent:   d.Aging.Current,
		Aging1To30:     d.Aging.Days1To30,
		Aging31To60:    d.Aging.Days31To60,
		Aging61To90:    d.Aging.Days61To90,
		AgingOver90:    d.Aging.Over90,
		MonthlyTrend:   d.MonthlyTrend,
		TopCustomers:   d.TopCustomers,
		ByItemType:     d.ByItemType,
	}
}

// Dashboard restores the dashboard view of the snapshot.
func (s *Snapshot) Dashboard() *Dashboard {
	return &Dashboard{
		CompanyID:      s.CompanyID,
		From:           s.PeriodStart,
		To:             s.PeriodEnd,
		GeneratedAt:    s.GeneratedAt,
		InvoiceCount:   s.InvoiceCount,
		NetRevenue:     s.NetRevenue,
		VATCollected:   s.VATCollected,
		GrossRevenue:   s.GrossRevenue,
		Collected:      s.Collected,
		Outstanding:    s.Outstanding,
		AverageInvoice: s.AverageInvoice,
		CollectionRate: s.CollectionRate,
		MonthlyTrend:   s.MonthlyTrend,
		TopCustomers:   s.TopCustomers,
		ByItemType:     s.ByItemType,
		Aging: Aging{
			Current:    s.AgingCurrent,
			Days1To30:  s.Aging1To30,
			Days31To60: s.Aging31To60,
			Days61To90: s.Aging61To90,
			Over90:     s.AgingOver90,
		},
	}
}

// Validate implements entity.Validatable.
func (s *Snapshot) Validate(ctx context.Context) error {
	missing := make(map[string]string)
	if id.IsNil(s.CompanyID) {
		missing["companyId"] = "required"
	}
	if s.Period == "" {
		missing["period"] = "required"
	}
	if s.PeriodStart.IsZero() {
		missing["periodStart"] = "required"
	}
	if s.PeriodEnd.IsZero() {
		missing["periodEnd"] = "required"
	}
	if len(missing) > 0 {
		return apperror.NewRequiredFields(missing)
	}
	if s.PeriodEnd.Before(s.PeriodStart) {
		return apperror.NewValidation("period end must not be before period start").
			WithDetail("field", "periodEnd")
	}
	return nil
}
