package analytics

import (
	"context"
	"fmt"
	"time"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/domain/vat"
	"workshop/pkg/logger"
)

// MaxRangeDays bounds a dashboard date range.
const MaxRangeDays = 3 * 366

// Config wires the analytics service. Cache, TxManager, Exporter and Now are
// optional.
type Config struct {
	Repo      Repository
	Cache     Cache
	TxManager tx.Manager
	Exporter  Exporter
	TopN      int
	Now       func() time.Time
}

// Service computes dashboards, VAT returns and snapshots.
type Service struct {
	repo      Repository
	cache     Cache
	txManager tx.Manager
	exporter  Exporter
	topN      int
	now       func() time.Time
}

// NewService creates a new analytics service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		cache:     cfg.Cache,
		txManager: cfg.TxManager,
		exporter:  cfg.Exporter,
		topN:      cfg.TopN,
		now:       cfg.Now,
	}
	if s.cache == nil {
		s.cache = NopCache{}
	}
	if s.topN <= 0 {
		s.topN = 10
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// normalize fills defaults (current month to date, TopN, AsOf) and checks
// the range.
func (s *Service) normalize(f Filter) (Filter, error) {
	if id.IsNil(f.CompanyID) {
		return f, apperror.NewRequiredFields(map[string]string{"companyId": "required"})
	}
	today := vat.DateOnly(s.now())
	if f.To.IsZero() {
		f.To = today
	}
	if f.From.IsZero() {
		f.From = time.Date(f.To.Year(), f.To.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	f.From, f.To = vat.DateOnly(f.From), vat.DateOnly(f.To)
	if f.To.Before(f.From) {
		return f, apperror.NewValidation("to must not be before from").WithDetail("field", "to")
	}
	if f.To.Sub(f.From) > MaxRangeDays*24*time.Hour {
		return f, apperror.NewValidation("date range is too long").
			WithDetail("field", "from").
			WithDetail("maxDays", MaxRangeDays)
	}
	if f.TopN <= 0 || f.TopN > 100 {
		f.TopN = s.topN
	}
	if f.AsOf.IsZero() {
		f.AsOf = today
	}
	return f, nil
}

// CacheKey identifies a dashboard in the cache.
func CacheKey(f Filter) string {
	return fmt.Sprintf("dashboard:%s:%s:%s:%d:%s",
		f.CompanyID, f.From.Format(time.DateOnly), f.To.Format(time.DateOnly), f.TopN, f.AsOf.Format(time.DateOnly))
}

// Dashboard returns the BI summary, served from cache when present.
func (s *Service) Dashboard(ctx context.Context, f Filter) (*Dashboard, error) {
	f, err := s.normalize(f)
	if err != nil {
		return nil, err
	}

	key := CacheKey(f)
	if d, ok := s.cache.GetDashboard(ctx, key); ok {
		return d, nil
	}

	d, err := s.compute(ctx, f)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetDashboard(ctx, f.CompanyID, key, d); err != nil {
		logger.Warn(ctx, "dashboard cache write failed", "company_id", f.CompanyID, "error", err)
	}
	return d, nil
}

func (s *Service) compute(ctx context.Context, f Filter) (*Dashboard, error) {
	invoices, err := s.repo.InvoiceFacts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("invoice facts: %w", err)
	}
	lines, err := s.repo.LineFacts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("line facts: %w", err)
	}
	d := BuildDashboard(f, invoices, lines)
	d.GeneratedAt = s.now()
	return d, nil
}

// VATReturn summarizes the return period containing date.
func (s *Service) VATReturn(ctx context.Context, companyID id.ID, date time.Time, period vat.ReturnPeriod) (*VATReturn, error) {
	if date.IsZero() {
		date = s.now()
	}
	if period == "" {
		period = vat.PeriodQuarterly
	}
	if !period.IsValid() {
		return nil, apperror.NewValidation("return period must be monthly or quarterly").
			WithDetail("field", "period")
	}
	from, to := vat.ReturnPeriodBounds(date, period)
	f, err := s.normalize(Filter{CompanyID: companyID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	invoices, err := s.repo.InvoiceFacts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("invoice facts: %w", err)
	}
	lines, err := s.repo.LineFacts(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("line facts: %w", err)
	}
	r := BuildVATReturn(f, len(invoices), lines)
	r.Period = vat.PeriodLabel(date, period)
	return r, nil
}

// GenerateSnapshot computes the dashboard of the period containing date and
// stores it, replacing an earlier snapshot of the same period.
func (s *Service) GenerateSnapshot(ctx context.Context, companyID id.ID, date time.Time, period vat.ReturnPeriod) (*Snapshot, error) {
	if date.IsZero() {
		date = s.now()
	}
	if period == "" {
		period = vat.PeriodMonthly
	}
	if !period.IsValid() {
		return nil, apperror.NewValidation("snapshot period must be monthly or quarterly").
			WithDetail("field", "period")
	}
	from, to := vat.ReturnPeriodBounds(date, period)
	f, err := s.normalize(Filter{CompanyID: companyID, From: from, To: to})
	if err != nil {
		return nil, err
	}

	d, err := s.compute(ctx, f)
	if err != nil {
		return nil, err
	}
	snap := NewSnapshot(vat.PeriodLabel(date, period), d)
	if err := snap.Validate(ctx); err != nil {
		return nil, err
	}

	save := func(ctx context.Context) error { return s.repo.SaveSnapshot(ctx, snap) }
	if s.txManager != nil {
		err = s.txManager.RunInTransaction(ctx, save)
	} else {
		err = save(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}

	logger.Info(ctx, "analytics snapshot generated",
		"company_id", companyID,
		"period", snap.Period,
		"invoice_count", snap.InvoiceCount)
	return snap, nil
}

// GetSnapshot returns a stored snapshot.
func (s *Service) GetSnapshot(ctx context.Context, snapshotID id.ID) (*Snapshot, error) {
	return s.repo.GetSnapshot(ctx, snapshotID)
}

// ListSnapshots returns the newest snapshots of a company first.
func (s *Service) ListSnapshots(ctx context.Context, companyID id.ID, limit int) ([]*Snapshot, error) {
	if limit <= 0 || limit > 120 {
		limit = 24
	}
	return s.repo.ListSnapshots(ctx, companyID, limit)
}

// Invalidate drops cached dashboards of the company.
func (s *Service) Invalidate(ctx context.Context, companyID id.ID) error {
	return s.cache.InvalidateCompany(ctx, companyID)
}
