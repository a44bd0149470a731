package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/domain/vat"
)

type fakeRepo struct {
	invoices  []InvoiceFact
	lines     []LineFact
	calls     int
	lastRange [2]time.Time
	snapshots map[string]*Snapshot
}

func (r *fakeRepo) InvoiceFacts(_ context.Context, f Filter) ([]InvoiceFact, error) {
	r.calls++
	r.lastRange = [2]time.Time{f.From, f.To}
	var out []InvoiceFact
	for _, inv := range r.invoices {
		if !inv.Date.Before(f.From) && !inv.Date.After(f.To) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *fakeRepo) LineFacts(context.Context, Filter) ([]LineFact, error) {
	return r.lines, nil
}

func (r *fakeRepo) SaveSnapshot(_ context.Context, s *Snapshot) error {
	key := s.CompanyID.String() + "/" + s.Period
	if old, ok := r.snapshots[key]; ok {
		s.ID = old.ID
	}
	r.snapshots[key] = s
	return nil
}

func (r *fakeRepo) GetSnapshot(_ context.Context, snapshotID id.ID) (*Snapshot, error) {
	for _, s := range r.snapshots {
		if s.ID == snapshotID {
			return s, nil
		}
	}
	return nil, apperror.NewNotFound("snapshot", snapshotID)
}

func (r *fakeRepo) ListSnapshots(_ context.Context, companyID id.ID, limit int) ([]*Snapshot, error) {
	var out []*Snapshot
	for _, s := range r.snapshots {
		if s.CompanyID == companyID && len(out) < limit {
			out = append(out, s)
		}
	}
	return out, nil
}

type mapCache map[string]*Dashboard

func (c mapCache) GetDashboard(_ context.Context, key string) (*Dashboard, bool) {
	d, ok := c[key]
	return d, ok
}

func (c mapCache) SetDashboard(_ context.Context, _ id.ID, key string, d *Dashboard) error {
	c[key] = d
	return nil
}

func (c mapCache) InvalidateCompany(context.Context, id.ID) error {
	clear(c)
	return nil
}

func newTestService() (*Service, *fakeRepo, mapCache) {
	repo := &fakeRepo{invoices: sampleInvoices(), lines: sampleLines(), snapshots: map[string]*Snapshot{}}
	cache := mapCache{}
	svc := NewService(Config{
		Repo:      repo,
		Cache:     cache,
		TxManager: tx.NoopManager{},
		Now:       func() time.Time { return time.Date(2025, 2, 28, 15, 0, 0, 0, time.UTC) },
	})
	return svc, repo, cache
}

func TestDashboardDefaultsAndCache(t *testing.T) {
	svc, repo, cache := newTestService()
	ctx := context.Background()
	companyID := id.New()

	db, err := svc.Dashboard(ctx, Filter{CompanyID: companyID})
	require.NoError(t, err)
	assert.Equal(t, day(2025, 2, 1), repo.lastRange[0])
	assert.Equal(t, day(2025, 2, 28), repo.lastRange[1])
	assert.Equal(t, 2, db.InvoiceCount)
	assert.Len(t, cache, 1)

	_, err = svc.Dashboard(ctx, Filter{CompanyID: companyID})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	require.NoError(t, svc.Invalidate(ctx, companyID))
	_, err = svc.Dashboard(ctx, Filter{CompanyID: companyID})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}

func TestDashboardRejectsBadFilter(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Dashboard(ctx, Filter{})
	assert.True(t, apperror.HasCode(err, apperror.CodeRequiredField))

	_, err = svc.Dashboard(ctx, Filter{CompanyID: id.New(), From: day(2025, 3, 1), To: day(2025, 2, 1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = svc.Dashboard(ctx, Filter{CompanyID: id.New(), From: day(2015, 1, 1), To: day(2025, 1, 1)})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestVATReturnQuarter(t *testing.T) {
	svc, repo, _ := newTestService()

	r, err := svc.VATReturn(context.Background(), id.New(), day(2025, 2, 14), "")
	require.NoError(t, err)
	assert.Equal(t, "2025-Q1", r.Period)
	assert.Equal(t, day(2025, 3, 31), repo.lastRange[1])
	assert.Equal(t, 3, r.InvoiceCount)
	assertMoney(t, "17.000", r.OutputVAT)

	_, err = svc.VATReturn(context.Background(), id.New(), day(2025, 2, 14), "weekly")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestGenerateSnapshotReplacesPeriod(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	companyID := id.New()

	first, err := svc.GenerateSnapshot(ctx, companyID, time.Time{}, "")
	require.NoError(t, err)
	assert.Equal(t, "2025-02", first.Period)
	assert.Equal(t, 2, first.InvoiceCount)

	second, err := svc.GenerateSnapshot(ctx, companyID, day(2025, 2, 3), vat.PeriodMonthly)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	got, err := svc.GetSnapshot(ctx, first.ID)
	require.NoError(t, err)
	assertMoney(t, "252.000", got.GrossRevenue)

	list, err := svc.ListSnapshots(ctx, companyID, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
