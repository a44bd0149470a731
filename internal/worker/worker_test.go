package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/internal/domain/analytics"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/cache"
	"workshop/internal/infrastructure/storage/postgres"
)

type snapshotCall struct {
	companyID id.ID
	date      time.Time
	period    vat.ReturnPeriod
}

type fakeAnalytics struct {
	mu          sync.Mutex
	invalidated []id.ID
	snapshots   []snapshotCall
	failSnap    error
}

func (f *fakeAnalytics) Invalidate(_ context.Context, companyID id.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidated = append(f.invalidated, companyID)
	return nil
}

func (f *fakeAnalytics) GenerateSnapshot(_ context.Context, companyID id.ID, date time.Time, period vat.ReturnPeriod) (*analytics.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSnap != nil {
		return nil, f.failSnap
	}
	f.snapshots = append(f.snapshots, snapshotCall{companyID, date, period})
	return &analytics.Snapshot{CompanyID: companyID}, nil
}

func invoiceMessage(t *testing.T, companyID id.ID, date time.Time) *postgres.OutboxMessage {
	t.Helper()
	payload, err := json.Marshal(sales_invoice.EventPayload{
		InvoiceID: id.New(),
		CompanyID: companyID,
		Number:    "INV-2025-00001",
		Date:      date,
		Status:    sales_invoice.StatusUnpaid,
	})
	require.NoError(t, err)
	return &postgres.OutboxMessage{
		ID:            id.New(),
		AggregateType: sales_invoice.AggregateType,
		EventType:     sales_invoice.EventSubmitted,
		Payload:       payload,
	}
}

func TestEventHandler(t *testing.T) {
	ctx := context.Background()
	companyID := id.New()
	date := time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

	t.Run("invalidates and snapshots once", func(t *testing.T) {
		a := &fakeAnalytics{}
		h := NewEventHandler(a, cache.NewMemoryDeduper(), time.Hour)
		msg := invoiceMessage(t, companyID, date)

		require.NoError(t, h.Handle(ctx, msg))
		require.NoError(t, h.Handle(ctx, msg))

		assert.Equal(t, []id.ID{companyID}, a.invalidated)
		require.Len(t, a.snapshots, 1)
		assert.True(t, date.Equal(a.snapshots[0].date))
		assert.Equal(t, vat.PeriodMonthly, a.snapshots[0].period)
	})

	t.Run("failure is retried", func(t *testing.T) {
		a := &fakeAnalytics{failSnap: errors.New("db down")}
		h := NewEventHandler(a, cache.NewMemoryDeduper(), time.Hour)
		msg := invoiceMessage(t, companyID, date)

		require.Error(t, h.Handle(ctx, msg))

		a.failSnap = nil
		require.NoError(t, h.Handle(ctx, msg))
		assert.Len(t, a.snapshots, 1)
	})

	t.Run("other aggregates are ignored", func(t *testing.T) {
		a := &fakeAnalytics{}
		h := NewEventHandler(a, cache.NewMemoryDeduper(), time.Hour)
		msg := &postgres.OutboxMessage{ID: id.New(), AggregateType: "customer", EventType: "customer.created"}

		require.NoError(t, h.Handle(ctx, msg))
		assert.Empty(t, a.invalidated)
	})

	t.Run("bad payload", func(t *testing.T) {
		a := &fakeAnalytics{}
		h := NewEventHandler(a, cache.NewMemoryDeduper(), time.Hour)
		msg := invoiceMessage(t, companyID, date)
		msg.Payload = []byte("{")

		assert.Error(t, h.Handle(ctx, msg))
		assert.Empty(t, a.invalidated)
	})
}

type fakeRelay struct {
	batches  []int
	calls    int
	dlq      int64
	purgedAt time.Time
	batchErr error
}

func (r *fakeRelay) ProcessBatch(context.Context) (int, error) {
	if r.batchErr != nil {
		return 0, r.batchErr
	}
	if r.calls >= len(r.batches) {
		r.calls++
		return 0, nil
	}
	n := r.batches[r.calls]
	r.calls++
	return n, nil
}

func (r *fakeRelay) MoveToDLQ(context.Context) (int64, error) { return r.dlq, nil }

func (r *fakeRelay) PurgePublished(_ context.Context, before time.Time) (int64, error) {
	r.purgedAt = before
	return 3, nil
}

type fakeSweeper struct{ batch int }

func (s *fakeSweeper) MarkOverdue(_ context.Context, batchSize int) (int, error) {
	s.batch = batchSize
	return 2, nil
}

type fakeCompanies struct{ items []*company.Company }

func (c fakeCompanies) List(context.Context, domain.ListFilter) (domain.ListResult[*company.Company], error) {
	return domain.ListResult[*company.Company]{Items: c.items, TotalCount: int64(len(c.items))}, nil
}

type fakeCleaner struct{ called bool }

func (c *fakeCleaner) CleanupExpired(context.Context) (int64, error) {
	c.called = true
	return 1, nil
}

func TestProcessOutboxDrainsFullBatches(t *testing.T) {
	relay := &fakeRelay{batches: []int{10, 10, 4}}
	w := New(Config{Relay: relay, BatchSize: 10}, nil)

	w.ProcessOutbox(context.Background())
	assert.Equal(t, 3, relay.calls)

	failing := &fakeRelay{batchErr: errors.New("boom")}
	New(Config{Relay: failing, BatchSize: 10}, nil).ProcessOutbox(context.Background())
	assert.Equal(t, 0, failing.calls)
}

func TestScheduledJobs(t *testing.T) {
	now := time.Date(2025, 4, 2, 10, 0, 0, 0, time.UTC)
	relay := &fakeRelay{dlq: 1}
	sweeper := &fakeSweeper{}
	cleaner := &fakeCleaner{}
	a := &fakeAnalytics{}
	c1 := company.NewCompany("C1", "Muscat Trading", id.New())
	c2 := company.NewCompany("C2", "Sohar Supplies", id.New())

	w := New(Config{
		Relay:              relay,
		Invoices:           sweeper,
		Companies:          fakeCompanies{items: []*company.Company{c1, c2}},
		Analytics:          a,
		Idempotency:        cleaner,
		BatchSize:          50,
		PublishedRetention: 48 * time.Hour,
		Now:                func() time.Time { return now },
	}, nil)
	ctx := context.Background()

	w.SweepOverdue(ctx)
	assert.Equal(t, 50, sweeper.batch)

	w.RefreshSnapshots(ctx)
	require.Len(t, a.snapshots, 2)
	assert.Equal(t, c1.ID, a.snapshots[0].companyID)
	assert.Equal(t, now, a.snapshots[1].date)

	w.Maintain(ctx)
	assert.Equal(t, now.Add(-48*time.Hour), relay.purgedAt)
	assert.True(t, cleaner.called)
}

func TestRunStopsWithContext(t *testing.T) {
	relay := &fakeRelay{}
	w := New(Config{
		Relay:            relay,
		Invoices:         &fakeSweeper{},
		Companies:        fakeCompanies{},
		Analytics:        &fakeAnalytics{},
		PollInterval:     5 * time.Millisecond,
		SnapshotInterval: time.Hour,
		OverdueInterval:  time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
