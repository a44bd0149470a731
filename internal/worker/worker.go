package worker

import (
	"context"
	"sync"
	"time"

	"workshop/internal/domain"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/vat"
	"workshop/pkg/logger"
)

// Relay drains the transactional outbox.
type Relay interface {
	ProcessBatch(ctx context.Context) (int, error)
	MoveToDLQ(ctx context.Context) (int64, error)
	PurgePublished(ctx context.Context, before time.Time) (int64, error)
}

// OverdueSweeper moves unpaid invoices past their due date to overdue.
type OverdueSweeper interface {
	MarkOverdue(ctx context.Context, batchSize int) (int, error)
}

// CompanyLister lists the companies that get periodic snapshots.
type CompanyLister interface {
	List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*company.Company], error)
}

// ExpiredCleaner deletes expired rows, e.g. idempotency keys.
type ExpiredCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// Config wires the worker. Idempotency is optional.
type Config struct {
	Relay       Relay
	Invoices    OverdueSweeper
	Companies   CompanyLister
	Analytics   Analytics
	Idempotency ExpiredCleaner

	PollInterval     time.Duration
	BatchSize        int
	SnapshotInterval time.Duration
	OverdueInterval  time.Duration
	// MaintenanceInterval schedules DLQ moves and purges; default one hour
	MaintenanceInterval time.Duration
	// PublishedRetention is how long published outbox rows are kept
	PublishedRetention time.Duration

	Now func() time.Time
}

// Worker runs every job on its own ticker.
type Worker struct {
	cfg Config
	log *logger.Logger
}

func New(cfg Config, log *logger.Logger) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = time.Hour
	}
	if cfg.OverdueInterval <= 0 {
		cfg.OverdueInterval = 15 * time.Minute
	}
	if cfg.MaintenanceInterval <= 0 {
		cfg.MaintenanceInterval = time.Hour
	}
	if cfg.PublishedRetention <= 0 {
		cfg.PublishedRetention = 7 * 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Worker{cfg: cfg, log: log.WithComponent("worker")}
}

// Run blocks until ctx is done. ctx must carry the transaction manager.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	loop := func(name string, every time.Duration, job func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(every)
			defer ticker.Stop()
			w.log.Infow("job started", "job", name, "interval", every)
			for {
				select {
				case <-ctx.Done():
					w.log.Infow("job stopped", "job", name)
					return
				case <-ticker.C:
					job(ctx)
				}
			}
		}()
	}

	loop("outbox", w.cfg.PollInterval, w.ProcessOutbox)
	loop("overdue", w.cfg.OverdueInterval, w.SweepOverdue)
	loop("snapshots", w.cfg.SnapshotInterval, w.RefreshSnapshots)
	loop("maintenance", w.cfg.MaintenanceInterval, w.Maintain)

	wg.Wait()
}

// ProcessOutbox drains full batches until the outbox is empty or a batch
// fails.
func (w *Worker) ProcessOutbox(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := w.cfg.Relay.ProcessBatch(ctx)
		if err != nil {
			w.log.Errorw("outbox batch failed", "error", err)
			return
		}
		if n > 0 {
			w.log.Debugw("processed outbox batch", "count", n)
		}
		if n < w.cfg.BatchSize {
			return
		}
	}
}

func (w *Worker) SweepOverdue(ctx context.Context) {
	n, err := w.cfg.Invoices.MarkOverdue(ctx, w.cfg.BatchSize)
	if err != nil {
		w.log.Errorw("overdue sweep failed", "error", err)
		return
	}
	if n > 0 {
		w.log.Infow("invoices marked overdue", "count", n)
	}
}

// RefreshSnapshots regenerates the current month snapshot of every active
// company.
func (w *Worker) RefreshSnapshots(ctx context.Context) {
	f := domain.DefaultListFilter()
	f.Limit = 500
	res, err := w.cfg.Companies.List(ctx, f)
	if err != nil {
		w.log.Errorw("list companies failed", "error", err)
		return
	}
	now := w.cfg.Now()
	for _, c := range res.Items {
		if _, err := w.cfg.Analytics.GenerateSnapshot(ctx, c.ID, now, vat.PeriodMonthly); err != nil {
			w.log.Warnw("snapshot failed", "company_id", c.ID, "error", err)
		}
	}
}

// Maintain moves exhausted outbox rows to the DLQ and deletes old rows.
func (w *Worker) Maintain(ctx context.Context) {
	if n, err := w.cfg.Relay.MoveToDLQ(ctx); err != nil {
		w.log.Errorw("move to dlq failed", "error", err)
	} else if n > 0 {
		w.log.Warnw("outbox messages moved to dlq", "count", n)
	}

	before := w.cfg.Now().Add(-w.cfg.PublishedRetention)
	if n, err := w.cfg.Relay.PurgePublished(ctx, before); err != nil {
		w.log.Errorw("purge published failed", "error", err)
	} else if n > 0 {
		w.log.Infow("purged published outbox messages", "count", n)
	}

	if w.cfg.Idempotency == nil {
		return
	}
	if n, err := w.cfg.Idempotency.CleanupExpired(ctx); err != nil {
		w.log.Errorw("idempotency cleanup failed", "error", err)
	} else if n > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", n)
	}
}
