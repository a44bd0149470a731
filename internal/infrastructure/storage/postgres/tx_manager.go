package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"workshop/internal/core/tx"
	"workshop/pkg/logger"
)

var tracer = otel.Tracer("workshop/tx")

var _ tx.Manager = (*TxManager)(nil)

// SQLSTATE codes after which the whole transaction may simply be run again.
const (
	sqlStateSerializationFailure = "40001"
	sqlStateDeadlockDetected     = "40P01"
)

const slowTxThreshold = 2 * time.Second

// TxOptions configures one transaction.
type TxOptions struct {
	IsolationLevel pgx.TxIsoLevel
	AccessMode     pgx.TxAccessMode

	// StatementTimeout is applied with SET LOCAL; zero keeps the server value
	StatementTimeout time.Duration

	// Savepoint isolates fn when it runs inside an outer transaction, so its
	// failure does not abort the outer one.
	Savepoint bool

	// Retries is how many times a top-level transaction is rerun after a
	// serialization failure or deadlock.
	Retries int
}

// DefaultTxOptions: read committed, 30s statement timeout, two retries.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel:   pgx.ReadCommitted,
		AccessMode:       pgx.ReadWrite,
		StatementTimeout: 30 * time.Second,
		Retries:          2,
	}
}

// TxManager runs functions in pgx transactions carried by the context.
// Invoice submission, numbering, the audit trail and the outbox all join the
// transaction found in ctx instead of opening their own.
type TxManager struct {
	pool       *pgxpool.Pool
	savepoints atomic.Uint64
}

func NewTxManager(pool *Pool) *TxManager {
	return &TxManager{pool: pool.Pool}
}

type txKey struct{}

// Tx is the active transaction stored in the context.
type Tx struct {
	pgx.Tx
}

// RunInTransaction runs fn with DefaultTxOptions. An outer transaction in ctx
// is joined.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.RunInTransactionWithOptions(ctx, DefaultTxOptions(), fn)
}

// RunInTransactionWithOptions runs fn with opts.
func (m *TxManager) RunInTransactionWithOptions(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	if outer := m.GetTx(ctx); outer != nil {
		if !opts.Savepoint {
			return fn(ctx)
		}
		return m.runSavepoint(ctx, outer, fn)
	}

	ctx, span := tracer.Start(ctx, "db.transaction", trace.WithAttributes(
		attribute.String("db.tx.isolation", string(opts.IsolationLevel)),
		attribute.String("db.tx.access_mode", string(opts.AccessMode)),
	))
	defer span.End()

	var err error
	for attempt := 0; ; attempt++ {
		err = m.runOnce(ctx, opts, fn)
		if err == nil || attempt >= opts.Retries || !retryable(err) {
			break
		}
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt+1)))
		logger.Warn(ctx, "transaction retried", "attempt", attempt+1, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 20 * time.Millisecond):
		}
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (m *TxManager) runOnce(ctx context.Context, opts TxOptions, fn func(ctx context.Context) error) error {
	pgTx, err := m.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   opts.IsolationLevel,
		AccessMode: opts.AccessMode,
	})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	// rollback must finish even when ctx is cancelled
	rollback := func(cause error) {
		if rbErr := pgTx.Rollback(context.Background()); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			logger.Error(ctx, "rollback failed", "error", rbErr, "cause", cause)
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	if opts.StatementTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL statement_timeout = %d", opts.StatementTimeout.Milliseconds())
		if _, err := pgTx.Exec(ctx, stmt); err != nil {
			rollback(err)
			return fmt.Errorf("set statement_timeout: %w", err)
		}
	}

	started := time.Now()
	txCtx := context.WithValue(ctx, txKey{}, &Tx{Tx: pgTx})
	if err := fn(txCtx); err != nil {
		rollback(err)
		return err
	}

	if err := pgTx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	if d := time.Since(started); d > slowTxThreshold {
		logger.Warn(ctx, "slow transaction", "duration", d)
	}
	return nil
}

func (m *TxManager) runSavepoint(ctx context.Context, outer *Tx, fn func(ctx context.Context) error) error {
	name := fmt.Sprintf("sp_%d", m.savepoints.Add(1))
	if _, err := outer.Exec(ctx, "SAVEPOINT "+name); err != nil {
		return fmt.Errorf("create savepoint: %w", err)
	}

	if err := fn(ctx); err != nil {
		if _, rbErr := outer.Exec(ctx, "ROLLBACK TO SAVEPOINT "+name); rbErr != nil {
			logger.Error(ctx, "rollback to savepoint failed", "savepoint", name, "error", rbErr)
		}
		return err
	}

	if _, err := outer.Exec(ctx, "RELEASE SAVEPOINT "+name); err != nil {
		return fmt.Errorf("release savepoint: %w", err)
	}
	return nil
}

func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == sqlStateSerializationFailure || pgErr.Code == sqlStateDeadlockDetected
}

// GetTx returns the transaction in ctx, or nil.
func (m *TxManager) GetTx(ctx context.Context) *Tx {
	if t, ok := ctx.Value(txKey{}).(*Tx); ok {
		return t
	}
	return nil
}

// Querier is satisfied by both the pool and a transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// GetQuerier returns the transaction in ctx, falling back to the pool.
func (m *TxManager) GetQuerier(ctx context.Context) Querier {
	if t := m.GetTx(ctx); t != nil {
		return t.Tx
	}
	return m.pool
}
