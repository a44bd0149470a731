package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/pkg/logger"
)

// OutboxStatus represents the state of an outbox message.
type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusPublished OutboxStatus = "published"
	OutboxStatusFailed    OutboxStatus = "failed"
)

// DefaultMaxRetries is the number of failed attempts before a message is
// marked failed and becomes eligible for the DLQ.
const DefaultMaxRetries = 5

const insertOutboxSQL = `
	INSERT INTO sys_outbox (id, aggregate_type, aggregate_id, event_type, payload, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// OutboxMessage represents a message in the transactional outbox.
type OutboxMessage struct {
	ID            id.ID        `db:"id"`
	AggregateType string       `db:"aggregate_type"` // e.g. "sales_invoice"
	AggregateID   id.ID        `db:"aggregate_id"`
	EventType     string       `db:"event_type"` // e.g. "sales_invoice.submitted"
	Payload       []byte       `db:"payload"`
	Status        OutboxStatus `db:"status"`
	RetryCount    int          `db:"retry_count"`
	LastError     *string      `db:"last_error"`
	NextRetryAt   *time.Time   `db:"next_retry_at"`
	CreatedAt     time.Time    `db:"created_at"`
	PublishedAt   *time.Time   `db:"published_at"`
}

// OutboxPublisher writes events to the outbox table. It implements
// domain.EventPublisher.
type OutboxPublisher struct {
	txManager *TxManager
}

var _ domain.EventPublisher = (*OutboxPublisher)(nil)

// NewOutboxPublisher creates a new outbox publisher.
func NewOutboxPublisher(txManager *TxManager) *OutboxPublisher {
	return &OutboxPublisher{txManager: txManager}
}

func outboxArgs(e domain.Event, now time.Time) ([]any, error) {
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal event payload: %w", err)
	}
	return []any{id.New(), e.AggregateType, e.AggregateID, e.EventType, payload, OutboxStatusPending, now}, nil
}

// Publish writes an event to the outbox within the current transaction.
// MUST be called inside a transaction context.
func (p *OutboxPublisher) Publish(ctx context.Context, e domain.Event) error {
	tx := p.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("outbox publish requires transaction context")
	}

	args, err := outboxArgs(e, time.Now().UTC())
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, insertOutboxSQL, args...); err != nil {
		return fmt.Errorf("insert outbox message: %w", err)
	}
	return nil
}

// PublishBatch writes several events in one round trip.
func (p *OutboxPublisher) PublishBatch(ctx context.Context, events []domain.Event) error {
	now := time.Now().UTC()
	queries := make([]BatchQuery, 0, len(events))
	for _, e := range events {
		args, err := outboxArgs(e, now)
		if err != nil {
			return err
		}
		queries = append(queries, BatchQuery{SQL: insertOutboxSQL, Args: args})
	}
	if err := NewBatchInserter(p.txManager).ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("outbox batch: %w", err)
	}
	return nil
}

// OutboxHandler processes outbox messages.
type OutboxHandler interface {
	// Handle processes a message and returns error if failed
	Handle(ctx context.Context, msg *OutboxMessage) error
}

// OutboxHandlerFunc adapts a function to OutboxHandler.
type OutboxHandlerFunc func(ctx context.Context, msg *OutboxMessage) error

func (f OutboxHandlerFunc) Handle(ctx context.Context, msg *OutboxMessage) error {
	return f(ctx, msg)
}

// OutboxRelay reads pending messages and hands them to the handler. Several
// relays can run side by side: rows are claimed with FOR UPDATE SKIP LOCKED.
type OutboxRelay struct {
	txManager  *TxManager
	batchSize  int
	maxRetries int
	handler    OutboxHandler
	now        func() time.Time
}

// NewOutboxRelay creates a new outbox relay.
func NewOutboxRelay(txManager *TxManager, batchSize, maxRetries int, handler OutboxHandler) *OutboxRelay {
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &OutboxRelay{
		txManager:  txManager,
		batchSize:  batchSize,
		maxRetries: maxRetries,
		handler:    handler,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Backoff is the delay before retry number attempt (1-based): 1, 2, 4, ...
// minutes, capped at one hour.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := time.Minute
	for i := 1; i < attempt && d < time.Hour; i++ {
		d *= 2
	}
	if d > time.Hour {
		d = time.Hour
	}
	return d
}

// ProcessBatch claims pending messages and processes them in one
// transaction. Returns the number of messages handled successfully.
func (r *OutboxRelay) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	err := r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		messages := make([]*OutboxMessage, 0)
		err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &messages, `
			SELECT id, aggregate_type, aggregate_id, event_type, payload, status,
			       retry_count, last_error, next_retry_at, created_at, published_at
			FROM sys_outbox
			WHERE status = $1
			  AND (next_retry_at IS NULL OR next_retry_at <= $2)
			ORDER BY created_at
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		`, OutboxStatusPending, r.now(), r.batchSize)
		if err != nil {
			return fmt.Errorf("fetch outbox messages: %w", err)
		}

		for _, msg := range messages {
			if err := r.processMessage(ctx, msg); err != nil {
				logger.Warn(ctx, "outbox message failed",
					"message_id", msg.ID,
					"event_type", msg.EventType,
					"retry_count", msg.RetryCount+1,
					"error", err)
				continue
			}
			processed++
		}
		return nil
	})
	return processed, err
}

// processMessage runs the handler under a savepoint so that a failing
// handler only rolls back its own work.
func (r *OutboxRelay) processMessage(ctx context.Context, msg *OutboxMessage) error {
	opts := DefaultTxOptions()
	opts.Savepoint = true
	handleErr := r.txManager.RunInTransactionWithOptions(ctx, opts, func(ctx context.Context) error {
		return r.handler.Handle(ctx, msg)
	})

	q := r.txManager.GetQuerier(ctx)
	if handleErr != nil {
		attempt := msg.RetryCount + 1
		status := OutboxStatusPending
		if attempt >= r.maxRetries {
			status = OutboxStatusFailed
		}
		errStr := handleErr.Error()
		if _, err := q.Exec(ctx, `
			UPDATE sys_outbox
			SET retry_count = $1, last_error = $2, next_retry_at = $3, status = $4
			WHERE id = $5
		`, attempt, errStr, r.now().Add(Backoff(attempt)), status, msg.ID); err != nil {
			return fmt.Errorf("update failed message: %w", err)
		}
		return handleErr
	}

	if _, err := q.Exec(ctx, `
		UPDATE sys_outbox SET status = $1, published_at = $2 WHERE id = $3
	`, OutboxStatusPublished, r.now(), msg.ID); err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	return nil
}

// MoveToDLQ moves failed messages to the dead letter table.
func (r *OutboxRelay) MoveToDLQ(ctx context.Context) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx, `
		WITH moved AS (
			DELETE FROM sys_outbox
			WHERE status = $1
			RETURNING *
		)
		INSERT INTO sys_outbox_dlq
		SELECT *, NOW() AS failed_at, last_error AS failure_reason FROM moved
	`, OutboxStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("move to DLQ: %w", err)
	}
	return result.RowsAffected(), nil
}

// PurgePublished deletes published messages older than before.
func (r *OutboxRelay) PurgePublished(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.txManager.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM sys_outbox WHERE status = $1 AND published_at < $2`,
		OutboxStatusPublished, before)
	if err != nil {
		return 0, fmt.Errorf("purge outbox: %w", err)
	}
	return result.RowsAffected(), nil
}
