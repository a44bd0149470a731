package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter writes many rows with the COPY protocol. It must run inside
// a transaction started by the TxManager.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice inserts rows (each matching columns) into table.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("copy into %s requires a transaction", table)
	}
	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// BatchQuery is one statement of a batch.
type BatchQuery struct {
	SQL  string
	Args []any
}

// ExecuteBatch sends the queries in one round trip inside the current
// transaction.
func (b *BatchInserter) ExecuteBatch(ctx context.Context, queries []BatchQuery) error {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("batch requires a transaction")
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for range queries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch query failed: %w", err)
		}
	}
	return nil
}
