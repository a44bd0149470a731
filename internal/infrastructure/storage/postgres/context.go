package postgres

import (
	"context"
	"fmt"

	"workshop/internal/core/tx"
)

// WithTxManager attaches m to ctx as the request's tx.Manager.
func WithTxManager(ctx context.Context, m *TxManager) context.Context {
	return tx.WithManager(ctx, m)
}

// MustGetTxManager returns *postgres.TxManager from context.
// It is meant for infrastructure code that needs access to GetQuerier()/GetTx().
//
// Domain code should depend only on internal/core/tx.Manager.
func MustGetTxManager(ctx context.Context) *TxManager {
	txm := tx.MustFromContext(ctx)
	postgresTxm, ok := txm.(*TxManager)
	if !ok || postgresTxm == nil {
		panic(fmt.Sprintf("TxManager in context has unexpected type: %T", txm))
	}
	return postgresTxm
}
