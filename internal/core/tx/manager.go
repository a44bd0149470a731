// Package tx decouples domain services from the database driver.
package tx

import (
	"context"
	"errors"
)

// Manager runs a function inside one database transaction.
// The error returned by fn rolls the transaction back; nested calls reuse the
// transaction already stored in ctx.
type Manager interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ErrNoManager is returned when no Manager was attached to the request context.
var ErrNoManager = errors.New("tx manager not found in context")

type managerKey struct{}

// WithManager stores the request's Manager (set by the Database middleware).
func WithManager(ctx context.Context, m Manager) context.Context {
	return context.WithValue(ctx, managerKey{}, m)
}

// FromContext returns the Manager stored by WithManager.
func FromContext(ctx context.Context) (Manager, error) {
	if m, ok := ctx.Value(managerKey{}).(Manager); ok && m != nil {
		return m, nil
	}
	return nil, ErrNoManager
}

// MustFromContext panics when no Manager is attached.
func MustFromContext(ctx context.Context) Manager {
	m, err := FromContext(ctx)
	if err != nil {
		panic(err)
	}
	return m
}

// NoopManager runs fn directly. Used by unit tests of domain services.
type NoopManager struct{}

func (NoopManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
