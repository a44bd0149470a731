// Package audit fills created_by / updated_by from the authenticated user.
package audit

import (
	"context"

	appctx "workshop/internal/core/context"
)

type creatorSetter interface {
	SetCreatedBy(string)
	SetUpdatedBy(string)
}

type updaterSetter interface {
	SetUpdatedBy(string)
}

// EnrichCreatedBy sets CreatedBy and UpdatedBy from the context user.
// Use in BeforeCreate hooks. Without a user in ctx this is a no-op.
func EnrichCreatedBy[T any](ctx context.Context, entity T) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	if e, ok := any(entity).(creatorSetter); ok {
		e.SetCreatedBy(userID)
		e.SetUpdatedBy(userID)
	}
	return nil
}

// EnrichUpdatedBy sets UpdatedBy from the context user.
// Use in BeforeUpdate hooks.
func EnrichUpdatedBy[T any](ctx context.Context, entity T) error {
	userID := appctx.GetUserID(ctx)
	if userID == "" {
		return nil
	}
	if e, ok := any(entity).(updaterSetter); ok {
		e.SetUpdatedBy(userID)
	}
	return nil
}

// Actor returns the user recorded in change logs, "system" for background jobs.
func Actor(ctx context.Context) string {
	if userID := appctx.GetUserID(ctx); userID != "" {
		return userID
	}
	return "system"
}
