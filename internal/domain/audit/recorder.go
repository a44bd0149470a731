package audit

import (
	"context"
	"reflect"

	"workshop/internal/core/id"
)

// Action is the audited operation.
type Action string

const (
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionSubmit  Action = "submit"
	ActionCancel  Action = "cancel"
	ActionPayment Action = "payment"
	ActionLock    Action = "lock"
)

// Entry is one change log record.
type Entry struct {
	EntityType string
	EntityID   id.ID
	Action     Action
	Changes    map[string]any
}

// Recorder writes change log records inside the caller's transaction.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// NopRecorder discards entries.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Entry) error { return nil }

// Diff returns {"field": {"old": .., "new": ..}} for every key whose value
// differs between the two states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)
	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists || !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}
	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}
	return changes
}

func equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}
