// Package domain provides core business logic interfaces and types.
package domain

import (
	"context"
	"time"

	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain/filter"
)

// --- Filter & Pagination ---

// ListFilter contains common filtering options for list operations.
type ListFilter struct {
	// Search matches code and name (documents: number and party name)
	Search string

	// IDs filters by specific IDs
	IDs []id.ID

	// IncludeDeleted includes soft-deleted records
	IncludeDeleted bool

	// CompanyID restricts company-owned records
	CompanyID *id.ID

	// DateFrom / DateTo bound the document date (inclusive)
	DateFrom *time.Time
	DateTo   *time.Time

	// AdvancedFilters are arbitrary column conditions
	AdvancedFilters []filter.Item

	// OrderBy specifies sorting (e.g., "name", "-created_at")
	OrderBy string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{
		Limit:   50,
		OrderBy: "name",
	}
}

// Normalize clamps pagination to [1, 500].
func (f *ListFilter) Normalize() {
	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Limit > 500 {
		f.Limit = 500
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}

// ListResult contains paginated results.
type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Repository Interfaces ---

// CatalogRepository defines CRUD operations for catalog entities.
type CatalogRepository[T entity.Validatable] interface {
	Create(ctx context.Context, entity T) error

	GetByID(ctx context.Context, id id.ID) (T, error)

	// GetByCode retrieves entity by code (unique among non-deleted rows)
	GetByCode(ctx context.Context, code string) (T, error)

	// Update modifies existing entity (with optimistic locking)
	Update(ctx context.Context, entity T) error

	// SetDeletionMark sets or clears the soft-delete flag
	SetDeletionMark(ctx context.Context, id id.ID, marked bool) error

	List(ctx context.Context, filter ListFilter) (ListResult[T], error)

	Exists(ctx context.Context, id id.ID) (bool, error)

	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// --- Hooks ---

// HookEvent represents lifecycle event type.
type HookEvent string

const (
	BeforeCreate HookEvent = "before_create"
	AfterCreate  HookEvent = "after_create"
	BeforeUpdate HookEvent = "before_update"
	AfterUpdate  HookEvent = "after_update"
	BeforeDelete HookEvent = "before_delete"
	AfterDelete  HookEvent = "after_delete"

	// documents only
	BeforeSubmit HookEvent = "before_submit"
	AfterSubmit  HookEvent = "after_submit"
	AfterCancel  HookEvent = "after_cancel"
)

// Hook is a function that runs at specific lifecycle points.
type Hook[T any] func(ctx context.Context, entity T) error

// HookRegistry stores lifecycle hooks for an entity type.
type HookRegistry[T any] struct {
	hooks map[HookEvent][]Hook[T]
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry[T any]() *HookRegistry[T] {
	return &HookRegistry[T]{
		hooks: make(map[HookEvent][]Hook[T]),
	}
}

// On registers a hook for the specified event.
func (r *HookRegistry[T]) On(event HookEvent, hook Hook[T]) {
	r.hooks[event] = append(r.hooks[event], hook)
}

// Run executes hooks for the event in registration order, stopping at the first error.
func (r *HookRegistry[T]) Run(ctx context.Context, event HookEvent, entity T) error {
	for _, hook := range r.hooks[event] {
		if err := hook(ctx, entity); err != nil {
			return err
		}
	}
	return nil
}

func (r *HookRegistry[T]) OnBeforeCreate(hook Hook[T]) { r.On(BeforeCreate, hook) }
func (r *HookRegistry[T]) OnBeforeUpdate(hook Hook[T]) { r.On(BeforeUpdate, hook) }
func (r *HookRegistry[T]) OnBeforeDelete(hook Hook[T]) { r.On(BeforeDelete, hook) }

// OnBeforeSubmit hooks run after totals and the number are set, before the
// invoice is saved; an error aborts the submit.
func (r *HookRegistry[T]) OnBeforeSubmit(hook Hook[T]) { r.On(BeforeSubmit, hook) }
