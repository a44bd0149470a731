// Package domaintest provides in-memory fakes for domain service tests.
package domaintest

import (
	"context"
	"sort"
	"strings"
	"sync"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain"
)

// Record is what MemRepo needs from a catalog entity.
type Record interface {
	entity.Validatable
	GetID() id.ID
	GetCode() string
	IsDeleted() bool
}

// MemRepo is a map-backed domain.CatalogRepository. Stored values are the
// pointers passed in, so tests can inspect them after service calls.
type MemRepo[T Record] struct {
	mu         sync.Mutex
	Items      map[id.ID]T
	SetDeleted func(T, bool)
	entityName string
}

// NewMemRepo creates an empty repository. setDeleted flips the entity's
// deletion mark.
func NewMemRepo[T Record](entityName string, setDeleted func(T, bool)) *MemRepo[T] {
	return &MemRepo[T]{Items: make(map[id.ID]T), SetDeleted: setDeleted, entityName: entityName}
}

var _ domain.CatalogRepository[*fake] = (*MemRepo[*fake])(nil)

type fake struct{ entity.Catalog }

func (r *MemRepo[T]) Create(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[e.GetID()]; ok {
		return apperror.NewDuplicate(r.entityName, "id", e.GetID().String())
	}
	r.Items[e.GetID()] = e
	return nil
}

func (r *MemRepo[T]) GetByID(_ context.Context, eid id.ID) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Items[eid]
	if !ok {
		var zero T
		return zero, apperror.NewNotFound(r.entityName, eid.String())
	}
	return e, nil
}

func (r *MemRepo[T]) GetByCode(_ context.Context, code string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Items {
		if e.GetCode() == code && !e.IsDeleted() {
			return e, nil
		}
	}
	var zero T
	return zero, apperror.NewNotFound(r.entityName, code)
}

func (r *MemRepo[T]) Update(_ context.Context, e T) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Items[e.GetID()]; !ok {
		return apperror.NewNotFound(r.entityName, e.GetID().String())
	}
	r.Items[e.GetID()] = e
	return nil
}

func (r *MemRepo[T]) SetDeletionMark(_ context.Context, eid id.ID, marked bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.Items[eid]
	if !ok {
		return apperror.NewNotFound(r.entityName, eid.String())
	}
	r.SetDeleted(e, marked)
	return nil
}

// List applies IncludeDeleted, Search (code prefix / substring) and
// pagination; results are ordered by code.
func (r *MemRepo[T]) List(_ context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := domain.ListResult[T]{Limit: f.Limit, Offset: f.Offset, Items: []T{}}
	var all []T
	for _, e := range r.Items {
		if e.IsDeleted() && !f.IncludeDeleted {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.GetCode()), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].GetCode() < all[j].GetCode() })
	res.TotalCount = int64(len(all))
	if f.Offset < len(all) {
		all = all[f.Offset:]
		if f.Limit > 0 && f.Limit < len(all) {
			all = all[:f.Limit]
		}
		res.Items = all
	}
	return res, nil
}

func (r *MemRepo[T]) Exists(_ context.Context, eid id.ID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.Items[eid]
	return ok, nil
}

func (r *MemRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	_, err := r.GetByCode(ctx, code)
	return err == nil, nil
}

// Find returns the first non-deleted item matching pred.
func (r *MemRepo[T]) Find(pred func(T) bool) (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.Items {
		if !e.IsDeleted() && pred(e) {
			return e, true
		}
	}
	var zero T
	return zero, false
}
