// Package document_repo provides PostgreSQL implementations for document repositories.
// TxManager is obtained from context per-request.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/infrastructure/storage/postgres/catalog_repo"
)

// BaseDocumentRepo provides common CRUD operations for document headers.
type BaseDocumentRepo[T any] struct {
	tableName  string
	selectCols []string
	columns    map[string]bool
	// searchCols are matched by ListFilter.Search
	searchCols []string
	newFn      func() T
}

// NewBaseDocumentRepo creates a new base document repository.
func NewBaseDocumentRepo[T any](
	tableName string,
	selectCols []string,
	searchCols []string,
	newFn func() T,
) *BaseDocumentRepo[T] {
	columns := make(map[string]bool, len(selectCols))
	for _, c := range selectCols {
		columns[c] = true
	}
	return &BaseDocumentRepo[T]{
		tableName:  tableName,
		selectCols: selectCols,
		columns:    columns,
		searchCols: searchCols,
		newFn:      newFn,
	}
}

// getTxManager retrieves TxManager from context.
func (r *BaseDocumentRepo[T]) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// Builder returns a new squirrel builder.
func (r *BaseDocumentRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *BaseDocumentRepo[T]) columnValues(entity T) (map[string]any, error) {
	data := postgres.StructToMap(entity)
	if len(data) == 0 {
		return nil, fmt.Errorf("no db tags found in %T", entity)
	}
	filtered := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filtered[col] = val
		}
	}
	return filtered, nil
}

// Create inserts a new document header.
func (r *BaseDocumentRepo[T]) Create(ctx context.Context, entity T) error {
	data, err := r.columnValues(entity)
	if err != nil {
		return err
	}

	sql, args, err := r.Builder().
		Insert(r.tableName).
		SetMap(data).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert %s: %w", r.tableName, err)
	}
	return nil
}

// Update updates an existing document with optimistic locking.
func (r *BaseDocumentRepo[T]) Update(ctx context.Context, entity T) error {
	data, err := r.columnValues(entity)
	if err != nil {
		return err
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}

	// immutable and repo-managed columns
	for _, col := range []string{"id", "created_at", "created_by", "version", "updated_at"} {
		delete(data, col)
	}

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": entityID}).
		Where(squirrel.Eq{"version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification(r.tableName, entityID)
	}

	if v, ok := any(entity).(interface{ BumpVersion() }); ok {
		v.BumpVersion()
	}
	return nil
}

// SetDeletionMark soft-deletes a document or restores it.
func (r *BaseDocumentRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

// baseSelect creates a SELECT builder.
func (r *BaseDocumentRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves a non-deleted document by ID.
func (r *BaseDocumentRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID, "deletion_mark": false}), entityID.String())
}

// GetByNumber retrieves a document by Number.
func (r *BaseDocumentRepo[T]) GetByNumber(ctx context.Context, number string) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"number": number, "deletion_mark": false}), number)
}

// GetForUpdate retrieves document with row lock.
func (r *BaseDocumentRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().
		Where(squirrel.Eq{"id": entityID, "deletion_mark": false}).
		Suffix("FOR UPDATE"), entityID.String())
}

// FindMany returns documents matching where in the given order.
func (r *BaseDocumentRepo[T]) FindMany(ctx context.Context, where squirrel.Sqlizer, orderBy string, limit int) ([]T, error) {
	q := r.baseSelect().Where(where).OrderBy(orderBy)
	if limit > 0 {
		q = q.Limit(uint64(limit))
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	items := make([]T, 0)
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

func (r *BaseDocumentRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
	entity := r.newFn()

	sql, args, err := q.ToSql()
	if err != nil {
		return entity, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Get(ctx, r.getTxManager(ctx).GetQuerier(ctx), entity, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return entity, apperror.NewNotFound(r.tableName, key)
		}
		return entity, fmt.Errorf("get %s: %w", r.tableName, err)
	}
	return entity, nil
}

// filteredSelect applies the common ListFilter conditions plus extra ones.
func (r *BaseDocumentRepo[T]) filteredSelect(f domain.ListFilter, extra ...squirrel.Sqlizer) (squirrel.SelectBuilder, error) {
	q := r.baseSelect()

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if f.Search != "" && len(r.searchCols) > 0 {
		pattern := "%" + f.Search + "%"
		search := squirrel.Or{}
		for _, col := range r.searchCols {
			search = append(search, squirrel.ILike{col: pattern})
		}
		q = q.Where(search)
	}
	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}
	if f.CompanyID != nil {
		q = q.Where(squirrel.Eq{"company_id": *f.CompanyID})
	}
	if f.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *f.DateFrom})
	}
	if f.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *f.DateTo})
	}
	for _, cond := range extra {
		q = q.Where(cond)
	}

	for _, item := range f.AdvancedFilters {
		if !r.columns[item.Field] {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}
		q = q.Where(catalog_repo.Condition(item))
	}
	return q, nil
}

// List retrieves documents with standard filtering plus extra conditions.
func (r *BaseDocumentRepo[T]) List(ctx context.Context, f domain.ListFilter, extra ...squirrel.Sqlizer) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  make([]T, 0),
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q, err := r.filteredSelect(f, extra...)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().Select("COUNT(*)").FromSelect(q, "sub").ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy, "id")

	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list: %w", err)
	}
	return result, nil
}

func (r *BaseDocumentRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" || !r.columns[field] {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
	}
	return field + " " + direction, nil
}
