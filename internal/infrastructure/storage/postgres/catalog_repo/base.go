// Package catalog_repo provides PostgreSQL implementations for catalog repositories.
// TxManager is obtained from context per-request.
package catalog_repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/internal/domain/filter"
	"workshop/internal/infrastructure/storage/postgres"
)

// pgForeignKeyViolation is the SQLSTATE of a foreign key violation.
const pgForeignKeyViolation = "23503"

// BaseCatalogRepo provides common CRUD operations for catalog entities.
// Embed this in specific catalog repositories.
type BaseCatalogRepo[T any] struct {
	tableName  string
	selectCols []string
	columns    map[string]bool
	newFn      func() T
}

// NewBaseCatalogRepo creates a new base catalog repository.
func NewBaseCatalogRepo[T any](
	tableName string,
	selectCols []string,
	newFn func() T,
) *BaseCatalogRepo[T] {
	columns := make(map[string]bool, len(selectCols))
	for _, c := range selectCols {
		columns[c] = true
	}
	return &BaseCatalogRepo[T]{
		tableName:  tableName,
		selectCols: selectCols,
		columns:    columns,
		newFn:      newFn,
	}
}

// getTxManager retrieves TxManager from context.
// Panics if not found: the Database middleware was not installed.
func (r *BaseCatalogRepo[T]) getTxManager(ctx context.Context) *postgres.TxManager {
	return postgres.MustGetTxManager(ctx)
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BaseCatalogRepo[T]) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// TableName returns the table the repository works on.
func (r *BaseCatalogRepo[T]) TableName() string {
	return r.tableName
}

// columnValues returns the entity's "db" values limited to selectCols.
func (r *BaseCatalogRepo[T]) columnValues(entity T) (map[string]any, error) {
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

// Create inserts a new entity using its "db" tags.
func (r *BaseCatalogRepo[T]) Create(ctx context.Context, entity T) error {
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

// Update modifies an existing entity with optimistic locking and bumps the
// entity's version on success.
func (r *BaseCatalogRepo[T]) Update(ctx context.Context, entity T) error {
	data, err := r.columnValues(entity)
	if err != nil {
		return err
	}

	entityID, ok := data["id"]
	if !ok {
		return fmt.Errorf("entity has no 'id' field with db tag")
	}
	version, ok := data["version"].(int)
	if !ok {
		return fmt.Errorf("entity has no 'version' field or it is not an int")
	}
	// id never changes; version is managed here
	delete(data, "id")
	delete(data, "version")

	sql, args, err := r.Builder().
		Update(r.tableName).
		SetMap(data).
		Set("version", squirrel.Expr("version + 1")).
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

// baseSelect creates a SELECT builder.
func (r *BaseCatalogRepo[T]) baseSelect() squirrel.SelectBuilder {
	return r.Builder().
		Select(r.selectCols...).
		From(r.tableName)
}

// GetByID retrieves entity by ID.
func (r *BaseCatalogRepo[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Limit(1), entityID.String())
}

// GetForUpdate retrieves entity by ID with row lock.
func (r *BaseCatalogRepo[T]) GetForUpdate(ctx context.Context, entityID id.ID) (T, error) {
	return r.get(ctx, r.baseSelect().Where(squirrel.Eq{"id": entityID}).Suffix("FOR UPDATE"), entityID.String())
}

// GetByCode retrieves a non-deleted entity by code.
func (r *BaseCatalogRepo[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return r.get(ctx, r.baseSelect().
		Where(squirrel.Eq{"code": code, "deletion_mark": false}).
		Limit(1), code)
}

// FindOne executes a SELECT built on baseSelect and returns a single entity.
func (r *BaseCatalogRepo[T]) FindOne(ctx context.Context, where squirrel.Sqlizer, key string) (T, error) {
	return r.get(ctx, r.baseSelect().Where(where).Limit(1), key)
}

// FindMany returns every row matching where, ordered by orderBy.
func (r *BaseCatalogRepo[T]) FindMany(ctx context.Context, where squirrel.Sqlizer, orderBy string) ([]T, error) {
	sql, args, err := r.baseSelect().Where(where).OrderBy(orderBy).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	items := make([]T, 0)
	if err := pgxscan.Select(ctx, r.getTxManager(ctx).GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", r.tableName, err)
	}
	return items, nil
}

func (r *BaseCatalogRepo[T]) get(ctx context.Context, q squirrel.SelectBuilder, key string) (T, error) {
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

// List retrieves entities with filtering and pagination.
func (r *BaseCatalogRepo[T]) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[T], error) {
	result := domain.ListResult[T]{
		Items:  make([]T, 0),
		Limit:  f.Limit,
		Offset: f.Offset,
	}

	q, err := r.filteredSelect(f)
	if err != nil {
		return result, err
	}

	countSQL, countArgs, err := r.Builder().
		Select("COUNT(*)").
		FromSelect(q, "sub").
		ToSql()
	if err != nil {
		return result, fmt.Errorf("build count query: %w", err)
	}

	querier := r.getTxManager(ctx).GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	orderBy, err := r.parseOrderBy(f.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

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

// filteredSelect applies every ListFilter condition except ordering and paging.
func (r *BaseCatalogRepo[T]) filteredSelect(f domain.ListFilter) (squirrel.SelectBuilder, error) {
	q := r.baseSelect()

	if !f.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		search := squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		}
		if r.columns["name_ar"] {
			search = append(search, squirrel.ILike{"name_ar": pattern})
		}
		q = q.Where(search)
	}

	if len(f.IDs) > 0 {
		q = q.Where(squirrel.Eq{"id": f.IDs})
	}

	if f.CompanyID != nil && r.columns["company_id"] {
		q = q.Where(squirrel.Eq{"company_id": *f.CompanyID})
	}

	return r.applyAdvancedFilters(q, f.AdvancedFilters)
}

// applyAdvancedFilters applies client conditions; columns are whitelisted
// against selectCols.
func (r *BaseCatalogRepo[T]) applyAdvancedFilters(q squirrel.SelectBuilder, filters []filter.Item) (squirrel.SelectBuilder, error) {
	for _, item := range filters {
		if !r.columns[item.Field] {
			return q, apperror.NewValidation("invalid filter column").WithDetail("field", item.Field)
		}
		q = q.Where(Condition(item))
	}
	return q, nil
}

// Condition translates one filter item into a squirrel predicate.
func Condition(item filter.Item) squirrel.Sqlizer {
	switch item.Operator {
	case filter.NotEqual, filter.NotInList:
		return squirrel.NotEq{item.Field: item.Value}
	case filter.LessOrEqual:
		return squirrel.LtOrEq{item.Field: item.Value}
	case filter.GreaterOrEqual:
		return squirrel.GtOrEq{item.Field: item.Value}
	case filter.Less:
		return squirrel.Lt{item.Field: item.Value}
	case filter.Greater:
		return squirrel.Gt{item.Field: item.Value}
	case filter.IsNull:
		return squirrel.Eq{item.Field: nil}
	case filter.IsNotNull:
		return squirrel.NotEq{item.Field: nil}
	case filter.Contains:
		return squirrel.ILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)}
	case filter.NotContains:
		return squirrel.NotILike{item.Field: fmt.Sprintf("%%%v%%", item.Value)}
	default:
		// eq and in: squirrel renders a slice value as IN (...)
		return squirrel.Eq{item.Field: item.Value}
	}
}

// Exists checks if entity exists.
func (r *BaseCatalogRepo[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"id": entityID})
}

// ExistsByCode checks if a non-deleted entity with the given code exists.
func (r *BaseCatalogRepo[T]) ExistsByCode(ctx context.Context, code string) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"code": code, "deletion_mark": false})
}

func (r *BaseCatalogRepo[T]) exists(ctx context.Context, where squirrel.Sqlizer) (bool, error) {
	sql, args, err := r.Builder().
		Select("1").
		From(r.tableName).
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.getTxManager(ctx).GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return true, nil
}

// Delete performs physical removal from the database. Rows referenced by
// invoices fail with a conflict.
func (r *BaseCatalogRepo[T]) Delete(ctx context.Context, entityID id.ID) error {
	sql, args, err := r.Builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return apperror.NewConflict("record is referenced by other documents").
				WithDetail("entity", r.tableName).
				WithDetail("id", entityID.String()).
				WithCause(err)
		}
		return fmt.Errorf("execute delete %s: %w", r.tableName, err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

// SetDeletionMark sets or clears the deletion mark (soft delete).
func (r *BaseCatalogRepo[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set("deletion_mark", marked).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": entityID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build set deletion mark: %w", err)
	}

	result, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute set deletion mark: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(r.tableName, entityID.String())
	}
	return nil
}

// clearFlag sets a boolean column to false on every row where it is true.
func (r *BaseCatalogRepo[T]) clearFlag(ctx context.Context, column string) error {
	sql, args, err := r.Builder().
		Update(r.tableName).
		Set(column, false).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{column: true}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear %s.%s: %w", r.tableName, column, err)
	}
	return nil
}

func (r *BaseCatalogRepo[T]) parseOrderBy(orderBy string) (string, error) {
	if orderBy == "" {
		return "name ASC", nil
	}

	// "-field" sorts descending
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
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}
	return field + " " + direction, nil
}
