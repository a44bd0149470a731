package catalog_repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/domain"
	"workshop/internal/domain/filter"
)

func testRepo() *BaseCatalogRepo[any] {
	return NewBaseCatalogRepo[any]("test_table", []string{"id", "code", "name", "name_ar", "company_id", "deletion_mark", "credit_days"}, func() any { return nil })
}

func TestApplyAdvancedFiltersOperators(t *testing.T) {
	repo := NewBaseCatalogRepo[any]("test_table", []string{"id", "col1"}, func() any { return nil })

	tests := []struct {
		name     string
		item     filter.Item
		wantSQL  string
		wantArgs []any
	}{
		{"greater", filter.Item{Field: "col1", Operator: filter.Greater, Value: 10}, "SELECT id, col1 FROM test_table WHERE col1 > $1", []any{10}},
		{"less", filter.Item{Field: "col1", Operator: filter.Less, Value: 5}, "SELECT id, col1 FROM test_table WHERE col1 < $1", []any{5}},
		{"in list", filter.Item{Field: "col1", Operator: filter.InList, Value: []string{"a", "b"}}, "SELECT id, col1 FROM test_table WHERE col1 IN ($1,$2)", []any{"a", "b"}},
		{"is null", filter.Item{Field: "col1", Operator: filter.IsNull}, "SELECT id, col1 FROM test_table WHERE col1 IS NULL", nil},
		{"contains", filter.Item{Field: "col1", Operator: filter.Contains, Value: "oil"}, "SELECT id, col1 FROM test_table WHERE col1 ILIKE $1", []any{"%oil%"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{tt.item})
			require.NoError(t, err)

			sql, args, err := q.ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			if tt.wantArgs == nil {
				assert.Empty(t, args)
				return
			}
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestApplyAdvancedFiltersRejectsUnknownColumn(t *testing.T) {
	repo := testRepo()
	_, err := repo.applyAdvancedFilters(repo.baseSelect(), []filter.Item{{Field: "password; --", Operator: filter.Equal, Value: 1}})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestFilteredSelect(t *testing.T) {
	repo := testRepo()
	companyID := id.New()

	q, err := repo.filteredSelect(domain.ListFilter{Search: "noor", CompanyID: &companyID})
	require.NoError(t, err)
	sql, args, err := q.ToSql()
	require.NoError(t, err)

	assert.Equal(t, "SELECT id, code, name, name_ar, company_id, deletion_mark, credit_days FROM test_table "+
		"WHERE deletion_mark = $1 AND (name ILIKE $2 OR code ILIKE $3 OR name_ar ILIKE $4) AND company_id = $5", sql)
	assert.Equal(t, []any{false, "%noor%", "%noor%", "%noor%", companyID}, args)
}

func TestParseOrderBy(t *testing.T) {
	repo := testRepo()

	got, err := repo.parseOrderBy("")
	require.NoError(t, err)
	assert.Equal(t, "name ASC", got)

	got, err = repo.parseOrderBy("-credit_days")
	require.NoError(t, err)
	assert.Equal(t, "credit_days DESC", got)

	_, err = repo.parseOrderBy("name; DROP TABLE x")
	assert.Error(t, err)
}

func TestDeleteSQL(t *testing.T) {
	repo := testRepo()
	entityID := id.New()

	sql, args, err := repo.Builder().
		Delete(repo.TableName()).
		Where("id = ?", entityID).
		ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM test_table WHERE id = $1", sql)
	assert.Equal(t, []any{entityID}, args)
}
