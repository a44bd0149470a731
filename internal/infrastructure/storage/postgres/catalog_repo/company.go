package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"workshop/internal/domain/catalogs/company"
	"workshop/internal/infrastructure/storage/postgres"
)

const companyTable = "cat_companies"

// CompanyRepo implements company.Repository.
type CompanyRepo struct {
	*BaseCatalogRepo[*company.Company]
}

// NewCompanyRepo creates a new company repository.
func NewCompanyRepo() *CompanyRepo {
	return &CompanyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			companyTable,
			postgres.ExtractDBColumns[company.Company](),
			func() *company.Company { return &company.Company{} },
		),
	}
}

// GetDefault retrieves the default company.
func (r *CompanyRepo) GetDefault(ctx context.Context) (*company.Company, error) {
	return r.FindOne(ctx, squirrel.Eq{"is_default": true, "deletion_mark": false}, "default")
}

// ClearDefault resets is_default on every company.
func (r *CompanyRepo) ClearDefault(ctx context.Context) error {
	return r.clearFlag(ctx, "is_default")
}
