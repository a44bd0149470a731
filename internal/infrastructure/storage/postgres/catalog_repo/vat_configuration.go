package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/storage/postgres"
)

const vatConfigurationTable = "cat_vat_configurations"

// pgExclusionViolation is raised by ex_cat_vat_configurations_active_period.
const pgExclusionViolation = "23P01"

// lockCompanySQL serializes writers of one company's configurations until
// the end of the transaction.
const lockCompanySQL = `SELECT pg_advisory_xact_lock(hashtextextended('cat_vat_configurations:' || $1::text, 0))`

// VATConfigurationRepo implements vat.Repository.
type VATConfigurationRepo struct {
	*BaseCatalogRepo[*vat.Configuration]
}

// NewVATConfigurationRepo creates a new VAT configuration repository.
func NewVATConfigurationRepo() *VATConfigurationRepo {
	return &VATConfigurationRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			vatConfigurationTable,
			postgres.ExtractDBColumns[vat.Configuration](),
			func() *vat.Configuration { return &vat.Configuration{} },
		),
	}
}

// ListForCompany returns the non-deleted configurations of a company, oldest first.
func (r *VATConfigurationRepo) ListForCompany(ctx context.Context, companyID id.ID) ([]*vat.Configuration, error) {
	return r.FindMany(ctx, squirrel.Eq{"company_id": companyID, "deletion_mark": false}, "effective_from ASC")
}

// LockCompany takes a transaction-scoped advisory lock on the company.
func (r *VATConfigurationRepo) LockCompany(ctx context.Context, companyID id.ID) error {
	if _, err := r.getTxManager(ctx).GetQuerier(ctx).Exec(ctx, lockCompanySQL, companyID.String()); err != nil {
		return fmt.Errorf("lock vat configurations of %s: %w", companyID, err)
	}
	return nil
}

func (r *VATConfigurationRepo) Create(ctx context.Context, cfg *vat.Configuration) error {
	return overlapConflict(r.BaseCatalogRepo.Create(ctx, cfg), cfg)
}

func (r *VATConfigurationRepo) Update(ctx context.Context, cfg *vat.Configuration) error {
	return overlapConflict(r.BaseCatalogRepo.Update(ctx, cfg), cfg)
}

func overlapConflict(err error, cfg *vat.Configuration) error {
	var pgErr *pgconn.PgError
	if err == nil || !errors.As(err, &pgErr) || pgErr.Code != pgExclusionViolation {
		return err
	}
	return apperror.NewConflict("another active VAT configuration covers this period").
		WithDetail("companyId", cfg.CompanyID.String()).
		WithCause(err)
}
