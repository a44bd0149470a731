package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"workshop/internal/domain/catalogs/currency"
	"workshop/internal/infrastructure/storage/postgres"
)

const currencyTable = "cat_currencies"

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*BaseCatalogRepo[*currency.Currency]
}

// NewCurrencyRepo creates a new currency repository.
func NewCurrencyRepo() *CurrencyRepo {
	return &CurrencyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			currencyTable,
			postgres.ExtractDBColumns[currency.Currency](),
			func() *currency.Currency { return &currency.Currency{} },
		),
	}
}

// FindByISOCode retrieves a non-deleted currency by ISO code.
func (r *CurrencyRepo) FindByISOCode(ctx context.Context, isoCode string) (*currency.Currency, error) {
	return r.FindOne(ctx, squirrel.Eq{"iso_code": isoCode, "deletion_mark": false}, isoCode)
}

// ClearBase clears the base flag on all currencies.
func (r *CurrencyRepo) ClearBase(ctx context.Context) error {
	return r.clearFlag(ctx, "is_base")
}
