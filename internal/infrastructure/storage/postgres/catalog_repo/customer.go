package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/infrastructure/storage/postgres"
)

const customerTable = "cat_customers"

// CustomerRepo implements customer.Repository.
type CustomerRepo struct {
	*BaseCatalogRepo[*customer.Customer]
}

// NewCustomerRepo creates a new customer repository.
func NewCustomerRepo() *CustomerRepo {
	return &CustomerRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			customerTable,
			postgres.ExtractDBColumns[customer.Customer](),
			func() *customer.Customer { return &customer.Customer{} },
		),
	}
}

// FindByVATNumber returns the non-deleted customer registered under n.
func (r *CustomerRepo) FindByVATNumber(ctx context.Context, n string) (*customer.Customer, error) {
	return r.FindOne(ctx, squirrel.Eq{"vat_number": n, "deletion_mark": false}, n)
}
