package customer

import (
	"context"

	"workshop/internal/domain"
)

// Repository defines the interface for customer storage.
type Repository interface {
	domain.CatalogRepository[*Customer]

	// FindByVATNumber returns the non-deleted customer registered under n.
	FindByVATNumber(ctx context.Context, n string) (*Customer, error)
}
