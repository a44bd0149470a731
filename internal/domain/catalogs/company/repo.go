package company

import (
	"context"

	"workshop/internal/domain"
)

// Repository defines the interface for company storage.
type Repository interface {
	domain.CatalogRepository[*Company]

	GetDefault(ctx context.Context) (*Company, error)

	// ClearDefault resets is_default on every company.
	ClearDefault(ctx context.Context) error
}
