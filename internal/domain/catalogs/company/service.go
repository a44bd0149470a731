package company

import (
	"context"

	"workshop/internal/core/tx"
	"workshop/internal/domain"
)

// Service provides business logic for the Company catalog.
type Service struct {
	*domain.CatalogService[*Company]
	repo Repository
}

// NewService creates a new Company service. txManager may be nil.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Company]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "company",
	})

	svc := &Service{CatalogService: base, repo: repo}
	base.Hooks().OnBeforeCreate(svc.keepSingleDefault)
	base.Hooks().OnBeforeUpdate(svc.keepSingleDefault)
	return svc
}

// keepSingleDefault clears the flag elsewhere before it is set on c.
func (s *Service) keepSingleDefault(ctx context.Context, c *Company) error {
	if !c.IsDefault {
		return nil
	}
	return s.repo.ClearDefault(ctx)
}

// GetDefault retrieves the default company.
func (s *Service) GetDefault(ctx context.Context) (*Company, error) {
	return s.repo.GetDefault(ctx)
}
