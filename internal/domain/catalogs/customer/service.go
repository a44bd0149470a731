package customer

import (
	"context"

	"workshop/internal/core/apperror"
	"workshop/internal/core/numerator"
	"workshop/internal/core/tx"
	"workshop/internal/domain"
)

// CodeSeries numbers customers created without a code: CUST-00001.
var CodeSeries = numerator.Config{Prefix: "CUST", PadWidth: 5, ResetPeriod: numerator.ResetNever}

// Service provides business logic for the Customer catalog.
type Service struct {
	*domain.CatalogService[*Customer]
	repo Repository
}

// NewService creates a new Customer service. txManager may be nil.
func NewService(repo Repository, gen numerator.Generator, txManager tx.Manager) *Service {
	series := CodeSeries
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  gen,
		CodeSeries: &series,
		EntityName: "customer",
	})

	svc := &Service{CatalogService: base, repo: repo}
	base.Hooks().OnBeforeCreate(svc.checkVATNumberUnique)
	base.Hooks().OnBeforeUpdate(svc.checkVATNumberUnique)
	return svc
}

func (s *Service) checkVATNumberUnique(ctx context.Context, c *Customer) error {
	if c.VATNumber == nil {
		return nil
	}
	existing, err := s.repo.FindByVATNumber(ctx, *c.VATNumber)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != c.ID {
		return apperror.NewDuplicate("customer", "vatNumber", *c.VATNumber)
	}
	return nil
}
