package currency

import (
	"context"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/domain"
)

// Service provides business logic for Currency catalog.
type Service struct {
	*domain.CatalogService[*Currency]
	repo Repository
}

// NewService creates a new Currency service. txManager may be nil.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Currency]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "currency",
	})

	svc := &Service{CatalogService: base, repo: repo}
	base.Hooks().OnBeforeCreate(svc.prepareForSave)
	base.Hooks().OnBeforeUpdate(svc.prepareForSave)
	base.Hooks().OnBeforeDelete(svc.validateBeforeDelete)
	return svc
}

// prepareForSave checks ISO code uniqueness and keeps a single base currency.
func (s *Service) prepareForSave(ctx context.Context, curr *Currency) error {
	exists, err := s.isoCodeTaken(ctx, curr.ISOCode, curr.ID)
	if err != nil {
		return err
	}
	if exists {
		return apperror.NewDuplicate("currency", "isoCode", curr.ISOCode)
	}
	if curr.IsBase {
		return s.repo.ClearBase(ctx)
	}
	return nil
}

// validateBeforeDelete prevents deletion of base currency.
func (s *Service) validateBeforeDelete(ctx context.Context, curr *Currency) error {
	if curr.IsBase {
		return apperror.NewBusinessRule(apperror.CodeBusinessRule, "cannot delete base currency")
	}
	return nil
}

// FindByISOCode retrieves currency by ISO code.
func (s *Service) FindByISOCode(ctx context.Context, isoCode string) (*Currency, error) {
	return s.repo.FindByISOCode(ctx, isoCode)
}

func (s *Service) isoCodeTaken(ctx context.Context, isoCode string, excludeID id.ID) (bool, error) {
	existing, err := s.repo.FindByISOCode(ctx, isoCode)
	if err != nil {
		if apperror.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return existing.ID != excludeID, nil
}
