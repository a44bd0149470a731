package vat

import (
	"context"
	"fmt"
	"time"

	"workshop/internal/core/apperror"
	"workshop/internal/core/id"
	"workshop/internal/core/tx"
	"workshop/internal/domain"
	"workshop/pkg/logger"
)

// Repository stores VAT configurations.
type Repository interface {
	domain.CatalogRepository[*Configuration]

	// ListForCompany returns the non-deleted configurations of a company
	ListForCompany(ctx context.Context, companyID id.ID) ([]*Configuration, error)

	// LockCompany serializes configuration writes of a company until the
	// current transaction ends
	LockCompany(ctx context.Context, companyID id.ID) error
}

// Service manages VAT configurations.
type Service struct {
	*domain.CatalogService[*Configuration]
	repo      Repository
	txManager tx.Manager
}

// NewService creates the VAT configuration service. txManager may be nil.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Configuration]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "vat_configuration",
	})

	s := &Service{CatalogService: base, repo: repo, txManager: txManager}
	base.Hooks().OnBeforeCreate(s.checkOverlap)
	base.Hooks().OnBeforeUpdate(s.checkOverlap)
	return s
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tx.FromContext(ctx)
}

// checkOverlap keeps one active configuration per company per day. It runs
// inside the write transaction, after the company lock is taken; the schema
// backs it with an exclusion constraint.
func (s *Service) checkOverlap(ctx context.Context, cfg *Configuration) error {
	if err := s.repo.LockCompany(ctx, cfg.CompanyID); err != nil {
		return err
	}
	existing, err := s.repo.ListForCompany(ctx, cfg.CompanyID)
	if err != nil {
		return fmt.Errorf("list vat configurations: %w", err)
	}
	for _, other := range existing {
		if other.ID == cfg.ID {
			continue
		}
		if cfg.Overlaps(other) {
			return apperror.NewConflict("another active VAT configuration covers this period").
				WithDetail("conflictsWith", other.ID.String())
		}
	}
	return nil
}

// ActiveFor returns the configuration covering date.
func (s *Service) ActiveFor(ctx context.Context, companyID id.ID, date time.Time) (*Configuration, error) {
	configs, err := s.repo.ListForCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("list vat configurations: %w", err)
	}
	for _, c := range configs {
		if c.Covers(date) {
			return c, nil
		}
	}
	return nil, apperror.NewVATNotConfigured(companyID.String(), DateOnly(date).Format(time.DateOnly))
}

// EnsureOpen returns the configuration covering date, failing when the date
// belongs to a filed return.
func (s *Service) EnsureOpen(ctx context.Context, companyID id.ID, date time.Time) (*Configuration, error) {
	cfg, err := s.ActiveFor(ctx, companyID, date)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureOpen(date); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LockPeriod records that returns were filed up to until.
func (s *Service) LockPeriod(ctx context.Context, configID id.ID, until time.Time) (*Configuration, error) {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	var cfg *Configuration
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		cfg, err = s.GetByID(ctx, configID)
		if err != nil {
			return err
		}
		if err := cfg.Lock(until); err != nil {
			return err
		}
		return s.repo.Update(ctx, cfg)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "vat period locked", "config_id", configID.String(), "until", cfg.LockedUntil.Format(time.DateOnly))
	return cfg, nil
}
