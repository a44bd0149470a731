package domain

import (
	"context"
	"fmt"
	"time"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/core/numerator"
	"workshop/internal/core/tx"
	"workshop/internal/domain/audit"
	"workshop/internal/metadata"
	"workshop/pkg/logger"
)

// Coded is implemented by catalogs whose code can be generated.
type Coded interface {
	GetCode() string
	SetCode(string)
}

// DocValidator checks values against a registered DocType, site
// customizations included.
type DocValidator interface {
	Validate(ctx context.Context, docType string, values map[string]any) error
}

// CatalogService provides business logic for catalog entities.
// TxManager may be nil; it is then taken from the request context.
type CatalogService[T entity.Validatable] struct {
	repo       CatalogRepository[T]
	txManager  tx.Manager
	numerator  numerator.Generator
	codeSeries *numerator.Config
	hooks      *HookRegistry[T]
	validator  DocValidator
	docType    string

	// entityName for error messages
	entityName string
}

// CatalogServiceConfig configures the catalog service.
type CatalogServiceConfig[T entity.Validatable] struct {
	Repo      CatalogRepository[T]
	TxManager tx.Manager
	// Numerator and CodeSeries generate codes for entities created without one
	Numerator  numerator.Generator
	CodeSeries *numerator.Config
	EntityName string
	// Validator and DocType enable DocType validation of writes
	Validator DocValidator
	DocType   string
}

// NewCatalogService creates a new catalog service with audit hooks registered.
func NewCatalogService[T entity.Validatable](cfg CatalogServiceConfig[T]) *CatalogService[T] {
	s := &CatalogService[T]{
		repo:       cfg.Repo,
		txManager:  cfg.TxManager,
		numerator:  cfg.Numerator,
		codeSeries: cfg.CodeSeries,
		hooks:      NewHookRegistry[T](),
		validator:  cfg.Validator,
		docType:    cfg.DocType,
		entityName: cfg.EntityName,
	}
	s.hooks.OnBeforeCreate(audit.EnrichCreatedBy[T])
	s.hooks.OnBeforeUpdate(audit.EnrichUpdatedBy[T])
	return s
}

func (s *CatalogService[T]) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tx.FromContext(ctx)
}

// UseValidator makes Create and Update check entities against docType.
func (s *CatalogService[T]) UseValidator(v DocValidator, docType string) {
	s.validator = v
	s.docType = docType
}

// validate runs the entity's own checks, then the DocType.
func (s *CatalogService[T]) validate(ctx context.Context, e T) error {
	if err := e.Validate(ctx); err != nil {
		return s.normalizeValidationErr(err)
	}
	if s.validator == nil || s.docType == "" {
		return nil
	}
	return s.validator.Validate(ctx, s.docType, metadata.ToValues(e))
}

// Hooks returns the hook registry for external registration.
func (s *CatalogService[T]) Hooks() *HookRegistry[T] {
	return s.hooks
}

// EntityName is used in error details.
func (s *CatalogService[T]) EntityName() string {
	return s.entityName
}

func (s *CatalogService[T]) normalizeValidationErr(err error) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewValidation(err.Error())
}

func (s *CatalogService[T]) normalizeGetErr(err error, idOrCode any) error {
	if err == nil {
		return nil
	}
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(s.entityName, idOrCode)
	}
	if apperror.IsAppError(err) {
		return err
	}
	return apperror.NewInternal(err).WithDetail("entity", s.entityName).WithDetail("id", idOrCode)
}

// Create creates a new catalog entity.
func (s *CatalogService[T]) Create(ctx context.Context, e T) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}

	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		// Code is assigned before validation so required-code catalogs pass.
		if err := s.assignCode(ctx, e); err != nil {
			return err
		}
		if err := s.validate(ctx, e); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, BeforeCreate, e); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, e); err != nil {
			return fmt.Errorf("create %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterCreate, e)
	return nil
}

func (s *CatalogService[T]) assignCode(ctx context.Context, e T) error {
	coded, ok := any(e).(Coded)
	if !ok || coded.GetCode() != "" || s.numerator == nil || s.codeSeries == nil {
		return nil
	}
	code, err := s.numerator.GetNextNumber(ctx, *s.codeSeries, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("generate %s code: %w", s.entityName, err)
	}
	coded.SetCode(code)
	return nil
}

// GetByID retrieves entity by ID.
func (s *CatalogService[T]) GetByID(ctx context.Context, entityID id.ID) (T, error) {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return e, s.normalizeGetErr(err, entityID.String())
	}
	return e, nil
}

// GetByCode retrieves entity by code.
func (s *CatalogService[T]) GetByCode(ctx context.Context, code string) (T, error) {
	e, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return e, s.normalizeGetErr(err, code)
	}
	return e, nil
}

// Update updates an existing entity.
func (s *CatalogService[T]) Update(ctx context.Context, e T) error {
	if err := s.validate(ctx, e); err != nil {
		return err
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeUpdate, e); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, e); err != nil {
			return fmt.Errorf("update %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterUpdate, e)
	return nil
}

// Delete performs soft delete.
func (s *CatalogService[T]) Delete(ctx context.Context, entityID id.ID) error {
	e, err := s.repo.GetByID(ctx, entityID)
	if err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}

	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	err = txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, BeforeDelete, e); err != nil {
			return err
		}
		if err := s.repo.SetDeletionMark(ctx, entityID, true); err != nil {
			return fmt.Errorf("delete %s: %w", s.entityName, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, AfterDelete, e)
	return nil
}

// SetDeletionMark sets or clears the deletion mark without running hooks.
func (s *CatalogService[T]) SetDeletionMark(ctx context.Context, entityID id.ID, marked bool) error {
	if err := s.repo.SetDeletionMark(ctx, entityID, marked); err != nil {
		return s.normalizeGetErr(err, entityID.String())
	}
	return nil
}

// List retrieves entities with filtering.
func (s *CatalogService[T]) List(ctx context.Context, filter ListFilter) (ListResult[T], error) {
	filter.Normalize()
	for _, item := range filter.AdvancedFilters {
		if err := item.Validate(); err != nil {
			return ListResult[T]{}, apperror.NewValidation(err.Error())
		}
	}
	return s.repo.List(ctx, filter)
}

// Exists checks if entity exists.
func (s *CatalogService[T]) Exists(ctx context.Context, entityID id.ID) (bool, error) {
	return s.repo.Exists(ctx, entityID)
}

// after-hooks run outside the transaction; the entity is already stored.
func (s *CatalogService[T]) runAfter(ctx context.Context, event HookEvent, e T) {
	if err := s.hooks.Run(ctx, event, e); err != nil {
		logger.Warn(ctx, "hook failed", "entity", s.entityName, "event", string(event), "error", err)
	}
}
