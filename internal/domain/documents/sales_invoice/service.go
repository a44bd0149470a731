package sales_invoice

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/core/numerator"
	"workshop/internal/core/tx"
	"workshop/internal/core/types"
	"workshop/internal/domain"
	"workshop/internal/domain/audit"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/domain/einvoice"
	"workshop/internal/domain/vat"
	"workshop/internal/metadata"
	"workshop/pkg/logger"
)

var tracer = otel.Tracer("workshop/sales_invoice")

// Outbox event types.
const (
	EventSubmitted = "sales_invoice.submitted"
	EventCancelled = "sales_invoice.cancelled"
	EventPaid      = "sales_invoice.paid"
)

// AggregateType names invoices in outbox and audit records.
const AggregateType = "sales_invoice"

// NumberSeries produces INV-2025-00001, restarting every year.
var NumberSeries = numerator.DefaultConfig("INV")

// VATConfigurations resolves the seller's VAT registration.
type VATConfigurations interface {
	ActiveFor(ctx context.Context, companyID id.ID, date time.Time) (*vat.Configuration, error)
	EnsureOpen(ctx context.Context, companyID id.ID, date time.Time) (*vat.Configuration, error)
}

// Customers looks up invoice parties.
type Customers interface {
	GetByID(ctx context.Context, customerID id.ID) (*customer.Customer, error)
}

// Companies looks up the selling company.
type Companies interface {
	GetByID(ctx context.Context, companyID id.ID) (*company.Company, error)
}

// DocValidator checks values against a registered DocType.
type DocValidator interface {
	Validate(ctx context.Context, docType string, values map[string]any) error
}

// EventPayload is the body of every invoice outbox event.
type EventPayload struct {
	InvoiceID  id.ID       `json:"invoiceId"`
	CompanyID  id.ID       `json:"companyId"`
	Number     string      `json:"number"`
	Date       time.Time   `json:"date"`
	Status     Status      `json:"status"`
	GrandTotal types.Money `json:"grandTotal"`
	VATTotal   types.Money `json:"vatTotal"`
	// Amount is set on payment events
	Amount *types.Money `json:"amount,omitempty"`
}

// Config wires the service dependencies. Companies, Events, Audit,
// Validator and TxManager are optional.
type Config struct {
	Repo      Repository
	VAT       VATConfigurations
	Customers Customers
	Companies Companies
	Numerator numerator.Generator
	Events    domain.EventPublisher
	Audit     audit.Recorder
	Validator DocValidator
	TxManager tx.Manager
	Now       func() time.Time
}

// Service provides business operations for sales invoices.
type Service struct {
	repo      Repository
	vat       VATConfigurations
	customers Customers
	companies Companies
	numerator numerator.Generator
	events    domain.EventPublisher
	audit     audit.Recorder
	validator DocValidator
	txManager tx.Manager
	now       func() time.Time
	hooks     *domain.HookRegistry[*SalesInvoice]
}

// NewService creates a new sales invoice service.
func NewService(cfg Config) *Service {
	s := &Service{
		repo:      cfg.Repo,
		vat:       cfg.VAT,
		customers: cfg.Customers,
		companies: cfg.Companies,
		numerator: cfg.Numerator,
		events:    cfg.Events,
		audit:     cfg.Audit,
		validator: cfg.Validator,
		txManager: cfg.TxManager,
		now:       cfg.Now,
		hooks:     domain.NewHookRegistry[*SalesInvoice](),
	}
	if s.events == nil {
		s.events = domain.NopPublisher{}
	}
	if s.audit == nil {
		s.audit = audit.NopRecorder{}
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	s.hooks.OnBeforeCreate(audit.EnrichCreatedBy[*SalesInvoice])
	s.hooks.OnBeforeUpdate(audit.EnrichUpdatedBy[*SalesInvoice])
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*SalesInvoice] {
	return s.hooks
}

func (s *Service) getTxManager(ctx context.Context) (tx.Manager, error) {
	if s.txManager != nil {
		return s.txManager, nil
	}
	return tx.FromContext(ctx)
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	txm, err := s.getTxManager(ctx)
	if err != nil {
		return apperror.NewInternal(err).WithDetail("missing", "tx_manager")
	}
	return txm.RunInTransaction(ctx, fn)
}

// DefaultPricing reports whether prices include VAT by default for the
// company on date. Without a VAT configuration prices are VAT exclusive.
func (s *Service) DefaultPricing(ctx context.Context, companyID id.ID, date time.Time) bool {
	cfg, err := s.vat.ActiveFor(ctx, companyID, date)
	if err != nil {
		return false
	}
	return cfg.PricesIncludeVAT
}

// prepare fills the customer snapshot and the company currency, then
// recalculates and validates a draft.
func (s *Service) prepare(ctx context.Context, doc *SalesInvoice) error {
	doc.Date = vat.DateOnly(doc.Date)
	if s.companies != nil && !id.IsNil(doc.CompanyID) {
		c, err := s.companies.GetByID(ctx, doc.CompanyID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("company not found").
					WithDetail("field", "companyId").
					WithDetail("value", doc.CompanyID.String())
			}
			return err
		}
		if !doc.HasCurrency() {
			doc.CurrencyID = c.DefaultCurrencyID
		}
	}
	if !id.IsNil(doc.CustomerID) {
		c, err := s.customers.GetByID(ctx, doc.CustomerID)
		if err != nil {
			if apperror.IsNotFound(err) {
				return apperror.NewValidation("customer not found").
					WithDetail("field", "customerId").
					WithDetail("value", doc.CustomerID.String())
			}
			return err
		}
		doc.CustomerName = c.Name
		doc.CustomerVATNumber = c.VATNumber
		if doc.DueDate == nil && c.CreditDays > 0 {
			due := c.DueDate(doc.Date)
			doc.DueDate = &due
		}
	}

	doc.Recalculate()
	doc.RefreshStatus(s.now())

	if s.validator != nil {
		if err := s.validator.Validate(ctx, DocTypeName, metadata.ToValues(doc)); err != nil {
			return err
		}
	}
	return doc.Validate(ctx)
}

// Create stores a new draft invoice.
func (s *Service) Create(ctx context.Context, doc *SalesInvoice) error {
	doc.DocStatus = entity.DocStatusDraft
	if err := s.prepare(ctx, doc); err != nil {
		return err
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.hooks.Run(ctx, domain.BeforeCreate, doc); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: AggregateType,
			EntityID:   doc.ID,
			Action:     audit.ActionCreate,
			Changes:    metadata.ToValues(doc),
		})
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, domain.AfterCreate, doc)
	logger.Info(ctx, "sales invoice created", "id", doc.ID, "customer_id", doc.CustomerID, "grand_total", doc.GrandTotal.String())
	return nil
}

// Get retrieves an invoice with lines.
func (s *Service) Get(ctx context.Context, docID id.ID) (*SalesInvoice, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *Service) loadLines(ctx context.Context, doc *SalesInvoice) error {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines
	return nil
}

// lockForChange loads the invoice with a row lock inside a transaction.
func (s *Service) lockForChange(ctx context.Context, docID id.ID) (*SalesInvoice, error) {
	doc, err := s.repo.GetForUpdate(ctx, docID)
	if err != nil {
		return nil, err
	}
	if err := s.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// Update replaces the editable fields and lines of a draft. doc.Version must
// be the version the client read.
func (s *Service) Update(ctx context.Context, doc *SalesInvoice) error {
	err := s.inTx(ctx, func(ctx context.Context) error {
		current, err := s.lockForChange(ctx, doc.ID)
		if err != nil {
			return err
		}
		if err := current.CanModify(); err != nil {
			return err
		}
		if current.Version != doc.Version {
			return apperror.NewConcurrentModification(AggregateType, doc.ID.String())
		}

		// system-maintained fields always come from storage
		doc.Number = current.Number
		doc.DocStatus = current.DocStatus
		doc.CompanyID = current.CompanyID
		doc.CreatedAt = current.CreatedAt
		doc.CreatedBy = current.CreatedBy
		doc.PaidAmount = current.PaidAmount
		doc.Touch()

		if err := s.prepare(ctx, doc); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.BeforeUpdate, doc); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: AggregateType,
			EntityID:   doc.ID,
			Action:     audit.ActionUpdate,
			Changes:    audit.Diff(metadata.ToValues(current), metadata.ToValues(doc)),
		})
	})
	if err != nil {
		return err
	}

	s.runAfter(ctx, domain.AfterUpdate, doc)
	return nil
}

// Delete marks a draft invoice deleted.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}
		if err := s.hooks.Run(ctx, domain.BeforeDelete, doc); err != nil {
			return err
		}
		if err := s.repo.SetDeletionMark(ctx, docID, true); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{EntityType: AggregateType, EntityID: docID, Action: audit.ActionDelete})
	})
}

// List retrieves invoices with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesInvoice], error) {
	filter.Normalize()
	if filter.OrderBy == "" || filter.OrderBy == "name" {
		filter.OrderBy = "-date"
	}
	for _, item := range filter.AdvancedFilters {
		if err := item.Validate(); err != nil {
			return domain.ListResult[*SalesInvoice]{}, apperror.NewValidation(err.Error())
		}
	}
	return s.repo.List(ctx, filter)
}

// Submit finalizes a draft: assigns the number, captures the seller VAT
// registration, fixes the totals and builds the QR payload.
func (s *Service) Submit(ctx context.Context, docID id.ID) (*SalesInvoice, error) {
	ctx, span := tracer.Start(ctx, "sales_invoice.submit")
	defer span.End()
	span.SetAttributes(attribute.String("invoice.id", docID.String()))

	var doc *SalesInvoice
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockForChange(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanModify(); err != nil {
			return err
		}

		cfg, err := s.vat.EnsureOpen(ctx, doc.CompanyID, doc.Date)
		if err != nil {
			return err
		}
		if err := s.prepare(ctx, doc); err != nil {
			return err
		}

		if doc.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx, NumberSeries, doc.Date)
			if err != nil {
				return fmt.Errorf("generate number: %w", err)
			}
			doc.Number = number
		}

		doc.SellerName = cfg.SellerName()
		doc.SellerVATNumber = cfg.VATNumber
		doc.MarkSubmitted(s.now())
		doc.RefreshStatus(s.now())

		qr, err := einvoice.Encode(doc.QRData())
		if err != nil {
			return err
		}
		doc.QRPayload = qr

		if err := s.hooks.Run(ctx, domain.BeforeSubmit, doc); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		if err := s.publish(ctx, EventSubmitted, doc, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: AggregateType,
			EntityID:   doc.ID,
			Action:     audit.ActionSubmit,
			Changes: map[string]any{
				"number":     doc.Number,
				"grandTotal": doc.GrandTotal.StringFixed(types.OMRScale),
				"vatTotal":   doc.VATTotal.StringFixed(types.OMRScale),
			},
		})
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("invoice.number", doc.Number))
	s.runAfter(ctx, domain.AfterSubmit, doc)
	logger.Info(ctx, "sales invoice submitted",
		"id", doc.ID,
		"number", doc.Number,
		"grand_total", doc.GrandTotal.StringFixed(types.OMRScale),
		"vat_total", doc.VATTotal.StringFixed(types.OMRScale))
	return doc, nil
}

// Cancel reverses a submitted invoice without payments. The invoice date must
// lie in an open VAT period.
func (s *Service) Cancel(ctx context.Context, docID id.ID, reason string) (*SalesInvoice, error) {
	var doc *SalesInvoice
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockForChange(ctx, docID)
		if err != nil {
			return err
		}
		if doc.DocStatus != entity.DocStatusSubmitted {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "only submitted invoices can be cancelled").
				WithDetail("docstatus", string(doc.DocStatus))
		}
		if doc.PaidAmount.IsPositive() {
			return apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice has recorded payments").
				WithDetail("paidAmount", doc.PaidAmount.StringFixed(types.OMRScale))
		}
		if _, err := s.vat.EnsureOpen(ctx, doc.CompanyID, doc.Date); err != nil {
			return err
		}

		doc.MarkCancelled(s.now())
		doc.RefreshStatus(s.now())
		if reason = strings.TrimSpace(reason); reason != "" {
			doc.Remarks = strings.TrimSpace(doc.Remarks + "\nCancelled: " + reason)
		}

		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.publish(ctx, EventCancelled, doc, nil); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: AggregateType,
			EntityID:   doc.ID,
			Action:     audit.ActionCancel,
			Changes:    map[string]any{"reason": reason},
		})
	})
	if err != nil {
		return nil, err
	}
	s.runAfter(ctx, domain.AfterCancel, doc)
	logger.Info(ctx, "sales invoice cancelled", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// RecordPayment stores a receipt and moves the invoice to partly paid or paid.
func (s *Service) RecordPayment(ctx context.Context, docID id.ID, p Payment) (*SalesInvoice, error) {
	if p.Method == "" {
		p.Method = "cash"
	}
	if !slices.Contains(PaymentMethods, p.Method) {
		return nil, apperror.NewValidation("unknown payment method").
			WithDetail("field", "method").
			WithDetail("value", p.Method)
	}

	var doc *SalesInvoice
	err := s.inTx(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.lockForChange(ctx, docID)
		if err != nil {
			return err
		}
		now := s.now()
		if p.Date.IsZero() {
			p.Date = now
		}
		p.Date = vat.DateOnly(p.Date)
		if p.Date.Before(doc.Date) {
			return apperror.NewValidation("payment date must not be before the invoice date").
				WithDetail("field", "date")
		}
		if err := doc.ApplyPayment(p.Amount, now); err != nil {
			return err
		}

		p.ID = id.New()
		p.InvoiceID = doc.ID
		p.Amount = types.RoundOMR(p.Amount)
		p.CreatedAt = now
		p.CreatedBy = audit.Actor(ctx)
		if err := s.repo.AddPayment(ctx, p); err != nil {
			return fmt.Errorf("add payment: %w", err)
		}
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.publish(ctx, EventPaid, doc, &p.Amount); err != nil {
			return err
		}
		return s.audit.Record(ctx, audit.Entry{
			EntityType: AggregateType,
			EntityID:   doc.ID,
			Action:     audit.ActionPayment,
			Changes: map[string]any{
				"amount":      p.Amount.StringFixed(types.OMRScale),
				"method":      p.Method,
				"outstanding": doc.Outstanding.StringFixed(types.OMRScale),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	logger.Info(ctx, "payment recorded", "invoice_id", doc.ID, "amount", p.Amount.StringFixed(types.OMRScale), "status", string(doc.Status))
	return doc, nil
}

// Payments lists receipts of an invoice.
func (s *Service) Payments(ctx context.Context, docID id.ID) ([]Payment, error) {
	if _, err := s.repo.GetByID(ctx, docID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, docID)
}

// MarkOverdue moves open invoices past their due date to overdue and returns
// how many changed. Each invoice is updated in its own transaction.
func (s *Service) MarkOverdue(ctx context.Context, batchSize int) (int, error) {
	today := s.now()
	candidates, err := s.repo.ListOverdueCandidates(ctx, vat.DateOnly(today), batchSize)
	if err != nil {
		return 0, fmt.Errorf("list overdue candidates: %w", err)
	}

	changed := 0
	for _, c := range candidates {
		updated := false
		err := s.inTx(ctx, func(ctx context.Context) error {
			doc, err := s.repo.GetForUpdate(ctx, c.ID)
			if err != nil {
				return err
			}
			before := doc.Status
			doc.RefreshStatus(today)
			if doc.Status == before {
				return nil
			}
			if err := s.repo.Update(ctx, doc); err != nil {
				return err
			}
			updated = true
			return nil
		})
		if err != nil {
			logger.Warn(ctx, "mark overdue failed", "invoice_id", c.ID, "error", err)
			continue
		}
		if updated {
			changed++
		}
	}
	return changed, nil
}

// QR returns the stored QR payload of a submitted invoice and its decoded
// fields.
func (s *Service) QR(ctx context.Context, docID id.ID) (string, einvoice.Payload, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return "", einvoice.Payload{}, err
	}
	if doc.QRPayload == "" {
		return "", einvoice.Payload{}, apperror.NewBusinessRule(apperror.CodeBusinessRule, "invoice has no QR code until it is submitted").
			WithDetail("docstatus", string(doc.DocStatus))
	}
	p, err := einvoice.Decode(doc.QRPayload)
	if err != nil {
		return "", einvoice.Payload{}, err
	}
	return doc.QRPayload, p, nil
}

func (s *Service) publish(ctx context.Context, eventType string, doc *SalesInvoice, amount *types.Money) error {
	return s.events.Publish(ctx, domain.Event{
		AggregateType: AggregateType,
		AggregateID:   doc.ID,
		EventType:     eventType,
		Payload: EventPayload{
			InvoiceID:  doc.ID,
			CompanyID:  doc.CompanyID,
			Number:     doc.Number,
			Date:       doc.Date,
			Status:     doc.Status,
			GrandTotal: doc.GrandTotal,
			VATTotal:   doc.VATTotal,
			Amount:     amount,
		},
	})
}

func (s *Service) runAfter(ctx context.Context, event domain.HookEvent, doc *SalesInvoice) {
	if err := s.hooks.Run(ctx, event, doc); err != nil {
		logger.Warn(ctx, "hook failed", "entity", AggregateType, "event", string(event), "error", err)
	}
}
