// Package app wires repositories and domain services. The server, the worker
// and the seeder share one object graph.
package app

import (
	"context"
	"fmt"
	"time"

	"workshop/internal/doctypes"
	"workshop/internal/domain/analytics"
	"workshop/internal/domain/catalogs/company"
	"workshop/internal/domain/catalogs/currency"
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/export"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/infrastructure/storage/postgres/analytics_repo"
	"workshop/internal/infrastructure/storage/postgres/catalog_repo"
	"workshop/internal/infrastructure/storage/postgres/document_repo"
	"workshop/internal/metadata"
	"workshop/pkg/numerator"
)

// Deps are the shared infrastructure handles.
type Deps struct {
	TxManager *postgres.TxManager
	// Registry validates catalog and invoice writes against their DocTypes,
	// site customizations included; optional
	Registry *metadata.Registry
	// DashboardCache is optional
	DashboardCache analytics.Cache
	TopCustomers   int
	Now            func() time.Time
}

// Services is the application object graph.
type Services struct {
	Companies  *company.Service
	Customers  *customer.Service
	Currencies *currency.Service
	VAT        *vat.Service
	Invoices   *sales_invoice.Service
	Analytics  *analytics.Service

	Numerator *numerator.Service
	Audit     *postgres.AuditService
	Outbox    *postgres.OutboxPublisher
}

// New builds every service on top of d.
func New(d Deps) (*Services, error) {
	if d.TxManager == nil {
		return nil, fmt.Errorf("app: tx manager is required")
	}

	auditSvc, err := postgres.NewAuditService(d.TxManager)
	if err != nil {
		return nil, fmt.Errorf("app: audit service: %w", err)
	}

	// numbers are issued on the transaction of the calling operation
	gen := numerator.NewWithResolver(func(ctx context.Context) numerator.Querier {
		return postgres.MustGetTxManager(ctx).GetQuerier(ctx)
	})

	s := &Services{
		Companies:  company.NewService(catalog_repo.NewCompanyRepo(), d.TxManager),
		Customers:  customer.NewService(catalog_repo.NewCustomerRepo(), gen, d.TxManager),
		Currencies: currency.NewService(catalog_repo.NewCurrencyRepo(), d.TxManager),
		VAT:        vat.NewService(catalog_repo.NewVATConfigurationRepo(), d.TxManager),
		Numerator:  gen,
		Audit:      auditSvc,
		Outbox:     postgres.NewOutboxPublisher(d.TxManager),
	}

	invoiceCfg := sales_invoice.Config{
		Repo:      document_repo.NewSalesInvoiceRepo(),
		VAT:       s.VAT,
		Customers: s.Customers,
		Companies: s.Companies,
		Numerator: gen,
		Events:    s.Outbox,
		Audit:     auditSvc,
		TxManager: d.TxManager,
		Now:       d.Now,
	}
	if d.Registry != nil {
		invoiceCfg.Validator = d.Registry
		s.Companies.UseValidator(d.Registry, doctypes.Company)
		s.Customers.UseValidator(d.Registry, doctypes.Customer)
		s.Currencies.UseValidator(d.Registry, doctypes.Currency)
		s.VAT.UseValidator(d.Registry, doctypes.VATConfiguration)
	}
	s.Invoices = sales_invoice.NewService(invoiceCfg)

	s.Analytics = analytics.NewService(analytics.Config{
		Repo:      analytics_repo.NewAnalyticsRepo(),
		Cache:     d.DashboardCache,
		TxManager: d.TxManager,
		Exporter:  export.NewXLSX(),
		TopN:      d.TopCustomers,
		Now:       d.Now,
	})
	return s, nil
}
