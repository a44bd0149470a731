package analytics

import (
	"context"

	"workshop/internal/core/id"
)

// Repository reads invoice facts and stores snapshots.
type Repository interface {
	// InvoiceFacts returns submitted, non-cancelled invoices of the filter.
	InvoiceFacts(ctx context.Context, f Filter) ([]InvoiceFact, error)
	// LineFacts returns line amounts of the same invoices grouped by item
	// type and VAT category.
	LineFacts(ctx context.Context, f Filter) ([]LineFact, error)

	// SaveSnapshot inserts or replaces the snapshot of (company, period).
	SaveSnapshot(ctx context.Context, s *Snapshot) error
	GetSnapshot(ctx context.Context, snapshotID id.ID) (*Snapshot, error)
	ListSnapshots(ctx context.Context, companyID id.ID, limit int) ([]*Snapshot, error)
}

// Cache keeps computed dashboards. Implementations may drop entries at any
// time.
type Cache interface {
	GetDashboard(ctx context.Context, key string) (*Dashboard, bool)
	SetDashboard(ctx context.Context, companyID id.ID, key string, d *Dashboard) error
	// InvalidateCompany drops every cached dashboard of the company.
	InvalidateCompany(ctx context.Context, companyID id.ID) error
}

// NopCache never hits.
type NopCache struct{}

func (NopCache) GetDashboard(context.Context, string) (*Dashboard, bool)       { return nil, false }
func (NopCache) SetDashboard(context.Context, id.ID, string, *Dashboard) error { return nil }
func (NopCache) InvalidateCompany(context.Context, id.ID) error                { return nil }
