// Package worker runs the background jobs: the outbox relay, the overdue
// sweep, dashboard snapshots and table maintenance.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"workshop/internal/core/id"
	"workshop/internal/domain/analytics"
	"workshop/internal/domain/documents/sales_invoice"
	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/pkg/logger"
)

// Deduper remembers handled event IDs so a redelivered outbox row is skipped.
type Deduper interface {
	MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// Analytics is the part of the analytics service the worker drives.
type Analytics interface {
	Invalidate(ctx context.Context, companyID id.ID) error
	GenerateSnapshot(ctx context.Context, companyID id.ID, date time.Time, period vat.ReturnPeriod) (*analytics.Snapshot, error)
}

// DefaultDedupeTTL outlives the longest relay backoff.
const DefaultDedupeTTL = 72 * time.Hour

// EventHandler reacts to invoice events: it drops cached dashboards of the
// company and refreshes the monthly snapshot of the invoice's period.
type EventHandler struct {
	analytics Analytics
	dedupe    Deduper
	ttl       time.Duration
}

var _ postgres.OutboxHandler = (*EventHandler)(nil)

func NewEventHandler(a Analytics, dedupe Deduper, ttl time.Duration) *EventHandler {
	if ttl <= 0 {
		ttl = DefaultDedupeTTL
	}
	return &EventHandler{analytics: a, dedupe: dedupe, ttl: ttl}
}

// Handle implements postgres.OutboxHandler.
func (h *EventHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	if msg.AggregateType != sales_invoice.AggregateType {
		logger.Debug(ctx, "outbox event ignored", "event_type", msg.EventType, "event_id", msg.ID)
		return nil
	}

	eventID := msg.ID.String()
	first, err := h.dedupe.MarkProcessed(ctx, eventID, h.ttl)
	if err != nil {
		return fmt.Errorf("dedupe %s: %w", eventID, err)
	}
	if !first {
		logger.Debug(ctx, "duplicate outbox event skipped", "event_id", eventID)
		return nil
	}

	if err := h.apply(ctx, msg); err != nil {
		// let the relay retry it
		if ferr := h.dedupe.Forget(ctx, eventID); ferr != nil {
			logger.Warn(ctx, "dedupe forget failed", "event_id", eventID, "error", ferr)
		}
		return err
	}
	return nil
}

func (h *EventHandler) apply(ctx context.Context, msg *postgres.OutboxMessage) error {
	var p sales_invoice.EventPayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		return fmt.Errorf("decode %s payload: %w", msg.EventType, err)
	}
	if id.IsNil(p.CompanyID) {
		return fmt.Errorf("%s payload has no company", msg.EventType)
	}

	if err := h.analytics.Invalidate(ctx, p.CompanyID); err != nil {
		return fmt.Errorf("invalidate dashboards: %w", err)
	}
	if _, err := h.analytics.GenerateSnapshot(ctx, p.CompanyID, p.Date, vat.PeriodMonthly); err != nil {
		return fmt.Errorf("refresh snapshot: %w", err)
	}

	logger.Info(ctx, "invoice event applied",
		"event_type", msg.EventType,
		"invoice", p.Number,
		"company_id", p.CompanyID)
	return nil
}
