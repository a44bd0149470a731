package domain

import (
	"context"

	"workshop/internal/core/id"
)

// Event is a domain event delivered through the transactional outbox.
type Event struct {
	AggregateType string
	AggregateID   id.ID
	EventType     string
	Payload       any
}

// EventPublisher stores events in the current transaction.
type EventPublisher interface {
	Publish(ctx context.Context, e Event) error
}

// NopPublisher drops events.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
