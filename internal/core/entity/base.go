package entity

import (
	"context"
	"time"

	"workshop/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for catalogs and documents.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// DeletionMark indicates soft-deleted entity
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	// Attributes stores custom fields added through DocType customization (JSONB)
	Attributes Attributes `db:"attributes" json:"attributes,omitempty"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// GetID returns the primary key.
func (b *BaseEntity) GetID() id.ID { return b.ID }

// IsDeleted reports the deletion mark.
func (b *BaseEntity) IsDeleted() bool { return b.DeletionMark }

// BumpVersion mirrors the version increment done by a successful update.
func (b *BaseEntity) BumpVersion() { b.Version++ }

// SetAttribute sets a custom field value.
func (b *BaseEntity) SetAttribute(key string, value any) {
	if b.Attributes == nil {
		b.Attributes = make(Attributes)
	}
	b.Attributes[key] = value
}

// BaseDocument extends BaseEntity with audit fields.
type BaseDocument struct {
	BaseEntity

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
	CreatedBy string    `db:"created_by" json:"createdBy,omitempty"`
	UpdatedBy string    `db:"updated_by" json:"updatedBy,omitempty"`
}

// NewBaseDocument creates a new BaseDocument with generated ID and timestamps.
func NewBaseDocument() BaseDocument {
	now := time.Now().UTC()
	return BaseDocument{
		BaseEntity: NewBaseEntity(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Touch updates the UpdatedAt timestamp.
func (b *BaseDocument) Touch() {
	b.UpdatedAt = time.Now().UTC()
}

func (b *BaseDocument) SetCreatedBy(userID string) { b.CreatedBy = userID }
func (b *BaseDocument) SetUpdatedBy(userID string) { b.UpdatedBy = userID }
