package entity

import (
	"context"
	"strings"

	"workshop/internal/core/apperror"
)

// Catalog is the base type for reference data (companies, customers, currencies).
type Catalog struct {
	BaseEntity

	// Code is a human-readable identifier, unique per catalog
	Code string `db:"code" json:"code"`

	// Name is the display name (English or transliterated)
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a new Catalog with generated ID.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       strings.TrimSpace(code),
		Name:       strings.TrimSpace(name),
	}
}

// Validate implements Validatable interface.
func (c *Catalog) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewRequiredFields(map[string]string{"name": "required"})
	}
	return nil
}

func (c *Catalog) GetCode() string     { return c.Code }
func (c *Catalog) SetCode(code string) { c.Code = code }
