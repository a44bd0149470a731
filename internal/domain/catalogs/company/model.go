// Package company provides the Company catalog: the VAT-registered seller
// that issues invoices.
package company

import (
	"context"
	"strings"

	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain/catalogs"
	"workshop/internal/domain/vat"
)

// Company is a legal entity of the workshop.
type Company struct {
	entity.Catalog

	NameAr string `db:"name_ar" json:"nameAr,omitempty" meta:"label=Name (Arabic);label_ar=الاسم بالعربية"`

	// VATNumber is the registration shown on documents; the VAT Configuration
	// is authoritative for invoicing.
	VATNumber *string `db:"vat_number" json:"vatNumber,omitempty" meta:"label=VAT Number;label_ar=الرقم الضريبي;section=registration"`

	// CRNumber is the Commercial Registration number
	CRNumber *string `db:"cr_number" json:"crNumber,omitempty" meta:"label=CR Number;label_ar=رقم السجل التجاري;section=registration"`

	Address *string `db:"address" json:"address,omitempty" meta:"type=text;label_ar=العنوان;section=contact"`
	Phone   *string `db:"phone" json:"phone,omitempty" meta:"label_ar=الهاتف;section=contact"`
	Email   *string `db:"email" json:"email,omitempty" meta:"label_ar=البريد الإلكتروني;section=contact"`

	DefaultCurrencyID id.ID `db:"default_currency_id" json:"defaultCurrencyId" meta:"label=Default Currency;label_ar=العملة الافتراضية;ref=Currency"`

	// IsDefault marks the company preselected on new documents
	IsDefault bool `db:"is_default" json:"isDefault" meta:"label_ar=افتراضي"`
}

// NewCompany creates a new Company with required fields.
func NewCompany(code, name string, defaultCurrencyID id.ID) *Company {
	return &Company{
		Catalog:           entity.NewCatalog(code, name),
		DefaultCurrencyID: defaultCurrencyID,
	}
}

// Validate implements entity.Validatable interface.
func (c *Company) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	c.NameAr = strings.TrimSpace(c.NameAr)

	if c.VATNumber != nil {
		if strings.TrimSpace(*c.VATNumber) == "" {
			c.VATNumber = nil
		} else {
			n, err := vat.ValidateNumber("vatNumber", *c.VATNumber)
			if err != nil {
				return err
			}
			c.VATNumber = &n
		}
	}
	if err := catalogs.ValidateCRNumber("crNumber", c.CRNumber); err != nil {
		return err
	}
	if err := catalogs.ValidatePhone("phone", c.Phone); err != nil {
		return err
	}
	return catalogs.ValidateEmail("email", c.Email)
}

// DisplayName returns the Arabic name for Arabic locales when one is set.
func (c *Company) DisplayName(arabic bool) string {
	if arabic && c.NameAr != "" {
		return c.NameAr
	}
	return c.Name
}
