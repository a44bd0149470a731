// Package customer provides the Customer catalog.
package customer

import (
	"context"
	"strings"
	"time"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/domain/catalogs"
	"workshop/internal/domain/vat"
)

// Type distinguishes private customers from businesses.
type Type string

const (
	TypeIndividual Type = "individual"
	TypeCompany    Type = "company"
)

// MaxCreditDays bounds payment terms.
const MaxCreditDays = 365

// Customer is a buyer invoiced by the workshop.
type Customer struct {
	entity.Catalog

	NameAr string `db:"name_ar" json:"nameAr,omitempty" meta:"label=Name (Arabic);label_ar=الاسم بالعربية"`
	Type   Type   `db:"customer_type" json:"customerType" meta:"label=Customer Type;label_ar=نوع العميل;options=individual|company"`

	// VATNumber is optional; B2B invoices print it when set
	VATNumber *string `db:"vat_number" json:"vatNumber,omitempty" meta:"label=VAT Number;label_ar=الرقم الضريبي;section=tax;depends_on=doc.customerType == \"company\""`
	CRNumber  *string `db:"cr_number" json:"crNumber,omitempty" meta:"label=CR Number;label_ar=رقم السجل التجاري;section=tax;depends_on=doc.customerType == \"company\""`

	Phone   *string `db:"phone" json:"phone,omitempty" meta:"label_ar=الهاتف;section=contact"`
	Email   *string `db:"email" json:"email,omitempty" meta:"label_ar=البريد الإلكتروني;section=contact"`
	Address *string `db:"address" json:"address,omitempty" meta:"type=text;label_ar=العنوان;section=contact"`

	// CreditDays is the default payment term: due date = invoice date + CreditDays
	CreditDays int `db:"credit_days" json:"creditDays" meta:"label_ar=أيام الائتمان;section=tax"`
}

// NewCustomer creates a new individual Customer.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(code, name),
		Type:    TypeIndividual,
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}
	c.NameAr = strings.TrimSpace(c.NameAr)

	if c.Type == "" {
		c.Type = TypeIndividual
	}
	if c.Type != TypeIndividual && c.Type != TypeCompany {
		return apperror.NewValidation("invalid customer type").
			WithDetail("field", "customerType").
			WithDetail("value", string(c.Type))
	}

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
	if err := catalogs.ValidateEmail("email", c.Email); err != nil {
		return err
	}

	if c.CreditDays < 0 || c.CreditDays > MaxCreditDays {
		return apperror.NewValidation("credit days must be between 0 and 365").
			WithDetail("field", "creditDays")
	}
	return nil
}

// IsBusiness reports whether invoices to this customer are B2B.
func (c *Customer) IsBusiness() bool {
	return c.Type == TypeCompany
}

// DueDate applies the customer's payment term to an invoice date.
func (c *Customer) DueDate(invoiceDate time.Time) time.Time {
	return invoiceDate.AddDate(0, 0, c.CreditDays)
}

// DisplayName returns the Arabic name for Arabic locales when one is set.
func (c *Customer) DisplayName(arabic bool) string {
	if arabic && c.NameAr != "" {
		return c.NameAr
	}
	return c.Name
}
