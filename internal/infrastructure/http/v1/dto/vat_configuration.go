package dto

import (
	"time"

	"workshop/internal/core/entity"
	"workshop/internal/domain/vat"
)

// CreateVATConfigurationRequest is the request body for registering a
// company for VAT. The rate is always the standard rate.
type CreateVATConfigurationRequest struct {
	CompanyID          string            `json:"companyId" binding:"required,uuid"`
	VATNumber          string            `json:"vatNumber" binding:"required,omvat"`
	RegistrationName   string            `json:"registrationName" binding:"required"`
	RegistrationNameAr string            `json:"registrationNameAr"`
	PricesIncludeVAT   bool              `json:"pricesIncludeVat"`
	ReturnPeriod       string            `json:"returnPeriod" binding:"omitempty,oneof=monthly quarterly"`
	EffectiveFrom      string            `json:"effectiveFrom" binding:"required,datetime=2006-01-02"`
	EffectiveTo        *string           `json:"effectiveTo" binding:"omitempty,datetime=2006-01-02"`
	IsActive           *bool             `json:"isActive"`
	Attributes         entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateVATConfigurationRequest) ToEntity() *vat.Configuration {
	c := vat.NewConfiguration(parseID(r.CompanyID), r.VATNumber, r.RegistrationName, parseDate(r.EffectiveFrom))
	r.fill(c)
	return c
}

func (r *CreateVATConfigurationRequest) fill(c *vat.Configuration) {
	c.RegistrationNameAr = r.RegistrationNameAr
	c.PricesIncludeVAT = r.PricesIncludeVAT
	if r.ReturnPeriod != "" {
		c.ReturnPeriod = vat.ReturnPeriod(r.ReturnPeriod)
	}
	c.EffectiveTo = parseOptionalDate(r.EffectiveTo)
	if r.IsActive != nil {
		c.IsActive = *r.IsActive
	}
	c.Attributes = r.Attributes
}

// UpdateVATConfigurationRequest is the request body for updating a VAT
// configuration. The company cannot change.
type UpdateVATConfigurationRequest struct {
	CreateVATConfigurationRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateVATConfigurationRequest) ApplyTo(c *vat.Configuration) {
	c.VATNumber = vat.NormalizeNumber(r.VATNumber)
	c.RegistrationName = r.RegistrationName
	c.Name = r.RegistrationName
	c.EffectiveFrom = vat.DateOnly(parseDate(r.EffectiveFrom))
	r.fill(c)
	c.Version = r.Version
}

// LockVATPeriodRequest records a filed return.
type LockVATPeriodRequest struct {
	Until string `json:"until" binding:"required,datetime=2006-01-02"`
}

// UntilDate returns the parsed lock date.
func (r *LockVATPeriodRequest) UntilDate() time.Time { return parseDate(r.Until) }

// VATConfigurationResponse is the response body for a VAT configuration.
type VATConfigurationResponse struct {
	CatalogResponse
	CompanyID          string  `json:"companyId"`
	VATNumber          string  `json:"vatNumber"`
	RegistrationName   string  `json:"registrationName"`
	RegistrationNameAr string  `json:"registrationNameAr,omitempty"`
	Rate               string  `json:"rate"`
	RatePercent        string  `json:"ratePercent"`
	PricesIncludeVAT   bool    `json:"pricesIncludeVat"`
	ReturnPeriod       string  `json:"returnPeriod"`
	EffectiveFrom      string  `json:"effectiveFrom"`
	EffectiveTo        *string `json:"effectiveTo,omitempty"`
	LockedUntil        *string `json:"lockedUntil,omitempty"`
	IsActive           bool    `json:"isActive"`
}

// FromVATConfiguration creates response DTO from domain entity.
func FromVATConfiguration(c *vat.Configuration) *VATConfigurationResponse {
	return &VATConfigurationResponse{
		CatalogResponse:    FromCatalog(c.Catalog),
		CompanyID:          idString(c.CompanyID),
		VATNumber:          c.VATNumber,
		RegistrationName:   c.RegistrationName,
		RegistrationNameAr: c.RegistrationNameAr,
		Rate:               c.Rate.String(),
		RatePercent:        c.Rate.Shift(2).StringFixed(2),
		PricesIncludeVAT:   c.PricesIncludeVAT,
		ReturnPeriod:       string(c.ReturnPeriod),
		EffectiveFrom:      c.EffectiveFrom.Format(time.DateOnly),
		EffectiveTo:        formatOptionalDate(c.EffectiveTo),
		LockedUntil:        formatOptionalDate(c.LockedUntil),
		IsActive:           c.IsActive,
	}
}
