package dto

import (
	"workshop/internal/core/entity"
	"workshop/internal/domain/catalogs/company"
)

// CreateCompanyRequest is the request body for creating a company.
type CreateCompanyRequest struct {
	Code              string            `json:"code"`
	Name              string            `json:"name" binding:"required"`
	NameAr            string            `json:"nameAr"`
	VATNumber         *string           `json:"vatNumber" binding:"omitempty,omvat"`
	CRNumber          *string           `json:"crNumber"`
	Address           *string           `json:"address"`
	Phone             *string           `json:"phone"`
	Email             *string           `json:"email" binding:"omitempty,email"`
	DefaultCurrencyID string            `json:"defaultCurrencyId" binding:"required,uuid"`
	IsDefault         bool              `json:"isDefault"`
	Attributes        entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCompanyRequest) ToEntity() *company.Company {
	c := company.NewCompany(r.Code, r.Name, parseID(r.DefaultCurrencyID))
	c.NameAr = r.NameAr
	c.VATNumber = r.VATNumber
	c.CRNumber = r.CRNumber
	c.Address = r.Address
	c.Phone = r.Phone
	c.Email = r.Email
	c.IsDefault = r.IsDefault
	c.Attributes = r.Attributes
	return c
}

// UpdateCompanyRequest is the request body for updating a company.
type UpdateCompanyRequest struct {
	CreateCompanyRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCompanyRequest) ApplyTo(c *company.Company) {
	if r.Code != "" {
		c.Code = r.Code
	}
	c.Name = r.Name
	c.NameAr = r.NameAr
	c.VATNumber = r.VATNumber
	c.CRNumber = r.CRNumber
	c.Address = r.Address
	c.Phone = r.Phone
	c.Email = r.Email
	c.DefaultCurrencyID = parseID(r.DefaultCurrencyID)
	c.IsDefault = r.IsDefault
	c.Attributes = r.Attributes
	c.Version = r.Version
}

// CompanyResponse is the response body for a company.
type CompanyResponse struct {
	CatalogResponse
	NameAr            string  `json:"nameAr,omitempty"`
	VATNumber         *string `json:"vatNumber,omitempty"`
	CRNumber          *string `json:"crNumber,omitempty"`
	Address           *string `json:"address,omitempty"`
	Phone             *string `json:"phone,omitempty"`
	Email             *string `json:"email,omitempty"`
	DefaultCurrencyID string  `json:"defaultCurrencyId"`
	IsDefault         bool    `json:"isDefault"`
}

// FromCompany creates response DTO from domain entity.
func FromCompany(c *company.Company) *CompanyResponse {
	return &CompanyResponse{
		CatalogResponse:   FromCatalog(c.Catalog),
		NameAr:            c.NameAr,
		VATNumber:         c.VATNumber,
		CRNumber:          c.CRNumber,
		Address:           c.Address,
		Phone:             c.Phone,
		Email:             c.Email,
		DefaultCurrencyID: idString(c.DefaultCurrencyID),
		IsDefault:         c.IsDefault,
	}
}
