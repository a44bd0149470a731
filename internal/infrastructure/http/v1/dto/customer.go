package dto

import (
	"workshop/internal/core/entity"
	"workshop/internal/domain/catalogs/customer"
)

// CreateCustomerRequest is the request body for creating a customer. The
// code is assigned from the CUST series when empty.
type CreateCustomerRequest struct {
	Code         string            `json:"code"`
	Name         string            `json:"name" binding:"required"`
	NameAr       string            `json:"nameAr"`
	CustomerType string            `json:"customerType" binding:"omitempty,oneof=individual company"`
	VATNumber    *string           `json:"vatNumber" binding:"omitempty,omvat"`
	CRNumber     *string           `json:"crNumber"`
	Phone        *string           `json:"phone"`
	Email        *string           `json:"email" binding:"omitempty,email"`
	Address      *string           `json:"address"`
	CreditDays   int               `json:"creditDays" binding:"min=0,max=365"`
	Attributes   entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	r.fill(c)
	return c
}

func (r *CreateCustomerRequest) fill(c *customer.Customer) {
	c.NameAr = r.NameAr
	if r.CustomerType != "" {
		c.Type = customer.Type(r.CustomerType)
	}
	c.VATNumber = r.VATNumber
	c.CRNumber = r.CRNumber
	c.Phone = r.Phone
	c.Email = r.Email
	c.Address = r.Address
	c.CreditDays = r.CreditDays
	c.Attributes = r.Attributes
}

// UpdateCustomerRequest is the request body for updating a customer.
type UpdateCustomerRequest struct {
	CreateCustomerRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCustomerRequest) ApplyTo(c *customer.Customer) {
	if r.Code != "" {
		c.Code = r.Code
	}
	c.Name = r.Name
	r.fill(c)
	c.Version = r.Version
}

// CustomerResponse is the response body for a customer.
type CustomerResponse struct {
	CatalogResponse
	NameAr       string  `json:"nameAr,omitempty"`
	CustomerType string  `json:"customerType"`
	VATNumber    *string `json:"vatNumber,omitempty"`
	CRNumber     *string `json:"crNumber,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Email        *string `json:"email,omitempty"`
	Address      *string `json:"address,omitempty"`
	CreditDays   int     `json:"creditDays"`
}

// FromCustomer creates response DTO from domain entity.
func FromCustomer(c *customer.Customer) *CustomerResponse {
	return &CustomerResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		NameAr:          c.NameAr,
		CustomerType:    string(c.Type),
		VATNumber:       c.VATNumber,
		CRNumber:        c.CRNumber,
		Phone:           c.Phone,
		Email:           c.Email,
		Address:         c.Address,
		CreditDays:      c.CreditDays,
	}
}
