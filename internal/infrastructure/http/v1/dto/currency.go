package dto

import (
	"workshop/internal/core/entity"
	"workshop/internal/domain/catalogs/currency"
)

// CreateCurrencyRequest is the request body for creating a currency.
type CreateCurrencyRequest struct {
	Code           string            `json:"code"`
	Name           string            `json:"name" binding:"required"`
	ISOCode        string            `json:"isoCode" binding:"required,len=3"`
	ISONumericCode *string           `json:"isoNumericCode"`
	Symbol         string            `json:"symbol" binding:"required"`
	SymbolAr       string            `json:"symbolAr"`
	MinorUnit      string            `json:"minorUnit"`
	DecimalPlaces  *int              `json:"decimalPlaces" binding:"omitempty,min=0,max=4"`
	IsBase         bool              `json:"isBase"`
	Attributes     entity.Attributes `json:"attributes"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateCurrencyRequest) ToEntity() *currency.Currency {
	c := currency.NewCurrency(r.ISOCode, r.Name, r.Symbol)
	if r.Code != "" {
		c.Code = r.Code
	}
	if c.ISOCode == currency.CodeOMR {
		c.DecimalPlaces = 3
	}
	r.fill(c)
	return c
}

func (r *CreateCurrencyRequest) fill(c *currency.Currency) {
	c.ISONumericCode = r.ISONumericCode
	c.SymbolAr = r.SymbolAr
	c.MinorUnit = r.MinorUnit
	if r.DecimalPlaces != nil {
		c.DecimalPlaces = *r.DecimalPlaces
	}
	c.IsBase = r.IsBase
	c.Attributes = r.Attributes
}

// UpdateCurrencyRequest is the request body for updating a currency.
type UpdateCurrencyRequest struct {
	CreateCurrencyRequest
	Version int `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateCurrencyRequest) ApplyTo(c *currency.Currency) {
	if r.Code != "" {
		c.Code = r.Code
	}
	c.Name = r.Name
	c.ISOCode = r.ISOCode
	c.Symbol = r.Symbol
	r.fill(c)
	c.Version = r.Version
}

// CurrencyResponse is the response body for a currency.
type CurrencyResponse struct {
	CatalogResponse
	ISOCode        string  `json:"isoCode"`
	ISONumericCode *string `json:"isoNumericCode,omitempty"`
	Symbol         string  `json:"symbol"`
	SymbolAr       string  `json:"symbolAr,omitempty"`
	MinorUnit      string  `json:"minorUnit,omitempty"`
	DecimalPlaces  int     `json:"decimalPlaces"`
	IsBase         bool    `json:"isBase"`
}

// FromCurrency creates response DTO from domain entity.
func FromCurrency(c *currency.Currency) *CurrencyResponse {
	return &CurrencyResponse{
		CatalogResponse: FromCatalog(c.Catalog),
		ISOCode:         c.ISOCode,
		ISONumericCode:  c.ISONumericCode,
		Symbol:          c.Symbol,
		SymbolAr:        c.SymbolAr,
		MinorUnit:       c.MinorUnit,
		DecimalPlaces:   c.DecimalPlaces,
		IsBase:          c.IsBase,
	}
}
