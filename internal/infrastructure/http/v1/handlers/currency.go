package handlers

import (
	"workshop/internal/domain/catalogs/currency"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CurrencyHTTPHandler shortens the generic signature.
type CurrencyHTTPHandler = CatalogHandler[
	*currency.Currency,
	dto.CreateCurrencyRequest,
	dto.UpdateCurrencyRequest,
]

// NewCurrencyHandler wires the generic catalog handler to the currency service.
func NewCurrencyHandler(base *BaseHandler, service *currency.Service) *CurrencyHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*currency.Currency,
		dto.CreateCurrencyRequest,
		dto.UpdateCurrencyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "currency",
		MapCreateDTO: func(req dto.CreateCurrencyRequest) *currency.Currency {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCurrencyRequest, existing *currency.Currency) *currency.Currency {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(c *currency.Currency) any {
			return dto.FromCurrency(c)
		},
	})
}
