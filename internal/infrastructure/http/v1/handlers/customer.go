package handlers

import (
	"workshop/internal/domain/catalogs/customer"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CustomerHTTPHandler shortens the generic signature.
type CustomerHTTPHandler = CatalogHandler[
	*customer.Customer,
	dto.CreateCustomerRequest,
	dto.UpdateCustomerRequest,
]

// NewCustomerHandler wires the generic catalog handler to the customer service.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHTTPHandler {
	return NewCatalogHandler(base, CatalogHandlerConfig[
		*customer.Customer,
		dto.CreateCustomerRequest,
		dto.UpdateCustomerRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "customer",
		MapCreateDTO: func(req dto.CreateCustomerRequest) *customer.Customer {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCustomerRequest, existing *customer.Customer) *customer.Customer {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(c *customer.Customer) any {
			return dto.FromCustomer(c)
		},
	})
}
