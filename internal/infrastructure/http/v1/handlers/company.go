package handlers

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/domain/catalogs/company"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CompanyHandler serves the company catalog plus the default company lookup.
type CompanyHandler struct {
	*CatalogHandler[*company.Company, dto.CreateCompanyRequest, dto.UpdateCompanyRequest]
	service *company.Service
}

// NewCompanyHandler creates the company handler.
func NewCompanyHandler(base *BaseHandler, service *company.Service) *CompanyHandler {
	catalog := NewCatalogHandler(base, CatalogHandlerConfig[
		*company.Company,
		dto.CreateCompanyRequest,
		dto.UpdateCompanyRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "company",
		MapCreateDTO: func(req dto.CreateCompanyRequest) *company.Company {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateCompanyRequest, existing *company.Company) *company.Company {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(c *company.Company) any {
			return dto.FromCompany(c)
		},
	})
	return &CompanyHandler{CatalogHandler: catalog, service: service}
}

// GetDefault handles GET /catalog/companies/default.
func (h *CompanyHandler) GetDefault(c *gin.Context) {
	co, err := h.service.GetDefault(c.Request.Context())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromCompany(co))
}
