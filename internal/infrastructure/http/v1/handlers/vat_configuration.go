package handlers

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/domain/vat"
	"workshop/internal/infrastructure/http/v1/dto"
)

// VATConfigurationHandler serves VAT Configuration CRUD and period locking.
type VATConfigurationHandler struct {
	*CatalogHandler[*vat.Configuration, dto.CreateVATConfigurationRequest, dto.UpdateVATConfigurationRequest]
	service *vat.Service
}

// NewVATConfigurationHandler creates the VAT configuration handler.
func NewVATConfigurationHandler(base *BaseHandler, service *vat.Service) *VATConfigurationHandler {
	catalog := NewCatalogHandler(base, CatalogHandlerConfig[
		*vat.Configuration,
		dto.CreateVATConfigurationRequest,
		dto.UpdateVATConfigurationRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "vat_configuration",
		MapCreateDTO: func(req dto.CreateVATConfigurationRequest) *vat.Configuration {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateVATConfigurationRequest, existing *vat.Configuration) *vat.Configuration {
			req.ApplyTo(existing)
			return existing
		},
		MapToDTO: func(c *vat.Configuration) any {
			return dto.FromVATConfiguration(c)
		},
	})
	return &VATConfigurationHandler{CatalogHandler: catalog, service: service}
}

// Lock handles POST /catalog/vat-configurations/:id/lock after a return is filed.
func (h *VATConfigurationHandler) Lock(c *gin.Context) {
	configID, ok := h.ParamID(c)
	if !ok {
		return
	}
	var req dto.LockVATPeriodRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cfg, err := h.service.LockPeriod(c.Request.Context(), configID, req.UntilDate())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromVATConfiguration(cfg))
}
