// Package handlers provides HTTP request handlers.
package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/core/entity"
	"workshop/internal/core/id"
	"workshop/internal/domain"
	domainFilter "workshop/internal/domain/filter"
	"workshop/internal/infrastructure/http/v1/dto"
)

// CatalogHandler provides generic HTTP handlers for catalog entities.
type CatalogHandler[T entity.Validatable, CreateDTO any, UpdateDTO any] struct {
	*BaseHandler
	service    *domain.CatalogService[T]
	entityName string

	mapCreateDTO func(dto CreateDTO) T
	mapUpdateDTO func(dto UpdateDTO, existing T) T
	mapToDTO     func(entity T) any
}

// CatalogHandlerConfig configures the catalog handler.
type CatalogHandlerConfig[T entity.Validatable, CreateDTO any, UpdateDTO any] struct {
	Service      *domain.CatalogService[T]
	EntityName   string
	MapCreateDTO func(dto CreateDTO) T
	MapUpdateDTO func(dto UpdateDTO, existing T) T
	MapToDTO     func(entity T) any
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler[T entity.Validatable, CreateDTO any, UpdateDTO any](
	base *BaseHandler,
	cfg CatalogHandlerConfig[T, CreateDTO, UpdateDTO],
) *CatalogHandler[T, CreateDTO, UpdateDTO] {
	return &CatalogHandler[T, CreateDTO, UpdateDTO]{
		BaseHandler:  base,
		service:      cfg.Service,
		entityName:   cfg.EntityName,
		mapCreateDTO: cfg.MapCreateDTO,
		mapUpdateDTO: cfg.MapUpdateDTO,
		mapToDTO:     cfg.MapToDTO,
	}
}

// List handles GET /{entity} with search, paging and a JSON "filter" of
// [{field, operator, value}] conditions.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]any, len(result.Items))
	for i, item := range result.Items {
		items[i] = h.mapToDTO(item)
	}

	h.OK(c, dto.ListResponse{
		Items:      items,
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}

func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) listFilter(c *gin.Context) (domain.ListFilter, bool) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	if companyID := c.Query("companyId"); companyID != "" {
		cid, err := id.Parse(companyID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid companyId").WithDetail("value", companyID))
			return filter, false
		}
		filter.CompanyID = &cid
	}

	if raw := c.Query("filter"); raw != "" {
		var items []domainFilter.Item
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			h.Error(c, apperror.NewValidation("invalid filter format (json expected)"))
			return filter, false
		}
		for _, item := range items {
			if err := item.Validate(); err != nil {
				h.Error(c, apperror.NewValidation(err.Error()).WithDetail("field", item.Field))
				return filter, false
			}
		}
		filter.AdvancedFilters = items
	}
	filter.Normalize()
	return filter, true
}

// Get handles GET /{entity}/:id.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Get(c *gin.Context) {
	entityID, ok := h.ParamID(c)
	if !ok {
		return
	}

	e, err := h.service.GetByID(c.Request.Context(), entityID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(e))
}

// GetByCode handles GET /{entity}/by-code/:code.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) GetByCode(c *gin.Context) {
	e, err := h.service.GetByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(e))
}

// Create handles POST /{entity}.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Create(c *gin.Context) {
	var req CreateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	e := h.mapCreateDTO(req)
	if err := h.service.Create(c.Request.Context(), e); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, h.mapToDTO(e))
}

// Update handles PUT /{entity}/:id. The body carries the version read by
// the client.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Update(c *gin.Context) {
	ctx := c.Request.Context()

	entityID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req UpdateDTO
	if !h.BindJSON(c, &req) {
		return
	}

	existing, err := h.service.GetByID(ctx, entityID)
	if err != nil {
		h.Error(c, err)
		return
	}

	updated := h.mapUpdateDTO(req, existing)
	if err := h.service.Update(ctx, updated); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, h.mapToDTO(updated))
}

// Delete handles DELETE /{entity}/:id (soft delete).
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) Delete(c *gin.Context) {
	entityID, ok := h.ParamID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), entityID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// SetDeletionMark handles POST /{entity}/:id/deletion-mark.
func (h *CatalogHandler[T, CreateDTO, UpdateDTO]) SetDeletionMark(c *gin.Context) {
	entityID, ok := h.ParamID(c)
	if !ok {
		return
	}

	var req dto.SetDeletionMarkRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.SetDeletionMark(c.Request.Context(), entityID, req.Marked); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "deletion mark updated")
}
