package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/internal/metadata"
)

// CustomizationStore persists DocType overlays.
type CustomizationStore interface {
	Save(ctx context.Context, docType string, overlay metadata.Customization, userID string) error
}

// MetadataHandler serves DocType definitions to form renderers.
type MetadataHandler struct {
	*BaseHandler
	registry       *metadata.Registry
	customizations CustomizationStore
}

// NewMetadataHandler creates the metadata handler. customizations may be nil,
// which disables PUT /meta/:name/customization.
func NewMetadataHandler(base *BaseHandler, registry *metadata.Registry, customizations CustomizationStore) *MetadataHandler {
	return &MetadataHandler{BaseHandler: base, registry: registry, customizations: customizations}
}

// ListEntities handles GET /meta.
func (h *MetadataHandler) ListEntities(c *gin.Context) {
	h.OK(c, gin.H{"items": h.registry.List()})
}

// GetEntity handles GET /meta/:name.
func (h *MetadataHandler) GetEntity(c *gin.Context) {
	name := c.Param("name")
	def, ok := h.registry.Get(name)
	if !ok {
		h.Error(c, apperror.NewNotFound("doctype", name))
		return
	}
	h.OK(c, def)
}

// Validate handles POST /meta/:name/validate. The body is the document as a
// JSON object; the answer lists every missing field and failed rule.
func (h *MetadataHandler) Validate(c *gin.Context) {
	var values map[string]any
	if !h.BindJSON(c, &values) {
		return
	}
	if err := h.registry.Validate(c.Request.Context(), c.Param("name"), values); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"valid": true})
}

// Customize handles PUT /meta/:name/customization. The overlay replaces the
// previous one and reaches other instances through NOTIFY.
func (h *MetadataHandler) Customize(c *gin.Context) {
	if h.customizations == nil {
		h.Error(c, apperror.NewBusinessRule(apperror.CodeBusinessRule, "customizations are disabled"))
		return
	}
	name := c.Param("name")

	var overlay metadata.Customization
	if !h.BindJSON(c, &overlay) {
		return
	}
	if err := h.customizations.Save(c.Request.Context(), name, overlay, h.GetUserID(c)); err != nil {
		h.Error(c, err)
		return
	}

	def, _ := h.registry.Get(name)
	h.OK(c, def)
}
