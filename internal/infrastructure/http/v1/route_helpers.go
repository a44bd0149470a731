package v1

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	GetByCode(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
//
// Usage:
//
//	handler := handlers.NewCurrencyHandler(baseHandler, services.Currencies)
//	RegisterCatalogRoutes(catalogs.Group("/currencies"), handler, "catalog:currency")
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, permission string) {
	group.GET("", middleware.RequirePermission(permission+":read"), handler.List)
	group.POST("", middleware.RequirePermission(permission+":create"), handler.Create)
	group.GET("/by-code/:code", middleware.RequirePermission(permission+":read"), handler.GetByCode)
	group.GET("/:id", middleware.RequirePermission(permission+":read"), handler.Get)
	group.PUT("/:id", middleware.RequirePermission(permission+":update"), handler.Update)
	group.DELETE("/:id", middleware.RequirePermission(permission+":delete"), handler.Delete)
	group.POST("/:id/deletion-mark", middleware.RequirePermission(permission+":delete"), handler.SetDeletionMark)
}
