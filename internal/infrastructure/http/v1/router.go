// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"workshop/internal/app"
	"workshop/internal/domain"
	"workshop/internal/infrastructure/http/v1/handlers"
	"workshop/internal/infrastructure/http/v1/middleware"
	"workshop/internal/infrastructure/storage/postgres"
	"workshop/internal/metadata"
	"workshop/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	Services  *app.Services
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency replays mutating requests carrying X-Idempotency-Key; nil
	// disables it
	Idempotency    domain.IdempotencyStore
	IdempotencyTTL time.Duration

	// MetadataRegistry stores DocType definitions
	MetadataRegistry *metadata.Registry
	// Customizations persists DocType overlays; optional
	Customizations handlers.CustomizationStore

	DefaultLocale string
	Health        *handlers.HealthHandler
	Debug         bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Locale(cfg.DefaultLocale))

	// Health endpoints (no auth)
	if cfg.Health != nil {
		health := router.Group("/health")
		health.GET("/live", cfg.Health.Live)
		health.GET("/ready", cfg.Health.Ready)
		health.GET("/info", cfg.Health.Info)
	}

	// Schema reads are public so form renderers can load before login.
	registerMetaRoutes(router.Group("/api/v1/meta", middleware.OptionalAuth(cfg.JWTValidator)), handlers.NewBaseHandler(), cfg)

	protected := router.Group("/api/v1")
	protected.Use(middleware.Database(cfg.TxManager))
	protected.Use(middleware.Auth(cfg.JWTValidator))
	if cfg.Idempotency != nil {
		ttl := cfg.IdempotencyTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		protected.Use(middleware.Idempotency(cfg.Idempotency, ttl))
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(protected, base, cfg)
	registerDocumentRoutes(protected, base, cfg)
	registerVATRoutes(protected, base)
	registerAnalyticsRoutes(protected, base, cfg)

	return router, nil
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	catalogs := rg.Group("/catalog")
	svc := cfg.Services

	RegisterCatalogRoutes(catalogs.Group("/currencies"),
		handlers.NewCurrencyHandler(base, svc.Currencies), "catalog:currency")
	RegisterCatalogRoutes(catalogs.Group("/customers"),
		handlers.NewCustomerHandler(base, svc.Customers), "catalog:customer")

	companies := catalogs.Group("/companies")
	companyHandler := handlers.NewCompanyHandler(base, svc.Companies)
	companies.GET("/default", middleware.RequirePermission("catalog:company:read"), companyHandler.GetDefault)
	RegisterCatalogRoutes(companies, companyHandler, "catalog:company")

	vatConfigs := catalogs.Group("/vat-configurations")
	vatHandler := handlers.NewVATConfigurationHandler(base, svc.VAT)
	RegisterCatalogRoutes(vatConfigs, vatHandler, "catalog:vat_configuration")
	vatConfigs.POST("/:id/lock", middleware.RequirePermission("catalog:vat_configuration:lock"), vatHandler.Lock)
}

func registerDocumentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	const perm = "document:sales_invoice"
	h := handlers.NewSalesInvoiceHandler(base, cfg.Services.Invoices)

	g := rg.Group("/document/sales-invoices")
	g.GET("", middleware.RequirePermission(perm+":read"), h.List)
	g.POST("", middleware.RequirePermission(perm+":create"), h.Create)
	g.GET("/:id", middleware.RequirePermission(perm+":read"), h.Get)
	g.PUT("/:id", middleware.RequirePermission(perm+":update"), h.Update)
	g.DELETE("/:id", middleware.RequirePermission(perm+":delete"), h.Delete)
	g.POST("/:id/submit", middleware.RequirePermission(perm+":submit"), h.Submit)
	g.POST("/:id/cancel", middleware.RequirePermission(perm+":cancel"), h.Cancel)
	g.GET("/:id/payments", middleware.RequirePermission(perm+":read"), h.Payments)
	g.POST("/:id/payments", middleware.RequirePermission(perm+":payment"), h.RecordPayment)
	g.GET("/:id/qr", middleware.RequirePermission(perm+":read"), h.QR)
	g.GET("/:id/qr.png", middleware.RequirePermission(perm+":read"), h.QRImage)
}

// registerVATRoutes registers the stateless VAT and OMR tools.
func registerVATRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler) {
	h := handlers.NewVATHandler(base)
	g := rg.Group("/vat")
	g.POST("/calculate", h.Calculate)
	g.POST("/validate-number", h.ValidateNumber)
	g.GET("/format", h.Format)
}

func registerAnalyticsRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	h := handlers.NewAnalyticsHandler(base, cfg.Services.Analytics, cfg.Services.VAT)
	read := middleware.RequirePermission("analytics:read")

	g := rg.Group("/analytics", middleware.RequireCompanyAccess("companyId"))
	g.GET("/dashboard", read, h.Dashboard)
	g.GET("/vat-return", read, h.VATReturn)
	g.GET("/export.xlsx", middleware.RequirePermission("analytics:export"), h.Export)
	g.GET("/snapshots", read, h.ListSnapshots)
	g.POST("/snapshots", middleware.RequireAnyPermission("analytics:snapshot:create", "analytics:export"), h.GenerateSnapshot)
	g.GET("/snapshots/:id", read, h.GetSnapshot)
}

// registerMetaRoutes registers metadata/schema endpoints.
func registerMetaRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.MetadataRegistry == nil {
		return
	}

	h := handlers.NewMetadataHandler(base, cfg.MetadataRegistry, cfg.Customizations)

	rg.GET("", h.ListEntities)
	rg.GET("/:name", h.GetEntity)
	rg.POST("/:name/validate", h.Validate)
	rg.PUT("/:name/customization", middleware.RequirePermission("meta:customize"), h.Customize)
}
