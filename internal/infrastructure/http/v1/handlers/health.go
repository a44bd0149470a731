package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"workshop/internal/infrastructure/storage/postgres"
)

// Pinger is a dependency checked by the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping implements Pinger.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	pool    *postgres.Pool
	checks  map[string]Pinger
	app     string
	version string
	timeout time.Duration
}

// NewHealthHandler creates a new health handler. Extra checks (cache, broker)
// are reported by Ready next to the database.
func NewHealthHandler(pool *postgres.Pool, app, version string, checks map[string]Pinger) *HealthHandler {
	if checks == nil {
		checks = map[string]Pinger{}
	}
	return &HealthHandler{
		pool:    pool,
		checks:  checks,
		app:     app,
		version: version,
		timeout: 2 * time.Second,
	}
}

// Live handles liveness probe (is the process alive?).
// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// Ready handles readiness probe (is the service ready to accept traffic?).
// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	results := make(map[string]string, len(h.checks)+1)
	healthy := true

	check := func(name string, p Pinger) {
		if err := p.Ping(ctx); err != nil {
			results[name] = "unhealthy: " + err.Error()
			healthy = false
			return
		}
		results[name] = "healthy"
	}

	if h.pool != nil {
		check("database", h.pool)
	}
	for name, p := range h.checks {
		check(name, p)
	}

	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "error",
			"checks": results,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"checks": results,
	})
}

// Info returns application information.
// GET /health/info
func (h *HealthHandler) Info(c *gin.Context) {
	body := gin.H{
		"app":     h.app,
		"version": h.version,
	}
	if h.pool != nil {
		body["database"] = h.pool.Stats()
	}
	c.JSON(http.StatusOK, body)
}
