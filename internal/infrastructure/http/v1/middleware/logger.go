package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"workshop/pkg/logger"
)

// Logger writes one access log line per request and puts a request-scoped
// logger into the context for handlers and services.
func Logger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Request = c.Request.WithContext(logger.WithLogger(c.Request.Context(), log))

		c.Next()

		reqLog := log.WithContext(c.Request.Context())

		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []any{
			"method", c.Request.Method,
			"path", path,
			"query", query,
			"status", status,
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
			"user_agent", c.Request.UserAgent(),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, "error", errs)
		}

		if status >= 500 {
			reqLog.Errorw("http request", fields...)
			return
		}
		reqLog.Infow("http request", fields...)
	}
}
