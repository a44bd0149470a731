// Package middleware provides the gin middleware of the HTTP API.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	"workshop/pkg/logger"
)

// Recovery turns a panic into a 500 response. The stack goes to the log only.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", err)))
				// ErrorHandler is already unwound when Recovery is the outer middleware
				if !c.Writer.Written() {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
						"code":    apperror.CodeInternal,
						"message": "Internal server error",
						"details": map[string]any{"request_id": c.GetString("request_id")},
					})
					return
				}
				c.Abort()
			}
		}()
		c.Next()
	}
}
