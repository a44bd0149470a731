package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "workshop/internal/core/context"
	"workshop/pkg/omr"
)

// Locale negotiates the display locale from Accept-Language. A "locale"
// query parameter overrides the header.
func Locale(defaultLocale string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.Query("locale")
		if header == "" {
			header = c.GetHeader("Accept-Language")
		}
		locale := defaultLocale
		if header != "" {
			locale = omr.MatchLocale(header)
		}
		c.Request = c.Request.WithContext(appctx.WithLocale(c.Request.Context(), locale))
		c.Header("Content-Language", locale)
		c.Next()
	}
}
