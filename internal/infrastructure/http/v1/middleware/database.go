package middleware

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/infrastructure/storage/postgres"
)

// Database puts the transaction manager into the request context. Every
// route touching repositories runs behind it.
func Database(txm *postgres.TxManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(postgres.WithTxManager(c.Request.Context(), txm))
		c.Next()
	}
}
