package middleware

import (
	"github.com/gin-gonic/gin"

	"workshop/internal/core/apperror"
	appctx "workshop/internal/core/context"
)

// RequirePermission checks the permission against the token claims.
// Admins have every permission.
func RequirePermission(permission string) gin.HandlerFunc {
	return RequireAnyPermission(permission)
}

// RequireAnyPermission passes when the user holds at least one of permissions.
func RequireAnyPermission(permissions ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := appctx.GetUser(c.Request.Context())
		if user == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		for _, required := range permissions {
			if user.HasPermission(required) {
				c.Next()
				return
			}
		}

		forbidden := apperror.NewForbidden("insufficient permissions")
		if len(permissions) == 1 {
			forbidden = forbidden.WithDetail("required_permission", permissions[0])
		} else {
			forbidden = forbidden.WithDetail("required_permissions", permissions)
		}
		_ = c.Error(forbidden)
		c.Abort()
	}
}

// RequireCompanyAccess rejects users whose token does not list the company
// named by the query or path parameter param.
func RequireCompanyAccess(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		companyID := c.Param(param)
		if companyID == "" {
			companyID = c.Query(param)
		}
		if companyID != "" && !appctx.HasCompanyAccess(c.Request.Context(), companyID) {
			_ = c.Error(apperror.NewForbidden("no access to company").WithDetail("companyId", companyID))
			c.Abort()
			return
		}
		c.Next()
	}
}
