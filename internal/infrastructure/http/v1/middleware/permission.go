package middleware

import (
	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	appctx "saldo/internal/core/context"
	"saldo/internal/core/security"
)

// RequirePermission middleware checks that the user's roles grant the
// permission. Admins pass every check.
func RequirePermission(permission security.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if appctx.GetUser(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		scope := security.GetScope(ctx)
		if err := scope.RequirePermission(permission); err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAnyPermission middleware checks that the user holds at least one of
// the permissions.
func RequireAnyPermission(permissions ...security.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if appctx.GetUser(ctx) == nil {
			_ = c.Error(apperror.NewUnauthorized("authentication required"))
			c.Abort()
			return
		}

		scope := security.GetScope(ctx)
		for _, required := range permissions {
			if scope.HasPermission(required) {
				c.Next()
				return
			}
		}

		_ = c.Error(
			apperror.NewForbidden("insufficient permissions").
				WithDetail("required_permissions", permissions),
		)
		c.Abort()
	}
}
