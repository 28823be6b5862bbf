package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	"saldo/internal/core/apperror"
	appctx "saldo/internal/core/context"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/pkg/logger"
)

const (
	// TenantHeader optionally pins the request to a tenant. When present it
	// must match the token's tenant claim.
	TenantHeader = "X-Tenant-ID"
)

// TenantScope middleware resolves the tenant named by the token claims and
// attaches a tenant.Scope to the request context. Every repository query
// filters by this scope, so the middleware MUST run before any handler that
// touches business data.
//
// Flow:
//  1. Take the tenant id from the verified token (Auth runs first)
//  2. Reject if the X-Tenant-ID header names a different tenant
//  3. Resolve the tenant row (cached) and check it is active
//  4. Attach tenant.Scope with the tenant's settings and base currency
func TenantScope(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		user := appctx.GetUser(ctx)
		if user == nil || user.TenantID == "" {
			_ = c.Error(apperror.NewUnauthorized("token carries no tenant"))
			c.Abort()
			return
		}

		if header := c.GetHeader(TenantHeader); header != "" && header != user.TenantID {
			_ = c.Error(
				apperror.NewForbidden("tenant mismatch").
					WithDetail("header_tenant_id", header).
					WithDetail("token_tenant_id", user.TenantID),
			)
			c.Abort()
			return
		}

		t, err := resolver.Resolve(ctx, user.TenantID)
		if err != nil {
			switch {
			case errors.Is(err, tenant.ErrTenantNotFound):
				_ = c.Error(apperror.NewNotFound("tenant", user.TenantID))
			case errors.Is(err, tenant.ErrTenantNotActive):
				_ = c.Error(apperror.NewForbidden("tenant is not active").
					WithDetail("tenant_id", user.TenantID))
			default:
				logger.Warn(ctx, "tenant resolution error", "tenant_id", user.TenantID, "error", err)
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", user.TenantID))
			}
			c.Abort()
			return
		}

		userID, err := id.Parse(user.UserID)
		if err != nil {
			_ = c.Error(apperror.NewUnauthorized("invalid user id in token"))
			c.Abort()
			return
		}

		ctx = tenant.WithScope(ctx, tenant.NewScope(t, userID))
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", t.ID.String())

		c.Next()
	}
}

// PublicTenantScope resolves the tenant from the X-Tenant-ID header for
// routes that run before authentication (login, token refresh). The scope
// carries no user; handlers on these routes must not assume one.
func PublicTenantScope(resolver *tenant.Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(TenantHeader)
		if header == "" {
			_ = c.Error(apperror.NewUnauthorized("missing " + TenantHeader + " header"))
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		t, err := resolver.Resolve(ctx, header)
		if err != nil {
			switch {
			case errors.Is(err, tenant.ErrTenantNotFound):
				_ = c.Error(apperror.NewNotFound("tenant", header))
			case errors.Is(err, tenant.ErrTenantNotActive):
				_ = c.Error(apperror.NewForbidden("tenant is not active").
					WithDetail("tenant_id", header))
			default:
				logger.Warn(ctx, "tenant resolution error", "tenant_id", header, "error", err)
				_ = c.Error(apperror.NewInternal(err).WithDetail("tenant_id", header))
			}
			c.Abort()
			return
		}

		ctx = tenant.WithScope(ctx, tenant.NewScope(t, id.Nil()))
		c.Request = c.Request.WithContext(ctx)

		c.Set("tenant_id", t.ID.String())

		c.Next()
	}
}
