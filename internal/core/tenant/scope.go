package tenant

import (
	"saldo/internal/core/id"
)

// Scope identifies the tenant (and acting user) an operation runs under.
// It is built once per request by the auth/tenant middleware from a verified
// token and a live tenant row, then threaded through the context. Repositories
// refuse to run without one.
type Scope struct {
	TenantID     id.ID
	UserID       id.ID
	TenantCode   string
	BaseCurrency string
	Settings     Settings
}

// NewScope builds a scope from a resolved tenant row and the acting user.
func NewScope(t *Tenant, userID id.ID) Scope {
	return Scope{
		TenantID:     t.ID,
		UserID:       userID,
		TenantCode:   t.Code,
		BaseCurrency: t.BaseCurrency,
		Settings:     t.Settings,
	}
}

// Valid reports whether the scope carries a tenant.
func (s Scope) Valid() bool {
	return !id.IsNil(s.TenantID)
}
