package tenant

import "errors"

var (
	// ErrNoScope is returned when an operation reaches a repository or service
	// without a tenant scope on its context.
	ErrNoScope = errors.New("no tenant scope in context")

	// ErrTenantNotFound is returned when the tenant row does not exist.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotActive is returned when the tenant exists but is suspended
	// or deleted.
	ErrTenantNotActive = errors.New("tenant is not active")
)
