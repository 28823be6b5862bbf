// Package tenant provides the tenant isolation boundary. Every table carries a
// tenant_id column and every operation runs under an explicit Scope threaded
// through the context; nothing tenant-related ever lives in process-global state.
package tenant

import (
	"fmt"
	"strings"
	"time"

	"saldo/internal/core/id"
)

// Status represents tenant lifecycle state.
type Status string

const (
	// StatusActive - tenant can accept requests
	StatusActive Status = "active"

	// StatusSuspended - tenant is temporarily disabled (e.g., payment issues)
	StatusSuspended Status = "suspended"

	// StatusDeleted - tenant is marked for deletion
	StatusDeleted Status = "deleted"
)

// Settings holds per-tenant engine policy, stored as JSONB on the tenant row.
type Settings struct {
	// AllowNegativeStock permits inventory positions below zero. When false
	// (the default) outbound movements clamp at zero and flag an anomaly.
	AllowNegativeStock bool `json:"allow_negative_stock"`

	// StrictOverReceipt turns receipt capping into a hard rejection.
	StrictOverReceipt bool `json:"strict_over_receipt"`

	// PolicyRules maps a document kind to a CEL expression evaluated at
	// confirmation, overriding the built-in rule for that kind.
	PolicyRules map[string]string `json:"policy_rules,omitempty"`

	// AccountCodes overrides the default chart-of-accounts code for a
	// posting role (e.g. "inventory" -> "1310").
	AccountCodes map[string]string `json:"account_codes,omitempty"`
}

// Tenant is one company row. All business entities reference exactly one.
type Tenant struct {
	ID           id.ID     `db:"id"`
	Code         string    `db:"code"` // URL-safe identifier
	Name         string    `db:"name"`
	BaseCurrency string    `db:"base_currency"` // ISO code, e.g. "USD"
	Status       Status    `db:"status"`
	Settings     Settings  `db:"settings"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// IsActive returns true if the tenant can accept requests.
func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// CreateTenantInput contains data for creating a new tenant.
type CreateTenantInput struct {
	Code         string
	Name         string
	BaseCurrency string
	Settings     Settings
}

// Validate checks and normalizes the input.
func (i *CreateTenantInput) Validate() error {
	i.Code = strings.ToLower(strings.TrimSpace(i.Code))
	if i.Code == "" {
		return fmt.Errorf("code is required")
	}
	if len(i.Code) > 63 {
		return fmt.Errorf("code must be 63 characters or less")
	}
	if i.Name == "" {
		return fmt.Errorf("name is required")
	}
	i.BaseCurrency = strings.ToUpper(strings.TrimSpace(i.BaseCurrency))
	if len(i.BaseCurrency) != 3 {
		return fmt.Errorf("base_currency must be a 3-letter ISO code")
	}
	return nil
}
