package entity

import (
	"context"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
)

// Catalog is the base type for reference data: products, stores,
// counterparties, accounts, currencies.
type Catalog struct {
	BaseCatalog

	// Code is a human-readable identifier, unique within the tenant
	Code string `db:"code" json:"code"`

	// Name is the display name
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a Catalog with generated ID under the tenant.
func NewCatalog(tenantID id.ID, code, name string) Catalog {
	return Catalog{
		BaseCatalog: NewBaseCatalog(tenantID),
		Code:        code,
		Name:        name,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	return nil
}
