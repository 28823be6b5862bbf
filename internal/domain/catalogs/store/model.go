// Package store provides the store catalog: the stock locations
// inventory positions are kept against.
package store

import (
	"context"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

// Type defines the store category.
type Type string

const (
	TypeWarehouse Type = "warehouse"
	TypeRetail    Type = "retail"
	TypeTransit   Type = "transit"
)

// Store represents a stock location.
type Store struct {
	entity.Catalog

	// Type defines the store category
	Type Type `db:"type" json:"type"`

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates the store accepts documents
	IsActive bool `db:"is_active" json:"isActive"`

	// IsDefault marks the store pre-filled on new stock documents.
	// At most one store per tenant carries the flag.
	IsDefault bool `db:"is_default" json:"isDefault"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewStore creates a Store with required fields.
func NewStore(tenantID id.ID, code, name string, storeType Type) *Store {
	return &Store{
		Catalog:  entity.NewCatalog(tenantID, code, name),
		Type:     storeType,
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (s *Store) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidType(s.Type) {
		return apperror.NewValidation("invalid store type").
			WithDetail("field", "type").
			WithDetail("value", string(s.Type))
	}

	return nil
}

func isValidType(t Type) bool {
	switch t {
	case TypeWarehouse, TypeRetail, TypeTransit:
		return true
	}
	return false
}
