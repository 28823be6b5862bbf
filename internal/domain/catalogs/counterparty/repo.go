package counterparty

import (
	"context"

	"saldo/internal/core/id"
	"saldo/internal/domain"
)

// Repository defines the interface for Counterparty persistence.
type Repository interface {
	domain.CatalogRepository[*Counterparty]

	// FindByTaxID retrieves a counterparty by tax id (unique within tenant).
	FindByTaxID(ctx context.Context, taxID string) (*Counterparty, error)

	// GetForUpdate retrieves a counterparty with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Counterparty, error)
}
