package store

import (
	"context"

	"saldo/internal/core/id"
	"saldo/internal/domain"
)

// Repository defines the interface for Store persistence.
type Repository interface {
	domain.CatalogRepository[*Store]

	// GetDefault retrieves the tenant's default store, or apperror
	// NOT_FOUND when none is flagged.
	GetDefault(ctx context.Context) (*Store, error)

	// ClearDefault drops the default flag from all stores (before
	// flagging a new one).
	ClearDefault(ctx context.Context) error

	// GetForUpdate retrieves a store with row lock.
	GetForUpdate(ctx context.Context, id id.ID) (*Store, error)
}
