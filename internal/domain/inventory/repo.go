// Package inventory maintains per-store stock positions under
// weighted-average costing. Positions change only through movements
// applied inside a posting transaction; the movement rows are the
// append-only trace behind every balance.
package inventory

import (
	"context"

	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

// PositionRepository defines the interface for stock position persistence.
type PositionRepository interface {
	// Get retrieves the position row, or apperror NOT_FOUND.
	Get(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error)

	// GetForUpdate retrieves the position row with a row lock, or
	// apperror NOT_FOUND when no stock has ever moved for the pair.
	GetForUpdate(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error)

	// Upsert writes the position keyed by (tenant, product, store).
	Upsert(ctx context.Context, position *entity.InventoryPosition) error

	// ListByStore retrieves all positions in a store.
	ListByStore(ctx context.Context, storeID id.ID) ([]*entity.InventoryPosition, error)

	// ListByProduct retrieves a product's positions across stores.
	ListByProduct(ctx context.Context, productID id.ID) ([]*entity.InventoryPosition, error)
}

// MovementRepository defines the interface for movement persistence.
// Movements are append-only.
type MovementRepository interface {
	// Insert persists movements produced by one posting step.
	Insert(ctx context.Context, movements []*entity.InventoryMovement) error

	// ListByRecorder retrieves all movements a document produced, in
	// creation order.
	ListByRecorder(ctx context.Context, recorderID id.ID) ([]*entity.InventoryMovement, error)

	// ListByPosition retrieves the newest movements for a (product, store)
	// pair: the stock card.
	ListByPosition(ctx context.Context, productID, storeID id.ID, limit int) ([]*entity.InventoryMovement, error)
}
