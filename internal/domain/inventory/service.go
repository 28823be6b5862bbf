package inventory

import (
	"context"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
)

// Service answers stock questions: current positions and movement history.
// All writes go through the Updater inside a posting transaction.
type Service struct {
	positions PositionRepository
	movements MovementRepository
}

// NewService creates a read-side inventory service.
func NewService(positions PositionRepository, movements MovementRepository) *Service {
	return &Service{
		positions: positions,
		movements: movements,
	}
}

// Position retrieves the current balance for a (product, store) pair.
// A pair with no movement history reads as an empty position, not an error.
func (s *Service) Position(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	pos, err := s.positions.Get(ctx, productID, storeID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return &entity.InventoryPosition{
				ProductID: productID,
				StoreID:   storeID,
			}, nil
		}
		return nil, err
	}
	return pos, nil
}

// StorePositions retrieves every position held in a store.
func (s *Service) StorePositions(ctx context.Context, storeID id.ID) ([]*entity.InventoryPosition, error) {
	return s.positions.ListByStore(ctx, storeID)
}

// ProductPositions retrieves a product's positions across stores.
func (s *Service) ProductPositions(ctx context.Context, productID id.ID) ([]*entity.InventoryPosition, error) {
	return s.positions.ListByProduct(ctx, productID)
}

// StockCard retrieves the newest movements for a (product, store) pair.
func (s *Service) StockCard(ctx context.Context, productID, storeID id.ID, limit int) ([]*entity.InventoryMovement, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.movements.ListByPosition(ctx, productID, storeID, limit)
}

// DocumentMovements retrieves all movements a document produced.
func (s *Service) DocumentMovements(ctx context.Context, recorderID id.ID) ([]*entity.InventoryMovement, error) {
	return s.movements.ListByRecorder(ctx, recorderID)
}
