// Package inventory_repo provides PostgreSQL implementations for the stock
// position and movement repositories. Positions are one row per
// (tenant, product, store); movements are the append-only trace behind them.
package inventory_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"saldo/internal/core/apperror"
	"saldo/internal/core/entity"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/inventory"
	"saldo/internal/infrastructure/storage/postgres"
)

const positionsTable = "inventory_positions"

var positionColumns = postgres.ExtractDBColumns[entity.InventoryPosition]()

// Compile-time check.
var _ inventory.PositionRepository = (*PositionRepo)(nil)

// PositionRepo implements inventory.PositionRepository.
type PositionRepo struct {
	txm *postgres.TxManager
}

// NewPositionRepo creates a new position repository.
func NewPositionRepo(txm *postgres.TxManager) *PositionRepo {
	return &PositionRepo{txm: txm}
}

func (r *PositionRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *PositionRepo) tenantID(ctx context.Context) (id.ID, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return id.Nil(), apperror.NewTenantScopeMissing()
	}
	return scope.TenantID, nil
}

func (r *PositionRepo) get(ctx context.Context, productID, storeID id.ID, forUpdate bool) (*entity.InventoryPosition, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(positionColumns...).
		From(positionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"store_id": storeID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var pos entity.InventoryPosition
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &pos, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("inventory position", productID.String())
		}
		return nil, fmt.Errorf("get position: %w", err)
	}

	return &pos, nil
}

// Get retrieves the position row.
func (r *PositionRepo) Get(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	return r.get(ctx, productID, storeID, false)
}

// GetForUpdate retrieves the position row with a row lock.
func (r *PositionRepo) GetForUpdate(ctx context.Context, productID, storeID id.ID) (*entity.InventoryPosition, error) {
	return r.get(ctx, productID, storeID, true)
}

// Upsert writes the position keyed by (tenant, product, store).
func (r *PositionRepo) Upsert(ctx context.Context, position *entity.InventoryPosition) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.builder().
		Insert(positionsTable).
		Columns("tenant_id", "product_id", "store_id", "quantity", "avg_cost", "last_movement_at", "updated_at").
		Values(tenantID, position.ProductID, position.StoreID,
			position.Quantity, position.AvgCost, position.LastMovementAt, position.UpdatedAt).
		Suffix(`ON CONFLICT (tenant_id, product_id, store_id) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			avg_cost = EXCLUDED.avg_cost,
			last_movement_at = EXCLUDED.last_movement_at,
			updated_at = EXCLUDED.updated_at`)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert position: %w", err)
	}

	return nil
}

// ListByStore retrieves all positions in a store.
func (r *PositionRepo) ListByStore(ctx context.Context, storeID id.ID) ([]*entity.InventoryPosition, error) {
	return r.list(ctx, squirrel.Eq{"store_id": storeID}, "product_id")
}

// ListByProduct retrieves a product's positions across stores.
func (r *PositionRepo) ListByProduct(ctx context.Context, productID id.ID) ([]*entity.InventoryPosition, error) {
	return r.list(ctx, squirrel.Eq{"product_id": productID}, "store_id")
}

func (r *PositionRepo) list(ctx context.Context, cond squirrel.Sqlizer, orderBy string) ([]*entity.InventoryPosition, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(positionColumns...).
		From(positionsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(cond).
		OrderBy(orderBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var positions []*entity.InventoryPosition
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &positions, sql, args...); err != nil {
		return nil, fmt.Errorf("list positions: %w", err)
	}

	return positions, nil
}
