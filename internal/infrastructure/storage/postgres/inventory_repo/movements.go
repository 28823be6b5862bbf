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

const movementsTable = "inventory_movements"

var movementColumns = postgres.ExtractDBColumns[entity.InventoryMovement]()

// Compile-time check.
var _ inventory.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implements inventory.MovementRepository.
type MovementRepo struct {
	txm *postgres.TxManager
}

// NewMovementRepo creates a new movement repository.
func NewMovementRepo(txm *postgres.TxManager) *MovementRepo {
	return &MovementRepo{txm: txm}
}

func (r *MovementRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *MovementRepo) tenantID(ctx context.Context) (id.ID, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return id.Nil(), apperror.NewTenantScopeMissing()
	}
	return scope.TenantID, nil
}

// Insert persists movements produced by one posting step. Inside a
// transaction the COPY protocol is used; postings always run in one.
func (r *MovementRepo) Insert(ctx context.Context, movements []*entity.InventoryMovement) error {
	if len(movements) == 0 {
		return nil
	}

	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	if tx := r.txm.GetTx(ctx); tx != nil {
		inserter := postgres.NewBatchInserter(r.txm)
		rows := make([][]any, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, r.movementRow(tenantID, m))
		}
		if _, err := inserter.CopyFromSlice(ctx, movementsTable, movementColumns, rows); err != nil {
			return fmt.Errorf("copy movements: %w", err)
		}
		return nil
	}

	q := r.builder().
		Insert(movementsTable).
		Columns(movementColumns...)
	for _, m := range movements {
		q = q.Values(r.movementRow(tenantID, m)...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert movements: %w", err)
	}

	return nil
}

// movementRow orders values to match movementColumns.
func (r *MovementRepo) movementRow(tenantID id.ID, m *entity.InventoryMovement) []any {
	data := postgres.StructToMap(m)
	data["tenant_id"] = tenantID

	row := make([]any, len(movementColumns))
	for i, col := range movementColumns {
		row[i] = data[col]
	}
	return row
}

// ListByRecorder retrieves all movements a document produced, in creation order.
func (r *MovementRepo) ListByRecorder(ctx context.Context, recorderID id.ID) ([]*entity.InventoryMovement, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"recorder_id": recorderID}).
		OrderBy("created_at", "line_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []*entity.InventoryMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}

	return movements, nil
}

// ListByPosition retrieves the newest movements for a (product, store) pair.
func (r *MovementRepo) ListByPosition(ctx context.Context, productID, storeID id.ID, limit int) ([]*entity.InventoryMovement, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(movementColumns...).
		From(movementsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"product_id": productID}).
		Where(squirrel.Eq{"store_id": storeID}).
		OrderBy("period DESC", "created_at DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var movements []*entity.InventoryMovement
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &movements, sql, args...); err != nil {
		return nil, fmt.Errorf("list position movements: %w", err)
	}

	return movements, nil
}
