package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"saldo/internal/core/apperror"
	"saldo/internal/domain/catalogs/store"
	"saldo/internal/infrastructure/storage/postgres"
)

const storeTable = "stores"

// StoreRepo implements store.Repository.
type StoreRepo struct {
	*BaseCatalogRepo[*store.Store]
}

// NewStoreRepo creates a new store repository.
func NewStoreRepo(txm *postgres.TxManager) *StoreRepo {
	return &StoreRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			storeTable,
			postgres.ExtractDBColumns[store.Store](),
			func() *store.Store { return &store.Store{} },
		),
	}
}

// GetDefault retrieves the tenant's default store.
func (r *StoreRepo) GetDefault(ctx context.Context) (*store.Store, error) {
	item, err := r.FindOne(ctx,
		squirrel.Eq{"is_default": true},
		squirrel.Eq{"deletion_mark": false},
	)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("default store", "")
		}
		return nil, err
	}
	return item, nil
}

// ClearDefault drops the default flag from all the tenant's stores.
func (r *StoreRepo) ClearDefault(ctx context.Context) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(storeTable).
		Set("is_default", false).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"is_default": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear default store: %w", err)
	}

	return nil
}
