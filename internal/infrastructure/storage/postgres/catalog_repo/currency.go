package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"saldo/internal/core/apperror"
	"saldo/internal/domain/currency"
	"saldo/internal/infrastructure/storage/postgres"
)

const currencyTable = "currencies"

// CurrencyRepo implements currency.Repository.
type CurrencyRepo struct {
	*BaseCatalogRepo[*currency.Currency]
}

// NewCurrencyRepo creates a new currency repository.
func NewCurrencyRepo(txm *postgres.TxManager) *CurrencyRepo {
	return &CurrencyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			currencyTable,
			postgres.ExtractDBColumns[currency.Currency](),
			func() *currency.Currency { return &currency.Currency{} },
		),
	}
}

// FindByISOCode retrieves currency by ISO code.
func (r *CurrencyRepo) FindByISOCode(ctx context.Context, isoCode string) (*currency.Currency, error) {
	item, err := r.FindOne(ctx,
		squirrel.Eq{"iso_code": isoCode},
		squirrel.Eq{"deletion_mark": false},
	)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("currency", isoCode)
		}
		return nil, err
	}
	return item, nil
}

// GetBase retrieves the tenant's base currency.
func (r *CurrencyRepo) GetBase(ctx context.Context) (*currency.Currency, error) {
	item, err := r.FindOne(ctx,
		squirrel.Eq{"is_base": true},
		squirrel.Eq{"deletion_mark": false},
	)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("base currency", "")
		}
		return nil, err
	}
	return item, nil
}

// ClearBase clears the base flag on all the tenant's currencies.
func (r *CurrencyRepo) ClearBase(ctx context.Context) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(currencyTable).
		Set("is_base", false).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"is_base": true})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("clear base: %w", err)
	}

	return nil
}
