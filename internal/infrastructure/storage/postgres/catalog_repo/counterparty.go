package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"saldo/internal/core/apperror"
	"saldo/internal/domain/catalogs/counterparty"
	"saldo/internal/infrastructure/storage/postgres"
)

const counterpartyTable = "counterparties"

// CounterpartyRepo implements counterparty.Repository.
type CounterpartyRepo struct {
	*BaseCatalogRepo[*counterparty.Counterparty]
}

// NewCounterpartyRepo creates a new counterparty repository.
func NewCounterpartyRepo(txm *postgres.TxManager) *CounterpartyRepo {
	return &CounterpartyRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			counterpartyTable,
			postgres.ExtractDBColumns[counterparty.Counterparty](),
			func() *counterparty.Counterparty { return &counterparty.Counterparty{} },
		),
	}
}

// FindByTaxID retrieves a counterparty by tax id.
func (r *CounterpartyRepo) FindByTaxID(ctx context.Context, taxID string) (*counterparty.Counterparty, error) {
	item, err := r.FindOne(ctx,
		squirrel.Eq{"tax_id": taxID},
		squirrel.Eq{"deletion_mark": false},
	)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("counterparty", taxID)
		}
		return nil, err
	}
	return item, nil
}
