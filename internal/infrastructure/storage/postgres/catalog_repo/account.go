package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"saldo/internal/core/id"
	"saldo/internal/domain/ledger"
	"saldo/internal/infrastructure/storage/postgres"
)

const (
	accountTable = "accounts"

	// journal lines live in the ledger repo; only the reference check
	// touches the table from here.
	journalLinesTable = "journal_lines"
)

// AccountRepo implements ledger.AccountRepository. Accounts are reference
// data and share the catalog CRUD surface.
type AccountRepo struct {
	*BaseCatalogRepo[*ledger.Account]
}

// NewAccountRepo creates a new account repository.
func NewAccountRepo(txm *postgres.TxManager) *AccountRepo {
	return &AccountRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			accountTable,
			postgres.ExtractDBColumns[ledger.Account](),
			func() *ledger.Account { return &ledger.Account{} },
		),
	}
}

// Referenced reports whether any journal line posts to the account.
func (r *AccountRepo) Referenced(ctx context.Context, accountID id.ID) (bool, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.Builder().
		Select("1").
		From(journalLinesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"account_id": accountID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var exists int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&exists)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("account referenced: %w", err)
	}

	return true, nil
}
