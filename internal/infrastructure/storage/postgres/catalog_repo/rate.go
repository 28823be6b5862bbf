package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/currency"
	"saldo/internal/infrastructure/storage/postgres"
)

const rateTable = "exchange_rates"

var rateColumns = postgres.ExtractDBColumns[currency.ExchangeRate]()

// RateRepo implements currency.RateRepository over the append-only
// exchange_rates history table.
type RateRepo struct {
	txm *postgres.TxManager
}

// NewRateRepo creates a new exchange rate repository.
func NewRateRepo(txm *postgres.TxManager) *RateRepo {
	return &RateRepo{txm: txm}
}

func (r *RateRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *RateRepo) tenantID(ctx context.Context) (id.ID, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return id.Nil(), apperror.NewTenantScopeMissing()
	}
	return scope.TenantID, nil
}

// Insert appends a rate quotation.
func (r *RateRepo) Insert(ctx context.Context, rate *currency.ExchangeRate) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	data := postgres.StructToMap(rate)
	data["tenant_id"] = tenantID

	q := r.builder().
		Insert(rateTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert exchange rate: %w", err)
	}

	return nil
}

// Latest retrieves the newest quotation effective on or before asOf.
func (r *RateRepo) Latest(ctx context.Context, currencyID id.ID, asOf time.Time) (*currency.ExchangeRate, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(rateColumns...).
		From(rateTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"currency_id": currencyID}).
		Where(squirrel.LtOrEq{"effective_date": asOf}).
		OrderBy("effective_date DESC", "created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rate currency.ExchangeRate
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rate, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("exchange rate", currencyID.String())
		}
		return nil, fmt.Errorf("latest rate: %w", err)
	}

	return &rate, nil
}

// ListForCurrency retrieves the quotation history, newest first.
func (r *RateRepo) ListForCurrency(ctx context.Context, currencyID id.ID, limit int) ([]*currency.ExchangeRate, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(rateColumns...).
		From(rateTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"currency_id": currencyID}).
		OrderBy("effective_date DESC", "created_at DESC")

	if limit > 0 {
		q = q.Limit(uint64(limit))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rates []*currency.ExchangeRate
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rates, sql, args...); err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}

	return rates, nil
}
