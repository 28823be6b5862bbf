// Package ledger_repo provides the PostgreSQL implementation of journal line
// persistence. Lines are append-only; the unique (tenant, document, attempt,
// side-set) constraint backs posting idempotence.
package ledger_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/ledger"
	"saldo/internal/infrastructure/storage/postgres"
)

const journalTable = "journal_lines"

var journalColumns = postgres.ExtractDBColumns[ledger.JournalLine]()

// Compile-time check.
var _ ledger.Repository = (*JournalRepo)(nil)

// JournalRepo implements ledger.Repository.
type JournalRepo struct {
	txm *postgres.TxManager
}

// NewJournalRepo creates a new journal repository.
func NewJournalRepo(txm *postgres.TxManager) *JournalRepo {
	return &JournalRepo{txm: txm}
}

func (r *JournalRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *JournalRepo) tenantID(ctx context.Context) (id.ID, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return id.Nil(), apperror.NewTenantScopeMissing()
	}
	return scope.TenantID, nil
}

// InsertLines persists one posting group as a whole.
func (r *JournalRepo) InsertLines(ctx context.Context, lines []*ledger.JournalLine) error {
	if len(lines) == 0 {
		return nil
	}

	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.builder().
		Insert(journalTable).
		Columns(journalColumns...)

	for _, line := range lines {
		data := postgres.StructToMap(line)
		data["tenant_id"] = tenantID

		row := make([]any, len(journalColumns))
		for i, col := range journalColumns {
			row[i] = data[col]
		}
		q = q.Values(row...)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert journal lines: %w", err)
	}

	return nil
}

// ExistsForAttempt reports whether the (document, attempt) pair has posted.
func (r *JournalRepo) ExistsForAttempt(ctx context.Context, documentID id.ID, attempt int) (bool, error) {
	return r.exists(ctx, squirrel.And{
		squirrel.Eq{"document_id": documentID},
		squirrel.Eq{"attempt": attempt},
	})
}

// ExistsForDocument reports whether any lines exist for the document.
func (r *JournalRepo) ExistsForDocument(ctx context.Context, documentID id.ID) (bool, error) {
	return r.exists(ctx, squirrel.Eq{"document_id": documentID})
}

func (r *JournalRepo) exists(ctx context.Context, cond squirrel.Sqlizer) (bool, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.builder().
		Select("1").
		From(journalTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(cond).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("journal exists: %w", err)
	}

	return true, nil
}

// ListByReference retrieves all lines sharing a reference, in creation order.
func (r *JournalRepo) ListByReference(ctx context.Context, reference string) ([]*ledger.JournalLine, error) {
	return r.list(ctx, squirrel.Eq{"reference": reference})
}

// ListByDocument retrieves all lines for a document, in creation order.
func (r *JournalRepo) ListByDocument(ctx context.Context, documentID id.ID) ([]*ledger.JournalLine, error) {
	return r.list(ctx, squirrel.Eq{"document_id": documentID})
}

func (r *JournalRepo) list(ctx context.Context, cond squirrel.Sqlizer) ([]*ledger.JournalLine, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.builder().
		Select(journalColumns...).
		From(journalTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(cond).
		OrderBy("created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []*ledger.JournalLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list journal lines: %w", err)
	}

	return lines, nil
}
