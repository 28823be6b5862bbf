package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/domain/documents"
	"saldo/internal/infrastructure/storage/postgres"
)

var documentLineColumns = postgres.ExtractDBColumns[documents.DocumentLine]()

// GetLines retrieves the lines of a document in line order.
func (r *DocumentRepo) GetLines(ctx context.Context, docID id.ID) ([]documents.DocumentLine, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.Builder().
		Select(documentLineColumns...).
		From(documentLinesTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []documents.DocumentLine
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}

	return lines, nil
}

// SaveLines replaces the document's lines (delete existing + insert new).
// Only called while the document is a draft; fulfillment updates go through
// UpdateLineFulfillment.
func (r *DocumentRepo) SaveLines(ctx context.Context, docID id.ID, lines []documents.DocumentLine) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + documentLinesTable + " WHERE document_id = $1 AND tenant_id = $2"
	if _, err := querier.Exec(ctx, deleteSQL, docID, tenantID); err != nil {
		return fmt.Errorf("delete existing lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(documentLinesTable).
		Columns(
			"line_id", "document_id", "tenant_id", "line_no", "product_id",
			"direction", "ordered", "fulfilled", "unit_price", "amount",
		)

	for _, line := range lines {
		q = q.Values(
			line.LineID, docID, tenantID, line.LineNo, line.ProductID,
			line.Direction, line.Ordered, line.Fulfilled, line.UnitPrice, line.Amount,
		)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}

	return nil
}

// UpdateLineFulfillment advances the fulfilled quantity of one line.
func (r *DocumentRepo) UpdateLineFulfillment(ctx context.Context, line *documents.DocumentLine) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(documentLinesTable).
		Set("fulfilled", line.Fulfilled).
		Where(squirrel.Eq{"line_id": line.LineID}).
		Where(squirrel.Eq{"tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update line fulfillment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("document line", line.LineID.String())
	}

	return nil
}
