// Package document_repo provides the PostgreSQL implementation of the
// document repository. One table holds the headers of every document kind;
// lines live in a companion table. All queries are tenant-scoped.
package document_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/domain"
	"saldo/internal/domain/documents"
	"saldo/internal/infrastructure/storage/postgres"
)

const (
	documentsTable     = "documents"
	documentLinesTable = "document_lines"
)

var documentColumns = postgres.ExtractDBColumns[documents.Document]()

// Compile-time check that DocumentRepo implements documents.Repository.
var _ documents.Repository = (*DocumentRepo)(nil)

// DocumentRepo implements documents.Repository.
type DocumentRepo struct {
	txm *postgres.TxManager
}

// NewDocumentRepo creates a new document repository.
func NewDocumentRepo(txm *postgres.TxManager) *DocumentRepo {
	return &DocumentRepo{txm: txm}
}

// Builder returns a new squirrel builder.
func (r *DocumentRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *DocumentRepo) tenantID(ctx context.Context) (id.ID, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return id.Nil(), apperror.NewTenantScopeMissing()
	}
	return scope.TenantID, nil
}

// Create inserts a document header. Lines are saved through SaveLines.
func (r *DocumentRepo) Create(ctx context.Context, doc *documents.Document) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	data := postgres.StructToMap(doc)
	filteredData := make(map[string]any, len(documentColumns))
	for _, col := range documentColumns {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}
	filteredData["tenant_id"] = tenantID

	q := r.Builder().
		Insert(documentsTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}

	return nil
}

// Update modifies a document header with optimistic locking.
func (r *DocumentRepo) Update(ctx context.Context, doc *documents.Document) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	data := postgres.StructToMap(doc)

	filteredData := make(map[string]any, len(documentColumns))
	for _, col := range documentColumns {
		switch col {
		case "id", "tenant_id", "created_at", "created_by":
			continue
		case "version", "updated_at":
			continue // managed by repo
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.Builder().
		Update(documentsTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": doc.ID}).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.Eq{"version": doc.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("document", doc.ID.String())
	}

	return nil
}

// Delete soft-deletes a document. The service layer only allows it for drafts.
func (r *DocumentRepo) Delete(ctx context.Context, docID id.ID) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.Builder().
		Update(documentsTable).
		Set("deletion_mark", true).
		Set("updated_at", squirrel.Expr("NOW()")).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": docID}).
		Where(squirrel.Eq{"tenant_id": tenantID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("document", docID.String())
	}

	return nil
}

func (r *DocumentRepo) baseSelect(tenantID id.ID) squirrel.SelectBuilder {
	return r.Builder().
		Select(documentColumns...).
		From(documentsTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

// GetByID retrieves a document header by ID. Lines are not loaded.
func (r *DocumentRepo) GetByID(ctx context.Context, docID id.ID) (*documents.Document, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": docID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc documents.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID.String())
		}
		return nil, fmt.Errorf("get document: %w", err)
	}

	return &doc, nil
}

// GetByNumber retrieves a document by kind and number.
func (r *DocumentRepo) GetByNumber(ctx context.Context, kind documents.Kind, number string) (*documents.Document, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"kind": kind}).
		Where(squirrel.Eq{"number": number})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc documents.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", number)
		}
		return nil, fmt.Errorf("get document by number: %w", err)
	}

	return &doc, nil
}

// GetForUpdate retrieves a document header with the exclusive row lock that
// serializes transitions. The transaction's lock_timeout bounds the wait.
func (r *DocumentRepo) GetForUpdate(ctx context.Context, docID id.ID) (*documents.Document, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.baseSelect(tenantID).
		Where(squirrel.Eq{"id": docID}).
		Suffix("FOR UPDATE")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var doc documents.Document
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &doc, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("document", docID.String())
		}
		return nil, fmt.Errorf("get document for update: %w", err)
	}

	return &doc, nil
}

// List retrieves documents with filtering and pagination.
func (r *DocumentRepo) List(ctx context.Context, filter documents.ListFilter) (domain.ListResult[*documents.Document], error) {
	result := domain.ListResult[*documents.Document]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return result, err
	}

	q := r.baseSelect(tenantID)

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}

	if filter.Search != "" {
		q = q.Where(squirrel.ILike{"number": "%" + filter.Search + "%"})
	}

	if filter.Kind != nil {
		q = q.Where(squirrel.Eq{"kind": *filter.Kind})
	}

	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	if filter.CounterpartyID != nil {
		q = q.Where(squirrel.Eq{"counterparty_id": *filter.CounterpartyID})
	}

	if filter.StoreID != nil {
		q = q.Where(squirrel.Eq{"store_id": *filter.StoreID})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	// Count
	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	// Order
	orderBy, err := r.parseOrderBy(filter.OrderBy)
	if err != nil {
		return result, err
	}
	q = q.OrderBy(orderBy)

	// Page
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list documents: %w", err)
	}

	return result, nil
}

func (r *DocumentRepo) parseOrderBy(orderBy string) (string, error) {
	allowed := make(map[string]struct{}, len(documentColumns))
	for _, col := range documentColumns {
		allowed[col] = struct{}{}
	}

	if strings.TrimSpace(orderBy) == "" {
		return "date DESC", nil
	}

	direction := "ASC"
	field := orderBy
	if strings.HasPrefix(orderBy, "-") {
		direction = "DESC"
		field = strings.TrimPrefix(orderBy, "-")
	} else if strings.HasPrefix(orderBy, "+") {
		field = strings.TrimPrefix(orderBy, "+")
	}

	field = strings.TrimSpace(field)
	if field == "" {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy)
	}

	if _, ok := allowed[field]; !ok {
		return "", apperror.NewValidation("invalid orderBy").WithDetail("orderBy", orderBy).WithDetail("field", field)
	}

	return field + " " + direction, nil
}
