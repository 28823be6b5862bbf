package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/klauspost/compress/zstd"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/audit"
)

// CompressionAlgo marks how a snapshot is stored.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// snapshotCompressThreshold is the snapshot size above which zstd kicks in.
// Small snapshots are cheaper to store raw than to compress.
const snapshotCompressThreshold = 1024

const auditTable = "audit_entries"

// Compile-time check.
var _ audit.Repository = (*AuditRepo)(nil)

// AuditRepo implements audit.Repository. Snapshots above the threshold are
// stored zstd-compressed and decompressed transparently on read.
type AuditRepo struct {
	txm     *TxManager
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txm *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRepo{
		txm:     txm,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// Insert persists one entry.
func (r *AuditRepo) Insert(ctx context.Context, entry *audit.Entry) error {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return apperror.NewTenantScopeMissing()
	}

	snapshot := entry.Snapshot
	algo := CompressionNone
	if len(snapshot) > snapshotCompressThreshold {
		snapshot = r.encoder.EncodeAll(snapshot, nil)
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_entries (
			id, tenant_id, document_id, kind, number, intent, status,
			attempt, user_id, occurred_at, snapshot, compression_algo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = r.txm.GetQuerier(ctx).Exec(ctx, sql,
		entry.ID, scope.TenantID, entry.DocumentID, entry.Kind, entry.Number,
		entry.Intent, entry.Status, entry.Attempt, entry.UserID,
		entry.OccurredAt, snapshot, algo,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListByDocument retrieves a document's history, oldest first.
func (r *AuditRepo) ListByDocument(ctx context.Context, documentID id.ID, limit int) ([]*audit.Entry, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, apperror.NewTenantScopeMissing()
	}

	sql := `
		SELECT id, tenant_id, document_id, kind, number, intent, status,
			   attempt, user_id, occurred_at, snapshot, compression_algo
		FROM audit_entries
		WHERE tenant_id = $1 AND document_id = $2
		ORDER BY occurred_at, id
		LIMIT $3
	`
	if limit <= 0 {
		limit = 100
	}

	return r.query(ctx, sql, scope.TenantID, documentID, limit)
}

// ListRecent retrieves the tenant's newest entries.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]*audit.Entry, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return nil, apperror.NewTenantScopeMissing()
	}

	sql := `
		SELECT id, tenant_id, document_id, kind, number, intent, status,
			   attempt, user_id, occurred_at, snapshot, compression_algo
		FROM audit_entries
		WHERE tenant_id = $1
		ORDER BY occurred_at DESC, id DESC
		LIMIT $2
	`
	if limit <= 0 {
		limit = 50
	}

	return r.query(ctx, sql, scope.TenantID, limit)
}

// PurgeOlderThan deletes entries recorded before the cutoff, across all
// tenants. Retention runs from the background worker, outside any tenant
// scope.
func (r *AuditRepo) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.txm.GetQuerier(ctx).Exec(ctx,
		`DELETE FROM audit_entries WHERE occurred_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge audit entries: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *AuditRepo) query(ctx context.Context, sql string, args ...any) ([]*audit.Entry, error) {
	rows, err := r.txm.GetQuerier(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*audit.Entry
	for rows.Next() {
		entry, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

func (r *AuditRepo) scanEntry(row pgx.Row) (*audit.Entry, error) {
	var entry audit.Entry
	var algo CompressionAlgo
	err := row.Scan(
		&entry.ID, &entry.TenantID, &entry.DocumentID, &entry.Kind,
		&entry.Number, &entry.Intent, &entry.Status, &entry.Attempt,
		&entry.UserID, &entry.OccurredAt, &entry.Snapshot, &algo,
	)
	if err != nil {
		return nil, fmt.Errorf("scan audit entry: %w", err)
	}

	if algo == CompressionZstd && len(entry.Snapshot) > 0 {
		decompressed, err := r.decoder.DecodeAll(entry.Snapshot, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		entry.Snapshot = decompressed
	}

	return &entry, nil
}
