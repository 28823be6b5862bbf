// Package numerator provides the PostgreSQL implementation of document
// auto-numbering declared in core/numerator.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"saldo/internal/core/apperror"
	corenumerator "saldo/internal/core/numerator"
	"saldo/internal/core/tenant"
	"saldo/internal/infrastructure/storage/postgres"
)

// QuerierSource yields the querier for the current context, routing to the
// active transaction when one is present. *postgres.TxManager satisfies it.
type QuerierSource interface {
	GetQuerier(ctx context.Context) postgres.Querier
}

type cachedRange struct {
	current int64
	max     int64
}

// Service allocates numbers from the sys_sequences table. Queries go through
// the transaction manager, so a number allocated inside a posting transaction
// rolls back together with a failed confirmation. Strict allocation takes a
// row lock on the sequence, serializing confirmations of the same kind and
// period within a tenant.
type Service struct {
	db QuerierSource

	// cacheMu protects ranges. Keys include the tenant ID because one
	// Service instance serves all tenants.
	cacheMu sync.Mutex
	ranges  map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service.
func New(db QuerierSource) *Service {
	return &Service{
		db:     db,
		ranges: make(map[string]*cachedRange),
	}
}

// NextNumber generates the next document number.
// Pattern: PREFIX-YEAR-XXXXXX (e.g., PO-2026-000042).
func (s *Service) NextNumber(ctx context.Context, cfg corenumerator.Config, opts *corenumerator.Options, period time.Time) (string, error) {
	if s == nil {
		return "", fmt.Errorf("numerator service is not initialized")
	}

	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return "", apperror.NewTenantScopeMissing()
	}

	if opts == nil {
		opts = corenumerator.DefaultOptions()
	}

	key := buildKey(cfg, period)
	cacheKey := scope.TenantID.String() + ":" + key

	var num int64
	switch opts.Strategy {
	case corenumerator.StrategyCached:
		num, err = s.nextCached(ctx, scope.TenantID.String(), key, cacheKey, opts)
	case corenumerator.StrategyStrict:
		fallthrough
	default:
		num, err = s.nextStrict(ctx, scope.TenantID.String(), key)
	}

	if err != nil {
		return "", err
	}

	return formatNumber(cfg, period, num), nil
}

// nextStrict fetches the next number from the database with UPSERT + RETURNING.
func (s *Service) nextStrict(ctx context.Context, tenantID, key string) (int64, error) {
	var num int64
	err := s.db.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, 1)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = sys_sequences.current_val + 1
		RETURNING current_val
	`, tenantID, key).Scan(&num)

	if err != nil {
		return 0, fmt.Errorf("strict next: %w", err)
	}
	return num, nil
}

// nextCached fetches the next number from memory, refilling from the database
// when the reserved range is exhausted. Gaps appear on restart; callers opt in
// through StrategyCached.
func (s *Service) nextCached(ctx context.Context, tenantID, key, cacheKey string, opts *corenumerator.Options) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	rng, exists := s.ranges[cacheKey]
	if !exists {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}

	if rng.current >= rng.max {
		size := opts.RangeSize
		if size <= 0 {
			size = 50
		}

		var newMax int64
		err := s.db.GetQuerier(ctx).QueryRow(ctx, `
			INSERT INTO sys_sequences (tenant_id, key, current_val)
			VALUES ($1, $2, $3)
			ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = sys_sequences.current_val + $3
			RETURNING current_val
		`, tenantID, key, size).Scan(&newMax)

		if err != nil {
			return 0, fmt.Errorf("reserve range: %w", err)
		}

		// newMax is the end of the reserved range; the first valid number
		// is newMax - size + 1.
		rng.current = newMax - size
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}

// SetNextNumber positions the sequence so the next allocation returns value.
// Used by seeding and data migration.
func (s *Service) SetNextNumber(ctx context.Context, cfg corenumerator.Config, period time.Time, value int64) error {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return apperror.NewTenantScopeMissing()
	}

	key := buildKey(cfg, period)

	var result int64
	err = s.db.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = $3
		RETURNING current_val
	`, scope.TenantID.String(), key, value-1).Scan(&result)

	s.cacheMu.Lock()
	delete(s.ranges, scope.TenantID.String()+":"+key)
	s.cacheMu.Unlock()

	return err
}

// buildKey creates the sequence key for the config and period.
func buildKey(cfg corenumerator.Config, period time.Time) string {
	if cfg.ResetPeriod == "year" {
		return fmt.Sprintf("%s_%s", cfg.Prefix, period.Format("2006"))
	}
	return cfg.Prefix
}

// formatNumber renders the final number string.
func formatNumber(cfg corenumerator.Config, period time.Time, num int64) string {
	padWidth := cfg.PadWidth
	if padWidth == 0 {
		padWidth = 6
	}

	if cfg.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", cfg.Prefix, period.Format("2006"), padWidth, num)
	}
	return fmt.Sprintf("%s-%0*d", cfg.Prefix, padWidth, num)
}

// ParseNumber extracts the numeric part from a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}

	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}

	return -1
}
