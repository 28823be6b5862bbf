package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"saldo/internal/core/id"
	corenumerator "saldo/internal/core/numerator"
	"saldo/internal/core/tenant"
	"saldo/internal/infrastructure/storage/postgres"
)

type mockRow struct {
	val int64
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = m.val
		}
	}
	return nil
}

// mockQuerier simulates the sys_sequences upsert: every QueryRow adds the
// increment (1 for strict, args[2] for range reservation) and returns the
// new value.
type mockQuerier struct {
	mu           sync.Mutex
	currentValue int64
	calls        int
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (m *mockQuerier) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	var increment int64 = 1
	if len(args) == 3 {
		if val, ok := args[2].(int64); ok {
			increment = val
		}
	}

	m.currentValue += increment
	m.calls++

	return &mockRow{val: m.currentValue}
}

type mockDB struct {
	q *mockQuerier
}

func (m *mockDB) GetQuerier(ctx context.Context) postgres.Querier { return m.q }

func scopedCtx() context.Context {
	return tenant.WithScope(context.Background(), tenant.Scope{
		TenantID:     id.New(),
		UserID:       id.New(),
		TenantCode:   "acme",
		BaseCurrency: "USD",
	})
}

func TestNextNumberStrict(t *testing.T) {
	q := &mockQuerier{}
	svc := New(&mockDB{q: q})
	ctx := scopedCtx()
	cfg := corenumerator.DefaultConfig("PO")
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	num, err := svc.NextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-2026-000001" {
		t.Errorf("expected PO-2026-000001, got %s", num)
	}

	num, err = svc.NextNumber(ctx, cfg, nil, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "PO-2026-000002" {
		t.Errorf("expected PO-2026-000002, got %s", num)
	}

	if q.calls != 2 {
		t.Errorf("strict strategy must hit the database per call, got %d calls", q.calls)
	}
}

func TestNextNumberCached(t *testing.T) {
	q := &mockQuerier{}
	svc := New(&mockDB{q: q})
	ctx := scopedCtx()
	cfg := corenumerator.DefaultConfig("ORD")
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	// First call reserves 1..10; the mock's sequence value moves to 10.
	num, err := svc.NextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-000001" {
		t.Errorf("expected ORD-2026-000001, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected sequence value 10 after reservation, got %d", q.currentValue)
	}

	// Served from memory, no new reservation.
	num, err = svc.NextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-000002" {
		t.Errorf("expected ORD-2026-000002, got %s", num)
	}
	if q.currentValue != 10 {
		t.Errorf("expected sequence value to stay 10, got %d", q.currentValue)
	}

	// Exhaust the range; the next call reserves 11..20.
	for i := 0; i < 8; i++ {
		if _, err := svc.NextNumber(ctx, cfg, opts, period); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	num, err = svc.NextNumber(ctx, cfg, opts, period)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if num != "ORD-2026-000011" {
		t.Errorf("expected ORD-2026-000011, got %s", num)
	}
	if q.currentValue != 20 {
		t.Errorf("expected sequence value 20 after second reservation, got %d", q.currentValue)
	}
}

func TestNextNumberTenantIsolation(t *testing.T) {
	q := &mockQuerier{}
	svc := New(&mockDB{q: q})
	cfg := corenumerator.DefaultConfig("ORD")
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	opts := &corenumerator.Options{Strategy: corenumerator.StrategyCached, RangeSize: 10}

	// Two tenants sharing one service instance must not share cached ranges.
	if _, err := svc.NextNumber(scopedCtx(), cfg, opts, period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.NextNumber(scopedCtx(), cfg, opts, period); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.calls != 2 {
		t.Errorf("expected one reservation per tenant, got %d calls", q.calls)
	}
}

func TestNextNumberRequiresScope(t *testing.T) {
	svc := New(&mockDB{q: &mockQuerier{}})

	_, err := svc.NextNumber(context.Background(), corenumerator.DefaultConfig("PO"), nil, time.Now())
	if err == nil {
		t.Fatal("expected error without tenant scope")
	}
}

func TestNumberFormatting(t *testing.T) {
	period := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	got := formatNumber(corenumerator.Config{Prefix: "PO", IncludeYear: true, PadWidth: 6}, period, 42)
	if got != "PO-2026-000042" {
		t.Errorf("expected PO-2026-000042, got %s", got)
	}

	got = formatNumber(corenumerator.Config{Prefix: "ADJ", PadWidth: 4}, period, 7)
	if got != "ADJ-0007" {
		t.Errorf("expected ADJ-0007, got %s", got)
	}

	// Yearly reset keys the sequence by year; "never" keeps one sequence.
	if key := buildKey(corenumerator.DefaultConfig("PO"), period); key != "PO_2026" {
		t.Errorf("expected PO_2026, got %s", key)
	}
	if key := buildKey(corenumerator.Config{Prefix: "ADJ", ResetPeriod: "never"}, period); key != "ADJ" {
		t.Errorf("expected ADJ, got %s", key)
	}
}

func TestParseNumber(t *testing.T) {
	if got := ParseNumber("PO-2026-000042"); got != 42 {
		t.Errorf("expected 42, got %d", got)
	}
	if got := ParseNumber("ADJ-0007"); got != 7 {
		t.Errorf("expected 7, got %d", got)
	}
	if got := ParseNumber("garbage"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
}
