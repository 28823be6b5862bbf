package numerator

import (
	"context"
	"time"
)

// Generator allocates sequential document numbers per tenant and kind.
// The implementation lives in the infrastructure layer; inside a posting
// transaction it must use the transaction's querier so the allocated number
// rolls back with a failed confirmation.
type Generator interface {
	// NextNumber returns the next formatted number, e.g. "PO-2026-000042".
	NextNumber(ctx context.Context, cfg Config, opts *Options, period time.Time) (string, error)

	// SetNextNumber positions the sequence (data migration / seeding).
	SetNextNumber(ctx context.Context, cfg Config, period time.Time, value int64) error
}
