// Package tx defines the transaction management contract domain services
// depend on, decoupled from the postgres implementation in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs a unit of work in a database transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction: rollback if fn
	// errors, commit otherwise. Nested calls reuse the transaction already
	// on the context, so a service composing several repositories still
	// produces one atomic unit.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager for query paths that take no locks.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction; writes fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
