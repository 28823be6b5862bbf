package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"saldo/internal/core/apperror"
)

// SQLSTATE codes this layer cares about. Everything else bubbles up as-is.
const (
	sqlstateUniqueViolation     = "23505"
	sqlstateForeignKeyViolation = "23503"
	sqlstateSerializationFail   = "40001"
	sqlstateDeadlockDetected    = "40P01"
	sqlstateLockNotAvailable    = "55P03"
)

// translateError maps driver-level failures to domain errors. Application
// errors pass through untouched so repositories keep control over their own
// NOT_FOUND and validation codes.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case sqlstateLockNotAvailable, sqlstateSerializationFail, sqlstateDeadlockDetected:
		entity := pgErr.TableName
		if entity == "" {
			entity = "record"
		}
		return apperror.NewConcurrencyConflict(entity, nil).WithCause(err)
	case sqlstateUniqueViolation:
		return apperror.NewConflict("record already exists").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	case sqlstateForeignKeyViolation:
		return apperror.NewConflict("record is referenced by other data").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}

	return err
}
