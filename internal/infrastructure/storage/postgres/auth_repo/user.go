// Package auth_repo provides PostgreSQL implementations for auth
// repositories. All tenants share one database; queries are scoped by the
// tenant_id column from the request scope.
package auth_repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"saldo/internal/core/apperror"
	"saldo/internal/core/id"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/auth"
	"saldo/internal/infrastructure/storage/postgres"
)

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name,
	is_active, is_admin, roles, last_login_at, failed_login_attempts,
	locked_until, created_at, updated_at, deleted_at, version`

// Compile-time check.
var _ auth.UserRepository = (*UserRepo)(nil)

// UserRepo implements auth.UserRepository.
type UserRepo struct {
	txm *postgres.TxManager
}

// NewUserRepo creates a new user repository.
func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{txm: txm}
}

func (r *UserRepo) tenantID(ctx context.Context) (id.ID, error) {
	scope, err := tenant.ScopeFrom(ctx)
	if err != nil {
		return id.Nil(), apperror.NewTenantScopeMissing()
	}
	return scope.TenantID, nil
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var user auth.User
	err := row.Scan(
		&user.ID, &user.TenantID, &user.Email, &user.PasswordHash,
		&user.FirstName, &user.LastName, &user.IsActive, &user.IsAdmin,
		&user.Roles, &user.LastLoginAt, &user.FailedLoginAttempts,
		&user.LockedUntil, &user.CreatedAt, &user.UpdatedAt,
		&user.DeletedAt, &user.Version,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create creates a new user.
func (r *UserRepo) Create(ctx context.Context, user *auth.User) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.txm.GetQuerier(ctx)

	query := `
		INSERT INTO users (
			id, tenant_id, email, password_hash, first_name, last_name,
			is_active, is_admin, roles, created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err = q.Exec(ctx, query,
		user.ID, tenantID, user.Email, user.PasswordHash,
		user.FirstName, user.LastName, user.IsActive, user.IsAdmin,
		user.Roles, user.CreatedAt, user.UpdatedAt, user.Version,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves user by ID.
func (r *UserRepo) GetByID(ctx context.Context, userID id.ID) (*auth.User, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.txm.GetQuerier(ctx)

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`

	user, err := scanUser(q.QueryRow(ctx, query, userID, tenantID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves user by email within the tenant.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.txm.GetQuerier(ctx)

	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE lower(email) = lower($1) AND tenant_id = $2 AND deleted_at IS NULL
	`

	user, err := scanUser(q.QueryRow(ctx, query, email, tenantID))
	if err == pgx.ErrNoRows {
		return nil, apperror.NewNotFound("user", email)
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}

	return user, nil
}

// Update updates user data with optimistic locking.
func (r *UserRepo) Update(ctx context.Context, user *auth.User) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.txm.GetQuerier(ctx)

	query := `
		UPDATE users SET
			email = $1, password_hash = $2, first_name = $3, last_name = $4,
			is_active = $5, is_admin = $6, roles = $7,
			last_login_at = $8, failed_login_attempts = $9, locked_until = $10,
			updated_at = NOW(), version = version + 1
		WHERE id = $11 AND tenant_id = $12 AND version = $13 AND deleted_at IS NULL
	`

	result, err := q.Exec(ctx, query,
		user.Email, user.PasswordHash, user.FirstName, user.LastName,
		user.IsActive, user.IsAdmin, user.Roles,
		user.LastLoginAt, user.FailedLoginAttempts, user.LockedUntil,
		user.ID, tenantID, user.Version,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("user", user.ID.String())
	}

	return nil
}

// Delete soft-deletes a user.
func (r *UserRepo) Delete(ctx context.Context, userID id.ID) error {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return err
	}

	q := r.txm.GetQuerier(ctx)

	query := `
		UPDATE users SET deleted_at = NOW(), updated_at = NOW(), version = version + 1
		WHERE id = $1 AND tenant_id = $2 AND deleted_at IS NULL
	`

	result, err := q.Exec(ctx, query, userID, tenantID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("user", userID.String())
	}

	return nil
}

// List retrieves users with filtering.
func (r *UserRepo) List(ctx context.Context, filter auth.UserFilter) ([]auth.User, int, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return nil, 0, err
	}

	q := r.txm.GetQuerier(ctx)

	conds := []string{"tenant_id = $1", "deleted_at IS NULL"}
	args := []any{tenantID}

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(email ILIKE $%d OR first_name ILIKE $%d OR last_name ILIKE $%d)", n, n, n))
	}
	if filter.IsActive != nil {
		args = append(args, *filter.IsActive)
		conds = append(conds, fmt.Sprintf("is_active = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("$%d = ANY(roles)", len(args)))
	}

	where := strings.Join(conds, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + where
	if err := q.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT `+userColumns+`
		FROM users
		WHERE %s
		ORDER BY email
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []auth.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate users: %w", err)
	}

	return users, total, nil
}

// Exists checks if the email is already registered within the tenant.
func (r *UserRepo) Exists(ctx context.Context, email string) (bool, error) {
	tenantID, err := r.tenantID(ctx)
	if err != nil {
		return false, err
	}

	q := r.txm.GetQuerier(ctx)

	query := `
		SELECT 1 FROM users
		WHERE lower(email) = lower($1) AND tenant_id = $2 AND deleted_at IS NULL
		LIMIT 1
	`

	var one int
	err = q.QueryRow(ctx, query, email, tenantID).Scan(&one)
	if err == pgx.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}

	return true, nil
}
