package security

import (
	"context"
	"fmt"

	"saldo/internal/core/apperror"
	appctx "saldo/internal/core/context"
)

// Permission defines the operations a role may perform.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"

	// Document transition permissions
	PermissionConfirm Permission = "confirm"
	PermissionReceive Permission = "receive"
	PermissionPay     Permission = "pay"
	PermissionCancel  Permission = "cancel"
	PermissionReverse Permission = "reverse"

	PermissionAdmin Permission = "admin"
)

// Role defines a named set of permissions.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleAccountant Role = "accountant"
	RoleManager    Role = "manager"
	RoleViewer     Role = "viewer"
)

// rolePermissions is the static role grant table. Admin is handled
// separately (all permissions).
var rolePermissions = map[Role][]Permission{
	RoleAccountant: {
		PermissionRead, PermissionCreate, PermissionUpdate,
		PermissionConfirm, PermissionReceive, PermissionPay,
		PermissionCancel, PermissionReverse,
	},
	RoleManager: {
		PermissionRead, PermissionCreate, PermissionUpdate,
		PermissionConfirm, PermissionReceive, PermissionCancel,
	},
	RoleViewer: {
		PermissionRead,
	},
}

// RoleGrants returns the static grant table, admin included. The map is
// a copy; callers may not mutate the grants.
func RoleGrants() map[Role][]Permission {
	out := make(map[Role][]Permission, len(rolePermissions)+1)
	for role, perms := range rolePermissions {
		out[role] = append([]Permission(nil), perms...)
	}
	out[RoleAdmin] = []Permission{
		PermissionRead, PermissionCreate, PermissionUpdate, PermissionDelete,
		PermissionConfirm, PermissionReceive, PermissionPay,
		PermissionCancel, PermissionReverse, PermissionAdmin,
	}
	return out
}

// AccessScope is the authorization view of the current request, built from
// the verified token claims.
type AccessScope struct {
	TenantID string
	UserID   string
	IsAdmin  bool
	Roles    []Role
}

// NewAccessScope builds an AccessScope from the request user context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	roles := make([]Role, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, Role(r))
	}
	return &AccessScope{
		TenantID: user.TenantID,
		UserID:   user.UserID,
		IsAdmin:  user.IsAdmin,
		Roles:    roles,
	}
}

// HasPermission checks whether any of the user's roles grants perm.
func (s *AccessScope) HasPermission(perm Permission) bool {
	if s.IsAdmin {
		return true
	}
	for _, role := range s.Roles {
		if role == RoleAdmin {
			return true
		}
		for _, p := range rolePermissions[role] {
			if p == perm {
				return true
			}
		}
	}
	return false
}

// RequirePermission returns a forbidden error if the permission is missing.
func (s *AccessScope) RequirePermission(perm Permission) error {
	if !s.HasPermission(perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s required", perm),
		).WithDetail("permission", string(perm))
	}
	return nil
}

type scopeKey struct{}

// WithScope adds an AccessScope to the context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns the AccessScope from context, building one from the user
// context when absent.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
