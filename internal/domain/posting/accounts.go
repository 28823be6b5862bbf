package posting

import (
	"context"

	"saldo/internal/core/apperror"
	"saldo/internal/core/tenant"
	"saldo/internal/domain/ledger"
)

// Role names a posting slot in the chart of accounts. The engine posts
// by role; the tenant maps roles to account codes, falling back to the
// seeded defaults.
type Role string

const (
	RoleCash       Role = "cash"
	RoleReceivable Role = "accounts_receivable"
	RoleInventory  Role = "inventory"
	RolePayable    Role = "accounts_payable"
	RoleRevenue    Role = "revenue"
	RoleCOGS       Role = "cogs"
	RoleAdjustment Role = "inventory_adjustment"
)

// Default chart codes, matching the seeded chart of accounts.
var defaultAccountCodes = map[Role]string{
	RoleCash:       "1010",
	RoleReceivable: "1210",
	RoleInventory:  "1310",
	RolePayable:    "2010",
	RoleRevenue:    "4010",
	RoleCOGS:       "5010",
	RoleAdjustment: "5020",
}

// AccountResolver maps posting roles to ledger accounts within the
// tenant, honoring Settings.AccountCodes overrides.
type AccountResolver struct {
	accounts ledger.AccountRepository
}

// NewAccountResolver creates a resolver over the account catalog.
func NewAccountResolver(accounts ledger.AccountRepository) *AccountResolver {
	return &AccountResolver{accounts: accounts}
}

// Resolve returns the account serving the role for the current tenant.
func (r *AccountResolver) Resolve(ctx context.Context, role Role) (*ledger.Account, error) {
	code := defaultAccountCodes[role]
	if scope, err := tenant.ScopeFrom(ctx); err == nil {
		if override, ok := scope.Settings.AccountCodes[string(role)]; ok && override != "" {
			code = override
		}
	}
	if code == "" {
		return nil, apperror.NewValidation("unknown account role").
			WithDetail("role", string(role))
	}

	acc, err := r.accounts.GetByCode(ctx, code)
	if err != nil {
		if apperror.IsCode(err, apperror.CodeNotFound) {
			return nil, apperror.NewBusinessRule(apperror.CodeNotFound, "account for posting role is not set up").
				WithDetail("role", string(role)).
				WithDetail("code", code)
		}
		return nil, err
	}
	return acc, nil
}
