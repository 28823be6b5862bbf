package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/id"
)

func TestScopeFrom(t *testing.T) {
	ctx := context.Background()

	_, err := ScopeFrom(ctx)
	assert.ErrorIs(t, err, ErrNoScope)

	tn := &Tenant{
		ID:           id.New(),
		Code:         "acme",
		Name:         "ACME",
		BaseCurrency: "USD",
		Status:       StatusActive,
	}
	userID := id.New()

	scoped := WithScope(ctx, NewScope(tn, userID))
	s, err := ScopeFrom(scoped)
	require.NoError(t, err)
	assert.Equal(t, tn.ID, s.TenantID)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "USD", s.BaseCurrency)
	assert.Equal(t, "acme", s.TenantCode)
}

func TestScopeFromRejectsZeroScope(t *testing.T) {
	ctx := WithScope(context.Background(), Scope{})
	_, err := ScopeFrom(ctx)
	assert.ErrorIs(t, err, ErrNoScope)
}

func TestMustScopePanicsWithoutScope(t *testing.T) {
	assert.Panics(t, func() { MustScope(context.Background()) })
}
