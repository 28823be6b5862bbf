package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"saldo/internal/core/id"
)

func TestJWTRoundTrip(t *testing.T) {
	svc := NewJWTService(DefaultJWTConfig("test-secret"))

	user := NewUser(id.New(), "kim@example.com", "hash")
	user.Roles = []string{"accountant"}
	user.IsAdmin = true

	token, expiresAt, err := svc.GenerateAccessToken(user)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	uc, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, user.TenantID.String(), uc.TenantID)
	assert.Equal(t, "kim@example.com", uc.Email)
	assert.Equal(t, []string{"accountant"}, uc.Roles)
	assert.True(t, uc.IsAdmin)
}

func TestJWTRejectsWrongSecret(t *testing.T) {
	issuer := NewJWTService(DefaultJWTConfig("secret-a"))
	verifier := NewJWTService(DefaultJWTConfig("secret-b"))

	token, _, err := issuer.GenerateAccessToken(NewUser(id.New(), "kim@example.com", "hash"))
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	assert.Error(t, err)
}

func TestUserLockout(t *testing.T) {
	user := NewUser(id.New(), "kim@example.com", "hash")

	for i := 0; i < 4; i++ {
		user.RecordFailedLogin(5, 15*time.Minute)
		assert.False(t, user.IsLocked())
	}
	user.RecordFailedLogin(5, 15*time.Minute)
	assert.True(t, user.IsLocked())
	assert.Error(t, user.CanLogin())

	user.RecordSuccessfulLogin()
	assert.False(t, user.IsLocked())
	assert.NoError(t, user.CanLogin())
	assert.NotNil(t, user.LastLoginAt)
}
