package manager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManagerLifecycle(t *testing.T) {
	tm := NewTokenManager()

	jt, err := tm.GenerateToken("worker", time.Hour)
	require.NoError(t, err)
	assert.Len(t, jt.Token, 64)

	role, err := tm.ValidateToken(jt.Token)
	require.NoError(t, err)
	assert.Equal(t, "worker", role)

	_, err = tm.ValidateToken("bogus")
	assert.Error(t, err)

	tm.RevokeToken(jt.Token)
	_, err = tm.ValidateToken(jt.Token)
	assert.Error(t, err)
}

func TestTokenManagerRejectsUnknownRole(t *testing.T) {
	tm := NewTokenManager()
	_, err := tm.GenerateToken("admin", time.Hour)
	assert.Error(t, err)
}

func TestTokenManagerExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tm := NewTokenManager()
	tm.now = func() time.Time { return now }

	jt, err := tm.GenerateToken("manager", time.Minute)
	require.NoError(t, err)
	_, err = tm.GenerateToken("worker", time.Hour)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tm.ValidateToken(jt.Token)
	assert.EqualError(t, err, "token expired")

	tm.CleanupExpiredTokens()
	tokens := tm.ListTokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, "worker", string(tokens[0].Role))
}
