package jwt

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateToken(userID, "user@example.com", "secret", "skill-swap", time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "user@example.com", claims.Email)
}

func TestTokenRejections(t *testing.T) {
	userID := uuid.New()

	t.Run("wrong secret", func(t *testing.T) {
		token, err := GenerateToken(userID, "user@example.com", "secret", "skill-swap", time.Hour)
		require.NoError(t, err)

		_, err = ParseToken(token, "other-secret")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := GenerateToken(userID, "user@example.com", "secret", "skill-swap", -time.Minute)
		require.NoError(t, err)

		_, err = ParseToken(token, "secret")
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("not-a-token", "secret")
		assert.Error(t, err)
	})
}
