package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJWTManager(t *testing.T) {
	t.Run("requires JWT_SECRET", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "")

		_, err := NewJWTManager()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SECRET")
	})

	t.Run("creates manager with secret set", func(t *testing.T) {
		t.Setenv("JWT_SECRET", "test-secret-key")

		manager, err := NewJWTManager()
		require.NoError(t, err)
		assert.NotNil(t, manager)
	})
}

func TestJWTManager_GenerateAndValidate(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key")
	manager, err := NewJWTManager()
	require.NoError(t, err)

	t.Run("round trip preserves claims", func(t *testing.T) {
		token, err := manager.GenerateToken(context.Background(), "user-123", "alice@example.com", []string{"user", "admin"}, time.Hour)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := manager.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, "alice@example.com", claims.Username)
		assert.Equal(t, []string{"user", "admin"}, claims.Roles)
		assert.Equal(t, "debate-orchestrator", claims.Issuer)
		assert.Equal(t, "user-123", claims.Subject)
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		token, err := manager.GenerateToken(context.Background(), "user-123", "alice@example.com", nil, 1*time.Millisecond)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)

		_, err = manager.ValidateToken(context.Background(), token)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "token")
	})

	t.Run("token signed with different secret is rejected", func(t *testing.T) {
		token, err := manager.GenerateToken(context.Background(), "user-123", "alice@example.com", nil, time.Hour)
		require.NoError(t, err)

		t.Setenv("JWT_SECRET", "a-completely-different-secret")
		other, err := NewJWTManager()
		require.NoError(t, err)

		_, err = other.ValidateToken(context.Background(), token)
		require.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		_, err := manager.ValidateToken(context.Background(), "not-a-jwt")
		require.Error(t, err)
	})
}

func TestJWTManager_RefreshToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret-key")
	manager, err := NewJWTManager()
	require.NoError(t, err)

	t.Run("refresh carries claims into new token", func(t *testing.T) {
		original, err := manager.GenerateToken(context.Background(), "user-123", "alice@example.com", []string{"user"}, time.Hour)
		require.NoError(t, err)

		refreshed, err := manager.RefreshToken(context.Background(), original, 2*time.Hour)
		require.NoError(t, err)

		claims, err := manager.ValidateToken(context.Background(), refreshed)
		require.NoError(t, err)
		assert.Equal(t, "user-123", claims.UserID)
		assert.Equal(t, []string{"user"}, claims.Roles)
	})

	t.Run("cannot refresh an invalid token", func(t *testing.T) {
		_, err := manager.RefreshToken(context.Background(), "not-a-jwt", time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot refresh invalid token")
	})
}
