package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowsync/server/internal/models"
)

func TestAuthService_Register(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("returns plaintext api key once", func(t *testing.T) {
		user, err := env.auth.Register(ctx, &models.RegisterRequest{
			Email:       "New@Example.com",
			DisplayName: "New User",
			Password:    "correct-horse-battery",
		})
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", user.Email)
		assert.NotEmpty(t, user.APIKey)

		// The key resolves back to the account
		resolved, err := env.auth.GetUserByAPIKey(ctx, user.APIKey)
		require.NoError(t, err)
		require.NotNil(t, resolved)
		assert.Equal(t, user.ID, resolved.ID)
		// Only the hash was persisted
		assert.Empty(t, resolved.APIKey)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		_, err := env.auth.Register(ctx, &models.RegisterRequest{
			Email:       "dupe@example.com",
			DisplayName: "First",
			Password:    "correct-horse-battery",
		})
		require.NoError(t, err)

		_, err = env.auth.Register(ctx, &models.RegisterRequest{
			Email:       "DUPE@example.com",
			DisplayName: "Second",
			Password:    "correct-horse-battery",
		})
		assert.ErrorIs(t, err, models.ErrEmailExists)
	})
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	registered, err := env.auth.Register(ctx, &models.RegisterRequest{
		Email:       "login@example.com",
		DisplayName: "Login User",
		Password:    "correct-horse-battery",
	})
	require.NoError(t, err)

	t.Run("login rotates the api key", func(t *testing.T) {
		resp, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "login@example.com",
			Password: "correct-horse-battery",
		})
		require.NoError(t, err)
		assert.Equal(t, registered.ID, resp.User.ID)
		assert.NotEmpty(t, resp.APIKey)
		assert.NotEqual(t, registered.APIKey, resp.APIKey)

		// The old key no longer resolves
		stale, err := env.auth.GetUserByAPIKey(ctx, registered.APIKey)
		require.NoError(t, err)
		assert.Nil(t, stale)

		fresh, err := env.auth.GetUserByAPIKey(ctx, resp.APIKey)
		require.NoError(t, err)
		require.NotNil(t, fresh)
		assert.Equal(t, registered.ID, fresh.ID)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "login@example.com",
			Password: "wrong",
		})
		assert.ErrorIs(t, err, models.ErrInvalidPassword)
	})

	t.Run("unknown email gets the same error", func(t *testing.T) {
		_, err := env.auth.Login(ctx, &models.LoginRequest{
			Email:    "nobody@example.com",
			Password: "correct-horse-battery",
		})
		assert.ErrorIs(t, err, models.ErrInvalidPassword)
	})

	t.Run("unknown api key resolves to nil", func(t *testing.T) {
		user, err := env.auth.GetUserByAPIKey(ctx, "not-a-real-key")
		require.NoError(t, err)
		assert.Nil(t, user)
	})
}
