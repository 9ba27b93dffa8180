package bootstrap

import (
	"context"
	"testing"

	"cinelog/internal/config"
	"cinelog/internal/repository"
	"cinelog/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDevAdmin(t *testing.T) {
	ctx := context.Background()

	t.Run("inactive outside development", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		users := repository.NewUserRepository(db)
		cfg := &config.Config{Env: "production", DevBootstrapAdmin: true, DevAdminPassword: "secret123"}
		require.NoError(t, EnsureDevAdmin(ctx, cfg, users))
		admins, err := users.ListAdmins(ctx)
		require.NoError(t, err)
		assert.Empty(t, admins)
	})

	t.Run("requires a password", func(t *testing.T) {
		users := repository.NewUserRepository(testutil.NewTestDB(t))
		cfg := &config.Config{Env: "development", DevBootstrapAdmin: true}
		assert.Error(t, EnsureDevAdmin(ctx, cfg, users))
	})

	t.Run("creates once", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		users := repository.NewUserRepository(db)
		testutil.CreateUser(t, db, "admin")
		cfg := &config.Config{Env: "development", DevBootstrapAdmin: true, DevAdminPassword: "secret123"}

		require.NoError(t, EnsureDevAdmin(ctx, cfg, users))
		require.NoError(t, EnsureDevAdmin(ctx, cfg, users))

		admins, err := users.ListAdmins(ctx)
		require.NoError(t, err)
		require.Len(t, admins, 1)
		assert.Equal(t, defaultDevAdminEmail, admins[0].Email)
		assert.Equal(t, "cinelog_admin", admins[0].Nickname)
	})

	t.Run("promotes an existing account", func(t *testing.T) {
		db := testutil.NewTestDB(t)
		users := repository.NewUserRepository(db)
		existing := testutil.CreateUser(t, db, "curator")
		cfg := &config.Config{
			Env: "development", DevBootstrapAdmin: true,
			DevAdminEmail: "Curator@Example.com", DevAdminPassword: "secret123",
		}

		require.NoError(t, EnsureDevAdmin(ctx, cfg, users))
		got, err := users.GetByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.True(t, got.IsAdmin)
	})
}
