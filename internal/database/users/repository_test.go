package users

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

func setupRepo(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(db.DB)
}

func TestRepository(t *testing.T) {
	repo := setupRepo(t)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	alice := &entities.User{Username: "alice", PasswordHash: "h1", Role: entities.UserRoleAdmin}
	require.NoError(t, repo.Create(alice))
	require.NoError(t, repo.Create(&entities.User{Username: "bob", PasswordHash: "h2", Role: entities.UserRoleStaff}))

	t.Run("duplicate username conflicts", func(t *testing.T) {
		err := repo.Create(&entities.User{Username: "alice", PasswordHash: "h3", Role: entities.UserRoleStaff})
		assert.ErrorIs(t, err, database.ErrConflict)
	})

	t.Run("lookup by username", func(t *testing.T) {
		got, err := repo.GetByUsername("alice")
		require.NoError(t, err)
		assert.Equal(t, alice.ID, got.ID)
		assert.True(t, got.IsAdmin())

		_, err = repo.GetByUsername("carol")
		assert.ErrorIs(t, err, database.ErrNotFound)
	})

	t.Run("update password", func(t *testing.T) {
		require.NoError(t, repo.UpdatePassword(alice.ID, "h9", true))
		got, err := repo.GetByID(alice.ID)
		require.NoError(t, err)
		assert.Equal(t, "h9", got.PasswordHash)
		assert.True(t, got.MustChangePassword)

		assert.ErrorIs(t, repo.UpdatePassword(999, "x", false), database.ErrNotFound)
	})

	t.Run("list ordered by username", func(t *testing.T) {
		users, err := repo.List()
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "alice", users[0].Username)
		assert.Equal(t, "bob", users[1].Username)
	})
}
