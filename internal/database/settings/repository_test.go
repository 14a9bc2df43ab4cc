package settings

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

func TestRepository(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	repo := NewRepository(db.DB)

	t.Run("get returns seeded default", func(t *testing.T) {
		value, ok, err := repo.Get(entities.SettingKeyLateFeePerDay)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "0.50", value)
	})

	t.Run("get reports absent key", func(t *testing.T) {
		value, ok, err := repo.Get("theme")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, value)
	})

	t.Run("set overwrites existing and inserts new", func(t *testing.T) {
		require.NoError(t, repo.Set(entities.SettingKeySMTPHost, "smtp.example.com"))
		require.NoError(t, repo.Set(entities.SettingKeySMTPHost, "mail.example.com"))
		require.NoError(t, repo.Set("theme", "dark"))

		all, err := repo.All()
		require.NoError(t, err)
		assert.Equal(t, "mail.example.com", all[entities.SettingKeySMTPHost])
		assert.Equal(t, "dark", all["theme"])
		assert.Len(t, all, len(entities.DefaultSettings)+1)
	})
}
