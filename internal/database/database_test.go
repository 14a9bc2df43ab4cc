package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/entities"
)

func setupTestDB(t *testing.T) (*Database, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "library.db")
	db, err := NewDatabase(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, dbPath
}

func TestNewDatabase(t *testing.T) {
	t.Run("seeds default settings", func(t *testing.T) {
		db, _ := setupTestDB(t)

		var settings []entities.Setting
		require.NoError(t, db.DB.Order("key").Find(&settings).Error)

		values := map[string]string{}
		for _, s := range settings {
			values[s.Key] = s.Value
		}
		assert.Equal(t, "0.50", values[entities.SettingKeyLateFeePerDay])
		assert.Equal(t, "587", values[entities.SettingKeySMTPPort])
		assert.Contains(t, values, entities.SettingKeySMTPHost)
		assert.Len(t, values, len(entities.DefaultSettings))
	})

	t.Run("reopening keeps existing rows and values", func(t *testing.T) {
		db, dbPath := setupTestDB(t)

		require.NoError(t, db.DB.Model(&entities.Setting{}).
			Where("key = ?", entities.SettingKeyLateFeePerDay).
			Update("value", "1.25").Error)
		require.NoError(t, db.DB.Create(&entities.Book{Title: "Dune", Available: true}).Error)
		require.NoError(t, db.Close())

		reopened, err := NewDatabase(dbPath)
		require.NoError(t, err)
		defer reopened.Close()

		var fee entities.Setting
		require.NoError(t, reopened.DB.Where("key = ?", entities.SettingKeyLateFeePerDay).First(&fee).Error)
		assert.Equal(t, "1.25", fee.Value)

		var count int64
		require.NoError(t, reopened.DB.Model(&entities.Book{}).Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})
}

func TestTransaction(t *testing.T) {
	db, _ := setupTestDB(t)
	ctx := context.Background()

	t.Run("error rolls back every write", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.Transaction(ctx, func(tx *gorm.DB) error {
			if err := tx.Create(&entities.Book{Title: "Rolled back"}).Error; err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, db.DB.Model(&entities.Book{}).Where("title = ?", "Rolled back").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("not found is classified", func(t *testing.T) {
		err := db.Transaction(ctx, func(tx *gorm.DB) error {
			var book entities.Book
			return tx.First(&book, 9999).Error
		})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		require.NoError(t, db.DB.Create(&entities.User{Username: "ann", PasswordHash: "x", Role: entities.UserRoleStaff}).Error)
		err := db.Transaction(ctx, func(tx *gorm.DB) error {
			return tx.Create(&entities.User{Username: "ann", PasswordHash: "y", Role: entities.UserRoleStaff}).Error
		})
		assert.ErrorIs(t, err, ErrConflict)
	})
}

func TestClassify(t *testing.T) {
	assert.NoError(t, Classify(nil))
	assert.ErrorIs(t, Classify(gorm.ErrRecordNotFound), ErrNotFound)
	assert.ErrorIs(t, Classify(gorm.ErrDuplicatedKey), ErrConflict)

	wrapped := fmt.Errorf("loan 3: %w", ErrAlreadyReturned)
	assert.Same(t, wrapped, Classify(wrapped))

	plain := errors.New("disk on fire")
	assert.Same(t, plain, Classify(plain))
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, "%dune%", ContainsPattern("dune"))
	assert.Equal(t, `%100\%\_off%`, ContainsPattern("100%_off"))
}
