// Package settings provides raw key/value access to the settings table.
// Business code reads settings through settingsstore, not through this package.
package settings

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the stored value and whether the key exists.
func (r *Repository) Get(key string) (string, bool, error) {
	var setting entities.Setting
	err := r.db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, database.Classify(err)
	}
	return setting.Value, true, nil
}

// Set upserts a single key.
func (r *Repository) Set(key, value string) error {
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&entities.Setting{Key: key, Value: value}).Error
	return database.Classify(err)
}

// All returns every stored setting keyed by name.
func (r *Repository) All() (map[string]string, error) {
	var rows []entities.Setting
	if err := r.db.Find(&rows).Error; err != nil {
		return nil, database.Classify(err)
	}
	values := make(map[string]string, len(rows))
	for _, row := range rows {
		values[row.Key] = row.Value
	}
	return values, nil
}
