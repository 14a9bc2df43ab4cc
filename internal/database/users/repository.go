// Package users provides database operations for staff accounts.
package users

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the user. A taken username yields database.ErrConflict.
func (r *Repository) Create(user *entities.User) error {
	return database.Classify(r.db.Create(user).Error)
}

func (r *Repository) GetByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return &user, nil
}

func (r *Repository) GetByID(id uint) (*entities.User, error) {
	var user entities.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &user, nil
}

func (r *Repository) List() ([]entities.User, error) {
	var users []entities.User
	err := r.db.Order("username ASC").Find(&users).Error
	return users, database.Classify(err)
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, database.Classify(err)
}

func (r *Repository) UpdatePassword(id uint, passwordHash string, mustChange bool) error {
	result := r.db.Model(&entities.User{ID: id}).Updates(map[string]any{
		"password_hash":        passwordHash,
		"must_change_password": mustChange,
	})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, database.ErrNotFound)
	}
	return nil
}
