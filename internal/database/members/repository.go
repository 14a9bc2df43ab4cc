// Package members provides database operations for library members.
package members

import (
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// SearchLimit caps the number of rows a member search returns.
const SearchLimit = 200

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(member *entities.Member) error {
	return database.Classify(r.db.Create(member).Error)
}

func (r *Repository) GetByID(id uint) (*entities.Member, error) {
	var member entities.Member
	if err := r.db.First(&member, id).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &member, nil
}

// List returns every member ordered by name.
func (r *Repository) List() ([]entities.Member, error) {
	var members []entities.Member
	err := r.db.Order("name ASC, id ASC").Find(&members).Error
	return members, database.Classify(err)
}

// Search returns at most SearchLimit members whose name or email contains
// text, ordered by name. Blank text lists everyone.
func (r *Repository) Search(text string) ([]entities.Member, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return r.List()
	}

	pattern := database.ContainsPattern(text)
	var members []entities.Member
	err := r.db.Where(`name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\'`, pattern, pattern).
		Order("name ASC, id ASC").
		Limit(SearchLimit).
		Find(&members).Error
	return members, database.Classify(err)
}

// FindByNameOrEmail returns the first member whose email or name equals value.
func (r *Repository) FindByNameOrEmail(value string) (*entities.Member, error) {
	var member entities.Member
	err := r.db.Where("email = ? OR name = ?", value, value).Order("id ASC").First(&member).Error
	if err != nil {
		return nil, database.Classify(err)
	}
	return &member, nil
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Member{}).Count(&count).Error
	return count, database.Classify(err)
}
