// Package books provides database operations for the book catalogue.
package books

import (
	"fmt"
	"strings"

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

func (r *Repository) Create(book *entities.Book) error {
	return database.Classify(r.db.Create(book).Error)
}

func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &book, nil
}

// List returns books ordered by title. A non-empty search matches as a
// case-insensitive substring of title, author, category or ISBN.
func (r *Repository) List(search string) ([]entities.Book, error) {
	query := r.db.Model(&entities.Book{})
	if search = strings.TrimSpace(search); search != "" {
		pattern := database.ContainsPattern(search)
		query = query.Where(
			`title LIKE ? ESCAPE '\' OR author LIKE ? ESCAPE '\' OR category LIKE ? ESCAPE '\' OR isbn LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}

	var books []entities.Book
	err := query.Order("title ASC, id ASC").Find(&books).Error
	return books, database.Classify(err)
}

// UpdateDetails overwrites the descriptive fields only. Availability is left
// to SetAvailability.
func (r *Repository) UpdateDetails(book *entities.Book) error {
	result := r.db.Model(&entities.Book{ID: book.ID}).
		Updates(map[string]any{
			"title":    book.Title,
			"author":   book.Author,
			"category": book.Category,
			"isbn":     book.ISBN,
		})
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("book %d: %w", book.ID, database.ErrNotFound)
	}
	return nil
}

// SetAvailability flips the flag only if it currently equals !available and
// reports whether a row changed. Two racing borrowers cannot both win.
func (r *Repository) SetAvailability(id uint, available bool) (bool, error) {
	result := r.db.Model(&entities.Book{}).
		Where("id = ? AND available = ?", id, !available).
		Update("available", available)
	if result.Error != nil {
		return false, database.Classify(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) Delete(id uint) error {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return database.Classify(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("book %d: %w", id, database.ErrNotFound)
	}
	return nil
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Book{}).Count(&count).Error
	return count, database.Classify(err)
}
