// Package loans provides database operations for loans and the joined loan
// views used by listings, exports and reminders.
package loans

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// Left joins keep history rows whose book has since been deleted.
const viewColumns = `loans.id AS loan_id, loans.book_id, loans.member_id,
	COALESCE(books.title, '') AS book_title,
	COALESCE(members.name, '') AS member_name,
	COALESCE(members.email, '') AS member_email,
	loans.date_borrowed, loans.date_due, loans.date_returned, loans.late_fee`

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(loan *entities.Loan) error {
	return database.Classify(r.db.Create(loan).Error)
}

func (r *Repository) GetByID(id uint) (*entities.Loan, error) {
	var loan entities.Loan
	if err := r.db.First(&loan, id).Error; err != nil {
		return nil, database.Classify(err)
	}
	return &loan, nil
}

// MarkReturned closes an open loan. It reports false, leaving the row as it
// was, when the loan is already closed.
func (r *Repository) MarkReturned(id uint, returnedAt time.Time, lateFee float64) (bool, error) {
	result := r.db.Model(&entities.Loan{}).
		Where("id = ? AND date_returned IS NULL", id).
		Updates(map[string]any{
			"date_returned": returnedAt,
			"late_fee":      lateFee,
		})
	if result.Error != nil {
		return false, database.Classify(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *Repository) HasOpenLoan(bookID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).
		Where("book_id = ? AND date_returned IS NULL", bookID).
		Count(&count).Error
	if err != nil {
		return false, database.Classify(err)
	}
	return count > 0, nil
}

func (r *Repository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&entities.Loan{}).Where("date_returned IS NULL").Count(&count).Error
	return count, database.Classify(err)
}

func (r *Repository) views() *gorm.DB {
	return r.db.Table("loans").
		Select(viewColumns).
		Joins("LEFT JOIN books ON books.id = loans.book_id").
		Joins("LEFT JOIN members ON members.id = loans.member_id")
}

// List returns loans newest-borrowed first, only open ones when activeOnly is set.
func (r *Repository) List(activeOnly bool) ([]entities.LoanView, error) {
	query := r.views()
	if activeOnly {
		query = query.Where("loans.date_returned IS NULL")
	}

	var rows []entities.LoanView
	err := query.Order("loans.date_borrowed DESC, loans.id DESC").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", database.Classify(err))
	}
	return rows, nil
}

// ListBorrowedBetween returns the full history newest-borrowed first,
// restricted to from <= date_borrowed < until when the bounds are non-nil.
func (r *Repository) ListBorrowedBetween(from, until *time.Time) ([]entities.LoanView, error) {
	query := r.views()
	if from != nil {
		query = query.Where("loans.date_borrowed >= ?", from.UTC())
	}
	if until != nil {
		query = query.Where("loans.date_borrowed < ?", until.UTC())
	}

	var rows []entities.LoanView
	err := query.Order("loans.date_borrowed DESC, loans.id DESC").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list loans for export: %w", database.Classify(err))
	}
	return rows, nil
}

// ListOverdue returns open loans due before the given instant, oldest due first.
func (r *Repository) ListOverdue(before time.Time) ([]entities.LoanView, error) {
	var rows []entities.LoanView
	err := r.views().
		Where("loans.date_returned IS NULL AND loans.date_due < ?", before.UTC()).
		Order("loans.date_due ASC, loans.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", database.Classify(err))
	}
	return rows, nil
}

// BorrowDatesSince returns date_borrowed of every loan borrowed at or after since.
func (r *Repository) BorrowDatesSince(since time.Time) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.Model(&entities.Loan{}).
		Where("date_borrowed >= ?", since.UTC()).
		Pluck("date_borrowed", &dates).Error
	return dates, database.Classify(err)
}
