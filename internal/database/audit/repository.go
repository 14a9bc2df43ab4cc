// Package audit provides append-only storage for audit entries.
package audit

import (
	"time"

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

// Append inserts entry, stamping CreatedAt when unset. There is no update
// or delete counterpart.
func (r *Repository) Append(entry *entities.AuditEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return database.Classify(r.db.Create(entry).Error)
}

// Query returns up to limit entries newest first, optionally only those
// created at or after since.
func (r *Repository) Query(limit int, since *time.Time) ([]entities.AuditEntry, error) {
	query := r.db.Model(&entities.AuditEntry{})
	if since != nil {
		query = query.Where("created_at >= ?", since.UTC())
	}

	var entries []entities.AuditEntry
	err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error
	return entries, database.Classify(err)
}

func (r *Repository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&entities.AuditEntry{}).Count(&count).Error
	return count, database.Classify(err)
}
