// Package audit records who did what and when. Entries are written through
// the caller's transaction so a business change and its audit row commit
// together.
package audit

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	auditrepo "github.com/mrlokans/librarydesk/internal/database/audit"
	"github.com/mrlokans/librarydesk/internal/entities"
)

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 1000
	maxDetailsLength  = 1000
)

var (
	ErrUnknownAction = errors.New("unknown audit action")
	ErrMissingActor  = errors.New("audit actor is required")
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// WithClock replaces the timestamp source. Used by tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Record appends one entry using tx. A failure here must abort the caller's
// transaction, so the error is always returned.
func (s *Service) Record(tx *gorm.DB, actor string, action entities.AuditAction, details string) error {
	if actor == "" {
		return ErrMissingActor
	}
	if !action.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	entry := &entities.AuditEntry{
		Actor:     actor,
		Action:    action,
		Details:   truncate(details, maxDetailsLength),
		CreatedAt: s.now().UTC(),
	}
	if err := auditrepo.NewRepository(tx).Append(entry); err != nil {
		return fmt.Errorf("failed to record audit entry %s: %w", action, err)
	}
	return nil
}

// RecordNow appends one entry in its own transaction, for actions that have
// no other write to pair with (exports, logins).
func (s *Service) RecordNow(ctx context.Context, actor string, action entities.AuditAction, details string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.Record(tx, actor, action, details)
	})
	return database.Classify(err)
}

// Query returns up to limit entries newest first. A non-positive limit means
// DefaultQueryLimit; anything above MaxQueryLimit is clamped.
func (s *Service) Query(ctx context.Context, limit int, since *time.Time) ([]entities.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if limit > MaxQueryLimit {
		limit = MaxQueryLimit
	}
	return auditrepo.NewRepository(s.db.WithContext(ctx)).Query(limit, since)
}

// truncate cuts s to at most maxLen bytes, backing off to a rune boundary
// so the stored text stays valid UTF-8.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
