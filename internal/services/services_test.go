package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
)

type fixture struct {
	db       *database.Database
	audit    *audit.Service
	settings *settingsstore.SettingsStore
	catalog  *CatalogService
	loans    *LoanService
	clock    *testClock
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

func (c *testClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := &testClock{now: time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)}
	auditSvc := audit.NewService(db.DB)
	settings := settingsstore.New(db.DB, auditSvc, nil, settingsstore.SMTPSettings{})

	return &fixture{
		db:       db,
		audit:    auditSvc,
		settings: settings,
		catalog:  NewCatalogService(db.DB, auditSvc),
		loans:    NewLoanService(db.DB, auditSvc, settings, 14, time.UTC).WithClock(clock.Now),
		clock:    clock,
	}
}

func (f *fixture) addBook(t *testing.T, title string) *entities.Book {
	t.Helper()
	book, err := f.catalog.AddBook(context.Background(), "clerk", BookInput{Title: title, Author: "Author"})
	require.NoError(t, err)
	return book
}

func (f *fixture) addMember(t *testing.T, name, email string) *entities.Member {
	t.Helper()
	member, err := f.catalog.AddMember(context.Background(), "clerk", MemberInput{Name: name, Email: email})
	require.NoError(t, err)
	return member
}

func (f *fixture) setRate(t *testing.T, rate float64) {
	t.Helper()
	_, err := f.settings.Update(context.Background(), "admin", settingsstore.Update{LateFeePerDay: &rate})
	require.NoError(t, err)
}

func (f *fixture) auditEntries(t *testing.T) []entities.AuditEntry {
	t.Helper()
	entries, err := f.audit.Query(context.Background(), audit.MaxQueryLimit, nil)
	require.NoError(t, err)
	return entries
}
