package loans

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

var base = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	db      *gorm.DB
	repo    *Repository
	book    *entities.Book
	other   *entities.Book
	member  *entities.Member
	history []*entities.Loan
}

func setup(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	f := &fixture{db: db.DB, repo: NewRepository(db.DB)}
	f.book = &entities.Book{Title: "Dune", Available: true}
	f.other = &entities.Book{Title: "Emma", Available: true}
	f.member = &entities.Member{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, f.db.Create(f.book).Error)
	require.NoError(t, f.db.Create(f.other).Error)
	require.NoError(t, f.db.Create(f.member).Error)

	returned := base.AddDate(0, 0, 5)
	f.history = []*entities.Loan{
		{BookID: f.book.ID, MemberID: f.member.ID, DateBorrowed: base, DateDue: base.AddDate(0, 0, 14), DateReturned: &returned},
		{BookID: f.other.ID, MemberID: f.member.ID, DateBorrowed: base.AddDate(0, 0, 1), DateDue: base.AddDate(0, 0, 3)},
		{BookID: f.book.ID, MemberID: f.member.ID, DateBorrowed: base.AddDate(0, 0, 7), DateDue: base.AddDate(0, 0, 21)},
	}
	for _, l := range f.history {
		require.NoError(t, f.repo.Create(l))
	}
	return f
}

func loanIDs(rows []entities.LoanView) []uint {
	ids := make([]uint, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.LoanID)
	}
	return ids
}

func TestRepository_List(t *testing.T) {
	f := setup(t)

	t.Run("full history newest borrowed first", func(t *testing.T) {
		rows, err := f.repo.List(false)
		require.NoError(t, err)
		assert.Equal(t, []uint{f.history[2].ID, f.history[1].ID, f.history[0].ID}, loanIDs(rows))
		assert.Equal(t, "Dune", rows[0].BookTitle)
		assert.Equal(t, "Ada", rows[0].MemberName)
		assert.Equal(t, "ada@example.com", rows[0].MemberEmail)
		assert.True(t, rows[0].DateBorrowed.Equal(base.AddDate(0, 0, 7)))
		require.NotNil(t, rows[2].DateReturned)
	})

	t.Run("active only", func(t *testing.T) {
		rows, err := f.repo.List(true)
		require.NoError(t, err)
		assert.Equal(t, []uint{f.history[2].ID, f.history[1].ID}, loanIDs(rows))
	})

	t.Run("history survives book deletion", func(t *testing.T) {
		require.NoError(t, f.db.Delete(&entities.Book{}, f.other.ID).Error)
		rows, err := f.repo.List(false)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, "", rows[1].BookTitle)
	})
}

func TestRepository_ListBorrowedBetween(t *testing.T) {
	f := setup(t)

	from := base.AddDate(0, 0, 1)
	until := base.AddDate(0, 0, 7)

	rows, err := f.repo.ListBorrowedBetween(&from, &until)
	require.NoError(t, err)
	assert.Equal(t, []uint{f.history[1].ID}, loanIDs(rows))

	rows, err = f.repo.ListBorrowedBetween(nil, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = f.repo.ListBorrowedBetween(&from, nil)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRepository_MarkReturned(t *testing.T) {
	f := setup(t)
	open := f.history[1]
	at := base.AddDate(0, 0, 6)

	changed, err := f.repo.MarkReturned(open.ID, at, 1.5)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.repo.MarkReturned(open.ID, at.AddDate(0, 0, 3), 9)
	require.NoError(t, err)
	assert.False(t, changed)

	got, err := f.repo.GetByID(open.ID)
	require.NoError(t, err)
	require.NotNil(t, got.DateReturned)
	assert.True(t, got.DateReturned.Equal(at))
	assert.Equal(t, 1.5, got.LateFee)
	assert.Equal(t, entities.LoanStatusReturned, got.Status())

	_, err = f.repo.GetByID(999)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Counters(t *testing.T) {
	f := setup(t)

	open, err := f.repo.HasOpenLoan(f.book.ID)
	require.NoError(t, err)
	assert.True(t, open)

	count, err := f.repo.CountOpen()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	overdue, err := f.repo.ListOverdue(base.AddDate(0, 0, 10))
	require.NoError(t, err)
	assert.Equal(t, []uint{f.history[1].ID}, loanIDs(overdue))

	dates, err := f.repo.BorrowDatesSince(base.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Len(t, dates, 2)
}
