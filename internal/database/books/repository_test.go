package books

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func seedBooks(t *testing.T, repo *Repository) []*entities.Book {
	t.Helper()
	books := []*entities.Book{
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Category: "Fantasy", ISBN: "9780261103344", Available: true},
		{Title: "Dune", Author: "Frank Herbert", Category: "Science Fiction", ISBN: "9780441013593", Available: true},
		{Title: "Neuromancer", Author: "William Gibson", Category: "Science Fiction", Available: true},
	}
	for _, b := range books {
		require.NoError(t, repo.Create(b))
	}
	return books
}

func TestRepository_List(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	seedBooks(t, repo)

	tests := []struct {
		name   string
		search string
		want   []string
	}{
		{name: "empty search returns all ordered by title", search: "", want: []string{"Dune", "Neuromancer", "The Hobbit"}},
		{name: "matches category", search: "science", want: []string{"Dune", "Neuromancer"}},
		{name: "matches author", search: "tolkien", want: []string{"The Hobbit"}},
		{name: "matches isbn", search: "0441", want: []string{"Dune"}},
		{name: "no match", search: "cookbook", want: nil},
		{name: "wildcards are literal", search: "%", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			books, err := repo.List(tt.search)
			require.NoError(t, err)
			var titles []string
			for _, b := range books {
				titles = append(titles, b.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestRepository_GetByID(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	books := seedBooks(t, repo)

	got, err := repo.GetByID(books[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.True(t, got.Available)

	_, err = repo.GetByID(4242)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_UpdateDetails(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	books := seedBooks(t, repo)

	changed, err := repo.SetAvailability(books[0].ID, false)
	require.NoError(t, err)
	require.True(t, changed)

	err = repo.UpdateDetails(&entities.Book{ID: books[0].ID, Title: "The Hobbit (2nd ed.)", Author: "Tolkien", Available: true})
	require.NoError(t, err)

	got, err := repo.GetByID(books[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit (2nd ed.)", got.Title)
	assert.Equal(t, "", got.Category)
	assert.False(t, got.Available, "availability is not touched by detail updates")

	err = repo.UpdateDetails(&entities.Book{ID: 999, Title: "Ghost"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_SetAvailability(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	books := seedBooks(t, repo)
	id := books[2].ID

	changed, err := repo.SetAvailability(id, false)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.SetAvailability(id, false)
	require.NoError(t, err)
	assert.False(t, changed, "second checkout of the same copy must lose")

	changed, err = repo.SetAvailability(id, true)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestRepository_DeleteAndCount(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	books := seedBooks(t, repo)

	require.NoError(t, repo.Delete(books[0].ID))
	assert.ErrorIs(t, repo.Delete(books[0].ID), database.ErrNotFound)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
