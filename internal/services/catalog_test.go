package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/members"
	"github.com/mrlokans/librarydesk/internal/entities"
)

func TestCatalogService_AddBook(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	book, err := f.catalog.AddBook(ctx, "clerk", BookInput{Title: "  Dune ", Author: "Frank Herbert", ISBN: "9780441013593"})
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.True(t, book.Available)

	entries := f.auditEntries(t)
	require.Len(t, entries, 1)
	assert.Equal(t, entities.AuditActionAddBook, entries[0].Action)
	assert.Equal(t, "clerk", entries[0].Actor)

	_, err = f.catalog.AddBook(ctx, "clerk", BookInput{Title: "   "})
	assert.ErrorIs(t, err, database.ErrValidation)
	assert.Contains(t, err.Error(), "title is required")

	_, err = f.catalog.AddBook(ctx, "clerk", BookInput{Title: "x", ISBN: strings.Repeat("9", 21)})
	assert.ErrorIs(t, err, database.ErrValidation)

	assert.Len(t, f.auditEntries(t), 1, "rejected input must not be audited")
}

func TestCatalogService_ListBooks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.addBook(t, "The Hobbit")
	f.addBook(t, "Dune")
	_, err := f.catalog.AddBook(ctx, "clerk", BookInput{Title: "Foundation", Category: "Science Fiction"})
	require.NoError(t, err)

	all, err := f.catalog.ListBooks(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Dune", all[0].Title)

	found, err := f.catalog.ListBooks(ctx, "fiction")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Foundation", found[0].Title)
}

func TestCatalogService_UpdateBookKeepsAvailability(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book := f.addBook(t, "Dune")
	member := f.addMember(t, "Ann", "")

	_, err := f.loans.Borrow(ctx, "clerk", book.ID, member.ID, 7)
	require.NoError(t, err)

	updated, err := f.catalog.UpdateBook(ctx, "clerk", book.ID, BookInput{Title: "Dune Messiah", Author: "Frank Herbert"})
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", updated.Title)
	assert.False(t, updated.Available)

	_, err = f.catalog.UpdateBook(ctx, "clerk", 9999, BookInput{Title: "Ghost"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestCatalogService_DeleteBook(t *testing.T) {
	ctx := context.Background()

	t.Run("open loan blocks deletion", func(t *testing.T) {
		f := newFixture(t)
		book := f.addBook(t, "Dune")
		member := f.addMember(t, "Ann", "")
		_, err := f.loans.Borrow(ctx, "clerk", book.ID, member.ID, 7)
		require.NoError(t, err)

		err = f.catalog.DeleteBook(ctx, "clerk", book.ID)
		assert.ErrorIs(t, err, ErrBookOnLoan)
		assert.ErrorIs(t, err, database.ErrConflict)

		still, err := f.catalog.GetBook(ctx, book.ID)
		require.NoError(t, err)
		assert.Equal(t, "Dune", still.Title)
	})

	t.Run("returned loans do not block deletion", func(t *testing.T) {
		f := newFixture(t)
		book := f.addBook(t, "Dune")
		member := f.addMember(t, "Ann", "")
		loan, err := f.loans.Borrow(ctx, "clerk", book.ID, member.ID, 7)
		require.NoError(t, err)
		_, err = f.loans.Return(ctx, "clerk", loan.ID)
		require.NoError(t, err)

		require.NoError(t, f.catalog.DeleteBook(ctx, "clerk", book.ID))
		_, err = f.catalog.GetBook(ctx, book.ID)
		assert.ErrorIs(t, err, database.ErrNotFound)

		history, err := f.loans.ListLoans(ctx, false)
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Empty(t, history[0].BookTitle)
		assert.Equal(t, "Ann", history[0].MemberName)

		assert.Equal(t, entities.AuditActionDeleteBook, f.auditEntries(t)[0].Action)
	})

	t.Run("book with no loans", func(t *testing.T) {
		f := newFixture(t)
		book := f.addBook(t, "Dune")
		require.NoError(t, f.catalog.DeleteBook(ctx, "clerk", book.ID))
		assert.ErrorIs(t, f.catalog.DeleteBook(ctx, "clerk", book.ID), database.ErrNotFound)
	})
}

func TestCatalogService_Members(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	ann := f.addMember(t, "Ann Smith", "ann@example.com")
	f.addMember(t, "Bob Jones", "")

	_, err := f.catalog.AddMember(ctx, "clerk", MemberInput{Name: "Eve", Email: "not-an-email"})
	assert.ErrorIs(t, err, database.ErrValidation)
	assert.Contains(t, err.Error(), "email is not a valid email address")

	_, err = f.catalog.AddMember(ctx, "clerk", MemberInput{Name: ""})
	assert.ErrorIs(t, err, database.ErrValidation)

	got, err := f.catalog.GetMember(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", got.Email)

	found, err := f.catalog.SearchMembers(ctx, "example.com")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, ann.ID, found[0].ID)

	all, err := f.catalog.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Ann Smith", all[0].Name)

	entries := f.auditEntries(t)
	require.Len(t, entries, 2)
	assert.Equal(t, entities.AuditActionAddMember, entries[0].Action)
}

func TestCatalogService_ListMembersIsNotCapped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	total := members.SearchLimit + 5
	batch := make([]entities.Member, 0, total)
	for i := 0; i < total; i++ {
		batch = append(batch, entities.Member{Name: fmt.Sprintf("Reader %03d", i)})
	}
	require.NoError(t, f.db.DB.CreateInBatches(batch, 50).Error)

	all, err := f.catalog.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, all, total)

	blank, err := f.catalog.SearchMembers(ctx, "")
	require.NoError(t, err)
	assert.Len(t, blank, total)

	found, err := f.catalog.SearchMembers(ctx, "reader")
	require.NoError(t, err)
	assert.Len(t, found, members.SearchLimit)
}
