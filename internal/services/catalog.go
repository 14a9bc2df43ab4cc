package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/books"
	"github.com/mrlokans/librarydesk/internal/database/loans"
	"github.com/mrlokans/librarydesk/internal/database/members"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// ErrBookOnLoan is returned when deleting a book that an open loan references.
var ErrBookOnLoan = fmt.Errorf("book is on loan: %w", database.ErrConflict)

// BookInput carries the descriptive fields of a book. Availability is not
// part of it: only borrow and return change that flag.
type BookInput struct {
	Title    string `json:"title" validate:"required,max=512"`
	Author   string `json:"author" validate:"max=256"`
	Category string `json:"category" validate:"max=128"`
	ISBN     string `json:"isbn" validate:"max=20"`
}

func (in BookInput) normalize() BookInput {
	return BookInput{
		Title:    strings.TrimSpace(in.Title),
		Author:   strings.TrimSpace(in.Author),
		Category: strings.TrimSpace(in.Category),
		ISBN:     strings.TrimSpace(in.ISBN),
	}
}

type MemberInput struct {
	Name  string `json:"name" validate:"required,max=256"`
	Email string `json:"email" validate:"omitempty,email,max=254"`
}

// CatalogService manages books and members.
type CatalogService struct {
	db       *gorm.DB
	audit    *audit.Service
	validate *validator.Validate
}

func NewCatalogService(db *gorm.DB, auditSvc *audit.Service) *CatalogService {
	return &CatalogService{
		db:       db,
		audit:    auditSvc,
		validate: validator.New(),
	}
}

func (s *CatalogService) AddBook(ctx context.Context, actor string, in BookInput) (*entities.Book, error) {
	in = in.normalize()
	if err := s.check(in); err != nil {
		return nil, err
	}

	book := &entities.Book{
		Title:     in.Title,
		Author:    in.Author,
		Category:  in.Category,
		ISBN:      in.ISBN,
		Available: true,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := books.NewRepository(tx).Create(book); err != nil {
			return fmt.Errorf("failed to add book: %w", err)
		}
		return s.audit.Record(tx, actor, entities.AuditActionAddBook,
			fmt.Sprintf("book:%d title:%s", book.ID, book.Title))
	})
	if err != nil {
		return nil, database.Classify(err)
	}

	log.Info().Str("actor", actor).Uint("book_id", book.ID).Msg("book added")
	return book, nil
}

// UpdateBook replaces the descriptive fields of a book and returns the
// stored row. The availability flag is never touched here.
func (s *CatalogService) UpdateBook(ctx context.Context, actor string, id uint, in BookInput) (*entities.Book, error) {
	in = in.normalize()
	if err := s.check(in); err != nil {
		return nil, err
	}

	var updated *entities.Book
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		err := repo.UpdateDetails(&entities.Book{
			ID:       id,
			Title:    in.Title,
			Author:   in.Author,
			Category: in.Category,
			ISBN:     in.ISBN,
		})
		if err != nil {
			return err
		}
		if updated, err = repo.GetByID(id); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, entities.AuditActionUpdateBook,
			fmt.Sprintf("book:%d title:%s", id, in.Title))
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return updated, nil
}

// DeleteBook removes a book that no open loan references. Returned loans
// keep their rows and list with an empty title.
func (s *CatalogService) DeleteBook(ctx context.Context, actor string, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := books.NewRepository(tx)
		book, err := repo.GetByID(id)
		if err != nil {
			return err
		}
		onLoan, err := loans.NewRepository(tx).HasOpenLoan(id)
		if err != nil {
			return err
		}
		if onLoan || !book.Available {
			return ErrBookOnLoan
		}
		if err := repo.Delete(id); err != nil {
			return err
		}
		return s.audit.Record(tx, actor, entities.AuditActionDeleteBook,
			fmt.Sprintf("book:%d title:%s", id, book.Title))
	})
	if err != nil {
		return database.Classify(err)
	}

	log.Info().Str("actor", actor).Uint("book_id", id).Msg("book deleted")
	return nil
}

func (s *CatalogService) GetBook(ctx context.Context, id uint) (*entities.Book, error) {
	return books.NewRepository(s.db.WithContext(ctx)).GetByID(id)
}

// ListBooks returns books ordered by title, filtered by a substring of
// title, author, category or ISBN when search is non-empty.
func (s *CatalogService) ListBooks(ctx context.Context, search string) ([]entities.Book, error) {
	return books.NewRepository(s.db.WithContext(ctx)).List(search)
}

func (s *CatalogService) AddMember(ctx context.Context, actor string, in MemberInput) (*entities.Member, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}

	member := &entities.Member{Name: in.Name, Email: in.Email}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := members.NewRepository(tx).Create(member); err != nil {
			return fmt.Errorf("failed to add member: %w", err)
		}
		return s.audit.Record(tx, actor, entities.AuditActionAddMember,
			fmt.Sprintf("member:%d name:%s", member.ID, member.Name))
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return member, nil
}

func (s *CatalogService) GetMember(ctx context.Context, id uint) (*entities.Member, error) {
	return members.NewRepository(s.db.WithContext(ctx)).GetByID(id)
}

// ListMembers returns every member ordered by name.
func (s *CatalogService) ListMembers(ctx context.Context) ([]entities.Member, error) {
	return members.NewRepository(s.db.WithContext(ctx)).List()
}

// SearchMembers matches a substring of name or email. At most
// members.SearchLimit rows are returned; blank text falls back to ListMembers.
func (s *CatalogService) SearchMembers(ctx context.Context, search string) ([]entities.Member, error) {
	return members.NewRepository(s.db.WithContext(ctx)).Search(search)
}

// check runs struct validation and folds failures into one ErrValidation
// naming the offending fields.
func (s *CatalogService) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", database.ErrValidation, err)
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, describeFieldError(fe))
	}
	return fmt.Errorf("%w: %s", database.ErrValidation, strings.Join(parts, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " is not a valid email address"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s", field, fe.Tag())
}
