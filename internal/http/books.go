package http

import (
	"bytes"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
)

// BookCatalog defines the catalogue operations needed by BooksController.
type BookCatalog interface {
	AddBook(ctx context.Context, actor string, in services.BookInput) (*entities.Book, error)
	UpdateBook(ctx context.Context, actor string, id uint, in services.BookInput) (*entities.Book, error)
	DeleteBook(ctx context.Context, actor string, id uint) error
	GetBook(ctx context.Context, id uint) (*entities.Book, error)
	ListBooks(ctx context.Context, search string) ([]entities.Book, error)
}

type BooksController struct {
	catalog  BookCatalog
	exporter LoanExporter
}

func NewBooksController(catalog BookCatalog, exporter LoanExporter) *BooksController {
	return &BooksController{catalog: catalog, exporter: exporter}
}

type bookRequest struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	ISBN     string `json:"isbn"`
}

func (r bookRequest) input() services.BookInput {
	return services.BookInput{Title: r.Title, Author: r.Author, Category: r.Category, ISBN: r.ISBN}
}

// ListBooks handles GET /api/books?search=
func (bc *BooksController) ListBooks(c *gin.Context) {
	books, err := bc.catalog.ListBooks(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, gin.H{"books": books, "total": len(books)})
}

// CreateBook handles POST /api/books
func (bc *BooksController) CreateBook(c *gin.Context) {
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, err := bc.catalog.AddBook(c.Request.Context(), actorName(c), req.input())
	if err != nil {
		respondServiceError(c, err, "add book")
		return
	}
	respondCreated(c, book)
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.catalog.GetBook(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// UpdateBook handles PUT /api/books/:id. Availability is not editable here.
func (bc *BooksController) UpdateBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req bookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	book, err := bc.catalog.UpdateBook(c.Request.Context(), actorName(c), id, req.input())
	if err != nil {
		respondServiceError(c, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id. A book on loan answers 409.
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.catalog.DeleteBook(c.Request.Context(), actorName(c), id); err != nil {
		respondServiceError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "book deleted"})
}

// ImportTemplate handles GET /api/books/import-template.csv
func (bc *BooksController) ImportTemplate(c *gin.Context) {
	var buf bytes.Buffer
	if err := bc.exporter.WriteBookTemplate(c.Request.Context(), actorName(c), &buf); err != nil {
		respondServiceError(c, err, "books import template")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="books_import_template.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
