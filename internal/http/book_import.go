package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/importers"
	"github.com/mrlokans/librarydesk/internal/metadata"
)

// maxImportBytes caps the size of an uploaded books file.
const maxImportBytes = 5 << 20

// BookImporter adds the books listed in a CSV file.
type BookImporter interface {
	ImportBooks(ctx context.Context, actor string, r io.Reader) (importers.ImportResult, error)
}

// ISBNLookup resolves an ISBN to bibliographic data.
type ISBNLookup interface {
	LookupISBN(ctx context.Context, isbn string) (*metadata.BookMetadata, error)
}

type BookImportController struct {
	importer BookImporter
	lookup   ISBNLookup
}

// NewBookImportController accepts a nil lookup when ISBN lookups are disabled.
func NewBookImportController(importer BookImporter, lookup ISBNLookup) *BookImportController {
	return &BookImportController{importer: importer, lookup: lookup}
}

// Import handles POST /api/books/import with the CSV in the "file" form field.
func (bc *BookImportController) Import(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBytes)

	file, _, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "file is too large", Code: CodeValidation})
			return
		}
		respondBadRequest(c, "no CSV file provided")
		return
	}
	defer file.Close()

	result, err := bc.importer.ImportBooks(c.Request.Context(), actorName(c), file)
	if err != nil {
		respondServiceError(c, err, "import books")
		return
	}
	c.JSON(http.StatusOK, result)
}

type lookupResponse struct {
	Metadata   *metadata.BookMetadata `json:"metadata"`
	Suggestion bookRequest            `json:"suggestion"`
}

// Lookup handles GET /api/books/lookup?isbn=
func (bc *BookImportController) Lookup(c *gin.Context) {
	if bc.lookup == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "ISBN lookup is disabled"})
		return
	}
	isbn := c.Query("isbn")
	if isbn == "" {
		respondBadRequest(c, "isbn is required")
		return
	}

	found, err := bc.lookup.LookupISBN(c.Request.Context(), isbn)
	if err != nil {
		if status, _ := classifyError(err); status == http.StatusInternalServerError {
			log.Warn().Err(err).Str("isbn", isbn).Msg("ISBN lookup failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{Error: "metadata service unavailable"})
			return
		}
		respondServiceError(c, err, "lookup isbn")
		return
	}

	s := found.Suggestion()
	c.JSON(http.StatusOK, lookupResponse{
		Metadata:   found,
		Suggestion: bookRequest{Title: s.Title, Author: s.Author, Category: s.Category, ISBN: s.ISBN},
	})
}
