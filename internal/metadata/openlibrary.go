// Package metadata looks up bibliographic data for a book by ISBN so that new
// catalogue entries can be prefilled.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/services"
)

const userAgent = "librarydesk/1.0 (+https://github.com/mrlokans/librarydesk)"

var (
	ErrInvalidISBN  = fmt.Errorf("%w: ISBN must have 10 or 13 characters", database.ErrValidation)
	ErrISBNNotFound = fmt.Errorf("ISBN %w", database.ErrNotFound)
)

// BookMetadata is what OpenLibrary knows about one edition.
type BookMetadata struct {
	Title           string   `json:"title,omitempty"`
	Author          string   `json:"author,omitempty"`
	ISBN            string   `json:"isbn,omitempty"`
	CoverURL        string   `json:"cover_url,omitempty"`
	Publisher       string   `json:"publisher,omitempty"`
	PublicationYear int      `json:"publication_year,omitempty"`
	Subjects        []string `json:"subjects,omitempty"`
	PageCount       int      `json:"page_count,omitempty"`
}

// Suggestion maps the metadata onto the fields of a new book. The first
// subject, if any, becomes the category.
func (m *BookMetadata) Suggestion() services.BookInput {
	in := services.BookInput{
		Title:  m.Title,
		Author: m.Author,
		ISBN:   m.ISBN,
	}
	if len(m.Subjects) > 0 {
		in.Category = m.Subjects[0]
	}
	return in
}

// OpenLibraryClient fetches book metadata from the OpenLibrary API.
type OpenLibraryClient struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rateLimiter
}

type rateLimiter struct {
	mu       sync.Mutex
	lastCall time.Time
	interval time.Duration
}

func newRateLimiter(interval time.Duration) *rateLimiter {
	return &rateLimiter{interval: interval}
}

func (r *rateLimiter) wait(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCall); since < r.interval {
		timer := time.NewTimer(r.interval - since)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.lastCall = time.Now()
	return nil
}

// NewOpenLibraryClient creates a client for baseURL allowing one request per
// second.
func NewOpenLibraryClient(baseURL string, timeout time.Duration) *OpenLibraryClient {
	return &OpenLibraryClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: newRateLimiter(time.Second),
	}
}

// LookupISBN returns the edition registered under isbn. Hyphens and spaces
// in isbn are ignored.
func (c *OpenLibraryClient) LookupISBN(ctx context.Context, isbn string) (*BookMetadata, error) {
	isbn = normalizeISBN(isbn)
	if isbn == "" {
		return nil, ErrInvalidISBN
	}

	var book openLibraryBook
	found, err := c.getJSON(ctx, fmt.Sprintf("/isbn/%s.json", isbn), &book)
	if err != nil {
		return nil, fmt.Errorf("fetch ISBN data: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrISBNNotFound, isbn)
	}

	metadata := convertToMetadata(&book, isbn)

	// Editions reference authors by key only
	if len(book.Authors) > 0 {
		var author struct {
			Name string `json:"name"`
		}
		if ok, err := c.getJSON(ctx, book.Authors[0].Key+".json", &author); err == nil && ok {
			metadata.Author = author.Name
		}
	}

	return metadata, nil
}

// getJSON decodes the response for path into dst. A 404 reports found=false
// without an error.
func (c *OpenLibraryClient) getJSON(ctx context.Context, path string, dst any) (bool, error) {
	if err := c.rateLimiter.wait(ctx); err != nil {
		return false, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}

func convertToMetadata(book *openLibraryBook, isbn string) *BookMetadata {
	metadata := &BookMetadata{
		Title:     book.Title,
		ISBN:      isbn,
		PageCount: book.NumberOfPages,
		CoverURL:  fmt.Sprintf("https://covers.openlibrary.org/b/isbn/%s-L.jpg", isbn),
	}
	if book.PublishDate != "" {
		metadata.PublicationYear = extractYear(book.PublishDate)
	}
	if len(book.Publishers) > 0 {
		metadata.Publisher = book.Publishers[0]
	}
	if len(book.Subjects) > 0 {
		metadata.Subjects = book.Subjects
		if len(metadata.Subjects) > 10 {
			metadata.Subjects = metadata.Subjects[:10]
		}
	}
	return metadata
}

// normalizeISBN removes hyphens and spaces, returning "" unless ten or
// thirteen characters remain.
func normalizeISBN(isbn string) string {
	isbn = strings.ReplaceAll(isbn, "-", "")
	isbn = strings.ReplaceAll(isbn, " ", "")
	isbn = strings.TrimSpace(isbn)

	if len(isbn) != 10 && len(isbn) != 13 {
		return ""
	}
	return isbn
}

// extractYear tries to extract a 4-digit year from a date string.
func extractYear(dateStr string) int {
	dateStr = strings.TrimSpace(dateStr)
	if len(dateStr) < 4 {
		return 0
	}

	formats := []string{
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		"2006-01-02",
		"January 2006",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, dateStr); err == nil {
			return t.Year()
		}
	}

	// Last resort: find 4 consecutive digits
	for i := 0; i <= len(dateStr)-4; i++ {
		if dateStr[i] >= '0' && dateStr[i] <= '9' {
			var year int
			if _, err := fmt.Sscanf(dateStr[i:i+4], "%d", &year); err == nil && year > 1000 && year < 3000 {
				return year
			}
		}
	}
	return 0
}

type openLibraryBook struct {
	Key           string      `json:"key"`
	Title         string      `json:"title"`
	Authors       []authorRef `json:"authors"`
	Publishers    []string    `json:"publishers"`
	PublishDate   string      `json:"publish_date"`
	NumberOfPages int         `json:"number_of_pages"`
	Subjects      []string    `json:"subjects"`
}

type authorRef struct {
	Key string `json:"key"`
}
