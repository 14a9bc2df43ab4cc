// Package importers loads catalogue data from files in the format of the
// books import template.
package importers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
)

// BookAdder persists one book and its add_book audit entry.
type BookAdder interface {
	AddBook(ctx context.Context, actor string, in services.BookInput) (*entities.Book, error)
}

// ImportResult summarises a books import.
type ImportResult struct {
	TotalRows int      `json:"total_rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors,omitempty"`
}

// Pipeline handles the import workflow: parse, validate, save.
//
// Every row is added in its own transaction, so a rejected row does not undo
// the rows before it. Each saved row gets its own add_book audit entry.
type Pipeline struct {
	catalog BookAdder
}

func NewPipeline(catalog BookAdder) *Pipeline {
	return &Pipeline{catalog: catalog}
}

// ImportBooks reads a books CSV from r and adds every valid row as a new
// copy, attributed to actor. Rows failing validation are skipped and
// reported. Any other storage error stops the import and is returned along
// with the counts so far.
func (p *Pipeline) ImportBooks(ctx context.Context, actor string, r io.Reader) (ImportResult, error) {
	rows, problems, err := ParseBooksCSV(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("%w: %w", database.ErrValidation, err)
	}

	result := ImportResult{
		TotalRows: len(rows) + len(problems),
		Skipped:   len(problems),
		Errors:    problems,
	}

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if _, err := p.catalog.AddBook(ctx, actor, row.Input); err != nil {
			if errors.Is(err, database.ErrValidation) {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("Line %d: %v", row.Line, err))
				continue
			}
			return result, fmt.Errorf("line %d: %w", row.Line, err)
		}
		result.Imported++
	}

	log.Info().
		Str("actor", actor).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("books import finished")
	return result, nil
}
