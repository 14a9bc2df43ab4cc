// Package exporters renders loan history and import templates as CSV and
// records each export in the audit log.
package exporters

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/entities"
)

var (
	LoanHeader         = []string{"Loan ID", "Book", "Member", "Borrowed", "Due", "Returned", "Late Fee"}
	BookTemplateHeader = []string{"title", "author", "category", "isbn"}
)

const bookTemplateAuditTag = "books_import_template"

// LoanLister provides the export view of the loan history.
type LoanLister interface {
	ListLoansForExport(ctx context.Context, from, until *time.Time) ([]entities.LoanView, error)
}

// ExportResult contains the outcome of an export operation.
type ExportResult struct {
	Rows int `json:"rows"`
}

type CSVExporter struct {
	loans    LoanLister
	audit    *audit.Service
	location *time.Location
}

// NewCSVExporter writes dates as calendar days in loc (time.Local when nil).
func NewCSVExporter(loans LoanLister, auditSvc *audit.Service, loc *time.Location) *CSVExporter {
	if loc == nil {
		loc = time.Local
	}
	return &CSVExporter{loans: loans, audit: auditSvc, location: loc}
}

// DateRange is an inclusive range of calendar days. A zero bound is open.
type DateRange struct {
	From time.Time
	To   time.Time
}

// bounds converts the inclusive day range into a half-open instant range.
func (r DateRange) bounds(loc *time.Location) (*time.Time, *time.Time) {
	var from, until *time.Time
	if !r.From.IsZero() {
		f := startOfDay(r.From, loc)
		from = &f
	}
	if !r.To.IsZero() {
		u := startOfDay(r.To, loc).AddDate(0, 0, 1)
		until = &u
	}
	return from, until
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDateRange reads optional YYYY-MM-DD bounds.
func ParseDateRange(from, to string) (DateRange, error) {
	var r DateRange
	var err error
	if from != "" {
		if r.From, err = time.Parse(time.DateOnly, from); err != nil {
			return r, fmt.Errorf("invalid from date %q, expected YYYY-MM-DD", from)
		}
	}
	if to != "" {
		if r.To, err = time.Parse(time.DateOnly, to); err != nil {
			return r, fmt.Errorf("invalid to date %q, expected YYYY-MM-DD", to)
		}
	}
	if !r.From.IsZero() && !r.To.IsZero() && r.To.Before(r.From) {
		return r, fmt.Errorf("to date %s is before from date %s", to, from)
	}
	return r, nil
}

// ExportLoans writes the loan history borrowed within r, newest first, and
// appends one export_csv audit entry for actor.
func (e *CSVExporter) ExportLoans(ctx context.Context, actor string, w io.Writer, r DateRange) (ExportResult, error) {
	from, until := r.bounds(e.location)
	rows, err := e.loans.ListLoansForExport(ctx, from, until)
	if err != nil {
		return ExportResult{}, err
	}

	if err := WriteLoans(w, rows, e.location); err != nil {
		return ExportResult{}, err
	}
	if err := e.audit.RecordNow(ctx, actor, entities.AuditActionExportCSV,
		fmt.Sprintf("exported %d transactions", len(rows))); err != nil {
		return ExportResult{}, err
	}
	return ExportResult{Rows: len(rows)}, nil
}

// WriteBookTemplate writes the header-only books import template and
// appends one download_template audit entry.
func (e *CSVExporter) WriteBookTemplate(ctx context.Context, actor string, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(BookTemplateHeader); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return e.audit.RecordNow(ctx, actor, entities.AuditActionDownloadTemplate, bookTemplateAuditTag)
}

// WriteLoans renders rows with dates as YYYY-MM-DD in loc.
func WriteLoans(w io.Writer, rows []entities.LoanView, loc *time.Location) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LoanHeader); err != nil {
		return err
	}
	for _, row := range rows {
		returned := ""
		if row.DateReturned != nil {
			returned = row.DateReturned.In(loc).Format(time.DateOnly)
		}
		record := []string{
			strconv.FormatUint(uint64(row.LoanID), 10),
			row.BookTitle,
			row.MemberName,
			row.DateBorrowed.In(loc).Format(time.DateOnly),
			row.DateDue.In(loc).Format(time.DateOnly),
			returned,
			strconv.FormatFloat(row.LateFee, 'f', 2, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
