package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/database/books"
	"github.com/mrlokans/librarydesk/internal/database/loans"
	"github.com/mrlokans/librarydesk/internal/database/members"
	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/settingsstore"
)

const (
	MaxLoanDays            = 365
	DefaultDashboardMonths = 6
	maxDashboardMonths     = 60
)

var ErrInvalidLoanDays = fmt.Errorf("%w: loan period must be between 1 and %d days", database.ErrValidation, MaxLoanDays)

// ReturnResult is what the desk shows after a return.
type ReturnResult struct {
	Loan     *entities.Loan `json:"loan"`
	LateDays int            `json:"late_days"`
	LateFee  float64        `json:"late_fee"`
}

// OverdueLoan is an open loan past its due date with the fee it would
// carry if returned today.
type OverdueLoan struct {
	entities.LoanView
	LateDays   int     `json:"late_days"`
	AccruedFee float64 `json:"accrued_fee"`
}

type Dashboard struct {
	Totals        entities.LibraryTotals  `json:"totals"`
	LoansPerMonth []entities.MonthlyCount `json:"loans_per_month"`
}

// LoanService runs the borrow and return lifecycle. Each transition and its
// audit entry commit in one transaction; the book availability flag moves
// with the loan row.
type LoanService struct {
	db          *gorm.DB
	audit       *audit.Service
	settings    *settingsstore.SettingsStore
	defaultDays int
	location    *time.Location
	now         func() time.Time
}

// NewLoanService creates the service. Calendar dates for late fees and
// dashboard months are taken in loc (time.Local when nil).
func NewLoanService(db *gorm.DB, auditSvc *audit.Service, settings *settingsstore.SettingsStore, defaultDays int, loc *time.Location) *LoanService {
	if loc == nil {
		loc = time.Local
	}
	return &LoanService{
		db:          db,
		audit:       auditSvc,
		settings:    settings,
		defaultDays: defaultDays,
		location:    loc,
		now:         time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *LoanService) WithClock(now func() time.Time) *LoanService {
	s.now = now
	return s
}

// Borrow opens a loan for an available book. days of 0 selects the
// configured default loan period.
func (s *LoanService) Borrow(ctx context.Context, actor string, bookID, memberID uint, days int) (*entities.Loan, error) {
	if days == 0 {
		days = s.defaultDays
	}
	if days < 1 || days > MaxLoanDays {
		return nil, ErrInvalidLoanDays
	}

	now := s.now().UTC()
	loan := &entities.Loan{
		BookID:       bookID,
		MemberID:     memberID,
		DateBorrowed: now,
		DateDue:      now.AddDate(0, 0, days),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		bookRepo := books.NewRepository(tx)
		book, err := bookRepo.GetByID(bookID)
		if err != nil {
			return fmt.Errorf("book %d: %w", bookID, err)
		}
		if !book.Available {
			return fmt.Errorf("%q: %w", book.Title, database.ErrUnavailable)
		}
		if _, err := members.NewRepository(tx).GetByID(memberID); err != nil {
			return fmt.Errorf("member %d: %w", memberID, err)
		}

		// The conditional flip decides between concurrent borrowers.
		flipped, err := bookRepo.SetAvailability(bookID, false)
		if err != nil {
			return err
		}
		if !flipped {
			return fmt.Errorf("%q: %w", book.Title, database.ErrUnavailable)
		}
		if err := loans.NewRepository(tx).Create(loan); err != nil {
			return fmt.Errorf("failed to create loan: %w", err)
		}
		return s.audit.Record(tx, actor, entities.AuditActionBorrowBook,
			fmt.Sprintf("book:%d member:%d due:%s", bookID, memberID, loan.DateDue.In(s.location).Format(time.DateOnly)))
	})
	if err != nil {
		if errors.Is(err, database.ErrUnavailable) {
			loanRejections.WithLabelValues("unavailable").Inc()
		}
		return nil, database.Classify(err)
	}

	loansBorrowed.Inc()
	log.Info().Str("actor", actor).Uint("loan_id", loan.ID).Uint("book_id", bookID).Uint("member_id", memberID).
		Time("due", loan.DateDue).Msg("book borrowed")
	return loan, nil
}

// Return closes an open loan, charging the late fee at the rate stored at
// the moment of return.
func (s *LoanService) Return(ctx context.Context, actor string, loanID uint) (*ReturnResult, error) {
	now := s.now().UTC()
	result := &ReturnResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loanRepo := loans.NewRepository(tx)
		loan, err := loanRepo.GetByID(loanID)
		if err != nil {
			return fmt.Errorf("loan %d: %w", loanID, err)
		}
		if loan.DateReturned != nil {
			return fmt.Errorf("loan %d: %w", loanID, database.ErrAlreadyReturned)
		}

		rate, err := s.settings.LateFeePerDay(tx)
		if err != nil {
			return err
		}
		lateDays, fee := CalculateLateFee(loan.DateDue, now, rate, s.location)

		closed, err := loanRepo.MarkReturned(loanID, now, fee)
		if err != nil {
			return err
		}
		if !closed {
			return fmt.Errorf("loan %d: %w", loanID, database.ErrAlreadyReturned)
		}

		flipped, err := books.NewRepository(tx).SetAvailability(loan.BookID, true)
		if err != nil {
			return err
		}
		if !flipped {
			log.Warn().Uint("loan_id", loanID).Uint("book_id", loan.BookID).
				Msg("book was already available while its loan was open")
		}

		if err := s.audit.Record(tx, actor, entities.AuditActionReturnBook,
			fmt.Sprintf("loan:%d late_fee:%.2f", loanID, fee)); err != nil {
			return err
		}

		loan.DateReturned = &now
		loan.LateFee = fee
		result.Loan = loan
		result.LateDays = lateDays
		result.LateFee = fee
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrAlreadyReturned) {
			loanRejections.WithLabelValues("already_returned").Inc()
		}
		return nil, database.Classify(err)
	}

	loansReturned.WithLabelValues(fmt.Sprintf("%t", result.LateDays > 0)).Inc()
	lateFeesCharged.Add(result.LateFee)
	log.Info().Str("actor", actor).Uint("loan_id", loanID).Int("late_days", result.LateDays).
		Float64("late_fee", result.LateFee).Msg("book returned")
	return result, nil
}

// CalculateLateFee charges rate per whole calendar day between the due date
// and the return date, both taken in loc. Returning any time on the due
// date costs nothing. The fee is rounded to cents.
func CalculateLateFee(due, returned time.Time, rate float64, loc *time.Location) (int, float64) {
	lateDays := calendarDaysBetween(due, returned, loc)
	if lateDays <= 0 || rate <= 0 {
		return max(lateDays, 0), 0
	}
	return lateDays, math.Round(float64(lateDays)*rate*100) / 100
}

func calendarDaysBetween(from, to time.Time, loc *time.Location) int {
	if loc == nil {
		loc = time.Local
	}
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.In(loc).Date()
	start := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	end := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// ListLoans returns loans newest-borrowed first, only open ones when activeOnly is set.
func (s *LoanService) ListLoans(ctx context.Context, activeOnly bool) ([]entities.LoanView, error) {
	return loans.NewRepository(s.db.WithContext(ctx)).List(activeOnly)
}

// ListLoansForExport returns the full history, open and closed, borrowed
// within [from, until) when the bounds are set.
func (s *LoanService) ListLoansForExport(ctx context.Context, from, until *time.Time) ([]entities.LoanView, error) {
	return loans.NewRepository(s.db.WithContext(ctx)).ListBorrowedBetween(from, until)
}

// OverdueLoans lists open loans whose due date is before today, with the fee
// accrued so far at the current rate.
func (s *LoanService) OverdueLoans(ctx context.Context) ([]OverdueLoan, error) {
	now := s.now().In(s.location)
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.location)

	var overdue []OverdueLoan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := loans.NewRepository(tx).ListOverdue(startOfToday)
		if err != nil {
			return err
		}
		rate, err := s.settings.LateFeePerDay(tx)
		if err != nil {
			return err
		}
		overdue = make([]OverdueLoan, 0, len(rows))
		for _, row := range rows {
			lateDays, fee := CalculateLateFee(row.DateDue, now, rate, s.location)
			overdue = append(overdue, OverdueLoan{LoanView: row, LateDays: lateDays, AccruedFee: fee})
		}
		return nil
	})
	if err != nil {
		return nil, database.Classify(err)
	}
	return overdue, nil
}

// Dashboard returns library totals and the number of loans borrowed in each
// of the last months calendar months, oldest first, current month included.
func (s *LoanService) Dashboard(ctx context.Context, months int) (*Dashboard, error) {
	if months <= 0 {
		months = DefaultDashboardMonths
	}
	months = min(months, maxDashboardMonths)

	now := s.now().In(s.location)
	firstMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, s.location).AddDate(0, -(months - 1), 0)

	db := s.db.WithContext(ctx)
	var (
		totals entities.LibraryTotals
		err    error
	)
	if totals.Books, err = books.NewRepository(db).Count(); err != nil {
		return nil, err
	}
	if totals.Members, err = members.NewRepository(db).Count(); err != nil {
		return nil, err
	}
	if totals.ActiveLoans, err = loans.NewRepository(db).CountOpen(); err != nil {
		return nil, err
	}

	dates, err := loans.NewRepository(db).BorrowDatesSince(firstMonth)
	if err != nil {
		return nil, fmt.Errorf("failed to load borrow dates: %w", err)
	}

	counts := make(map[string]int64, months)
	for _, d := range dates {
		counts[d.In(s.location).Format("2006-01")]++
	}
	perMonth := make([]entities.MonthlyCount, 0, months)
	for i := 0; i < months; i++ {
		key := firstMonth.AddDate(0, i, 0).Format("2006-01")
		perMonth = append(perMonth, entities.MonthlyCount{Month: key, Count: counts[key]})
	}

	return &Dashboard{Totals: totals, LoansPerMonth: perMonth}, nil
}
