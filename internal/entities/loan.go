package entities

import "time"

type LoanStatus string

const (
	LoanStatusOpen     LoanStatus = "open"
	LoanStatusReturned LoanStatus = "returned"
)

// Loan links a book to a member. BookID and MemberID never change after
// creation and the row is frozen once DateReturned is set.
type Loan struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	BookID       uint       `gorm:"not null;index" json:"book_id"`
	Book         *Book      `gorm:"foreignKey:BookID" json:"-"`
	MemberID     uint       `gorm:"not null;index" json:"member_id"`
	Member       *Member    `gorm:"foreignKey:MemberID" json:"-"`
	DateBorrowed time.Time  `gorm:"not null;index" json:"date_borrowed"`
	DateDue      time.Time  `gorm:"not null" json:"date_due"`
	DateReturned *time.Time `gorm:"index" json:"date_returned,omitempty"`
	LateFee      float64    `gorm:"not null;default:0" json:"late_fee"`
}

func (Loan) TableName() string {
	return "loans"
}

func (l *Loan) Status() LoanStatus {
	if l.DateReturned == nil {
		return LoanStatusOpen
	}
	return LoanStatusReturned
}

// LoanView is a loan row pre-joined with the display names of its book and member.
type LoanView struct {
	LoanID       uint       `json:"loan_id"`
	BookID       uint       `json:"book_id"`
	MemberID     uint       `json:"member_id"`
	BookTitle    string     `json:"book_title"`
	MemberName   string     `json:"member_name"`
	MemberEmail  string     `json:"member_email,omitempty"`
	DateBorrowed time.Time  `json:"date_borrowed"`
	DateDue      time.Time  `json:"date_due"`
	DateReturned *time.Time `json:"date_returned,omitempty"`
	LateFee      float64    `json:"late_fee"`
}

// MonthlyCount is the number of loans borrowed in one calendar month ("2006-01").
type MonthlyCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

type LibraryTotals struct {
	Books       int64 `json:"books"`
	Members     int64 `json:"members"`
	ActiveLoans int64 `json:"active_loans"`
}
