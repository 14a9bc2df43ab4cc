package http

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/exporters"
	"github.com/mrlokans/librarydesk/internal/services"
)

// LoanDesk defines the circulation operations needed by LoansController.
type LoanDesk interface {
	Borrow(ctx context.Context, actor string, bookID, memberID uint, days int) (*entities.Loan, error)
	Return(ctx context.Context, actor string, loanID uint) (*services.ReturnResult, error)
	ListLoans(ctx context.Context, activeOnly bool) ([]entities.LoanView, error)
}

// LoanExporter renders CSV downloads and audits each one.
type LoanExporter interface {
	ExportLoans(ctx context.Context, actor string, w io.Writer, r exporters.DateRange) (exporters.ExportResult, error)
	WriteBookTemplate(ctx context.Context, actor string, w io.Writer) error
}

type LoansController struct {
	desk     LoanDesk
	exporter LoanExporter
}

func NewLoansController(desk LoanDesk, exporter LoanExporter) *LoansController {
	return &LoansController{desk: desk, exporter: exporter}
}

type borrowRequest struct {
	BookID   uint `json:"book_id" binding:"required"`
	MemberID uint `json:"member_id" binding:"required"`
	// Days of 0 selects the configured default loan period.
	Days int `json:"days"`
}

// Borrow handles POST /api/loans. An unavailable book answers 409.
func (lc *LoansController) Borrow(c *gin.Context) {
	var req borrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "book_id and member_id are required")
		return
	}
	loan, err := lc.desk.Borrow(c.Request.Context(), actorName(c), req.BookID, req.MemberID, req.Days)
	if err != nil {
		respondServiceError(c, err, "borrow")
		return
	}
	respondCreated(c, loan)
}

// Return handles POST /api/loans/:id/return and surfaces the late fee.
func (lc *LoansController) Return(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	result, err := lc.desk.Return(c.Request.Context(), actorName(c), id)
	if err != nil {
		respondServiceError(c, err, "return")
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListLoans handles GET /api/loans?active=true
func (lc *LoansController) ListLoans(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			respondBadRequest(c, "invalid active")
			return
		}
		activeOnly = v
	}

	loans, err := lc.desk.ListLoans(c.Request.Context(), activeOnly)
	if err != nil {
		respondServiceError(c, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, gin.H{"loans": loans, "total": len(loans)})
}

// ExportCSV handles GET /api/loans/export.csv?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both bounds are optional and inclusive.
func (lc *LoansController) ExportCSV(c *gin.Context) {
	r, err := exporters.ParseDateRange(c.Query("from"), c.Query("to"))
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}

	var buf bytes.Buffer
	result, err := lc.exporter.ExportLoans(c.Request.Context(), actorName(c), &buf, r)
	if err != nil {
		respondServiceError(c, err, "export loans")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="loans.csv"`)
	c.Header("X-Export-Rows", fmt.Sprint(result.Rows))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
