package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
)

// AuditReader queries the audit log newest first.
type AuditReader interface {
	Query(ctx context.Context, limit int, since *time.Time) ([]entities.AuditEntry, error)
}

type AuditController struct {
	audit AuditReader
	loc   *time.Location
}

// NewAuditController reads calendar dates in loc, UTC when nil.
func NewAuditController(audit AuditReader, loc *time.Location) *AuditController {
	if loc == nil {
		loc = time.UTC
	}
	return &AuditController{audit: audit, loc: loc}
}

// Query handles GET /api/audit?limit=&since=. since accepts RFC 3339 or a
// calendar date, taken as midnight in the library timezone.
func (ac *AuditController) Query(c *gin.Context) {
	limit, ok := parseIntQuery(c, "limit", 0)
	if !ok {
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		t, err := parseSince(raw, ac.loc)
		if err != nil {
			respondBadRequest(c, "invalid since, expected RFC 3339 or YYYY-MM-DD")
			return
		}
		since = &t
	}

	entries, err := ac.audit.Query(c.Request.Context(), limit, since)
	if err != nil {
		respondServiceError(c, err, "audit query")
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "total": len(entries)})
}

func parseSince(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, raw, loc)
}
