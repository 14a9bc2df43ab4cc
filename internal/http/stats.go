package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/services"
)

// DashboardSource computes library totals and monthly loan counts.
type DashboardSource interface {
	Dashboard(ctx context.Context, months int) (*services.Dashboard, error)
}

type StatsController struct {
	source DashboardSource
}

func NewStatsController(source DashboardSource) *StatsController {
	return &StatsController{source: source}
}

// Dashboard handles GET /api/stats?months=N
func (sc *StatsController) Dashboard(c *gin.Context) {
	months, ok := parseIntQuery(c, "months", services.DefaultDashboardMonths)
	if !ok {
		return
	}
	dashboard, err := sc.source.Dashboard(c.Request.Context(), months)
	if err != nil {
		respondServiceError(c, err, "dashboard")
		return
	}
	c.JSON(http.StatusOK, dashboard)
}
