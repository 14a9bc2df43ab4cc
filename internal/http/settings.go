package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/settingsstore"
	"github.com/mrlokans/librarydesk/internal/tasks"
)

// LibrarySettingsStore defines the settings operations needed by SettingsController.
type LibrarySettingsStore interface {
	View(ctx context.Context) (*settingsstore.View, error)
	Update(ctx context.Context, actor string, u settingsstore.Update) (*settingsstore.LibrarySettings, error)
}

type SettingsController struct {
	store    LibrarySettingsStore
	enqueuer tasks.Enqueuer
}

// NewSettingsController creates the controller. enqueuer may be nil when the
// task queue is disabled; the SMTP test then answers 503.
func NewSettingsController(store LibrarySettingsStore, enqueuer tasks.Enqueuer) *SettingsController {
	return &SettingsController{store: store, enqueuer: enqueuer}
}

// GetSettings handles GET /api/settings. The SMTP password is never returned.
func (sc *SettingsController) GetSettings(c *gin.Context) {
	view, err := sc.store.View(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "load settings")
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdateSettings handles PUT /api/settings. Omitted fields stay unchanged.
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var req settingsstore.Update
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if _, err := sc.store.Update(c.Request.Context(), actorName(c), req); err != nil {
		respondServiceError(c, err, "update settings")
		return
	}

	view, err := sc.store.View(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "load settings")
		return
	}
	c.JSON(http.StatusOK, view)
}

// TestSMTP handles POST /api/settings/smtp/test. The send runs in the
// background; the outcome is the task status.
func (sc *SettingsController) TestSMTP(c *gin.Context) {
	if sc.enqueuer == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "task queue is disabled"})
		return
	}

	ids, err := sc.enqueuer.Enqueue(tasks.SMTPTestTask{RequestedBy: actorName(c)})
	if err != nil {
		respondInternalError(c, err, "enqueue smtp test")
		return
	}
	log.Info().Str("actor", actorName(c)).Str("task_id", ids[0]).Msg("smtp test enqueued")
	respondAccepted(c, "SMTP test enqueued", gin.H{"task_id": ids[0]})
}
