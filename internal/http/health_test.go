package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/librarydesk/internal/database"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is closed") }

func serveHealth(t *testing.T, controller *HealthController) (int, HealthResponse) {
	t.Helper()
	router := gin.New()
	router.GET("/health", controller.Status)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	var response HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return w.Code, response
}

func TestHealthController_Status(t *testing.T) {
	t.Run("returns healthy when database is connected", func(t *testing.T) {
		db, err := database.NewDatabase(filepath.Join(t.TempDir(), "library.db"))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })

		code, response := serveHealth(t, NewHealthController(db, "1.0.0"))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "healthy", response.Status)
		assert.Equal(t, "1.0.0", response.Version)
		assert.Equal(t, "ok", response.Checks["database"])
		assert.NotEmpty(t, response.Time)
	})

	t.Run("returns unhealthy when ping fails", func(t *testing.T) {
		code, response := serveHealth(t, NewHealthController(failingPinger{}, ""))

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "unhealthy", response.Status)
		assert.Contains(t, response.Checks["database"], "database is closed")
	})

	t.Run("reports missing database", func(t *testing.T) {
		code, response := serveHealth(t, NewHealthController(nil, ""))

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "not configured", response.Checks["database"])
	})
}
