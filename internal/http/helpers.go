package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/database"
)

// --- Response Types ---

// ErrorResponse is the standard error response format for all API errors.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"` // machine-readable error code
}

// SuccessResponse is a standard success response with optional data.
type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error codes returned next to the message so clients can branch without
// parsing text.
const (
	CodeNotFound        = "not_found"
	CodeConflict        = "conflict"
	CodeUnavailable     = "unavailable"
	CodeAlreadyReturned = "already_returned"
	CodeValidation      = "validation"
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
)

// --- Error Response Helpers ---

// respondBadRequest sends a 400 Bad Request response.
func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: message, Code: CodeValidation})
}

// respondInternalError logs the error and sends a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func respondInternalError(c *gin.Context, err error, context string) {
	log.Error().Err(err).Str("context", context).Str("path", c.Request.URL.Path).Msg("internal error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
}

// respondServiceError maps a service error onto a status code. Errors
// outside the known sentinels are logged and answered with 500.
func respondServiceError(c *gin.Context, err error, context string) {
	status, code := classifyError(err)
	if status == http.StatusInternalServerError {
		respondInternalError(c, err, context)
		return
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, database.ErrAlreadyReturned):
		return http.StatusConflict, CodeAlreadyReturned
	case errors.Is(err, database.ErrUnavailable):
		return http.StatusConflict, CodeUnavailable
	case errors.Is(err, database.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, database.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, auth.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, auth.ErrAuth):
		return http.StatusUnauthorized, CodeUnauthorized
	default:
		return http.StatusInternalServerError, ""
	}
}

// --- Success Response Helpers ---

// respondCreated sends a 201 Created response with data.
func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// respondAccepted sends a 202 Accepted response (for async operations).
func respondAccepted(c *gin.Context, message string, data any) {
	c.JSON(http.StatusAccepted, SuccessResponse{Message: message, Data: data})
}

// --- Parameter Parsing ---

// parseIDParam extracts and validates an unsigned integer ID from URL parameters.
// Returns the parsed ID or responds with a 400 error and returns 0, false.
func parseIDParam(c *gin.Context, paramName string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(paramName), 10, 32)
	if err != nil || id == 0 {
		respondBadRequest(c, "invalid "+paramName)
		return 0, false
	}
	return uint(id), true
}

// parseIntQuery reads an optional integer query parameter. An empty value
// yields def.
func parseIntQuery(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		respondBadRequest(c, "invalid "+name)
		return 0, false
	}
	return v, true
}

// actorName is the username recorded in audit entries for this request.
func actorName(c *gin.Context) string {
	return auth.GetUsername(c)
}
