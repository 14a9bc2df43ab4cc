package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mrlokans/librarydesk/internal/audit"
	"github.com/mrlokans/librarydesk/internal/database"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// AuthController serves login, logout and self-service password change.
type AuthController struct {
	service        *Service
	sessionManager *SessionManager
	audit          *audit.Service
}

func NewAuthController(service *Service, sessionManager *SessionManager, auditSvc *audit.Service) *AuthController {
	return &AuthController{
		service:        service,
		sessionManager: sessionManager,
		audit:          auditSvc,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

type sessionResponse struct {
	Username           string            `json:"username"`
	Role               entities.UserRole `json:"role"`
	MustChangePassword bool              `json:"must_change_password"`
}

// RegisterRoutes mounts the controller under /api/auth.
func (ac *AuthController) RegisterRoutes(r gin.IRouter) {
	group := r.Group("/api/auth")
	group.POST("/login", ac.Login)
	group.POST("/logout", ac.Logout)
	group.POST("/password", ac.ChangePassword)
	group.GET("/me", ac.Me)
	group.GET("/csrf", ac.CSRFToken)
}

func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	user, err := ac.service.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrAuth) {
			log.Info().Str("username", req.Username).Str("ip", c.ClientIP()).Msg("failed login")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid username or password"})
			return
		}
		log.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	if err := ac.sessionManager.CreateSession(c.Request, user); err != nil {
		log.Error().Err(err).Msg("failed to create session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	if err := ac.audit.RecordNow(c.Request.Context(), user.Username, entities.AuditActionLogin, "ip:"+c.ClientIP()); err != nil {
		log.Error().Err(err).Msg("failed to audit login")
	}

	c.JSON(http.StatusOK, sessionResponse{
		Username:           user.Username,
		Role:               user.Role,
		MustChangePassword: user.MustChangePassword,
	})
}

func (ac *AuthController) Logout(c *gin.Context) {
	username := GetUsername(c)
	if err := ac.sessionManager.DestroySession(c.Request); err != nil {
		log.Error().Err(err).Msg("failed to destroy session")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	if username != "" {
		if err := ac.audit.RecordNow(c.Request.Context(), username, entities.AuditActionLogout, ""); err != nil {
			log.Error().Err(err).Msg("failed to audit logout")
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ChangePassword answers a wrong current password with success=false and
// keeps the session; the client shows the message and lets the user retry.
func (ac *AuthController) ChangePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "current_password and new_password are required"})
		return
	}

	err := ac.service.ChangePassword(c.Request.Context(), GetUsername(c), req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, ErrIncorrectPassword):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Current password incorrect."})
		return
	case errors.Is(err, database.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	default:
		log.Error().Err(err).Msg("password change failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "password change failed"})
		return
	}

	if err := ac.sessionManager.RenewToken(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("failed to renew session token after password change")
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (ac *AuthController) Me(c *gin.Context) {
	mustChange, _ := c.Get(ContextKeyMustChangePassword)
	flag, _ := mustChange.(bool)
	c.JSON(http.StatusOK, sessionResponse{
		Username:           GetUsername(c),
		Role:               GetUserRole(c),
		MustChangePassword: flag,
	})
}

// CSRFToken returns the token for the current client. Empty when CSRF
// protection is disabled.
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrf_token": GetCSRFToken(c)})
}
