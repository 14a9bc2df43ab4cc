package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
)

const (
	ContextKeyUserID             = "auth_user_id"
	ContextKeyUsername           = "auth_username"
	ContextKeyRole               = "auth_role"
	ContextKeyMustChangePassword = "auth_must_change_password"
)

const ErrMessagePasswordChangeRequired = "password change required"

// Middleware authenticates API requests from the session cookie. The user
// row is re-read on every request so role changes and forced password
// changes apply immediately.
type Middleware struct {
	service        *Service
	sessionManager *SessionManager
	publicPaths    map[string]bool
	// reachable while a password change is pending
	passwordChangePaths map[string]bool
}

func NewMiddleware(service *Service, sessionManager *SessionManager) *Middleware {
	return &Middleware{
		service:        service,
		sessionManager: sessionManager,
		publicPaths: map[string]bool{
			"/health":         true,
			"/ping":           true,
			"/metrics":        true,
			"/api/auth/login": true,
			"/api/auth/csrf":  true,
		},
		passwordChangePaths: map[string]bool{
			"/api/auth/logout":   true,
			"/api/auth/password": true,
			"/api/auth/me":       true,
		},
	}
}

func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.publicPaths[c.Request.URL.Path] {
			c.Next()
			return
		}

		user := m.trySessionAuth(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		setUserContext(c, user)

		if user.MustChangePassword && !m.passwordChangePaths[c.Request.URL.Path] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": ErrMessagePasswordChangeRequired,
			})
			return
		}

		c.Next()
	}
}

func (m *Middleware) trySessionAuth(c *gin.Context) *entities.User {
	if m.sessionManager == nil {
		return nil
	}
	userID := m.sessionManager.GetUserID(c.Request)
	if userID == 0 {
		return nil
	}
	user, err := m.service.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

func setUserContext(c *gin.Context, user *entities.User) {
	c.Set(ContextKeyUserID, user.ID)
	c.Set(ContextKeyUsername, user.Username)
	c.Set(ContextKeyRole, user.Role)
	c.Set(ContextKeyMustChangePassword, user.MustChangePassword)
}

// RequireRole aborts with 403 unless the authenticated user holds one of roles.
func RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	roleSet := make(map[entities.UserRole]bool, len(roles))
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		if !roleSet[GetUserRole(c)] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// GetUserID returns 0 when the request is not authenticated.
func GetUserID(c *gin.Context) uint {
	if id, exists := c.Get(ContextKeyUserID); exists {
		if userID, ok := id.(uint); ok {
			return userID
		}
	}
	return 0
}

func GetUsername(c *gin.Context) string {
	if name, exists := c.Get(ContextKeyUsername); exists {
		if username, ok := name.(string); ok {
			return username
		}
	}
	return ""
}

func GetUserRole(c *gin.Context) entities.UserRole {
	if r, exists := c.Get(ContextKeyRole); exists {
		if role, ok := r.(entities.UserRole); ok {
			return role
		}
	}
	return ""
}

// CurrentActor builds the Actor for privileged service calls.
func CurrentActor(c *gin.Context) Actor {
	return Actor{Username: GetUsername(c), Role: GetUserRole(c)}
}
