package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/auth"
	"github.com/mrlokans/librarydesk/internal/entities"
)

// UserAdmin defines the account operations needed by UsersController.
// Authorization is enforced again inside the service from the actor.
type UserAdmin interface {
	ListUsers(ctx context.Context) ([]entities.User, error)
	CreateUser(ctx context.Context, actor auth.Actor, username, email, password string, role entities.UserRole) (*entities.User, error)
	AdminResetPassword(ctx context.Context, actor auth.Actor, targetUsername, newPassword string) error
}

type UsersController struct {
	users UserAdmin
}

func NewUsersController(users UserAdmin) *UsersController {
	return &UsersController{users: users}
}

type createUserRequest struct {
	Username string            `json:"username" binding:"required"`
	Email    string            `json:"email"`
	Password string            `json:"password" binding:"required"`
	Role     entities.UserRole `json:"role"`
}

type resetPasswordRequest struct {
	NewPassword string `json:"new_password" binding:"required"`
}

// ListUsers handles GET /api/users
func (uc *UsersController) ListUsers(c *gin.Context) {
	users, err := uc.users.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "list users")
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

// CreateUser handles POST /api/users. Role defaults to staff.
func (uc *UsersController) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "username and password are required")
		return
	}
	if req.Role == "" {
		req.Role = entities.UserRoleStaff
	}

	user, err := uc.users.CreateUser(c.Request.Context(), auth.CurrentActor(c), req.Username, req.Email, req.Password, req.Role)
	if err != nil {
		respondServiceError(c, err, "create user")
		return
	}
	respondCreated(c, user)
}

// ResetPassword handles POST /api/users/:username/reset-password
func (uc *UsersController) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "new_password is required")
		return
	}

	target := c.Param("username")
	if err := uc.users.AdminResetPassword(c.Request.Context(), auth.CurrentActor(c), target, req.NewPassword); err != nil {
		respondServiceError(c, err, "reset password")
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "password reset; the user must change it at next login"})
}
