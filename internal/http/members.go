package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/librarydesk/internal/entities"
	"github.com/mrlokans/librarydesk/internal/services"
)

// MemberDirectory defines the member operations needed by MembersController.
type MemberDirectory interface {
	AddMember(ctx context.Context, actor string, in services.MemberInput) (*entities.Member, error)
	GetMember(ctx context.Context, id uint) (*entities.Member, error)
	ListMembers(ctx context.Context) ([]entities.Member, error)
	SearchMembers(ctx context.Context, search string) ([]entities.Member, error)
}

type MembersController struct {
	members MemberDirectory
}

func NewMembersController(members MemberDirectory) *MembersController {
	return &MembersController{members: members}
}

type memberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ListMembers handles GET /api/members?search=
// Without a search every member is returned; a search is capped.
func (mc *MembersController) ListMembers(c *gin.Context) {
	var (
		members []entities.Member
		err     error
	)
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		members, err = mc.members.SearchMembers(c.Request.Context(), search)
	} else {
		members, err = mc.members.ListMembers(c.Request.Context())
	}
	if err != nil {
		respondServiceError(c, err, "list members")
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members, "total": len(members)})
}

// CreateMember handles POST /api/members
func (mc *MembersController) CreateMember(c *gin.Context) {
	var req memberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	member, err := mc.members.AddMember(c.Request.Context(), actorName(c), services.MemberInput{Name: req.Name, Email: req.Email})
	if err != nil {
		respondServiceError(c, err, "add member")
		return
	}
	respondCreated(c, member)
}

// GetMember handles GET /api/members/:id
func (mc *MembersController) GetMember(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	member, err := mc.members.GetMember(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "get member")
		return
	}
	c.JSON(http.StatusOK, member)
}
