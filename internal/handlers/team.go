package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk/taskflow-api/internal/dto"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/services"
)

// TeamHandler handles team endpoints.
type TeamHandler struct {
	teamService    *services.TeamService
	sessionService *services.SessionService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService, sessionService *services.SessionService) *TeamHandler {
	return &TeamHandler{
		teamService:    teamService,
		sessionService: sessionService,
	}
}

// Create handles POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Team name is required")
		return
	}

	team, err := h.teamService.CreateTeam(services.CreateTeamInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		if errors.Is(err, services.ErrInvalidTeamName) {
			apierrors.BadRequest(c, "Team name cannot be empty")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusCreated, dto.ToTeamResponse(team, true))
}

// List handles GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	memberships, err := h.teamService.ListTeamsForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	teams := make([]dto.TeamResponse, 0, len(memberships))
	for i := range memberships {
		teams = append(teams, dto.ToTeamResponse(&memberships[i].Team, memberships[i].Role == models.RoleOwner))
	}

	c.JSON(http.StatusOK, gin.H{"teams": teams})
}

// Get handles GET /api/teams/:id
func (h *TeamHandler) Get(c *gin.Context) {
	teamID, member, ok := teamFromContext(c)
	if !ok {
		return
	}

	team, members, err := h.teamService.GetTeamWithMembers(teamID)
	if err != nil {
		if errors.Is(err, services.ErrTeamNotFound) {
			apierrors.NotFound(c, "Team not found")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	memberResponses := make([]dto.TeamMemberResponse, 0, len(members))
	for i := range members {
		memberResponses = append(memberResponses, dto.ToTeamMemberResponse(&members[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"team":    dto.ToTeamResponse(team, member.Role == models.RoleOwner),
		"members": memberResponses,
	})
}

// Update handles PATCH /api/teams/:id
func (h *TeamHandler) Update(c *gin.Context) {
	teamID, _, ok := teamFromContext(c)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Team name is required")
		return
	}

	team, err := h.teamService.UpdateTeamName(teamID, req.Name)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamResponse(team, true))
}

// SetWebhook handles PUT /api/teams/:id/webhook
func (h *TeamHandler) SetWebhook(c *gin.Context) {
	teamID, _, ok := teamFromContext(c)
	if !ok {
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	team, err := h.teamService.SetWebhookURL(teamID, req.URL)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamResponse(team, true))
}

// Join handles POST /api/teams/join
func (h *TeamHandler) Join(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invite code is required")
		return
	}

	team, err := h.teamService.JoinTeamByInvite(userID, req.InviteCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidInviteCode):
			apierrors.NotFound(c, "Invalid invite code")
		case errors.Is(err, services.ErrAlreadyTeamMember):
			apierrors.Conflict(c, "Already a member of this team")
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamResponse(team, false))
}

// RegenerateInvite handles POST /api/teams/:id/invite
func (h *TeamHandler) RegenerateInvite(c *gin.Context) {
	teamID, _, ok := teamFromContext(c)
	if !ok {
		return
	}

	team, err := h.teamService.RegenerateInviteCode(teamID)
	if err != nil {
		respondTeamError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTeamResponse(team, true))
}

// RemoveMember handles DELETE /api/teams/:id/members/:userId
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamID, _, ok := teamFromContext(c)
	if !ok {
		return
	}

	actorID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	targetID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	if err := h.teamService.RemoveMember(teamID, actorID, targetID); err != nil {
		switch {
		case errors.Is(err, services.ErrCannotRemoveYourself):
			apierrors.BadRequest(c, "Cannot remove yourself from the team")
		case errors.Is(err, services.ErrTeamMemberNotFound):
			apierrors.NotFound(c, "Team member not found")
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// OpenSessions handles GET /api/teams/:id/sessions
func (h *TeamHandler) OpenSessions(c *gin.Context) {
	teamID, _, ok := teamFromContext(c)
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	sessions, err := h.sessionService.ListOpenByTeam(teamID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotTeamMember) {
			apierrors.Forbidden(c, "Not a member of this team")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": toSessionResponses(sessions)})
}

// teamFromContext pulls the team and membership loaded by RequireTeamAccess.
func teamFromContext(c *gin.Context) (uint64, models.TeamMember, bool) {
	teamInterface, exists := c.Get("team")
	memberInterface, memberExists := c.Get("team_member")
	if !exists || !memberExists {
		apierrors.InternalError(c, "Team context missing")
		c.Abort()
		return 0, models.TeamMember{}, false
	}

	team, okTeam := teamInterface.(models.Team)
	member, okMember := memberInterface.(models.TeamMember)
	if !okTeam || !okMember {
		apierrors.InternalError(c, "Invalid team context")
		c.Abort()
		return 0, models.TeamMember{}, false
	}

	return team.ID, member, true
}

func respondTeamError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTeamNotFound):
		apierrors.NotFound(c, "Team not found")
	case errors.Is(err, services.ErrInvalidTeamName):
		apierrors.BadRequest(c, "Team name cannot be empty")
	default:
		apierrors.InternalError(c, "")
	}
}
