package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk/taskflow-api/internal/database"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/models"
)

// RequireTeamAccess checks if the user is a member of the team
func RequireTeamAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		teamIDStr := c.Param("id")
		teamID, err := strconv.ParseUint(teamIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var team models.Team
		if err := database.GetDB().First(&team, teamID).Error; err != nil {
			apierrors.NotFound(c, "Team not found")
			c.Abort()
			return
		}

		// Return 404 instead of 403 to avoid leaking team existence
		var member models.TeamMember
		err = database.GetDB().Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
		if err != nil {
			apierrors.NotFound(c, "Team not found")
			c.Abort()
			return
		}

		c.Set("team", team)
		c.Set("team_member", member)
		c.Next()
	}
}

// RequireTeamOwner checks if the user is an owner of the team
func RequireTeamOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get("team_member")
		if !exists {
			apierrors.Forbidden(c, "Team access required")
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.TeamMember)
		if !ok {
			apierrors.InternalError(c, "Invalid team member data")
			c.Abort()
			return
		}

		if member.Role != models.RoleOwner {
			apierrors.Forbidden(c, "Only team owners can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
