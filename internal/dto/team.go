package dto

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// TeamResponse is the public view of a team.
type TeamResponse struct {
	ID         uint64    `json:"id"`
	Name       string    `json:"name"`
	InviteCode string    `json:"invite_code,omitempty"`
	WebhookURL string    `json:"webhook_url,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// TeamMemberResponse is one membership row with the user expanded.
type TeamMemberResponse struct {
	TeamID   uint64          `json:"team_id"`
	UserID   uint64          `json:"user_id"`
	Role     models.TeamRole `json:"role"`
	JoinedAt time.Time       `json:"joined_at"`
	User     *UserResponse   `json:"user,omitempty"`
}

// ToTeamResponse converts a team model to its response representation.
// The invite code is included only when includeInvite is true.
func ToTeamResponse(team *models.Team, includeInvite bool) TeamResponse {
	resp := TeamResponse{
		ID:         team.ID,
		Name:       team.Name,
		WebhookURL: team.WebhookURL,
		CreatedAt:  team.CreatedAt,
	}
	if includeInvite {
		resp.InviteCode = team.InviteCode
	}
	return resp
}

// ToTeamMemberResponse converts a membership model to its response form.
func ToTeamMemberResponse(member *models.TeamMember) TeamMemberResponse {
	resp := TeamMemberResponse{
		TeamID:   member.TeamID,
		UserID:   member.UserID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
	if member.User.ID != 0 {
		user := ToUserResponse(&member.User)
		resp.User = &user
	}
	return resp
}
