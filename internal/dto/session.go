package dto

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// SessionResponse is the public view of a work session. ActiveSeconds is the
// time spent working, with paused stretches excluded.
type SessionResponse struct {
	ID            string               `json:"id"`
	TeamID        uint64               `json:"team_id"`
	ProjectID     uint64               `json:"project_id"`
	TaskID        uint64               `json:"task_id"`
	UserID        uint64               `json:"user_id"`
	Status        models.SessionStatus `json:"status"`
	StartedAt     time.Time            `json:"started_at"`
	EndedAt       *time.Time           `json:"ended_at,omitempty"`
	ActiveSeconds int64                `json:"active_seconds"`
	Task          *TaskResponse        `json:"task,omitempty"`
	User          *UserResponse        `json:"user,omitempty"`
}

// ToSessionResponse converts a session model to its response representation,
// computing active time as of now.
func ToSessionResponse(session *models.WorkSession, now time.Time) SessionResponse {
	resp := SessionResponse{
		ID:            session.ID,
		TeamID:        session.TeamID,
		ProjectID:     session.ProjectID,
		TaskID:        session.TaskID,
		UserID:        session.UserID,
		Status:        session.Status,
		StartedAt:     session.StartedAt,
		EndedAt:       session.EndedAt,
		ActiveSeconds: int64(session.ActiveDuration(now).Seconds()),
	}
	if session.Task.ID != 0 {
		task := ToTaskResponse(&session.Task)
		resp.Task = &task
	}
	if session.User.ID != 0 {
		user := ToUserResponse(&session.User)
		resp.User = &user
	}
	return resp
}
