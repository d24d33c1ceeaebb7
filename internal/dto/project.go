package dto

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// ProjectResponse is the public view of a project.
type ProjectResponse struct {
	ID        uint64               `json:"id"`
	TeamID    uint64               `json:"team_id"`
	Title     string               `json:"title"`
	Status    models.ProjectStatus `json:"status"`
	CreatorID uint64               `json:"creator_id"`
	CreatedAt time.Time            `json:"created_at"`
	Tasks     []TaskResponse       `json:"tasks,omitempty"`
}

// ToProjectResponse converts a project model to its response representation.
// Preloaded tasks come back ordered by sequence number.
func ToProjectResponse(project *models.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:        project.ID,
		TeamID:    project.TeamID,
		Title:     project.Title,
		Status:    project.Status,
		CreatorID: project.CreatorID,
		CreatedAt: project.CreatedAt,
	}
	for i := range project.Tasks {
		resp.Tasks = append(resp.Tasks, ToTaskResponse(&project.Tasks[i]))
	}
	return resp
}
