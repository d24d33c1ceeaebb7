package dto

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID             uint64              `json:"id"`
	Key            string              `json:"key"`
	ProjectID      uint64              `json:"project_id"`
	TeamID         uint64              `json:"team_id"`
	SequenceNumber uint64              `json:"sequence_number"`
	DisplayLabel   string              `json:"display_label"`
	Title          string              `json:"title"`
	Description    string              `json:"description,omitempty"`
	Priority       models.TaskPriority `json:"priority"`
	Status         models.TaskStatus   `json:"status"`
	CreatorID      uint64              `json:"creator_id"`

	SubmissionNote *string    `json:"submission_note,omitempty"`
	SubmittedByID  *uint64    `json:"submitted_by_id,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	RevisionReason *string    `json:"revision_reason,omitempty"`
	RevisionByID   *uint64    `json:"revision_by_id,omitempty"`
	RevisionAt     *time.Time `json:"revision_at,omitempty"`
	ApprovedByID   *uint64    `json:"approved_by_id,omitempty"`

	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	Creator     *UserResponse        `json:"creator,omitempty"`
	Assignees   []UserResponse       `json:"assignees,omitempty"`
	Links       []string             `json:"links,omitempty"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
}

// AttachmentResponse is the public view of an attachment.
type AttachmentResponse struct {
	ID   uint64                `json:"id"`
	Name string                `json:"name"`
	URL  string                `json:"url"`
	Kind models.AttachmentKind `json:"kind"`
}

// TaskListResponse wraps a page of tasks.
type TaskListResponse struct {
	Tasks    []TaskResponse `json:"tasks"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ToTaskResponse converts a task model to its response representation.
func ToTaskResponse(task *models.Task) TaskResponse {
	resp := TaskResponse{
		ID:             task.ID,
		Key:            task.Key(),
		ProjectID:      task.ProjectID,
		TeamID:         task.TeamID,
		SequenceNumber: task.SequenceNumber,
		DisplayLabel:   task.DisplayLabel,
		Title:          task.Title,
		Description:    task.Description,
		Priority:       task.Priority,
		Status:         task.Status,
		CreatorID:      task.CreatorID,
		SubmissionNote: task.SubmissionNote,
		SubmittedByID:  task.SubmittedByID,
		SubmittedAt:    task.SubmittedAt,
		RevisionReason: task.RevisionReason,
		RevisionByID:   task.RevisionByID,
		RevisionAt:     task.RevisionAt,
		ApprovedByID:   task.ApprovedByID,
		Metadata:       task.Metadata,
		CreatedAt:      task.CreatedAt,
		UpdatedAt:      task.UpdatedAt,
	}

	if task.Creator.ID != 0 {
		creator := ToUserResponse(&task.Creator)
		resp.Creator = &creator
	}
	for i := range task.Assignments {
		if task.Assignments[i].User.ID != 0 {
			resp.Assignees = append(resp.Assignees, ToUserResponse(&task.Assignments[i].User))
		}
	}
	for _, link := range task.Links {
		resp.Links = append(resp.Links, link.URL)
	}
	for _, a := range task.Attachments {
		resp.Attachments = append(resp.Attachments, ToAttachmentResponse(&a))
	}

	return resp
}

// ToAttachmentResponse converts an attachment model to its response form.
func ToAttachmentResponse(a *models.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:   a.ID,
		Name: a.Name,
		URL:  a.URL,
		Kind: a.Kind,
	}
}
