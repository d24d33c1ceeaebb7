package dto

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// CommentResponse is the public view of a comment.
type CommentResponse struct {
	ID          uint64               `json:"id"`
	TaskID      uint64               `json:"task_id"`
	UserID      uint64               `json:"user_id"`
	Text        string               `json:"text"`
	CreatedAt   time.Time            `json:"created_at"`
	EditedAt    *time.Time           `json:"edited_at,omitempty"`
	EditedByID  *uint64              `json:"edited_by_id,omitempty"`
	User        *UserResponse        `json:"user,omitempty"`
	Attachments []AttachmentResponse `json:"attachments,omitempty"`
}

// ToCommentResponse converts a comment model to its response representation.
func ToCommentResponse(comment *models.Comment) CommentResponse {
	resp := CommentResponse{
		ID:         comment.ID,
		TaskID:     comment.TaskID,
		UserID:     comment.UserID,
		Text:       comment.Text,
		CreatedAt:  comment.CreatedAt,
		EditedAt:   comment.EditedAt,
		EditedByID: comment.EditedByID,
	}
	if comment.User.ID != 0 {
		user := ToUserResponse(&comment.User)
		resp.User = &user
	}
	for _, a := range comment.Attachments {
		resp.Attachments = append(resp.Attachments, ToAttachmentResponse(&a))
	}
	return resp
}
