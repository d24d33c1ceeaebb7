package dto

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// NotificationResponse is one inbox entry.
type NotificationResponse struct {
	ID        string                   `json:"id"`
	TaskID    *uint64                  `json:"task_id,omitempty"`
	Event     models.NotificationEvent `json:"event"`
	Message   string                   `json:"message"`
	Read      bool                     `json:"read"`
	CreatedAt time.Time                `json:"created_at"`
}

// ToNotificationResponse converts a notification model to its response form.
func ToNotificationResponse(n *models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:        n.ID,
		TaskID:    n.TaskID,
		Event:     n.Event,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt,
	}
}
