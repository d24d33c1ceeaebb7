package models

import "time"

// NotificationEvent identifies the message template used for a notification.
type NotificationEvent string

const (
	EventTaskCreated       NotificationEvent = "task_created"
	EventWorkStarted       NotificationEvent = "work_started"
	EventWorkPaused        NotificationEvent = "work_paused"
	EventWorkSubmitted     NotificationEvent = "work_submitted"
	EventTaskApproved      NotificationEvent = "task_approved"
	EventRevisionRequested NotificationEvent = "revision_requested"
	EventCommentPosted     NotificationEvent = "comment_posted"
)

// Notification is one per-user inbox record. Delivery is best effort;
// notifications are not part of any task or session correctness invariant.
type Notification struct {
	ID        string            `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID    uint64            `gorm:"not null;index" json:"user_id"`
	TaskID    *uint64           `gorm:"index" json:"task_id,omitempty"`
	Event     NotificationEvent `gorm:"type:varchar(40);not null" json:"event"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Read      bool              `gorm:"column:is_read;not null;default:false" json:"read"`
	CreatedAt time.Time         `json:"created_at"`
}
