package models

import "time"

// AttachmentKind classifies the attached content.
type AttachmentKind string

const (
	AttachmentKindFile  AttachmentKind = "file"
	AttachmentKindImage AttachmentKind = "image"
)

// Attachment is a named pointer to an uploaded blob. The URL is treated as
// opaque; its contents are never inspected. Attachments hang off tasks,
// submissions, revision feedback and comments via the polymorphic owner.
type Attachment struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	OwnerType string         `gorm:"type:varchar(30);not null;index:idx_attachments_owner" json:"-"`
	OwnerID   uint64         `gorm:"not null;index:idx_attachments_owner" json:"-"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	URL       string         `gorm:"type:varchar(1024);not null" json:"url"`
	Kind      AttachmentKind `gorm:"type:varchar(20);not null;default:'file'" json:"kind"`
	CreatedAt time.Time      `json:"created_at"`
}

// Attachment owner types beyond the polymorphic task/comment relations.
const (
	AttachmentOwnerTask       = "task"
	AttachmentOwnerSubmission = "submission"
	AttachmentOwnerRevision   = "revision"
	AttachmentOwnerComment    = "comment"
)

// TaskLink is an external URL attached to a task.
type TaskLink struct {
	ID     uint64 `gorm:"primarykey" json:"id"`
	TaskID uint64 `gorm:"not null;index" json:"task_id"`
	URL    string `gorm:"type:varchar(1024);not null" json:"url"`
}
