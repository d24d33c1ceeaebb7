package models

import (
	"time"

	"gorm.io/gorm"
)

// Comment is an append-only task message. Comments have no lifecycle
// coupling with task status.
type Comment struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	TaskID     uint64         `gorm:"not null;index" json:"task_id"`
	UserID     uint64         `gorm:"not null" json:"user_id"`
	Text       string         `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time      `json:"created_at"`
	EditedAt   *time.Time     `json:"edited_at,omitempty"`
	EditedByID *uint64        `json:"edited_by_id,omitempty"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Task        Task         `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User        User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Attachments []Attachment `gorm:"polymorphic:Owner;polymorphicValue:comment" json:"attachments,omitempty"`
}
