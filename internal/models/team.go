package models

import (
	"time"

	"gorm.io/gorm"
)

type Team struct {
	ID         uint64 `gorm:"primarykey" json:"id"`
	Name       string `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`

	// TaskCounter is the per-team sequence source for task numbers. It is
	// mutated only inside the transaction that inserts the task it numbers.
	TaskCounter uint64 `gorm:"not null;default:0" json:"task_counter"`

	// WebhookURL, when set, receives a copy of every notification for this
	// team as a chat-bot message.
	WebhookURL string `gorm:"type:varchar(512)" json:"webhook_url,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Members  []TeamMember `gorm:"foreignKey:TeamID" json:"members,omitempty"`
	Projects []Project    `gorm:"foreignKey:TeamID" json:"projects,omitempty"`
}
