package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskAssignment links a team member to a task. Being assigned is what
// entitles a user to start work sessions and submit the task for QA.
// Unassignment soft deletes the row; re-assignment restores it.
type TaskAssignment struct {
	TaskID    uint64         `gorm:"primarykey" json:"task_id"`
	UserID    uint64         `gorm:"primarykey" json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
