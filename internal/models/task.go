package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "OPEN"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusQA         TaskStatus = "QA"
	TaskStatusRevision   TaskStatus = "REVISION"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

type Task struct {
	ID        uint64 `gorm:"primarykey" json:"id"`
	ProjectID uint64 `gorm:"not null;index" json:"project_id"`
	TeamID    uint64 `gorm:"not null;uniqueIndex:idx_tasks_team_seq" json:"team_id"`

	// SequenceNumber is unique within a team and immutable after creation.
	SequenceNumber uint64 `gorm:"not null;uniqueIndex:idx_tasks_team_seq" json:"sequence_number"`

	// DisplayLabel defaults to the formatted sequence number but is free
	// text; it may diverge from SequenceNumber and is never unique.
	DisplayLabel string `gorm:"type:varchar(100);not null" json:"display_label"`

	Title       string       `gorm:"not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Priority    TaskPriority `gorm:"type:varchar(20);not null;default:'MEDIUM'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);not null;default:'OPEN'" json:"status"`
	CreatorID   uint64       `gorm:"not null" json:"creator_id"`

	// Submission payload, set when work is submitted for QA.
	SubmissionNote *string    `gorm:"type:text" json:"submission_note,omitempty"`
	SubmittedByID  *uint64    `json:"submitted_by_id,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`

	// Revision feedback, set when QA requests changes.
	RevisionReason *string    `gorm:"type:text" json:"revision_reason,omitempty"`
	RevisionByID   *uint64    `json:"revision_by_id,omitempty"`
	RevisionAt     *time.Time `json:"revision_at,omitempty"`
	ApprovedByID   *uint64    `json:"approved_by_id,omitempty"`

	// Metadata is a free-form escape hatch for rarely used fields.
	Metadata map[string]string `gorm:"serializer:json" json:"metadata,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Project     Project          `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	Team        Team             `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Creator     User             `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignments []TaskAssignment `gorm:"foreignKey:TaskID" json:"assignments,omitempty"`
	Attachments []Attachment     `gorm:"polymorphic:Owner;polymorphicValue:task" json:"attachments,omitempty"`
	Links       []TaskLink       `gorm:"foreignKey:TaskID" json:"links,omitempty"`
}

// Key renders the public task identifier, e.g. "3-17" for the 17th task of
// team 3.
func (t *Task) Key() string {
	return fmt.Sprintf("%d-%d", t.TeamID, t.SequenceNumber)
}

// IsAssignedTo reports whether the user appears in the task's assignments.
// Assignments must be preloaded.
func (t *Task) IsAssignedTo(userID uint64) bool {
	for _, a := range t.Assignments {
		if a.UserID == userID {
			return true
		}
	}
	return false
}
