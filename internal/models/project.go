package models

import (
	"time"

	"gorm.io/gorm"
)

type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusArchived ProjectStatus = "archived"
)

type Project struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	TeamID    uint64         `gorm:"not null;index" json:"team_id"`
	Title     string         `gorm:"type:varchar(255);not null" json:"title"`
	Status    ProjectStatus  `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	CreatorID uint64         `gorm:"not null" json:"creator_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations. Tasks are stored as independent rows keyed by ProjectID and
	// recombined into this ordered list at read time.
	Team    Team   `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Creator User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Tasks   []Task `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}
