package models

import "time"

type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusPaused    SessionStatus = "paused"
	SessionStatusCompleted SessionStatus = "completed"
)

// WorkSession records one user's timed engagement with one task. Sessions
// are never deleted; completed rows remain as the audit trail.
//
// Invariant: at most one session per (task, user) has status active or
// paused at any time.
type WorkSession struct {
	ID        string        `gorm:"type:varchar(36);primarykey" json:"id"`
	TeamID    uint64        `gorm:"not null;index" json:"team_id"`
	ProjectID uint64        `gorm:"not null;index" json:"project_id"`
	TaskID    uint64        `gorm:"not null;uniqueIndex:idx_open_session_task_user" json:"task_id"`
	UserID    uint64        `gorm:"not null;uniqueIndex:idx_open_session_task_user" json:"user_id"`
	Status    SessionStatus `gorm:"type:varchar(20);not null" json:"status"`

	// Open is set while the session is active or paused and NULLed on
	// completion. The unique index over (task_id, user_id, is_open) makes the
	// single-open-session rule a schema constraint: a second open row for the
	// same pair is rejected by the database regardless of transaction
	// isolation, while completed rows carry NULL and never collide.
	Open *bool `gorm:"column:is_open;uniqueIndex:idx_open_session_task_user" json:"-"`

	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	EndedAt   *time.Time `json:"ended_at"`

	// AccumulatedSeconds holds time spent in active state across completed
	// segments. LastResumedAt marks the start of the current active segment
	// and is nil while paused or completed.
	AccumulatedSeconds int64      `gorm:"not null;default:0" json:"accumulated_seconds"`
	LastResumedAt      *time.Time `json:"last_resumed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsOpen reports whether the session still counts toward the single open
// session allowed per (task, user).
func (s *WorkSession) IsOpen() bool {
	return s.Status == SessionStatusActive || s.Status == SessionStatusPaused
}

// ActiveDuration returns the time spent in active state, not wall-clock time
// since creation. Paused stretches never accrue.
func (s *WorkSession) ActiveDuration(now time.Time) time.Duration {
	d := time.Duration(s.AccumulatedSeconds) * time.Second
	if s.Status == SessionStatusActive && s.LastResumedAt != nil {
		d += now.Sub(*s.LastResumedAt)
	}
	return d
}
