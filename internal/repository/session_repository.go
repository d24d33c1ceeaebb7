package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
)

var (
	// ErrSessionNotActive is returned when pausing a session that is not
	// currently active.
	ErrSessionNotActive = errors.New("session repository: session is not active")
	// ErrSessionClosed is returned when mutating a completed session.
	ErrSessionClosed = errors.New("session repository: session already completed")
)

// OpenOutcome reports what Open did with the candidate's (task, user) pair.
type OpenOutcome int

const (
	// OpenReused means an active session already existed and the start was
	// an idempotent no-op.
	OpenReused OpenOutcome = iota
	// OpenResumed means a paused session was moved back to active.
	OpenResumed
	// OpenCreated means a new session row was inserted.
	OpenCreated
)

// GormSessionRepository is a GORM implementation of SessionRepository
type GormSessionRepository struct {
	db *gorm.DB
}

// NewSessionRepository creates a new SessionRepository
func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &GormSessionRepository{db: db}
}

// Open returns the open session for the candidate's (task, user) pair or
// creates the candidate as a new active session. The existence check, the
// insert and the task status change share one transaction, and the schema
// backs the check: work_sessions carries a unique index over
// (task_id, user_id, is_open), so when two concurrent starts both pass the
// lookup, the second insert fails at the database no matter the driver's
// isolation level. The loser reruns once and reuses the winner's committed
// row, keeping the start idempotent.
func (r *GormSessionRepository) Open(candidate *models.WorkSession, now time.Time) (*models.WorkSession, OpenOutcome, error) {
	session, outcome, err := r.open(candidate, now)
	if err == nil {
		return session, outcome, nil
	}

	// A failed insert is most likely a concurrent start winning the unique
	// open-session guard. If the winner's row is visible now, rerunning
	// reuses it; otherwise the original error stands.
	if _, findErr := r.FindOpen(candidate.TaskID, candidate.UserID); findErr != nil {
		return nil, 0, err
	}
	return r.open(candidate, now)
}

func (r *GormSessionRepository) open(candidate *models.WorkSession, now time.Time) (*models.WorkSession, OpenOutcome, error) {
	var session models.WorkSession
	outcome := OpenReused

	err := r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("task_id = ? AND user_id = ? AND status IN ?",
			candidate.TaskID, candidate.UserID,
			[]models.SessionStatus{models.SessionStatusActive, models.SessionStatusPaused}).
			First(&session).Error

		switch {
		case err == nil:
			// Reuse the open session; a paused one resumes, an active
			// one makes the start idempotent.
			if session.Status == models.SessionStatusPaused {
				session.Status = models.SessionStatusActive
				session.LastResumedAt = &now
				outcome = OpenResumed
				if err := tx.Save(&session).Error; err != nil {
					return err
				}
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			open := true
			candidate.Status = models.SessionStatusActive
			candidate.StartedAt = now
			candidate.LastResumedAt = &now
			candidate.Open = &open
			if err := tx.Create(candidate).Error; err != nil {
				return err
			}
			session = *candidate
			outcome = OpenCreated
		default:
			return err
		}

		return tx.Model(&models.Task{}).
			Where("id = ?", candidate.TaskID).
			Update("status", models.TaskStatusInProgress).Error
	})
	if err != nil {
		return nil, 0, err
	}

	return &session, outcome, nil
}

// Pause marks an active session paused and banks the elapsed active segment.
// The session stays open so a later start resumes it instead of creating a
// new one. Task status is left untouched.
func (r *GormSessionRepository) Pause(sessionID string, now time.Time) (*models.WorkSession, error) {
	var session models.WorkSession

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			return err
		}

		if session.Status == models.SessionStatusCompleted {
			return ErrSessionClosed
		}
		if session.Status != models.SessionStatusActive {
			return ErrSessionNotActive
		}

		if session.LastResumedAt != nil {
			session.AccumulatedSeconds += int64(now.Sub(*session.LastResumedAt).Seconds())
		}
		session.Status = models.SessionStatusPaused
		session.LastResumedAt = nil

		return tx.Save(&session).Error
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// CompleteWithSubmission closes the session and moves its task to QA with
// the submission payload in the same transaction, so task status never
// disagrees with session state.
func (r *GormSessionRepository) CompleteWithSubmission(sessionID string, note string, attachments []models.Attachment, now time.Time) (*models.WorkSession, error) {
	var session models.WorkSession

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&session, "id = ?", sessionID).Error; err != nil {
			return err
		}

		if session.Status == models.SessionStatusCompleted {
			return ErrSessionClosed
		}

		if session.Status == models.SessionStatusActive && session.LastResumedAt != nil {
			session.AccumulatedSeconds += int64(now.Sub(*session.LastResumedAt).Seconds())
		}
		session.Status = models.SessionStatusCompleted
		session.EndedAt = &now
		session.LastResumedAt = nil
		// Release the unique open-session slot for this (task, user) pair.
		session.Open = nil

		if err := tx.Save(&session).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"status":          models.TaskStatusQA,
			"submission_note": note,
			"submitted_by_id": session.UserID,
			"submitted_at":    now,
		}
		if err := tx.Model(&models.Task{}).
			Where("id = ?", session.TaskID).
			Updates(updates).Error; err != nil {
			return err
		}

		if len(attachments) > 0 {
			for i := range attachments {
				attachments[i].OwnerType = models.AttachmentOwnerSubmission
				attachments[i].OwnerID = session.TaskID
			}
			if err := tx.Create(&attachments).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &session, nil
}

// FindByID finds a session by ID
func (r *GormSessionRepository) FindByID(id string) (*models.WorkSession, error) {
	var session models.WorkSession
	if err := r.db.First(&session, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// FindOpen finds the open (active or paused) session for a task/user pair
func (r *GormSessionRepository) FindOpen(taskID, userID uint64) (*models.WorkSession, error) {
	var session models.WorkSession
	if err := r.db.Where("task_id = ? AND user_id = ? AND status IN ?",
		taskID, userID,
		[]models.SessionStatus{models.SessionStatusActive, models.SessionStatusPaused}).
		First(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// ListByTask lists all sessions recorded for a task
func (r *GormSessionRepository) ListByTask(taskID uint64) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	if err := r.db.Preload("User").
		Where("task_id = ?", taskID).
		Order("started_at ASC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListOpenByTeam lists open sessions across a team, newest first
func (r *GormSessionRepository) ListOpenByTeam(teamID uint64) ([]models.WorkSession, error) {
	var sessions []models.WorkSession
	if err := r.db.Preload("User").Preload("Task").
		Where("team_id = ? AND status IN ?",
			teamID,
			[]models.SessionStatus{models.SessionStatusActive, models.SessionStatusPaused}).
		Order("started_at DESC").
		Find(&sessions).Error; err != nil {
		return nil, err
	}
	return sessions, nil
}
