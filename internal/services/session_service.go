package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/notifier"
	"github.com/teamdesk/taskflow-api/internal/repository"
)

var (
	ErrSessionNotFound  = errors.New("work session not found")
	ErrNotSessionOwner  = errors.New("only the session owner can modify it")
	ErrSessionNotOpen   = errors.New("work session is already completed")
	ErrSessionNotActive = errors.New("work session is not active")
)

// SessionService coordinates work sessions with the task state machine.
type SessionService struct {
	sessionRepo repository.SessionRepository
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	teamRepo    repository.TeamRepository
	dispatcher  *notifier.Dispatcher

	now func() time.Time
}

// NewSessionService creates a new SessionService
func NewSessionService(
	sessionRepo repository.SessionRepository,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	dispatcher *notifier.Dispatcher,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// StartOrResume opens a work session for the user on the task, or resumes
// the paused one, and moves the task to InProgress. Calling it again while a
// session is already active is a no-op returning the existing session. The
// open-session check and the insert share one transaction, so a concurrent
// duplicate start can never produce two open sessions.
func (s *SessionService) StartOrResume(taskID, userID uint64) (*models.WorkSession, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	project, err := s.projectRepo.FindByID(task.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if !task.IsAssignedTo(userID) && project.CreatorID != userID {
		return nil, ErrNotPermitted
	}

	switch task.Status {
	case models.TaskStatusOpen, models.TaskStatusRevision, models.TaskStatusInProgress:
		// workable
	default:
		return nil, &InvalidTransitionError{From: task.Status, To: models.TaskStatusInProgress}
	}

	candidate := &models.WorkSession{
		ID:        uuid.New().String(),
		TeamID:    task.TeamID,
		ProjectID: task.ProjectID,
		TaskID:    task.ID,
		UserID:    userID,
	}

	session, outcome, err := s.sessionRepo.Open(candidate, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to open work session: %w", err)
	}

	// A second start on an already active session is a no-op and must not
	// notify again; the outcome is decided inside Open's transaction.
	if outcome != repository.OpenReused {
		s.notify(models.EventWorkStarted, task, project, userID, "")
	}

	return session, nil
}

// Pause marks the owner's active session paused. The task stays InProgress;
// only the session state changes, so a later start resumes this session.
func (s *SessionService) Pause(sessionID string, actorID uint64) (*models.WorkSession, error) {
	session, err := s.findOwned(sessionID, actorID)
	if err != nil {
		return nil, err
	}

	paused, err := s.sessionRepo.Pause(session.ID, s.now())
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrSessionClosed):
			return nil, ErrSessionNotOpen
		case errors.Is(err, repository.ErrSessionNotActive):
			return nil, ErrSessionNotActive
		}
		return nil, fmt.Errorf("failed to pause session: %w", err)
	}

	if task, project, err := s.loadTaskContext(session.TaskID); err == nil {
		s.notify(models.EventWorkPaused, task, project, actorID, "")
	}

	return paused, nil
}

// StopOrSubmit completes the session and submits the task for QA with the
// given note; both writes share one transaction. The returned duration
// covers time spent active, not wall-clock time since the session started.
func (s *SessionService) StopOrSubmit(sessionID string, actorID uint64, note string, attachments []models.Attachment) (*models.WorkSession, time.Duration, error) {
	session, err := s.findOwned(sessionID, actorID)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	completed, err := s.sessionRepo.CompleteWithSubmission(session.ID, note, attachments, now)
	if err != nil {
		if errors.Is(err, repository.ErrSessionClosed) {
			return nil, 0, ErrSessionNotOpen
		}
		return nil, 0, fmt.Errorf("failed to complete session: %w", err)
	}

	if task, project, err := s.loadTaskContext(session.TaskID); err == nil {
		s.notify(models.EventWorkSubmitted, task, project, actorID, note)
	}

	return completed, completed.ActiveDuration(now), nil
}

// GetSession returns one session by id
func (s *SessionService) GetSession(sessionID string) (*models.WorkSession, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// ListByTask returns the full session audit trail of a task
func (s *SessionService) ListByTask(taskID uint64) ([]models.WorkSession, error) {
	sessions, err := s.sessionRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ListOpenByTeam returns who is working on what across a team right now.
// The session table is the single source of truth for this view.
func (s *SessionService) ListOpenByTeam(teamID, userID uint64) ([]models.WorkSession, error) {
	if _, err := s.teamRepo.FindMember(teamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to verify team membership: %w", err)
	}

	sessions, err := s.sessionRepo.ListOpenByTeam(teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list open sessions: %w", err)
	}
	return sessions, nil
}

func (s *SessionService) findOwned(sessionID string, actorID uint64) (*models.WorkSession, error) {
	session, err := s.sessionRepo.FindByID(sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session: %w", err)
	}

	if session.UserID != actorID {
		return nil, ErrNotSessionOwner
	}

	return session, nil
}

func (s *SessionService) loadTaskContext(taskID uint64) (*models.Task, *models.Project, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		return nil, nil, err
	}
	project, err := s.projectRepo.FindByID(task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	return task, project, nil
}

func (s *SessionService) notify(event models.NotificationEvent, task *models.Task, project *models.Project, actorID uint64, detail string) {
	if s.dispatcher == nil {
		return
	}

	recipients := make([]uint64, 0, len(task.Assignments)+1)
	for _, a := range task.Assignments {
		recipients = append(recipients, a.UserID)
	}
	recipients = append(recipients, project.CreatorID)

	taskID := task.ID
	s.dispatcher.Notify(notifier.Event{
		Type:       event,
		TeamID:     task.TeamID,
		TaskID:     &taskID,
		TaskKey:    task.Key(),
		TaskTitle:  task.Title,
		ActorID:    actorID,
		Detail:     detail,
		Recipients: uniqueUint64(recipients),
	})
}
