package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/constants"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/notifier"
	"github.com/teamdesk/taskflow-api/internal/repository"
)

var (
	ErrNotTeamMember      = errors.New("user is not a member of the team")
	ErrTaskNotFound       = errors.New("task not found")
	ErrProjectNotFound    = errors.New("project not found")
	ErrTitleRequired      = errors.New("title is required")
	ErrTitleEmpty         = errors.New("title cannot be empty")
	ErrInvalidAssignee    = errors.New("one or more users do not exist or are not members of the team")
	ErrLabelNotAllowed    = errors.New("display label can only be overridden on the first task of a project")
	ErrSubmissionRequired = errors.New("a submission note is required to move the task to QA")
	ErrReasonRequired     = errors.New("revision feedback with a reason is required")
	ErrNotPermitted       = errors.New("user does not have permission to perform this transition")
	ErrConflict           = errors.New("operation aborted after repeated concurrent modification")
)

// TaskService handles task business logic: creation with sequence
// allocation, partial updates, and the status state machine.
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	teamRepo    repository.TeamRepository
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	dispatcher  *notifier.Dispatcher

	now func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	dispatcher *notifier.Dispatcher,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	TeamID       uint64
	ProjectID    uint64
	Title        string
	Description  string
	Priority     models.TaskPriority
	DisplayLabel string
	AssigneeIDs  []uint64
	Links        []string
	Metadata     map[string]string
	CreatorID    uint64
}

// UpdateTaskInput represents a partial update. Nil fields are left alone.
// Sequence numbers are immutable and cannot appear here.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Priority     *models.TaskPriority
	DisplayLabel *string
	Links        *[]string
	Metadata     map[string]string
}

// TransitionInput carries the side data a status transition may require.
type TransitionInput struct {
	SubmissionNote        string
	SubmissionAttachments []models.Attachment
	RevisionReason        string
	RevisionAttachments   []models.Attachment
}

// CreateTask validates the input, allocates the next sequence number from
// the team counter and inserts the task, all inside one transaction. On a
// counter conflict the transaction is retried up to MaxCreateAttempts before
// surfacing ErrConflict.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, ErrTitleRequired
	}

	if err := s.ensureTeamMember(input.TeamID, input.CreatorID); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if project.TeamID != input.TeamID {
		return nil, ErrProjectNotFound
	}

	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}

	assigneeIDs := uniqueUint64(input.AssigneeIDs)
	if len(assigneeIDs) > 0 {
		count, err := s.userRepo.CountByIDsInTeam(assigneeIDs, input.TeamID)
		if err != nil {
			return nil, fmt.Errorf("failed to verify assignees: %w", err)
		}
		if int(count) != len(assigneeIDs) {
			return nil, ErrInvalidAssignee
		}
	}

	// A manual label is only honored on the first task of a project so that
	// numbering stays predictable for already-numbered tasks.
	if input.DisplayLabel != "" {
		existing, err := s.taskRepo.CountByProject(input.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to count project tasks: %w", err)
		}
		if existing > 0 {
			return nil, ErrLabelNotAllowed
		}
	}

	var created *models.Task
	for attempt := 1; attempt <= constants.MaxCreateAttempts; attempt++ {
		task := &models.Task{
			ProjectID:    input.ProjectID,
			TeamID:       input.TeamID,
			DisplayLabel: input.DisplayLabel,
			Title:        input.Title,
			Description:  input.Description,
			Priority:     input.Priority,
			Status:       models.TaskStatusOpen,
			CreatorID:    input.CreatorID,
			Metadata:     input.Metadata,
		}

		err = s.taskRepo.CreateWithSequence(task, assigneeIDs)
		if err == nil {
			created = task
			break
		}
		if errors.Is(err, repository.ErrLabelUnavailable) {
			return nil, ErrLabelNotAllowed
		}
		if !errors.Is(err, repository.ErrSequenceConflict) {
			return nil, fmt.Errorf("failed to create task: %w", err)
		}

		time.Sleep(time.Duration(attempt) * 10 * time.Millisecond)
	}
	if created == nil {
		return nil, ErrConflict
	}

	if len(input.Links) > 0 {
		if err := s.taskRepo.ReplaceLinks(created.ID, input.Links); err != nil {
			return nil, fmt.Errorf("failed to attach links: %w", err)
		}
	}

	task, err := s.taskRepo.FindByID(created.ID, "Creator", "Assignments", "Assignments.User", "Links")
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.notify(models.EventTaskCreated, task, project, input.CreatorID, "")

	return task, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID,
		"Creator", "Assignments", "Assignments.User", "Links", "Attachments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// GetTaskByKey resolves a task through its public "{teamID}-{sequenceNumber}"
// key rather than the row id.
func (s *TaskService) GetTaskByKey(teamID, sequenceNumber uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindBySequence(teamID, sequenceNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return s.GetTask(task.ID)
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID       uint64
	TeamID       *uint64
	ProjectID    *uint64
	AssignedToMe bool
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	Page         int
	PageSize     int
}

// ListTasks returns tasks accessible to a user based on the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	teamIDs, err := s.resolveAccessibleTeamIDs(input.UserID, input.TeamID)
	if err != nil {
		return nil, 0, err
	}

	if len(teamIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		TeamIDs:   teamIDs,
		ProjectID: input.ProjectID,
		Status:    input.Status,
		Priority:  input.Priority,
		Page:      input.Page,
		PageSize:  input.PageSize,
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// UpdateTask merges the patch onto the existing task. The display label may
// be overwritten freely here; sequence numbers never change.
func (s *TaskService) UpdateTask(taskID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.DisplayLabel != nil && strings.TrimSpace(*input.DisplayLabel) != "" {
		task.DisplayLabel = *input.DisplayLabel
	}
	if input.Metadata != nil {
		if task.Metadata == nil {
			task.Metadata = map[string]string{}
		}
		for k, v := range input.Metadata {
			task.Metadata[k] = v
		}
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if input.Links != nil {
		if err := s.taskRepo.ReplaceLinks(task.ID, *input.Links); err != nil {
			return nil, fmt.Errorf("failed to update links: %w", err)
		}
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignments", "Assignments.User", "Links")
}

// AssignUsers assigns multiple users to a task with validation
func (s *TaskService) AssignUsers(taskID, actorID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return ErrInvalidAssignee
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureTeamMember(task.TeamID, actorID); err != nil {
		return err
	}

	ids := uniqueUint64(userIDs)
	count, err := s.userRepo.CountByIDsInTeam(ids, task.TeamID)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(ids) {
		return ErrInvalidAssignee
	}

	if err := s.taskRepo.AssignUsers(task.ID, ids); err != nil {
		return fmt.Errorf("failed to assign users: %w", err)
	}

	return nil
}

// UnassignUsers removes user assignments from a task
func (s *TaskService) UnassignUsers(taskID, actorID uint64, userIDs []uint64) error {
	if len(userIDs) == 0 {
		return ErrInvalidAssignee
	}

	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find task: %w", err)
	}

	if err := s.ensureTeamMember(task.TeamID, actorID); err != nil {
		return err
	}

	if err := s.taskRepo.UnassignUsers(taskID, uniqueUint64(userIDs)); err != nil {
		return fmt.Errorf("failed to unassign users: %w", err)
	}

	return nil
}

// TransitionStatus applies the state machine to the task. Worker transitions
// (start, submit) require the actor to be assigned or the project creator;
// QA decisions require the project creator or a team owner. Session side
// effects ride in the same transaction as the task status write.
func (s *TaskService) TransitionStatus(taskID, actorID uint64, target models.TaskStatus, input TransitionInput) (*models.Task, error) {
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

	rule, err := transitionRuleFor(task.Status, target)
	if err != nil {
		return nil, err
	}

	if rule.adminOnly {
		if !s.isProjectAdmin(project, actorID) {
			return nil, ErrNotPermitted
		}
	} else {
		if !task.IsAssignedTo(actorID) && project.CreatorID != actorID {
			return nil, ErrNotPermitted
		}
	}

	if rule.needsSubmission && strings.TrimSpace(input.SubmissionNote) == "" {
		return nil, ErrSubmissionRequired
	}
	if rule.needsReason && strings.TrimSpace(input.RevisionReason) == "" {
		return nil, ErrReasonRequired
	}

	now := s.now()

	switch target {
	case models.TaskStatusInProgress:
		// Starting work opens (or resumes) the actor's session; the session
		// repository mirrors the task status in the same transaction.
		candidate := &models.WorkSession{
			ID:        uuid.New().String(),
			TeamID:    task.TeamID,
			ProjectID: task.ProjectID,
			TaskID:    task.ID,
			UserID:    actorID,
		}
		if _, _, err := s.sessionRepo.Open(candidate, now); err != nil {
			return nil, fmt.Errorf("failed to open work session: %w", err)
		}

	case models.TaskStatusQA:
		session, err := s.sessionRepo.FindOpen(task.ID, actorID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to find open session: %w", err)
		}
		if session != nil {
			if _, err := s.sessionRepo.CompleteWithSubmission(session.ID, input.SubmissionNote, input.SubmissionAttachments, now); err != nil {
				return nil, fmt.Errorf("failed to close work session: %w", err)
			}
		} else {
			task.Status = models.TaskStatusQA
			task.SubmissionNote = &input.SubmissionNote
			task.SubmittedByID = &actorID
			task.SubmittedAt = &now
			if err := s.taskRepo.Update(task); err != nil {
				return nil, fmt.Errorf("failed to update task: %w", err)
			}
			if len(input.SubmissionAttachments) > 0 {
				if err := s.taskRepo.AddAttachments(models.AttachmentOwnerSubmission, task.ID, input.SubmissionAttachments); err != nil {
					return nil, fmt.Errorf("failed to store submission attachments: %w", err)
				}
			}
		}

	case models.TaskStatusCompleted:
		task.Status = models.TaskStatusCompleted
		task.ApprovedByID = &actorID
		if err := s.taskRepo.Update(task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}

	case models.TaskStatusRevision:
		task.Status = models.TaskStatusRevision
		task.RevisionReason = &input.RevisionReason
		task.RevisionByID = &actorID
		task.RevisionAt = &now
		if err := s.taskRepo.Update(task); err != nil {
			return nil, fmt.Errorf("failed to update task: %w", err)
		}
		if len(input.RevisionAttachments) > 0 {
			if err := s.taskRepo.AddAttachments(models.AttachmentOwnerRevision, task.ID, input.RevisionAttachments); err != nil {
				return nil, fmt.Errorf("failed to store revision attachments: %w", err)
			}
		}
	}

	updated, err := s.taskRepo.FindByID(task.ID, "Creator", "Assignments", "Assignments.User")
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	detail := input.RevisionReason
	s.notify(rule.event, updated, project, actorID, detail)

	return updated, nil
}

// DeleteProjectCascade removes a project and all of its tasks. Only the
// project creator or a team owner may do this. Session history is kept.
func (s *TaskService) DeleteProjectCascade(projectID, actorID uint64) error {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if !s.isProjectAdmin(project, actorID) {
		return ErrNotPermitted
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	return nil
}

// isProjectAdmin reports whether the user may act as the project's admin:
// either its creator or an owner of the owning team.
func (s *TaskService) isProjectAdmin(project *models.Project, userID uint64) bool {
	if project.CreatorID == userID {
		return true
	}
	member, err := s.teamRepo.FindMember(project.TeamID, userID)
	if err != nil {
		return false
	}
	return member.Role == models.RoleOwner
}

// notify dispatches a best-effort notification. It never fails the caller.
func (s *TaskService) notify(event models.NotificationEvent, task *models.Task, project *models.Project, actorID uint64, detail string) {
	if s.dispatcher == nil || event == "" {
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

// resolveAccessibleTeamIDs returns the team IDs the user can access
func (s *TaskService) resolveAccessibleTeamIDs(userID uint64, teamID *uint64) ([]uint64, error) {
	if teamID != nil {
		if err := s.ensureTeamMember(*teamID, userID); err != nil {
			return nil, err
		}
		return []uint64{*teamID}, nil
	}

	memberships, err := s.teamRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch team memberships: %w", err)
	}

	teamIDs := make([]uint64, 0, len(memberships))
	for _, m := range memberships {
		teamIDs = append(teamIDs, m.TeamID)
	}

	return teamIDs, nil
}

// ensureTeamMember verifies that a user belongs to a team
func (s *TaskService) ensureTeamMember(teamID, userID uint64) error {
	_, err := s.teamRepo.FindMember(teamID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotTeamMember
		}
		return fmt.Errorf("failed to verify team membership: %w", err)
	}
	return nil
}

// uniqueUint64 removes duplicate values from a slice of uint64
func uniqueUint64(values []uint64) []uint64 {
	seen := make(map[uint64]struct{}, len(values))
	result := make([]uint64, 0, len(values))

	for _, v := range values {
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
