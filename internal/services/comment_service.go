package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/notifier"
	"github.com/teamdesk/taskflow-api/internal/repository"
)

var (
	ErrCommentNotFound   = errors.New("comment not found")
	ErrCommentTextEmpty  = errors.New("comment text cannot be empty")
	ErrNotCommentAuthor  = errors.New("only the comment author can edit it")
	ErrCannotDropComment = errors.New("only the author or a project admin can delete a comment")
)

// CommentService handles the per-task comment thread. Comments are decoupled
// from the task state machine: they never block and are never blocked by
// status transitions.
type CommentService struct {
	commentRepo repository.CommentRepository
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	teamRepo    repository.TeamRepository
	dispatcher  *notifier.Dispatcher

	now func() time.Time
}

// NewCommentService creates a new CommentService
func NewCommentService(
	commentRepo repository.CommentRepository,
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	teamRepo repository.TeamRepository,
	dispatcher *notifier.Dispatcher,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		teamRepo:    teamRepo,
		dispatcher:  dispatcher,
		now:         time.Now,
	}
}

// PostComment appends a comment to a task's thread.
func (s *CommentService) PostComment(taskID, userID uint64, text string, attachments []models.Attachment) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentTextEmpty
	}

	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if _, err := s.teamRepo.FindMember(task.TeamID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotTeamMember
		}
		return nil, fmt.Errorf("failed to verify team membership: %w", err)
	}

	comment := &models.Comment{
		TaskID: taskID,
		UserID: userID,
		Text:   text,
	}

	if err := s.commentRepo.Create(comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	if len(attachments) > 0 {
		if err := s.taskRepo.AddAttachments(models.AttachmentOwnerComment, comment.ID, attachments); err != nil {
			return nil, fmt.Errorf("failed to store comment attachments: %w", err)
		}
	}

	if project, err := s.projectRepo.FindByID(task.ProjectID); err == nil {
		s.notifyComment(task, project, userID)
	}

	return s.commentRepo.FindByID(comment.ID)
}

// EditComment updates the text of a comment. Author only.
func (s *CommentService) EditComment(commentID, actorID uint64, text string) (*models.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentTextEmpty
	}

	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.UserID != actorID {
		return nil, ErrNotCommentAuthor
	}

	now := s.now()
	comment.Text = text
	comment.EditedAt = &now
	comment.EditedByID = &actorID

	if err := s.commentRepo.Update(comment); err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", err)
	}

	return comment, nil
}

// DeleteComment removes a comment. Allowed for the author or a project
// admin (project creator or team owner).
func (s *CommentService) DeleteComment(commentID, actorID uint64) error {
	comment, err := s.commentRepo.FindByID(commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("failed to find comment: %w", err)
	}

	if comment.UserID != actorID {
		admin, err := s.isProjectAdminForTask(comment.TaskID, actorID)
		if err != nil {
			return err
		}
		if !admin {
			return ErrCannotDropComment
		}
	}

	if err := s.commentRepo.Delete(commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return nil
}

// ListComments returns a task's comments in creation order.
func (s *CommentService) ListComments(taskID uint64) ([]models.Comment, error) {
	comments, err := s.commentRepo.ListByTask(taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) isProjectAdminForTask(taskID, userID uint64) (bool, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		return false, fmt.Errorf("failed to find task: %w", err)
	}
	project, err := s.projectRepo.FindByID(task.ProjectID)
	if err != nil {
		return false, fmt.Errorf("failed to find project: %w", err)
	}
	if project.CreatorID == userID {
		return true, nil
	}
	member, err := s.teamRepo.FindMember(project.TeamID, userID)
	if err != nil {
		return false, nil
	}
	return member.Role == models.RoleOwner, nil
}

func (s *CommentService) notifyComment(task *models.Task, project *models.Project, actorID uint64) {
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
		Type:       models.EventCommentPosted,
		TeamID:     task.TeamID,
		TaskID:     &taskID,
		TaskKey:    task.Key(),
		TaskTitle:  task.Title,
		ActorID:    actorID,
		Recipients: uniqueUint64(recipients),
	})
}
