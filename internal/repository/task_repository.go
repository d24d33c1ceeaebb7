package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/teamdesk/taskflow-api/internal/constants"
	"github.com/teamdesk/taskflow-api/internal/database"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/utils"
)

// ErrSequenceConflict is returned when a concurrent writer advanced the
// team's task counter between read and write. Callers retry the whole
// transaction a bounded number of times.
var ErrSequenceConflict = errors.New("task repository: sequence counter conflict")

// ErrLabelUnavailable is returned when a caller-provided display label
// arrives for a project that already has tasks; manual labels are honored
// only on the first task.
var ErrLabelUnavailable = errors.New("task repository: project already has numbered tasks")

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// CreateWithSequence allocates the next sequence number from the team's
// counter and inserts the task in the same transaction. The counter write is
// conditional on the value read, so two concurrent creators can never be
// issued the same number; the loser sees ErrSequenceConflict and retries.
// There is no window where a number is reserved without its task existing.
func (r *GormTaskRepository) CreateWithSequence(task *models.Task, assigneeIDs []uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var team models.Team
		if err := tx.First(&team, task.TeamID).Error; err != nil {
			return err
		}

		next := team.TaskCounter + 1
		res := tx.Model(&models.Team{}).
			Where("id = ? AND task_counter = ?", team.ID, team.TaskCounter).
			Update("task_counter", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSequenceConflict
		}

		task.SequenceNumber = next
		if task.DisplayLabel == "" {
			task.DisplayLabel = fmt.Sprintf(constants.DefaultLabelTemplate, next)
		} else {
			// Re-check the first-task rule under the transaction; the
			// caller's earlier check can race a concurrent create.
			var existing int64
			if err := tx.Model(&models.Task{}).
				Where("project_id = ?", task.ProjectID).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				return ErrLabelUnavailable
			}
		}

		if err := tx.Create(task).Error; err != nil {
			return err
		}

		if len(assigneeIDs) > 0 {
			assignments := make([]models.TaskAssignment, len(assigneeIDs))
			for i, userID := range assigneeIDs {
				assignments[i] = models.TaskAssignment{
					TaskID: task.ID,
					UserID: userID,
				}
			}
			if err := tx.Create(&assignments).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindBySequence finds a task by its per-team sequence number
func (r *GormTaskRepository) FindBySequence(teamID, sequenceNumber uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.Where("team_id = ? AND sequence_number = ?", teamID, sequenceNumber).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	if len(filter.TeamIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	query := r.db.Model(&models.Task{}).Where("tasks.team_id IN ?", filter.TeamIDs)

	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Priority != nil {
		query = query.Where("tasks.priority = ?", *filter.Priority)
	}
	if filter.CreatorID != nil {
		query = query.Where("tasks.creator_id = ?", *filter.CreatorID)
	}
	if filter.AssignedUserID != nil {
		assignmentSubQuery := r.db.Model(&models.TaskAssignment{}).
			Select("1").
			Where("task_assignments.task_id = tasks.id").
			Where("task_assignments.user_id = ?", *filter.AssignedUserID).
			Where("task_assignments.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", assignmentSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("tasks.sequence_number ASC")
	if filter.Page > 0 && filter.PageSize > 0 {
		listQuery = listQuery.Scopes(database.Paginate(utils.PaginationParams{
			Page:   filter.Page,
			Limit:  filter.PageSize,
			Offset: (filter.Page - 1) * filter.PageSize,
		}))
	}

	if err := listQuery.Preload("Creator").Preload("Assignments").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// CountByProject counts the tasks that belong to a project
func (r *GormTaskRepository) CountByProject(projectID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Task{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

// Update updates a task
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// AssignUsers assigns multiple users to a task
func (r *GormTaskRepository) AssignUsers(taskID uint64, userIDs []uint64) error {
	assignments := make([]models.TaskAssignment, len(userIDs))

	for i, userID := range userIDs {
		assignments[i] = models.TaskAssignment{
			TaskID: taskID,
			UserID: userID,
		}
	}

	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignments).Error
}

// UnassignUsers removes user assignments from a task
func (r *GormTaskRepository) UnassignUsers(taskID uint64, userIDs []uint64) error {
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// ReplaceLinks replaces the external links attached to a task
func (r *GormTaskRepository) ReplaceLinks(taskID uint64, urls []string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", taskID).Delete(&models.TaskLink{}).Error; err != nil {
			return err
		}

		if len(urls) == 0 {
			return nil
		}

		links := make([]models.TaskLink, len(urls))
		for i, url := range urls {
			links[i] = models.TaskLink{TaskID: taskID, URL: url}
		}
		return tx.Create(&links).Error
	})
}

// AddAttachments appends attachment records for the given owner
func (r *GormTaskRepository) AddAttachments(ownerType string, ownerID uint64, attachments []models.Attachment) error {
	if len(attachments) == 0 {
		return nil
	}
	for i := range attachments {
		attachments[i].OwnerType = ownerType
		attachments[i].OwnerID = ownerID
	}
	return r.db.Create(&attachments).Error
}
