package repository

import (
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(project *models.Project) error {
	return r.db.Create(project).Error
}

// FindByID finds a project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id uint64, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&project, id).Error; err != nil {
		return nil, err
	}

	return &project, nil
}

// FindWithTasks returns a project with its tasks ordered by sequence number.
// Tasks live as independent rows; the embedded list view is rebuilt here at
// read time instead of being rewritten on every task mutation.
func (r *GormProjectRepository) FindWithTasks(id uint64) (*models.Project, error) {
	var project models.Project
	err := r.db.
		Preload("Tasks", func(db *gorm.DB) *gorm.DB {
			return db.Order("tasks.sequence_number ASC")
		}).
		Preload("Tasks.Assignments").
		Preload("Tasks.Assignments.User").
		First(&project, id).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByTeam lists all projects of a team
func (r *GormProjectRepository) ListByTeam(teamID uint64) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.Where("team_id = ?", teamID).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Save(project).Error
}

// Delete deletes a project and cascades to its tasks and their dependent
// records. Work sessions are deliberately kept: they are the audit trail.
func (r *GormProjectRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var taskIDs []uint64
		if err := tx.Model(&models.Task{}).
			Where("project_id = ?", id).
			Pluck("id", &taskIDs).Error; err != nil {
			return err
		}

		if len(taskIDs) > 0 {
			if err := tx.Where("task_id IN ?", taskIDs).
				Delete(&models.TaskAssignment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).
				Delete(&models.TaskLink{}).Error; err != nil {
				return err
			}
			if err := tx.Where("task_id IN ?", taskIDs).
				Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("owner_id IN ? AND owner_type IN ?", taskIDs,
				[]string{models.AttachmentOwnerTask, models.AttachmentOwnerSubmission, models.AttachmentOwnerRevision}).
				Delete(&models.Attachment{}).Error; err != nil {
				return err
			}
			if err := tx.Where("project_id = ?", id).
				Delete(&models.Task{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}
