package repository

import (
	"time"

	"github.com/teamdesk/taskflow-api/internal/models"
)

// TeamRepository defines the interface for team data access
type TeamRepository interface {
	// Create creates a new team
	Create(team *models.Team) error

	// FindByID finds a team by ID
	FindByID(id uint64) (*models.Team, error)

	// FindByInviteCode finds a team by invite code
	FindByInviteCode(code string) (*models.Team, error)

	// Update updates a team
	Update(team *models.Team) error

	// AddMember adds a member to a team
	AddMember(member *models.TeamMember) error

	// RemoveMember removes a member from a team
	RemoveMember(teamID, userID uint64) error

	// FindMember finds a specific team member
	FindMember(teamID, userID uint64) (*models.TeamMember, error)

	// ListMembersByUserID lists all teams a user is a member of
	ListMembersByUserID(userID uint64) ([]models.TeamMember, error)

	// ListMembers lists all members of a team
	ListMembers(teamID uint64) ([]models.TeamMember, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// Create creates a new project
	Create(project *models.Project) error

	// FindByID finds a project by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Project, error)

	// FindWithTasks returns a project with its tasks ordered by sequence
	// number, recombining the denormalized list at read time
	FindWithTasks(id uint64) (*models.Project, error)

	// ListByTeam lists all projects of a team
	ListByTeam(teamID uint64) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error

	// Delete deletes a project and cascades to its tasks, assignments,
	// links, attachments and comments. Work sessions are retained as an
	// audit trail.
	Delete(id uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// CreateWithSequence inserts the task and allocates its sequence number
	// from the owning team's counter inside a single transaction. Returns
	// ErrSequenceConflict when a concurrent writer moved the counter first.
	CreateWithSequence(task *models.Task, assigneeIDs []uint64) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// FindBySequence finds a task by its per-team sequence number
	FindBySequence(teamID, sequenceNumber uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// CountByProject counts the tasks that belong to a project
	CountByProject(projectID uint64) (int64, error)

	// Update updates a task
	Update(task *models.Task) error

	// AssignUsers assigns multiple users to a task
	AssignUsers(taskID uint64, userIDs []uint64) error

	// UnassignUsers removes user assignments from a task
	UnassignUsers(taskID uint64, userIDs []uint64) error

	// ReplaceLinks replaces the external links attached to a task
	ReplaceLinks(taskID uint64, urls []string) error

	// AddAttachments appends attachment records for the given owner
	AddAttachments(ownerType string, ownerID uint64, attachments []models.Attachment) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	TeamIDs        []uint64
	ProjectID      *uint64
	Status         *models.TaskStatus
	Priority       *models.TaskPriority
	CreatorID      *uint64
	AssignedUserID *uint64
	Page           int
	PageSize       int
}

// SessionRepository defines the interface for work session data access.
// Methods that touch both the session and its task perform the writes in a
// single transaction so that task status always mirrors session state.
type SessionRepository interface {
	// Open returns the existing open session for the candidate's
	// (task, user) pair, resuming it when paused, or creates the candidate
	// as a new active session. The open-session lookup and the insert run
	// in the same transaction, backed by the unique (task_id, user_id,
	// is_open) index; the task row is moved to IN_PROGRESS there too. The
	// outcome reports whether the session was created, resumed or reused.
	Open(candidate *models.WorkSession, now time.Time) (*models.WorkSession, OpenOutcome, error)

	// Pause marks an active session paused and banks the elapsed active
	// segment. The task status is left untouched.
	Pause(sessionID string, now time.Time) (*models.WorkSession, error)

	// CompleteWithSubmission closes the session and, in the same
	// transaction, moves the task to QA with the submission payload.
	CompleteWithSubmission(sessionID string, note string, attachments []models.Attachment, now time.Time) (*models.WorkSession, error)

	// FindByID finds a session by ID
	FindByID(id string) (*models.WorkSession, error)

	// FindOpen finds the open (active or paused) session for a task/user
	// pair, if any
	FindOpen(taskID, userID uint64) (*models.WorkSession, error)

	// ListByTask lists all sessions recorded for a task
	ListByTask(taskID uint64) ([]models.WorkSession, error)

	// ListOpenByTeam lists open sessions across a team, newest first
	ListOpenByTeam(teamID uint64) ([]models.WorkSession, error)
}

// CommentRepository defines the interface for comment data access
type CommentRepository interface {
	// Create creates a new comment
	Create(comment *models.Comment) error

	// FindByID finds a comment by ID
	FindByID(id uint64) (*models.Comment, error)

	// ListByTask lists comments of a task in creation order
	ListByTask(taskID uint64) ([]models.Comment, error)

	// Update updates a comment
	Update(comment *models.Comment) error

	// Delete soft deletes a comment
	Delete(id uint64) error
}

// NotificationRepository defines the interface for inbox data access
type NotificationRepository interface {
	// Create stores an inbox record
	Create(notification *models.Notification) error

	// ListByUser lists a user's notifications, newest first
	ListByUser(userID uint64, limit int) ([]models.Notification, error)

	// MarkRead marks one of the user's notifications as read
	MarkRead(userID uint64, notificationID string) error

	// CountUnread counts a user's unread notifications
	CountUnread(userID uint64) (int64, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// CountByIDsInTeam counts how many of the given user IDs are members
	// of the team
	CountByIDsInTeam(userIDs []uint64, teamID uint64) (int64, error)
}
