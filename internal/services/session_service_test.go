package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/notifier"
	"github.com/teamdesk/taskflow-api/internal/repository"
)

// SessionServiceTestSuite defines the test suite for SessionService
type SessionServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *SessionService
	tasks   *TaskService

	// clock is the injected time source; tests advance it to simulate the
	// passage of working time.
	clock time.Time
}

// SetupTest runs before each test
func (suite *SessionServiceTestSuite) SetupTest() {
	var err error

	// Create in-memory SQLite database
	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	// Run migrations
	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.Project{},
		&models.Task{},
		&models.TaskAssignment{},
		&models.TaskLink{},
		&models.Attachment{},
		&models.WorkSession{},
		&models.Comment{},
		&models.Notification{},
	)
	suite.Require().NoError(err)

	taskRepo := repository.NewTaskRepository(suite.db)
	projectRepo := repository.NewProjectRepository(suite.db)
	teamRepo := repository.NewTeamRepository(suite.db)
	sessionRepo := repository.NewSessionRepository(suite.db)

	suite.clock = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	suite.service = NewSessionService(sessionRepo, taskRepo, projectRepo, teamRepo, nil)
	suite.service.now = func() time.Time { return suite.clock }

	suite.tasks = NewTaskService(taskRepo, projectRepo, teamRepo,
		repository.NewUserRepository(suite.db), sessionRepo, nil)
}

// TearDownTest runs after each test
func (suite *SessionServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// advance moves the injected clock forward.
func (suite *SessionServiceTestSuite) advance(d time.Duration) {
	suite.clock = suite.clock.Add(d)
}

// seedTask creates a team, project and an assigned open task.
func (suite *SessionServiceTestSuite) seedTask() (*models.Task, *models.User, *models.User) {
	owner := &models.User{Username: "owner", DisplayName: "owner", PasswordHash: "x"}
	worker := &models.User{Username: "worker", DisplayName: "worker", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(owner).Error)
	suite.Require().NoError(suite.db.Create(worker).Error)

	team := &models.Team{Name: "Team", InviteCode: "TEAM_CODE"}
	suite.Require().NoError(suite.db.Create(team).Error)

	for _, m := range []*models.TeamMember{
		{TeamID: team.ID, UserID: owner.ID, Role: models.RoleOwner, JoinedAt: suite.clock},
		{TeamID: team.ID, UserID: worker.ID, Role: models.RoleMember, JoinedAt: suite.clock},
	} {
		suite.Require().NoError(suite.db.Create(m).Error)
	}

	project := &models.Project{TeamID: team.ID, Title: "Project", Status: models.ProjectStatusActive, CreatorID: owner.ID}
	suite.Require().NoError(suite.db.Create(project).Error)

	task, err := suite.tasks.CreateTask(CreateTaskInput{
		TeamID:      team.ID,
		ProjectID:   project.ID,
		Title:       "Task",
		CreatorID:   owner.ID,
		AssigneeIDs: []uint64{worker.ID},
	})
	suite.Require().NoError(err)

	return task, owner, worker
}

// TestStartOrResume_CreatesSessionAndMovesTask verifies starting work opens
// an active session and the task lands in InProgress.
func (suite *SessionServiceTestSuite) TestStartOrResume_CreatesSessionAndMovesTask() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)

	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.SessionStatusActive, session.Status)
	assert.Equal(suite.T(), worker.ID, session.UserID)
	assert.True(suite.T(), session.StartedAt.Equal(suite.clock))

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), models.TaskStatusInProgress, reloaded.Status)
}

// TestStartOrResume_IsIdempotentWhileActive verifies a duplicate start
// returns the same session instead of opening a second one.
func (suite *SessionServiceTestSuite) TestStartOrResume_IsIdempotentWhileActive() {
	task, _, worker := suite.seedTask()

	first, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	suite.advance(5 * time.Minute)

	second, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), first.ID, second.ID)

	var count int64
	suite.db.Model(&models.WorkSession{}).
		Where("task_id = ? AND user_id = ?", task.ID, worker.ID).
		Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

// TestStartOrResume_DuplicateStartNotifiesOnce verifies the no-op second
// start also skips the work-started notification; the decision comes from
// the open outcome, not from a separate racy pre-check.
func (suite *SessionServiceTestSuite) TestStartOrResume_DuplicateStartNotifiesOnce() {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	suite.service.dispatcher = notifier.NewDispatcher(
		repository.NewNotificationRepository(suite.db),
		repository.NewTeamRepository(suite.db),
		NewDirectoryService(repository.NewUserRepository(suite.db), log),
		nil,
		log,
	)

	task, _, worker := suite.seedTask()

	_, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)
	_, err = suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	suite.service.dispatcher.Flush()

	var count int64
	suite.db.Model(&models.Notification{}).Count(&count)
	assert.Equal(suite.T(), int64(1), count)
}

// TestStartOrResume_ForbiddenForUnassigned verifies only assignees or the
// project creator may start work.
func (suite *SessionServiceTestSuite) TestStartOrResume_ForbiddenForUnassigned() {
	task, _, _ := suite.seedTask()

	other := &models.User{Username: "other", DisplayName: "other", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(other).Error)
	suite.Require().NoError(suite.db.Create(&models.TeamMember{
		TeamID: task.TeamID, UserID: other.ID, Role: models.RoleMember, JoinedAt: suite.clock,
	}).Error)

	_, err := suite.service.StartOrResume(task.ID, other.ID)

	assert.ErrorIs(suite.T(), err, ErrNotPermitted)
}

// TestStartOrResume_RejectedForCompletedTask verifies terminal tasks cannot
// be worked on.
func (suite *SessionServiceTestSuite) TestStartOrResume_RejectedForCompletedTask() {
	task, _, worker := suite.seedTask()
	suite.Require().NoError(suite.db.Model(&models.Task{}).
		Where("id = ?", task.ID).
		Update("status", models.TaskStatusCompleted).Error)

	_, err := suite.service.StartOrResume(task.ID, worker.ID)

	var transitionErr *InvalidTransitionError
	assert.ErrorAs(suite.T(), err, &transitionErr)
}

// TestPause_KeepsTaskInProgress verifies pausing only flips the session.
func (suite *SessionServiceTestSuite) TestPause_KeepsTaskInProgress() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	suite.advance(10 * time.Minute)

	paused, err := suite.service.Pause(session.ID, worker.ID)
	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.SessionStatusPaused, paused.Status)
	assert.Equal(suite.T(), int64(600), paused.AccumulatedSeconds)
	assert.Nil(suite.T(), paused.LastResumedAt)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), models.TaskStatusInProgress, reloaded.Status)
}

// TestPause_OnlyOwnerMayPause verifies another user cannot pause a session.
func (suite *SessionServiceTestSuite) TestPause_OnlyOwnerMayPause() {
	task, owner, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	_, err = suite.service.Pause(session.ID, owner.ID)

	assert.ErrorIs(suite.T(), err, ErrNotSessionOwner)
}

// TestPause_TwiceRejected verifies pausing a paused session fails.
func (suite *SessionServiceTestSuite) TestPause_TwiceRejected() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	_, err = suite.service.Pause(session.ID, worker.ID)
	suite.Require().NoError(err)

	_, err = suite.service.Pause(session.ID, worker.ID)
	assert.ErrorIs(suite.T(), err, ErrSessionNotActive)
}

// TestStartOrResume_ResumesPausedSession verifies a paused session is resumed
// in place: same ID, same StartedAt, accumulated time preserved.
func (suite *SessionServiceTestSuite) TestStartOrResume_ResumesPausedSession() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)
	startedAt := session.StartedAt

	suite.advance(10 * time.Minute)
	_, err = suite.service.Pause(session.ID, worker.ID)
	suite.Require().NoError(err)

	suite.advance(30 * time.Minute)
	resumed, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	assert.Equal(suite.T(), session.ID, resumed.ID)
	assert.Equal(suite.T(), models.SessionStatusActive, resumed.Status)
	assert.True(suite.T(), resumed.StartedAt.Equal(startedAt))
	assert.Equal(suite.T(), int64(600), resumed.AccumulatedSeconds)
}

// TestStopOrSubmit_ReportsActiveTimeNotWallClock walks a start/pause/resume/
// submit sequence and checks the reported duration excludes the pause.
func (suite *SessionServiceTestSuite) TestStopOrSubmit_ReportsActiveTimeNotWallClock() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	// 10 minutes of work, a 30 minute break, then 5 more minutes.
	suite.advance(10 * time.Minute)
	_, err = suite.service.Pause(session.ID, worker.ID)
	suite.Require().NoError(err)

	suite.advance(30 * time.Minute)
	_, err = suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	suite.advance(5 * time.Minute)
	completed, duration, err := suite.service.StopOrSubmit(session.ID, worker.ID, "done", nil)

	suite.Require().NoError(err)
	assert.Equal(suite.T(), models.SessionStatusCompleted, completed.Status)
	assert.Equal(suite.T(), 15*time.Minute, duration)
	suite.Require().NotNil(completed.EndedAt)

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, task.ID).Error)
	assert.Equal(suite.T(), models.TaskStatusQA, reloaded.Status)
	suite.Require().NotNil(reloaded.SubmissionNote)
	assert.Equal(suite.T(), "done", *reloaded.SubmissionNote)
	suite.Require().NotNil(reloaded.SubmittedByID)
	assert.Equal(suite.T(), worker.ID, *reloaded.SubmittedByID)
}

// TestStopOrSubmit_CompletedSessionRejected verifies double submission fails.
func (suite *SessionServiceTestSuite) TestStopOrSubmit_CompletedSessionRejected() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	_, _, err = suite.service.StopOrSubmit(session.ID, worker.ID, "done", nil)
	suite.Require().NoError(err)

	_, _, err = suite.service.StopOrSubmit(session.ID, worker.ID, "again", nil)
	assert.ErrorIs(suite.T(), err, ErrSessionNotOpen)
}

// TestStopOrSubmit_StoresSubmissionAttachments verifies attachment rows are
// written with the submission owner type.
func (suite *SessionServiceTestSuite) TestStopOrSubmit_StoresSubmissionAttachments() {
	task, _, worker := suite.seedTask()

	session, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	_, _, err = suite.service.StopOrSubmit(session.ID, worker.ID, "done", []models.Attachment{
		{Name: "result.png", URL: "/uploads/result.png", Kind: models.AttachmentKindImage},
	})
	suite.Require().NoError(err)

	var attachments []models.Attachment
	suite.Require().NoError(suite.db.
		Where("owner_type = ? AND owner_id = ?", models.AttachmentOwnerSubmission, task.ID).
		Find(&attachments).Error)
	suite.Require().Len(attachments, 1)
	assert.Equal(suite.T(), "result.png", attachments[0].Name)
}

// TestListOpenByTeam_ShowsWhoIsWorking verifies the team activity view.
func (suite *SessionServiceTestSuite) TestListOpenByTeam_ShowsWhoIsWorking() {
	task, owner, worker := suite.seedTask()

	_, err := suite.service.StartOrResume(task.ID, worker.ID)
	suite.Require().NoError(err)

	sessions, err := suite.service.ListOpenByTeam(task.TeamID, owner.ID)
	suite.Require().NoError(err)
	suite.Require().Len(sessions, 1)
	assert.Equal(suite.T(), worker.ID, sessions[0].UserID)

	// Completed sessions drop out of the view.
	_, _, err = suite.service.StopOrSubmit(sessions[0].ID, worker.ID, "done", nil)
	suite.Require().NoError(err)

	sessions, err = suite.service.ListOpenByTeam(task.TeamID, owner.ID)
	suite.Require().NoError(err)
	assert.Len(suite.T(), sessions, 0)
}

// TestListOpenByTeam_RequiresMembership verifies outsiders cannot see the
// team activity view.
func (suite *SessionServiceTestSuite) TestListOpenByTeam_RequiresMembership() {
	task, _, _ := suite.seedTask()

	stranger := &models.User{Username: "stranger", DisplayName: "stranger", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(stranger).Error)

	_, err := suite.service.ListOpenByTeam(task.TeamID, stranger.ID)

	assert.ErrorIs(suite.T(), err, ErrNotTeamMember)
}

// TestSessionServiceTestSuite runs the test suite
func TestSessionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}
