package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/repository"
)

// CommentServiceTestSuite defines the test suite for CommentService
type CommentServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	service *CommentService

	team    *models.Team
	owner   *models.User
	member  *models.User
	project *models.Project
	task    *models.Task
}

// SetupTest runs before each test
func (suite *CommentServiceTestSuite) SetupTest() {
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

	suite.service = NewCommentService(
		repository.NewCommentRepository(suite.db),
		repository.NewTaskRepository(suite.db),
		repository.NewProjectRepository(suite.db),
		repository.NewTeamRepository(suite.db),
		nil,
	)

	suite.owner = &models.User{Username: "owner", DisplayName: "owner", PasswordHash: "x"}
	suite.member = &models.User{Username: "member", DisplayName: "member", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(suite.owner).Error)
	suite.Require().NoError(suite.db.Create(suite.member).Error)

	suite.team = &models.Team{Name: "Team", InviteCode: "TEAM_CODE"}
	suite.Require().NoError(suite.db.Create(suite.team).Error)
	for _, m := range []*models.TeamMember{
		{TeamID: suite.team.ID, UserID: suite.owner.ID, Role: models.RoleOwner, JoinedAt: time.Now()},
		{TeamID: suite.team.ID, UserID: suite.member.ID, Role: models.RoleMember, JoinedAt: time.Now()},
	} {
		suite.Require().NoError(suite.db.Create(m).Error)
	}

	suite.project = &models.Project{TeamID: suite.team.ID, Title: "Project", Status: models.ProjectStatusActive, CreatorID: suite.owner.ID}
	suite.Require().NoError(suite.db.Create(suite.project).Error)

	suite.task = &models.Task{
		TeamID:         suite.team.ID,
		ProjectID:      suite.project.ID,
		SequenceNumber: 1,
		DisplayLabel:   "T-1",
		Title:          "Task",
		Priority:       models.PriorityMedium,
		Status:         models.TaskStatusOpen,
		CreatorID:      suite.owner.ID,
	}
	suite.Require().NoError(suite.db.Create(suite.task).Error)
}

// TearDownTest runs after each test
func (suite *CommentServiceTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// TestPostComment_Success verifies a member can comment on a task.
func (suite *CommentServiceTestSuite) TestPostComment_Success() {
	comment, err := suite.service.PostComment(suite.task.ID, suite.member.ID, "looks good", nil)

	suite.Require().NoError(err)
	assert.Equal(suite.T(), "looks good", comment.Text)
	assert.Equal(suite.T(), suite.member.ID, comment.UserID)
	assert.Nil(suite.T(), comment.EditedAt)
}

// TestPostComment_EmptyTextRejected rejects blank comments.
func (suite *CommentServiceTestSuite) TestPostComment_EmptyTextRejected() {
	_, err := suite.service.PostComment(suite.task.ID, suite.member.ID, "   ", nil)

	assert.ErrorIs(suite.T(), err, ErrCommentTextEmpty)
}

// TestPostComment_NonMemberRejected rejects comments from outsiders.
func (suite *CommentServiceTestSuite) TestPostComment_NonMemberRejected() {
	stranger := &models.User{Username: "stranger", DisplayName: "stranger", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(stranger).Error)

	_, err := suite.service.PostComment(suite.task.ID, stranger.ID, "hi", nil)

	assert.ErrorIs(suite.T(), err, ErrNotTeamMember)
}

// TestPostComment_IgnoresTaskStatus verifies comments work on any status,
// including completed tasks.
func (suite *CommentServiceTestSuite) TestPostComment_IgnoresTaskStatus() {
	suite.Require().NoError(suite.db.Model(&models.Task{}).
		Where("id = ?", suite.task.ID).
		Update("status", models.TaskStatusCompleted).Error)

	_, err := suite.service.PostComment(suite.task.ID, suite.member.ID, "postmortem note", nil)

	assert.NoError(suite.T(), err)
}

// TestEditComment_AuthorOnly verifies edit permissions and the edit trail.
func (suite *CommentServiceTestSuite) TestEditComment_AuthorOnly() {
	comment, err := suite.service.PostComment(suite.task.ID, suite.member.ID, "draft", nil)
	suite.Require().NoError(err)

	_, err = suite.service.EditComment(comment.ID, suite.owner.ID, "hijacked")
	assert.ErrorIs(suite.T(), err, ErrNotCommentAuthor)

	edited, err := suite.service.EditComment(comment.ID, suite.member.ID, "final")
	suite.Require().NoError(err)
	assert.Equal(suite.T(), "final", edited.Text)
	suite.Require().NotNil(edited.EditedAt)
	suite.Require().NotNil(edited.EditedByID)
	assert.Equal(suite.T(), suite.member.ID, *edited.EditedByID)
}

// TestDeleteComment_AuthorOrAdmin verifies the author and project admins can
// delete, other members cannot.
func (suite *CommentServiceTestSuite) TestDeleteComment_AuthorOrAdmin() {
	other := &models.User{Username: "other", DisplayName: "other", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(other).Error)
	suite.Require().NoError(suite.db.Create(&models.TeamMember{
		TeamID: suite.team.ID, UserID: other.ID, Role: models.RoleMember, JoinedAt: time.Now(),
	}).Error)

	comment, err := suite.service.PostComment(suite.task.ID, suite.member.ID, "to be removed", nil)
	suite.Require().NoError(err)

	err = suite.service.DeleteComment(comment.ID, other.ID)
	assert.ErrorIs(suite.T(), err, ErrCannotDropComment)

	// The team owner acts as project admin.
	suite.Require().NoError(suite.service.DeleteComment(comment.ID, suite.owner.ID))

	comments, err := suite.service.ListComments(suite.task.ID)
	suite.Require().NoError(err)
	assert.Len(suite.T(), comments, 0)
}

// TestListComments_CreationOrder verifies the thread keeps insertion order.
func (suite *CommentServiceTestSuite) TestListComments_CreationOrder() {
	for _, text := range []string{"first", "second", "third"} {
		_, err := suite.service.PostComment(suite.task.ID, suite.member.ID, text, nil)
		suite.Require().NoError(err)
	}

	comments, err := suite.service.ListComments(suite.task.ID)

	suite.Require().NoError(err)
	suite.Require().Len(comments, 3)
	assert.Equal(suite.T(), "first", comments[0].Text)
	assert.Equal(suite.T(), "third", comments[2].Text)
}

// TestCommentServiceTestSuite runs the test suite
func TestCommentServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CommentServiceTestSuite))
}
