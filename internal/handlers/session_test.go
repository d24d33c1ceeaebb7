package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/constants"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/repository"
	"github.com/teamdesk/taskflow-api/internal/services"
)

// SessionHandlerTestSuite defines the test suite for SessionHandler
type SessionHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *SessionHandler

	team   *models.Team
	owner  *models.User
	worker *models.User
	task   *models.Task
}

// SetupTest runs before each test
func (suite *SessionHandlerTestSuite) SetupTest() {
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

	sessionService := services.NewSessionService(
		repository.NewSessionRepository(suite.db),
		repository.NewTaskRepository(suite.db),
		repository.NewProjectRepository(suite.db),
		repository.NewTeamRepository(suite.db),
		nil,
	)
	suite.handler = NewSessionHandler(sessionService)

	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Seed a team with an owner, a worker and an assigned task
	suite.owner = &models.User{Username: "owner", DisplayName: "owner", PasswordHash: "x"}
	suite.worker = &models.User{Username: "worker", DisplayName: "worker", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(suite.owner).Error)
	suite.Require().NoError(suite.db.Create(suite.worker).Error)

	suite.team = &models.Team{Name: "Team", InviteCode: "TEAM_CODE", TaskCounter: 1}
	suite.Require().NoError(suite.db.Create(suite.team).Error)
	for _, m := range []*models.TeamMember{
		{TeamID: suite.team.ID, UserID: suite.owner.ID, Role: models.RoleOwner, JoinedAt: time.Now()},
		{TeamID: suite.team.ID, UserID: suite.worker.ID, Role: models.RoleMember, JoinedAt: time.Now()},
	} {
		suite.Require().NoError(suite.db.Create(m).Error)
	}

	project := &models.Project{TeamID: suite.team.ID, Title: "Project", Status: models.ProjectStatusActive, CreatorID: suite.owner.ID}
	suite.Require().NoError(suite.db.Create(project).Error)

	suite.task = &models.Task{
		TeamID:         suite.team.ID,
		ProjectID:      project.ID,
		SequenceNumber: 1,
		DisplayLabel:   "T-1",
		Title:          "Task",
		Priority:       models.PriorityMedium,
		Status:         models.TaskStatusOpen,
		CreatorID:      suite.owner.ID,
	}
	suite.Require().NoError(suite.db.Create(suite.task).Error)
	suite.Require().NoError(suite.db.Create(&models.TaskAssignment{TaskID: suite.task.ID, UserID: suite.worker.ID}).Error)
}

// TearDownTest runs after each test
func (suite *SessionHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper function to create authenticated context
func (suite *SessionHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func (suite *SessionHandlerTestSuite) startSession(userID uint64) string {
	c, w := suite.createAuthContext("POST", "/api/tasks/1/sessions", nil, userID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(suite.task.ID, 10)}}

	suite.handler.Start(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	return response["id"].(string)
}

// TestStart_Success tests starting a work session
func (suite *SessionHandlerTestSuite) TestStart_Success() {
	c, w := suite.createAuthContext("POST", "/api/tasks/1/sessions", nil, suite.worker.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(suite.task.ID, 10)}}

	suite.handler.Start(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "active", response["status"])
	assert.NotEmpty(suite.T(), response["id"])

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, suite.task.ID).Error)
	assert.Equal(suite.T(), models.TaskStatusInProgress, reloaded.Status)
}

// TestStart_SecondCallReturnsSameSession tests start idempotency
func (suite *SessionHandlerTestSuite) TestStart_SecondCallReturnsSameSession() {
	first := suite.startSession(suite.worker.ID)
	second := suite.startSession(suite.worker.ID)

	assert.Equal(suite.T(), first, second)
}

// TestStart_UnassignedForbidden tests start permissions
func (suite *SessionHandlerTestSuite) TestStart_UnassignedForbidden() {
	other := &models.User{Username: "other", PasswordHash: "x"}
	suite.Require().NoError(suite.db.Create(other).Error)
	suite.Require().NoError(suite.db.Create(&models.TeamMember{
		TeamID: suite.team.ID, UserID: other.ID, Role: models.RoleMember, JoinedAt: time.Now(),
	}).Error)

	c, w := suite.createAuthContext("POST", "/api/tasks/1/sessions", nil, other.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(suite.task.ID, 10)}}

	suite.handler.Start(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestPause_Success tests pausing a session
func (suite *SessionHandlerTestSuite) TestPause_Success() {
	sessionID := suite.startSession(suite.worker.ID)

	c, w := suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/pause", nil, suite.worker.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}

	suite.handler.Pause(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "paused", response["status"])
}

// TestPause_NotOwnerForbidden tests pause ownership
func (suite *SessionHandlerTestSuite) TestPause_NotOwnerForbidden() {
	sessionID := suite.startSession(suite.worker.ID)

	c, w := suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/pause", nil, suite.owner.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}

	suite.handler.Pause(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestSubmit_Success tests completing a session with a submission
func (suite *SessionHandlerTestSuite) TestSubmit_Success() {
	sessionID := suite.startSession(suite.worker.ID)

	body, _ := json.Marshal(map[string]string{"note": "done and verified"})
	c, w := suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/submit", body, suite.worker.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}

	suite.handler.Submit(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response struct {
		Session       map[string]interface{} `json:"session"`
		ActiveSeconds int64                  `json:"active_seconds"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(suite.T(), "completed", response.Session["status"])

	var reloaded models.Task
	suite.Require().NoError(suite.db.First(&reloaded, suite.task.ID).Error)
	assert.Equal(suite.T(), models.TaskStatusQA, reloaded.Status)
	suite.Require().NotNil(reloaded.SubmissionNote)
	assert.Equal(suite.T(), "done and verified", *reloaded.SubmissionNote)
}

// TestSubmit_MissingNoteRejected tests submission validation
func (suite *SessionHandlerTestSuite) TestSubmit_MissingNoteRejected() {
	sessionID := suite.startSession(suite.worker.ID)

	body, _ := json.Marshal(map[string]string{})
	c, w := suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/submit", body, suite.worker.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}

	suite.handler.Submit(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestSubmit_AlreadyCompletedConflict tests double submission
func (suite *SessionHandlerTestSuite) TestSubmit_AlreadyCompletedConflict() {
	sessionID := suite.startSession(suite.worker.ID)

	body, _ := json.Marshal(map[string]string{"note": "done"})
	c, w := suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/submit", body, suite.worker.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}
	suite.handler.Submit(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/submit", body, suite.worker.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}
	suite.handler.Submit(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestListByTask_ReturnsAuditTrail tests the session history endpoint
func (suite *SessionHandlerTestSuite) TestListByTask_ReturnsAuditTrail() {
	sessionID := suite.startSession(suite.worker.ID)

	body, _ := json.Marshal(map[string]string{"note": "done"})
	c, w := suite.createAuthContext("POST", "/api/sessions/"+sessionID+"/submit", body, suite.worker.ID)
	c.Params = gin.Params{{Key: "sessionId", Value: sessionID}}
	suite.handler.Submit(c)
	suite.Require().Equal(http.StatusOK, w.Code)

	c, w = suite.createAuthContext("GET", "/api/tasks/1/sessions", nil, suite.worker.ID)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(suite.task.ID, 10)}}
	suite.handler.ListByTask(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response struct {
		Sessions []map[string]interface{} `json:"sessions"`
	}
	suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	suite.Require().Len(response.Sessions, 1)
	assert.Equal(suite.T(), "completed", response.Sessions[0]["status"])
}

// TestSessionHandlerTestSuite runs the test suite
func TestSessionHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(SessionHandlerTestSuite))
}
