package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/models"
)

func openSessionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.Project{},
		&models.Task{},
		&models.Attachment{},
		&models.WorkSession{},
	))
	return db
}

// TestOpenSessionGuard_SchemaRejectsSecondOpenRow verifies the database
// itself enforces the single-open-session rule: two open rows for the same
// (task, user) pair violate the unique (task_id, user_id, is_open) index,
// independent of any application-level check. Completed rows carry NULL in
// the discriminator and may pile up freely as the audit trail.
func TestOpenSessionGuard_SchemaRejectsSecondOpenRow(t *testing.T) {
	db := openSessionTestDB(t)
	open := true

	first := &models.WorkSession{
		ID: "s-1", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7,
		Status: models.SessionStatusActive, StartedAt: time.Now(), Open: &open,
	}
	require.NoError(t, db.Create(first).Error)

	second := &models.WorkSession{
		ID: "s-2", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7,
		Status: models.SessionStatusActive, StartedAt: time.Now(), Open: &open,
	}
	assert.Error(t, db.Create(second).Error)

	var count int64
	db.Model(&models.WorkSession{}).
		Where("task_id = ? AND user_id = ? AND status IN ?",
			1, 7, []models.SessionStatus{models.SessionStatusActive, models.SessionStatusPaused}).
		Count(&count)
	assert.Equal(t, int64(1), count)

	// Completed rows never collide.
	for _, id := range []string{"s-3", "s-4"} {
		done := &models.WorkSession{
			ID: id, TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7,
			Status: models.SessionStatusCompleted, StartedAt: time.Now(),
		}
		require.NoError(t, db.Create(done).Error)
	}
}

// TestOpen_Outcomes pins the three Open outcomes: a fresh pair creates, a
// second start on an active session reuses, and a start on a paused session
// resumes without issuing a new identity.
func TestOpen_Outcomes(t *testing.T) {
	db := openSessionTestDB(t)
	repo := NewSessionRepository(db)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	candidate := &models.WorkSession{ID: "s-1", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7}
	created, outcome, err := repo.Open(candidate, now)
	require.NoError(t, err)
	assert.Equal(t, OpenCreated, outcome)
	assert.Equal(t, models.SessionStatusActive, created.Status)

	duplicate := &models.WorkSession{ID: "s-2", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7}
	reused, outcome, err := repo.Open(duplicate, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OpenReused, outcome)
	assert.Equal(t, "s-1", reused.ID)

	_, err = repo.Pause("s-1", now.Add(10*time.Minute))
	require.NoError(t, err)

	third := &models.WorkSession{ID: "s-3", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7}
	resumed, outcome, err := repo.Open(third, now.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, OpenResumed, outcome)
	assert.Equal(t, "s-1", resumed.ID)
	assert.True(t, resumed.StartedAt.Equal(now))
}

// TestOpen_DuplicateLoserReusesWinner drives Open against a mocked
// connection where a concurrent start commits between the lookup and the
// insert, so the insert fails on the unique open-session index. The loser
// must rerun, find the winner's row and reuse it instead of surfacing the
// duplicate-key error.
func TestOpen_DuplicateLoserReusesWinner(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	winner := sqlmock.NewRows([]string{"id", "task_id", "user_id", "status", "started_at", "is_open"}).
		AddRow("winner-id", 1, 7, "active", time.Now(), true)

	// First attempt: the lookup sees nothing, the insert loses the race.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `work_sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO `work_sessions`").
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry '1-7-1' for key 'idx_open_session_task_user'"))
	mock.ExpectRollback()

	// The winner's committed row is visible outside the aborted transaction.
	mock.ExpectQuery("SELECT \\* FROM `work_sessions`").
		WillReturnRows(winner)

	// Second attempt reuses it; only the task status write remains.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT \\* FROM `work_sessions`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "task_id", "user_id", "status", "started_at", "is_open"}).
			AddRow("winner-id", 1, 7, "active", time.Now(), true))
	mock.ExpectExec("UPDATE `tasks` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewSessionRepository(db)
	candidate := &models.WorkSession{ID: "loser-id", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7}

	session, outcome, err := repo.Open(candidate, time.Now())

	require.NoError(t, err)
	assert.Equal(t, OpenReused, outcome)
	assert.Equal(t, "winner-id", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestCompleteWithSubmission_FreesOpenSlot verifies completion clears the
// unique-index discriminator so the next start can open a fresh session
// while the completed row stays behind as history.
func TestCompleteWithSubmission_FreesOpenSlot(t *testing.T) {
	db := openSessionTestDB(t)
	repo := NewSessionRepository(db)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	first := &models.WorkSession{ID: "s-1", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7}
	_, _, err := repo.Open(first, now)
	require.NoError(t, err)

	_, err = repo.CompleteWithSubmission("s-1", "done", nil, now.Add(time.Hour))
	require.NoError(t, err)

	var completed models.WorkSession
	require.NoError(t, db.First(&completed, "id = ?", "s-1").Error)
	assert.Nil(t, completed.Open)

	second := &models.WorkSession{ID: "s-2", TeamID: 1, ProjectID: 1, TaskID: 1, UserID: 7}
	session, outcome, err := repo.Open(second, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, OpenCreated, outcome)
	assert.Equal(t, "s-2", session.ID)

	var total int64
	db.Model(&models.WorkSession{}).Where("task_id = ?", 1).Count(&total)
	assert.Equal(t, int64(2), total)
}
