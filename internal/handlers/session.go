package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk/taskflow-api/internal/dto"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/services"
)

// SessionHandler handles work session endpoints.
type SessionHandler struct {
	sessionService *services.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
	}
}

// Start handles POST /api/tasks/:id/sessions. Starting work on a task you
// already have an open session for resumes or returns that session.
func (h *SessionHandler) Start(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	session, err := h.sessionService.StartOrResume(taskID, userID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session, time.Now()))
}

// Pause handles POST /api/sessions/:sessionId/pause
func (h *SessionHandler) Pause(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		apierrors.BadRequest(c, "Session ID is required")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	session, err := h.sessionService.Pause(sessionID, userID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session, time.Now()))
}

// Submit handles POST /api/sessions/:sessionId/submit. It completes the
// session and moves the task to QA with the submission payload.
func (h *SessionHandler) Submit(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		apierrors.BadRequest(c, "Session ID is required")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Note        string              `json:"note" binding:"required"`
		Attachments []attachmentRequest `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "A submission note is required")
		return
	}

	session, duration, err := h.sessionService.StopOrSubmit(sessionID, userID, req.Note, toAttachmentModels(req.Attachments))
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":        dto.ToSessionResponse(session, time.Now()),
		"active_seconds": int64(duration.Seconds()),
	})
}

// Get handles GET /api/sessions/:sessionId
func (h *SessionHandler) Get(c *gin.Context) {
	sessionID := c.Param("sessionId")
	if sessionID == "" {
		apierrors.BadRequest(c, "Session ID is required")
		return
	}

	session, err := h.sessionService.GetSession(sessionID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSessionResponse(session, time.Now()))
}

// ListByTask handles GET /api/tasks/:id/sessions
func (h *SessionHandler) ListByTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	sessions, err := h.sessionService.ListByTask(taskID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": toSessionResponses(sessions)})
}

func toSessionResponses(sessions []models.WorkSession) []dto.SessionResponse {
	now := time.Now()
	responses := make([]dto.SessionResponse, 0, len(sessions))
	for i := range sessions {
		responses = append(responses, dto.ToSessionResponse(&sessions[i], now))
	}
	return responses
}

// respondSessionError maps session service errors to HTTP responses.
func respondSessionError(c *gin.Context, err error) {
	var transitionErr *services.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		apierrors.InvalidTransition(c, transitionErr.Error())
		return
	}

	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		apierrors.NotFound(c, "Work session not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrNotSessionOwner):
		apierrors.Forbidden(c, "Only the session owner can modify it")
	case errors.Is(err, services.ErrNotPermitted):
		apierrors.Forbidden(c, "Not permitted to work on this task")
	case errors.Is(err, services.ErrNotTeamMember):
		apierrors.Forbidden(c, "Not a member of this team")
	case errors.Is(err, services.ErrSessionNotOpen):
		apierrors.Conflict(c, "Work session is already completed")
	case errors.Is(err, services.ErrSessionNotActive):
		apierrors.Conflict(c, "Work session is not active")
	default:
		apierrors.InternalError(c, "")
	}
}
