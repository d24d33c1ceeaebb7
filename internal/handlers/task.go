package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk/taskflow-api/internal/constants"
	"github.com/teamdesk/taskflow-api/internal/dto"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/services"
)

// TaskHandler handles task endpoints.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// attachmentRequest is the wire form of an attachment reference.
type attachmentRequest struct {
	Name string `json:"name" binding:"required"`
	URL  string `json:"url" binding:"required"`
	Kind string `json:"kind"`
}

func toAttachmentModels(reqs []attachmentRequest) []models.Attachment {
	attachments := make([]models.Attachment, 0, len(reqs))
	for _, r := range reqs {
		kind := models.AttachmentKind(r.Kind)
		if kind != models.AttachmentKindImage {
			kind = models.AttachmentKindFile
		}
		attachments = append(attachments, models.Attachment{
			Name: r.Name,
			URL:  r.URL,
			Kind: kind,
		})
	}
	return attachments
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		TeamID       uint64              `json:"team_id" binding:"required"`
		ProjectID    uint64              `json:"project_id" binding:"required"`
		Title        string              `json:"title" binding:"required"`
		Description  string              `json:"description"`
		Priority     models.TaskPriority `json:"priority"`
		DisplayLabel string              `json:"display_label"`
		AssigneeIDs  []uint64            `json:"assignee_ids"`
		Links        []string            `json:"links"`
		Metadata     map[string]string   `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "team_id, project_id and title are required")
		return
	}

	if req.Priority != "" && !validPriority(req.Priority) {
		apierrors.BadRequest(c, "Invalid priority")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		TeamID:       req.TeamID,
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DisplayLabel: req.DisplayLabel,
		AssigneeIDs:  req.AssigneeIDs,
		Links:        req.Links,
		Metadata:     req.Metadata,
		CreatorID:    userID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskResponse(task))
}

// Get handles GET /api/tasks/:id
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// GetByKey handles GET /api/teams/:id/tasks/:seq, resolving a task by its
// public "{teamID}-{sequenceNumber}" key.
func (h *TaskHandler) GetByKey(c *gin.Context) {
	teamID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	seq, err := strconv.ParseUint(c.Param("seq"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid sequence number")
		return
	}

	task, err := h.taskService.GetTaskByKey(teamID, seq)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// List handles GET /api/tasks
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	input := services.ListTasksInput{
		UserID:       userID,
		AssignedToMe: c.Query("assigned_to_me") == "true",
		Page:         parseIntQuery(c, "page", constants.MinPageSize),
		PageSize:     parseIntQuery(c, "page_size", constants.DefaultPageSize),
	}

	if v := c.Query("team_id"); v != "" {
		teamID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid team_id parameter")
			return
		}
		input.TeamID = &teamID
	}
	if v := c.Query("project_id"); v != "" {
		projectID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id parameter")
			return
		}
		input.ProjectID = &projectID
	}
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !validStatus(status) {
			apierrors.BadRequest(c, "Invalid status parameter")
			return
		}
		input.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		if !validPriority(priority) {
			apierrors.BadRequest(c, "Invalid priority parameter")
			return
		}
		input.Priority = &priority
	}

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	responses := make([]dto.TaskResponse, 0, len(tasks))
	for i := range tasks {
		responses = append(responses, dto.ToTaskResponse(&tasks[i]))
	}

	c.JSON(http.StatusOK, dto.TaskListResponse{
		Tasks:    responses,
		Total:    total,
		Page:     input.Page,
		PageSize: input.PageSize,
	})
}

// Update handles PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title        *string              `json:"title"`
		Description  *string              `json:"description"`
		Priority     *models.TaskPriority `json:"priority"`
		DisplayLabel *string              `json:"display_label"`
		Links        *[]string            `json:"links"`
		Metadata     map[string]string    `json:"metadata"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Priority != nil && !validPriority(*req.Priority) {
		apierrors.BadRequest(c, "Invalid priority")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, services.UpdateTaskInput{
		Title:        req.Title,
		Description:  req.Description,
		Priority:     req.Priority,
		DisplayLabel: req.DisplayLabel,
		Links:        req.Links,
		Metadata:     req.Metadata,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// Assign handles POST /api/tasks/:id/assignees
func (h *TaskHandler) Assign(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "user_ids is required")
		return
	}

	if err := h.taskService.AssignUsers(taskID, userID, req.UserIDs); err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// Unassign handles DELETE /api/tasks/:id/assignees
func (h *TaskHandler) Unassign(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		UserIDs []uint64 `json:"user_ids" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "user_ids is required")
		return
	}

	if err := h.taskService.UnassignUsers(taskID, userID, req.UserIDs); err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

// Transition handles POST /api/tasks/:id/transition
func (h *TaskHandler) Transition(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Status                models.TaskStatus   `json:"status" binding:"required"`
		SubmissionNote        string              `json:"submission_note"`
		SubmissionAttachments []attachmentRequest `json:"submission_attachments"`
		RevisionReason        string              `json:"revision_reason"`
		RevisionAttachments   []attachmentRequest `json:"revision_attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "status is required")
		return
	}

	if !validStatus(req.Status) {
		apierrors.BadRequest(c, "Invalid status")
		return
	}

	task, err := h.taskService.TransitionStatus(taskID, userID, req.Status, services.TransitionInput{
		SubmissionNote:        req.SubmissionNote,
		SubmissionAttachments: toAttachmentModels(req.SubmissionAttachments),
		RevisionReason:        req.RevisionReason,
		RevisionAttachments:   toAttachmentModels(req.RevisionAttachments),
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskResponse(task))
}

func validStatus(s models.TaskStatus) bool {
	switch s {
	case models.TaskStatusOpen, models.TaskStatusInProgress, models.TaskStatusQA,
		models.TaskStatusRevision, models.TaskStatusCompleted:
		return true
	}
	return false
}

func validPriority(p models.TaskPriority) bool {
	switch p {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
		return true
	}
	return false
}

func parseIntQuery(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// respondTaskError maps task service errors to HTTP responses.
func respondTaskError(c *gin.Context, err error) {
	var transitionErr *services.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		apierrors.InvalidTransition(c, transitionErr.Error())
		return
	}

	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, "Project not found")
	case errors.Is(err, services.ErrNotTeamMember):
		apierrors.Forbidden(c, "Not a member of this team")
	case errors.Is(err, services.ErrNotPermitted):
		apierrors.Forbidden(c, "Not permitted to perform this action")
	case errors.Is(err, services.ErrTitleRequired), errors.Is(err, services.ErrTitleEmpty):
		apierrors.BadRequest(c, "Title is required")
	case errors.Is(err, services.ErrInvalidAssignee):
		apierrors.BadRequest(c, "One or more users are not members of the team")
	case errors.Is(err, services.ErrLabelNotAllowed):
		apierrors.BadRequest(c, "Display label can only be set on the first task of a project")
	case errors.Is(err, services.ErrSubmissionRequired):
		apierrors.BadRequest(c, "A submission note is required")
	case errors.Is(err, services.ErrReasonRequired):
		apierrors.BadRequest(c, "Revision feedback with a reason is required")
	case errors.Is(err, services.ErrConflict):
		apierrors.Conflict(c, "The operation was aborted after repeated concurrent modification")
	default:
		apierrors.InternalError(c, "")
	}
}
