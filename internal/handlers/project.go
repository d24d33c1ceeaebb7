package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk/taskflow-api/internal/dto"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/models"
	"github.com/teamdesk/taskflow-api/internal/services"
)

// ProjectHandler handles project endpoints.
type ProjectHandler struct {
	projectService *services.ProjectService
	taskService    *services.TaskService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, taskService *services.TaskService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		taskService:    taskService,
	}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		TeamID uint64 `json:"team_id" binding:"required"`
		Title  string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "team_id and title are required")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		TeamID:    req.TeamID,
		Title:     req.Title,
		CreatorID: userID,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectTitleRequired):
			apierrors.BadRequest(c, "Project title is required")
		case errors.Is(err, services.ErrNotTeamMember):
			apierrors.Forbidden(c, "Not a member of this team")
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectResponse(project))
}

// List handles GET /api/teams/:id/projects
func (h *ProjectHandler) List(c *gin.Context) {
	teamID, _, ok := teamFromContext(c)
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	projects, err := h.projectService.ListProjects(teamID, userID)
	if err != nil {
		if errors.Is(err, services.ErrNotTeamMember) {
			apierrors.Forbidden(c, "Not a member of this team")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	responses := make([]dto.ProjectResponse, 0, len(projects))
	for i := range projects {
		responses = append(responses, dto.ToProjectResponse(&projects[i]))
	}

	c.JSON(http.StatusOK, gin.H{"projects": responses})
}

// Get handles GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProjectWithTasks(projectID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			apierrors.NotFound(c, "Project not found")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectResponse(project))
}

// Update handles PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req struct {
		Title  *string               `json:"title"`
		Status *models.ProjectStatus `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case models.ProjectStatusActive, models.ProjectStatusArchived:
		default:
			apierrors.BadRequest(c, "Invalid project status")
			return
		}
	}

	project, err := h.projectService.UpdateProject(projectID, services.UpdateProjectInput{
		Title:  req.Title,
		Status: req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			apierrors.NotFound(c, "Project not found")
		case errors.Is(err, services.ErrProjectTitleRequired):
			apierrors.BadRequest(c, "Project title cannot be empty")
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectResponse(project))
}

// Delete handles DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.taskService.DeleteProjectCascade(projectID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrProjectNotFound):
			apierrors.NotFound(c, "Project not found")
		case errors.Is(err, services.ErrNotPermitted):
			apierrors.Forbidden(c, "Only the project creator or a team owner can delete a project")
		default:
			apierrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// parseIDParam parses a numeric path parameter, responding 400 on failure.
func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return id, true
}
