package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamdesk/taskflow-api/internal/dto"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/services"
)

// CommentHandler handles comment endpoints.
type CommentHandler struct {
	commentService *services.CommentService
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *services.CommentService) *CommentHandler {
	return &CommentHandler{
		commentService: commentService,
	}
}

// Create handles POST /api/tasks/:id/comments
func (h *CommentHandler) Create(c *gin.Context) {
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
		Text        string              `json:"text" binding:"required"`
		Attachments []attachmentRequest `json:"attachments"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Comment text is required")
		return
	}

	comment, err := h.commentService.PostComment(taskID, userID, req.Text, toAttachmentModels(req.Attachments))
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCommentResponse(comment))
}

// List handles GET /api/tasks/:id/comments
func (h *CommentHandler) List(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(taskID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	responses := make([]dto.CommentResponse, 0, len(comments))
	for i := range comments {
		responses = append(responses, dto.ToCommentResponse(&comments[i]))
	}

	c.JSON(http.StatusOK, gin.H{"comments": responses})
}

// Update handles PATCH /api/comments/:commentId
func (h *CommentHandler) Update(c *gin.Context) {
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Comment text is required")
		return
	}

	comment, err := h.commentService.EditComment(commentID, userID, req.Text)
	if err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCommentResponse(comment))
}

// Delete handles DELETE /api/comments/:commentId
func (h *CommentHandler) Delete(c *gin.Context) {
	commentID, ok := parseIDParam(c, "commentId")
	if !ok {
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	if err := h.commentService.DeleteComment(commentID, userID); err != nil {
		respondCommentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}

// respondCommentError maps comment service errors to HTTP responses.
func respondCommentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, "Comment not found")
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, "Task not found")
	case errors.Is(err, services.ErrCommentTextEmpty):
		apierrors.BadRequest(c, "Comment text cannot be empty")
	case errors.Is(err, services.ErrNotTeamMember):
		apierrors.Forbidden(c, "Not a member of this team")
	case errors.Is(err, services.ErrNotCommentAuthor):
		apierrors.Forbidden(c, "Only the comment author can edit it")
	case errors.Is(err, services.ErrCannotDropComment):
		apierrors.Forbidden(c, "Only the author or a project admin can delete a comment")
	default:
		apierrors.InternalError(c, "")
	}
}
