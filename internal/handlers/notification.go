package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/teamdesk/taskflow-api/internal/dto"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
	"github.com/teamdesk/taskflow-api/internal/repository"
	"github.com/teamdesk/taskflow-api/internal/utils"
)

// NotificationHandler handles the per-user notification inbox.
type NotificationHandler struct {
	notificationRepo repository.NotificationRepository
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationRepo repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{
		notificationRepo: notificationRepo,
	}
}

// List handles GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	params := utils.GetPaginationParams(c)

	notifications, err := h.notificationRepo.ListByUser(userID, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	responses := make([]dto.NotificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, dto.ToNotificationResponse(&notifications[i]))
	}

	c.JSON(http.StatusOK, gin.H{"notifications": responses})
}

// MarkRead handles POST /api/notifications/:notificationId/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	notificationID := c.Param("notificationId")
	if notificationID == "" {
		apierrors.BadRequest(c, "Notification ID is required")
		return
	}

	if err := h.notificationRepo.MarkRead(userID, notificationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			apierrors.NotFound(c, "Notification not found")
			return
		}
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// UnreadCount handles GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	count, err := h.notificationRepo.CountUnread(userID)
	if err != nil {
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"unread": count})
}
