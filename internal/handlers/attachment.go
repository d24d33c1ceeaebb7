package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/teamdesk/taskflow-api/internal/blobstore"
	apierrors "github.com/teamdesk/taskflow-api/internal/errors"
	"github.com/teamdesk/taskflow-api/internal/middleware"
)

// maxUploadBytes caps a single uploaded file.
const maxUploadBytes = 25 << 20

// AttachmentHandler handles blob uploads. The returned URL is what clients
// pass back as an attachment reference when creating tasks, submissions,
// revision feedback or comments.
type AttachmentHandler struct {
	store blobstore.Store
	log   *logrus.Logger
}

// NewAttachmentHandler creates a new AttachmentHandler.
func NewAttachmentHandler(store blobstore.Store, log *logrus.Logger) *AttachmentHandler {
	return &AttachmentHandler{
		store: store,
		log:   log,
	}
}

// Upload handles POST /api/attachments
func (h *AttachmentHandler) Upload(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A file is required")
		return
	}
	if fileHeader.Size > maxUploadBytes {
		apierrors.BadRequest(c, "File is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		apierrors.BadRequest(c, "Failed to read uploaded file")
		return
	}

	name := filepath.Base(fileHeader.Filename)
	path := fmt.Sprintf("%d/%s/%s", userID, uuid.New().String(), name)

	url, err := h.store.Upload(c.Request.Context(), data, path)
	if err != nil {
		h.log.WithError(err).WithField("user_id", userID).Error("blob upload failed")
		apierrors.ServiceUnavailable(c, "File storage is temporarily unavailable")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"name":        name,
		"url":         url,
		"kind":        kindForFilename(name),
		"uploaded_at": time.Now().UTC(),
	})
}

func kindForFilename(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg":
		return "image"
	}
	return "file"
}
