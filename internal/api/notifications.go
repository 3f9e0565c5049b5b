package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/laimu/erptracker/internal/apperr"
	"github.com/laimu/erptracker/internal/middleware"
	"github.com/laimu/erptracker/internal/repository"
	"go.uber.org/zap"
)

// NotificationHandler only ever touches the caller's own notifications.
type NotificationHandler struct {
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewNotificationHandler(notifications repository.NotificationRepository, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// List handles GET /v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.notifications.ListForUser(c.Request.Context(), middleware.GetPrincipalID(c))
	if err != nil {
		respondError(c, h.logger, apperr.RemoteRead("list notifications", err))
		return
	}
	unread := 0
	for _, n := range items {
		if !n.IsRead {
			unread++
		}
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items, "unread": unread})
}

// MarkRead handles POST /v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id := c.Param("id")
	found, err := h.notifications.MarkRead(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("mark notification read", err))
		return
	}
	if !found {
		respondError(c, h.logger, notFound("notification", id))
		return
	}
	c.Status(http.StatusNoContent)
}

// Delete handles DELETE /v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	found, err := h.notifications.Delete(c.Request.Context(), middleware.GetPrincipalID(c), id)
	if err != nil {
		respondError(c, h.logger, apperr.RemoteWrite("delete notification", err))
		return
	}
	if !found {
		respondError(c, h.logger, notFound("notification", id))
		return
	}
	c.Status(http.StatusNoContent)
}
