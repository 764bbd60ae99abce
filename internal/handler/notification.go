package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type NotificationHandler struct {
	notificationService service.NotificationService
	log                 logger.Logger
}

func NewNotificationHandler(notificationService service.NotificationService, log logger.Logger) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		log:                 log,
	}
}

// Recent возвращает последние уведомления текущего пользователя
func (h *NotificationHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	notifications, err := h.notificationService.Recent(c.Request.Context(), currentUserID(c), limit)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}
