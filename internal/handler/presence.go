package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type PresenceHandler struct {
	presenceService service.PresenceService
	log             logger.Logger
}

func NewPresenceHandler(presenceService service.PresenceService, log logger.Logger) *PresenceHandler {
	return &PresenceHandler{
		presenceService: presenceService,
		log:             log,
	}
}

// Online возвращает полный набор отслеживаемых ключей (sync-снимок).
// Набор советующий: пользователь может еще числиться онлайн после обрыва.
func (h *PresenceHandler) Online(c *gin.Context) {
	online, err := h.presenceService.Online(c.Request.Context())
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"online": online})
}
