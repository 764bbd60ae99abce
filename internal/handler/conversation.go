package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type ConversationHandler struct {
	conversationService service.ConversationService
	log                 logger.Logger
}

func NewConversationHandler(conversationService service.ConversationService, log logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
		log:                 log,
	}
}

type OpenConversationRequest struct {
	PeerID uuid.UUID `json:"peer_id" binding:"required"`
}

// Open разрешает (или лениво создает) разговор с собеседником.
// Повторные вызовы и вызовы с обеих сторон дают один и тот же id.
func (h *ConversationHandler) Open(c *gin.Context) {
	userID := currentUserID(c)

	var req OpenConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	conversation, err := h.conversationService.GetOrCreate(c.Request.Context(), userID, req.PeerID)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, conversation)
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	summaries, err := h.conversationService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summaries)
}

type SetFlagsRequest struct {
	Archived bool `json:"archived"`
	Starred  bool `json:"starred"`
}

func (h *ConversationHandler) SetFlags(c *gin.Context) {
	userID := currentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	var req SetFlagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	if err := h.conversationService.SetFlags(c.Request.Context(), conversationID, userID, req.Archived, req.Starred); err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Flags updated"})
}

// currentUserID достает id пользователя, положенный auth middleware-ом
func currentUserID(c *gin.Context) uuid.UUID {
	value, _ := c.Get("user_id")
	userID, _ := value.(uuid.UUID)
	return userID
}
