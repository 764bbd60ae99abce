package handler

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type MessageHandler struct {
	messageService   service.MessageService
	assistantService service.AssistantService
	log              logger.Logger
}

func NewMessageHandler(messageService service.MessageService, assistantService service.AssistantService, log logger.Logger) *MessageHandler {
	return &MessageHandler{
		messageService:   messageService,
		assistantService: assistantService,
		log:              log,
	}
}

type AttachmentRequest struct {
	FileName string `json:"file_name" binding:"required"`
	FileType string `json:"file_type"`
	// Содержимое файла в base64; байты уходят в объектное хранилище
	Data string `json:"data" binding:"required"`
}

type SendMessageRequest struct {
	Content     string              `json:"content"`
	PeerID      *uuid.UUID          `json:"peer_id,omitempty"`
	Attachments []AttachmentRequest `json:"attachments,omitempty"`
}

func (h *MessageHandler) List(c *gin.Context) {
	userID := currentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	// История ассистента живет в памяти, а не в персистентном логе
	if peerID, err := uuid.Parse(c.Query("peer_id")); err == nil && h.assistantService.IsAssistantConversation(peerID) {
		c.JSON(http.StatusOK, h.assistantService.History(userID))
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	messages, err := h.messageService.List(c.Request.Context(), conversationID, userID, limit, offset)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Send(c *gin.Context) {
	userID := currentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	// Разговор с ассистентом обходит персистентный лог целиком:
	// его сообщения генерируются локально и живут только в памяти
	if req.PeerID != nil && h.assistantService.IsAssistantConversation(*req.PeerID) {
		userMessage, reply := h.assistantService.Exchange(userID, req.Content)
		c.JSON(http.StatusOK, gin.H{"messages": []interface{}{userMessage, reply}})
		return
	}

	attachments := make([]service.AttachmentUpload, 0, len(req.Attachments))
	for _, a := range req.Attachments {
		data, err := base64.StdEncoding.DecodeString(a.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attachment encoding: " + a.FileName})
			return
		}
		attachments = append(attachments, service.AttachmentUpload{
			FileName: a.FileName,
			FileType: a.FileType,
			Data:     data,
		})
	}

	message, err := h.messageService.Send(c.Request.Context(), conversationID, userID, req.Content, attachments)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, message)
}

func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID := currentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	updated, err := h.messageService.MarkRead(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
