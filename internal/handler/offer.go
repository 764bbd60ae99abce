package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"skill_swap/internal/service"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type OfferHandler struct {
	offerService service.OfferService
	log          logger.Logger
}

func NewOfferHandler(offerService service.OfferService, log logger.Logger) *OfferHandler {
	return &OfferHandler{
		offerService: offerService,
		log:          log,
	}
}

type CreateOfferRequest struct {
	ConversationID uuid.UUID  `json:"conversation_id" binding:"required"`
	SwapID         *uuid.UUID `json:"swap_id,omitempty"`
	Title          string     `json:"title" binding:"required"`
	SkillOffered   string     `json:"skill_offered" binding:"required"`
	SkillWanted    string     `json:"skill_wanted" binding:"required"`
	SessionDays    []string   `json:"session_days"`
	Duration       string     `json:"duration"`
}

func (h *OfferHandler) Create(c *gin.Context) {
	userID := currentUserID(c)

	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	offer, err := h.offerService.Create(c.Request.Context(), service.CreateOfferInput{
		ConversationID: req.ConversationID,
		SwapID:         req.SwapID,
		SenderID:       userID,
		Title:          req.Title,
		SkillOffered:   req.SkillOffered,
		SkillWanted:    req.SkillWanted,
		SessionDays:    req.SessionDays,
		Duration:       req.Duration,
	})
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, offer)
}

func (h *OfferHandler) Accept(c *gin.Context) {
	userID := currentUserID(c)

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer ID"})
		return
	}

	offer, err := h.offerService.Accept(c.Request.Context(), offerID, userID)
	if err != nil {
		h.log.Warn("Offer accept failed", "error", err, "offer_id", offerID, "user_id", userID)
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, offer)
}

func (h *OfferHandler) Reject(c *gin.Context) {
	userID := currentUserID(c)

	offerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offer ID"})
		return
	}

	offer, err := h.offerService.Reject(c.Request.Context(), offerID, userID)
	if err != nil {
		h.log.Warn("Offer reject failed", "error", err, "offer_id", offerID, "user_id", userID)
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, offer)
}

func (h *OfferHandler) ListByConversation(c *gin.Context) {
	userID := currentUserID(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation ID"})
		return
	}

	offers, err := h.offerService.ListByConversation(c.Request.Context(), conversationID, userID)
	if err != nil {
		c.JSON(appErrors.HTTPStatusFromError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, offers)
}
