package handler

import (
	"skill_swap/internal/config"
	"skill_swap/internal/delivery"
	"skill_swap/internal/service"
	"skill_swap/pkg/logger"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Conversation *ConversationHandler
	Message      *MessageHandler
	Offer        *OfferHandler
	Presence     *PresenceHandler
	Notification *NotificationHandler
	WebSocket    *WebSocketHandler
}

func NewHandlers(services *service.Services, bus delivery.EventBus, cfg *config.Config, log logger.Logger) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(cfg),
		Auth:         NewAuthHandler(services.Auth, log),
		Conversation: NewConversationHandler(services.Conversation, log),
		Message:      NewMessageHandler(services.Message, services.Assistant, log),
		Offer:        NewOfferHandler(services.Offer, log),
		Presence:     NewPresenceHandler(services.Presence, log),
		Notification: NewNotificationHandler(services.Notification, log),
		WebSocket: NewWebSocketHandler(
			services.Auth, services.Conversation, services.Message,
			services.Presence, services.Assistant, bus, cfg.Delivery, log,
		),
	}
}
