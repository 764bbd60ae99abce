package service

import (
	"skill_swap/internal/config"
	"skill_swap/internal/delivery"
	"skill_swap/internal/repository"
	"skill_swap/internal/storage"
	"skill_swap/pkg/logger"
)

type Services struct {
	Auth         AuthService
	Conversation ConversationService
	Message      MessageService
	Offer        OfferService
	Presence     PresenceService
	Notification NotificationService
	Assistant    AssistantService
	RateLimit    RateLimitService
}

func NewServices(repos *repository.Repositories, bus delivery.EventBus, objectStorage storage.ObjectStorage, assistantReply ReplyFunc, cfg *config.Config, log logger.Logger) *Services {
	messageService := NewMessageService(
		repos.Message, repos.Attachment, repos.Conversation,
		repos.Notification, objectStorage, bus, log,
	)

	return &Services{
		Auth:         NewAuthService(repos.User, cfg.JWT, log),
		Conversation: NewConversationService(repos.Conversation, repos.Profile, repos.Audit, log),
		Message:      messageService,
		Offer: NewOfferService(
			repos.Offer, repos.Swap, repos.Conversation,
			repos.Notification, repos.Audit, messageService, bus, log,
		),
		Presence:     NewPresenceService(repos.Presence, log),
		Notification: NewNotificationService(repos.Notification, log),
		Assistant:    NewAssistantService(assistantReply, log),
		RateLimit:    NewRateLimitService(repos.RateLimit, log),
	}
}
