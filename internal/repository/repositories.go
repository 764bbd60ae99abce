package repository

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"skill_swap/pkg/logger"
)

type Repositories struct {
	User         UserRepository
	Profile      ProfileRepository
	Conversation ConversationRepository
	Message      MessageRepository
	Attachment   AttachmentRepository
	Offer        OfferRepository
	Swap         SwapRepository
	Presence     PresenceRepository
	Notification NotificationRepository
	Audit        AuditRepository
	RateLimit    RateLimitRepository
}

func NewRepositories(db *pgxpool.Pool, redis *redis.Client, log logger.Logger) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db, log),
		Profile:      NewProfileRepository(db, log),
		Conversation: NewConversationRepository(db, log),
		Message:      NewMessageRepository(db, log),
		Attachment:   NewAttachmentRepository(db, log),
		Offer:        NewOfferRepository(db, log),
		Swap:         NewSwapRepository(db, log),
		Presence:     NewPresenceRepository(redis, log),
		Notification: NewNotificationRepository(redis, log),
		Audit:        NewAuditRepository(db, log),
		RateLimit:    NewRateLimitRepository(redis, log),
	}
}
