package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationTypeNewMessage    = "new_message"
	NotificationTypeOfferCreated  = "offer_created"
	NotificationTypeOfferAccepted = "offer_accepted"
	NotificationTypeOfferRejected = "offer_rejected"
)

// Notification — полезная нагрузка для push-канала. Доставка fire-and-forget:
// сбой уведомления не должен ронять породившую его операцию.
type Notification struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	UserID    uuid.UUID         `json:"user_id"`
	CreatedAt time.Time         `json:"created_at"`
}
