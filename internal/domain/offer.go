package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	OfferStatusPending  = "pending"
	OfferStatusAccepted = "accepted"
	OfferStatusRejected = "rejected"
)

// Offer — предложение об обмене навыками, привязанное к разговору.
// Статус монотонный: pending единственное нетерминальное состояние.
type Offer struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SwapID         *uuid.UUID `json:"swap_id,omitempty"`
	SenderID       uuid.UUID  `json:"sender_id"`
	ReceiverID     uuid.UUID  `json:"receiver_id"`
	Title          string     `json:"title"`
	SkillOffered   string     `json:"skill_offered"`
	SkillWanted    string     `json:"skill_wanted"`
	SessionDays    []string   `json:"session_days"`
	Duration       string     `json:"duration"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// IsTerminal сообщает, завершен ли жизненный цикл предложения
func (o *Offer) IsTerminal() bool {
	return o.Status != OfferStatusPending
}
