package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	SwapStatusOpen      = "open"
	SwapStatusActive    = "active"
	SwapStatusCompleted = "completed"
	SwapStatusCancelled = "cancelled"
)

// Swap — соглашение об обмене, которое активирует принятое предложение.
// Ядро переговоров только мутирует его (open -> active), остальной
// жизненный цикл принадлежит внешнему владельцу.
type Swap struct {
	ID             uuid.UUID  `json:"id"`
	OwnerID        uuid.UUID  `json:"owner_id"`
	PartnerID      *uuid.UUID `json:"partner_id,omitempty"`
	Title          string     `json:"title"`
	SkillOffered   string     `json:"skill_offered"`
	SkillWanted    string     `json:"skill_wanted"`
	SessionDays    []string   `json:"session_days"`
	Duration       string     `json:"duration"`
	Status         string     `json:"status"`
	ConversationID *uuid.UUID `json:"conversation_id,omitempty"`
	OriginOfferID  *uuid.UUID `json:"origin_offer_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
