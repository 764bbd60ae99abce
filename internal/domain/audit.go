package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditLog struct {
	ID             int64                  `json:"id"`
	EventTime      time.Time              `json:"event_time"`
	ActorUserID    *uuid.UUID             `json:"actor_user_id,omitempty"`
	ActorRole      string                 `json:"actor_role"`
	ConversationID *uuid.UUID             `json:"conversation_id,omitempty"`
	EventType      string                 `json:"event_type"`
	Payload        map[string]interface{} `json:"payload"`
}

const (
	ActorRoleUser   = "user"
	ActorRoleSystem = "system"
)

const (
	EventTypeConversationCreated = "CONVERSATION_CREATED"
	EventTypeOfferCreated        = "OFFER_CREATED"
	EventTypeOfferAccepted       = "OFFER_ACCEPTED"
	EventTypeOfferRejected       = "OFFER_REJECTED"
	EventTypeSwapActivated       = "SWAP_ACTIVATED"
)
