package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	PresenceEventJoin  = "join"
	PresenceEventLeave = "leave"
)

// PresenceEvent — эфемерный сигнал присутствия, нигде не персистится
type PresenceEvent struct {
	Type      string    `json:"type"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
