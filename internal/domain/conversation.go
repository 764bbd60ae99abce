package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation — канонический канал между ровно двумя участниками.
// Пара хранится отсортированной, чтобы (A,B) и (B,A) давали одну строку.
type Conversation struct {
	ID              uuid.UUID `json:"id"`
	ParticipantLow  uuid.UUID `json:"participant_low"`
	ParticipantHigh uuid.UUID `json:"participant_high"`
	CreatedAt       time.Time `json:"created_at"`
}

// CanonicalPair сортирует пару идентификаторов (меньший первым)
func CanonicalPair(a, b uuid.UUID) (uuid.UUID, uuid.UUID) {
	if a.String() > b.String() {
		return b, a
	}
	return a, b
}

// Peer возвращает собеседника для указанного участника
func (c *Conversation) Peer(userID uuid.UUID) uuid.UUID {
	if c.ParticipantLow == userID {
		return c.ParticipantHigh
	}
	return c.ParticipantLow
}

// HasParticipant проверяет, принадлежит ли пользователь разговору
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c.ParticipantLow == userID || c.ParticipantHigh == userID
}

// ConversationFlags — клиентские пометки одного участника (архив, избранное).
// Аннотация пользователя, не мутация самого разговора.
type ConversationFlags struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	UserID         uuid.UUID `json:"user_id"`
	Archived       bool      `json:"archived"`
	Starred        bool      `json:"starred"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ConversationSummary — разговор вместе с временем последнего сообщения
// для сортировки списка разговоров
type ConversationSummary struct {
	Conversation  *Conversation      `json:"conversation"`
	LastMessageAt *time.Time         `json:"last_message_at,omitempty"`
	UnreadCount   int                `json:"unread_count"`
	Flags         *ConversationFlags `json:"flags,omitempty"`
	Peer          *Profile           `json:"peer,omitempty"`
}
