package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MessageTypeUser   = "user"
	MessageTypeSystem = "system"
)

// Message неизменяемо после создания, кроме флага read (false -> true).
// Ключ сортировки лога — (created_at, id), id разрешает равные метки времени.
type Message struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	ReceiverID     uuid.UUID  `json:"receiver_id"`
	MessageType    string     `json:"message_type"`
	Content        string     `json:"content"`
	OfferID        *uuid.UUID `json:"offer_id,omitempty"`
	Read           bool       `json:"read"`
	CreatedAt      time.Time  `json:"created_at"`

	Attachments []*Attachment `json:"attachments,omitempty"`

	// Имена файлов, которые не удалось загрузить при отправке.
	// Сообщение при этом остается валидным.
	FailedAttachments []string `json:"failed_attachments,omitempty"`
}

// Less определяет тотальный порядок сообщений в рамках одного разговора
func (m *Message) Less(other *Message) bool {
	if m.CreatedAt.Equal(other.CreatedAt) {
		return m.ID.String() < other.ID.String()
	}
	return m.CreatedAt.Before(other.CreatedAt)
}
