package delivery

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

const (
	EventTypeInsert = "insert"
	EventTypeUpdate = "update"
)

const (
	TableMessages      = "messages"
	TableOffers        = "offers"
	TableConversations = "conversations"
)

// Event — строчное изменение, доставляемое подписчикам push-канала.
// Серверная фильтрация не гарантируется, подписчик фильтрует сам.
type Event struct {
	EventType string          `json:"event_type"`
	Table     string          `json:"table"`
	Row       json.RawMessage `json:"row"`
}

func NewEvent(eventType, table string, row interface{}) (*Event, error) {
	payload, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}
	return &Event{EventType: eventType, Table: table, Row: payload}, nil
}

// ConversationTopic — канал вставок сообщений одного разговора
func ConversationTopic(conversationID uuid.UUID) string {
	return fmt.Sprintf("conv:%s", conversationID.String())
}

// UserTopic — канал обновлений списка разговоров и статусов предложений
func UserTopic(userID uuid.UUID) string {
	return fmt.Sprintf("user:%s", userID.String())
}
