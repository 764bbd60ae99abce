package domain

import (
	"time"

	"github.com/google/uuid"
)

// Attachment принадлежит ровно одному сообщению и создается после него.
// Байты живут во внешнем объектном хранилище, здесь только путь и URL.
type Attachment struct {
	ID          uuid.UUID `json:"id"`
	MessageID   uuid.UUID `json:"message_id"`
	FileName    string    `json:"file_name"`
	FileType    string    `json:"file_type"`
	FileSize    int64     `json:"file_size"`
	StoragePath string    `json:"storage_path"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"created_at"`
}
