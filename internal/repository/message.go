package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"skill_swap/internal/domain"
	"skill_swap/pkg/logger"
)

type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	// List возвращает лог в порядке (created_at, id) по возрастанию
	List(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.Message, error)
	// ListNewest возвращает хвостовое окно лога: последние limit сообщений,
	// по возрастанию. Именно хвост опрашивает движок доставки — пропущенное
	// push-событие всегда лежит в конце лога, не в начале.
	ListNewest(ctx context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error)
	// MarkRead идемпотентно помечает прочитанными все сообщения,
	// адресованные пользователю; возвращает число затронутых строк
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
}

type messageRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewMessageRepository(db *pgxpool.Pool, log logger.Logger) MessageRepository {
	return &messageRepository{db: db, log: log}
}

func (r *messageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, receiver_id, message_type, content, offer_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		message.ID, message.ConversationID, message.SenderID, message.ReceiverID,
		message.MessageType, message.Content, message.OfferID, message.Read, message.CreatedAt,
	).Scan(&message.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create message", "error", err)
		return err
	}

	return nil
}

func (r *messageRepository) List(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	// id — детерминированный tie-break при равных created_at
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, message_type, content, offer_id, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit, offset)
	if err != nil {
		r.log.Error("Failed to list messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		err := rows.Scan(
			&message.ID, &message.ConversationID, &message.SenderID, &message.ReceiverID,
			&message.MessageType, &message.Content, &message.OfferID, &message.Read, &message.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	return messages, nil
}

func (r *messageRepository) ListNewest(ctx context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, receiver_id, message_type, content, offer_id, read, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, conversationID, limit)
	if err != nil {
		r.log.Error("Failed to list newest messages", "error", err)
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		message := &domain.Message{}
		err := rows.Scan(
			&message.ID, &message.ConversationID, &message.SenderID, &message.ReceiverID,
			&message.MessageType, &message.Content, &message.OfferID, &message.Read, &message.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan message", "error", err)
			return nil, err
		}
		messages = append(messages, message)
	}

	// Выборка шла с хвоста, наружу отдаем в порядке лога
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	// Переход только false -> true; повторный вызов затрагивает 0 строк
	query := `
		UPDATE messages
		SET read = true
		WHERE conversation_id = $1 AND receiver_id = $2 AND read = false
	`

	tag, err := r.db.Exec(ctx, query, conversationID, userID)
	if err != nil {
		r.log.Error("Failed to mark messages as read", "error", err)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
