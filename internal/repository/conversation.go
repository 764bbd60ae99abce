package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"skill_swap/internal/domain"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type ConversationRepository interface {
	// GetOrCreate канонизирует пару и выполняет find-or-insert.
	// Безопасен при конкурентных вызовах обоих участников.
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
	UpsertFlags(ctx context.Context, flags *domain.ConversationFlags) error
	GetFlags(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationFlags, error)
}

type conversationRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewConversationRepository(db *pgxpool.Pool, log logger.Logger) ConversationRepository {
	return &conversationRepository{db: db, log: log}
}

func (r *conversationRepository) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, bool, error) {
	low, high := domain.CanonicalPair(userA, userB)

	// Уникальное ограничение на (participant_low, participant_high) гарантирует
	// одного победителя при гонке первого контакта; проигравший перечитывает
	insertQuery := `
		INSERT INTO conversations (id, participant_low, participant_high, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participant_low, participant_high) DO NOTHING
		RETURNING id, participant_low, participant_high, created_at
	`

	conversation := &domain.Conversation{}
	err := r.db.QueryRow(ctx, insertQuery, uuid.New(), low, high, time.Now()).Scan(
		&conversation.ID, &conversation.ParticipantLow, &conversation.ParticipantHigh, &conversation.CreatedAt,
	)
	if err == nil {
		return conversation, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error("Failed to insert conversation", "error", err)
		return nil, false, err
	}

	// Конфликт: строка уже существует, читаем ее
	selectQuery := `
		SELECT id, participant_low, participant_high, created_at
		FROM conversations
		WHERE participant_low = $1 AND participant_high = $2
	`

	err = r.db.QueryRow(ctx, selectQuery, low, high).Scan(
		&conversation.ID, &conversation.ParticipantLow, &conversation.ParticipantHigh, &conversation.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to read conversation after conflict", "error", err)
		return nil, false, err
	}

	return conversation, false, nil
}

func (r *conversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, participant_low, participant_high, created_at
		FROM conversations
		WHERE id = $1
	`

	conversation := &domain.Conversation{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&conversation.ID, &conversation.ParticipantLow, &conversation.ParticipantHigh, &conversation.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrConversationNotFound
		}
		r.log.Error("Failed to get conversation by ID", "error", err)
		return nil, err
	}

	return conversation, nil
}

func (r *conversationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	query := `
		SELECT c.id, c.participant_low, c.participant_high, c.created_at,
		       MAX(m.created_at) AS last_message_at,
		       COUNT(m.id) FILTER (WHERE m.receiver_id = $1 AND m.read = false) AS unread_count
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		WHERE c.participant_low = $1 OR c.participant_high = $1
		GROUP BY c.id
		ORDER BY MAX(m.created_at) DESC NULLS LAST, c.created_at DESC
	`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.log.Error("Failed to list conversations", "error", err)
		return nil, err
	}
	defer rows.Close()

	var summaries []*domain.ConversationSummary
	for rows.Next() {
		conversation := &domain.Conversation{}
		var lastMessageAt sql.NullTime
		var unreadCount int
		err := rows.Scan(
			&conversation.ID, &conversation.ParticipantLow, &conversation.ParticipantHigh, &conversation.CreatedAt,
			&lastMessageAt, &unreadCount,
		)
		if err != nil {
			r.log.Error("Failed to scan conversation summary", "error", err)
			return nil, err
		}

		summary := &domain.ConversationSummary{
			Conversation: conversation,
			UnreadCount:  unreadCount,
		}
		if lastMessageAt.Valid {
			summary.LastMessageAt = &lastMessageAt.Time
		}
		summaries = append(summaries, summary)
	}

	return summaries, nil
}

func (r *conversationRepository) UpsertFlags(ctx context.Context, flags *domain.ConversationFlags) error {
	query := `
		INSERT INTO conversation_flags (conversation_id, user_id, archived, starred, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (conversation_id, user_id)
		DO UPDATE SET archived = $3, starred = $4, updated_at = $5
	`

	_, err := r.db.Exec(ctx, query,
		flags.ConversationID, flags.UserID, flags.Archived, flags.Starred, time.Now(),
	)
	if err != nil {
		r.log.Error("Failed to upsert conversation flags", "error", err)
		return err
	}

	return nil
}

func (r *conversationRepository) GetFlags(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationFlags, error) {
	query := `
		SELECT conversation_id, user_id, archived, starred, updated_at
		FROM conversation_flags
		WHERE conversation_id = $1 AND user_id = $2
	`

	flags := &domain.ConversationFlags{}
	err := r.db.QueryRow(ctx, query, conversationID, userID).Scan(
		&flags.ConversationID, &flags.UserID, &flags.Archived, &flags.Starred, &flags.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		r.log.Error("Failed to get conversation flags", "error", err)
		return nil, err
	}

	return flags, nil
}
