package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"skill_swap/internal/domain"
	"skill_swap/pkg/logger"
)

type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.Attachment) error
	ListByMessage(ctx context.Context, messageID uuid.UUID) ([]*domain.Attachment, error)
	ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]*domain.Attachment, error)
}

type attachmentRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewAttachmentRepository(db *pgxpool.Pool, log logger.Logger) AttachmentRepository {
	return &attachmentRepository{db: db, log: log}
}

func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	query := `
		INSERT INTO attachments (id, message_id, file_name, file_type, file_size, storage_path, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.db.QueryRow(ctx, query,
		attachment.ID, attachment.MessageID, attachment.FileName, attachment.FileType,
		attachment.FileSize, attachment.StoragePath, attachment.URL, attachment.CreatedAt,
	).Scan(&attachment.CreatedAt)

	if err != nil {
		r.log.Error("Failed to create attachment", "error", err)
		return err
	}

	return nil
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]*domain.Attachment, error) {
	query := `
		SELECT id, message_id, file_name, file_type, file_size, storage_path, url, created_at
		FROM attachments
		WHERE message_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, messageID)
	if err != nil {
		r.log.Error("Failed to list attachments", "error", err)
		return nil, err
	}
	defer rows.Close()

	var attachments []*domain.Attachment
	for rows.Next() {
		attachment := &domain.Attachment{}
		err := rows.Scan(
			&attachment.ID, &attachment.MessageID, &attachment.FileName, &attachment.FileType,
			&attachment.FileSize, &attachment.StoragePath, &attachment.URL, &attachment.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan attachment", "error", err)
			return nil, err
		}
		attachments = append(attachments, attachment)
	}

	return attachments, nil
}

func (r *attachmentRepository) ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]*domain.Attachment, error) {
	if len(messageIDs) == 0 {
		return map[uuid.UUID][]*domain.Attachment{}, nil
	}

	query := `
		SELECT id, message_id, file_name, file_type, file_size, storage_path, url, created_at
		FROM attachments
		WHERE message_id = ANY($1)
		ORDER BY created_at ASC
	`

	rows, err := r.db.Query(ctx, query, messageIDs)
	if err != nil {
		r.log.Error("Failed to list attachments by message ids", "error", err)
		return nil, err
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]*domain.Attachment)
	for rows.Next() {
		attachment := &domain.Attachment{}
		err := rows.Scan(
			&attachment.ID, &attachment.MessageID, &attachment.FileName, &attachment.FileType,
			&attachment.FileSize, &attachment.StoragePath, &attachment.URL, &attachment.CreatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan attachment", "error", err)
			return nil, err
		}
		result[attachment.MessageID] = append(result[attachment.MessageID], attachment)
	}

	return result, nil
}
