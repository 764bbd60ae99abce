package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"skill_swap/internal/domain"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Offer, error)
	// UpdateStatusIfPending выполняет охраняемый переход статуса.
	// Возвращает false, если предложение уже не pending: проигравший
	// конкурентной гонки accept/reject не выполняет побочных эффектов.
	UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status string) (bool, error)
	// RejectPendingBySwap каскадно отклоняет остальные pending-предложения
	// по тому же обмену; возвращает число отклоненных
	RejectPendingBySwap(ctx context.Context, swapID, excludeOfferID uuid.UUID) (int64, error)
}

type offerRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewOfferRepository(db *pgxpool.Pool, log logger.Logger) OfferRepository {
	return &offerRepository{db: db, log: log}
}

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	query := `
		INSERT INTO offers (
			id, conversation_id, swap_id, sender_id, receiver_id,
			title, skill_offered, skill_wanted, session_days, duration,
			status, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		offer.ID, offer.ConversationID, offer.SwapID, offer.SenderID, offer.ReceiverID,
		offer.Title, offer.SkillOffered, offer.SkillWanted, offer.SessionDays, offer.Duration,
		offer.Status, offer.CreatedAt, offer.UpdatedAt,
	).Scan(&offer.CreatedAt, &offer.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create offer", "error", err)
		return err
	}

	return nil
}

func (r *offerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	query := `
		SELECT id, conversation_id, swap_id, sender_id, receiver_id,
		       title, skill_offered, skill_wanted, session_days, duration,
		       status, created_at, updated_at
		FROM offers
		WHERE id = $1
	`

	offer := &domain.Offer{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&offer.ID, &offer.ConversationID, &offer.SwapID, &offer.SenderID, &offer.ReceiverID,
		&offer.Title, &offer.SkillOffered, &offer.SkillWanted, &offer.SessionDays, &offer.Duration,
		&offer.Status, &offer.CreatedAt, &offer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrOfferNotFound
		}
		r.log.Error("Failed to get offer", "error", err)
		return nil, err
	}

	return offer, nil
}

func (r *offerRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Offer, error) {
	query := `
		SELECT id, conversation_id, swap_id, sender_id, receiver_id,
		       title, skill_offered, skill_wanted, session_days, duration,
		       status, created_at, updated_at
		FROM offers
		WHERE conversation_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query, conversationID)
	if err != nil {
		r.log.Error("Failed to list offers", "error", err)
		return nil, err
	}
	defer rows.Close()

	var offers []*domain.Offer
	for rows.Next() {
		offer := &domain.Offer{}
		err := rows.Scan(
			&offer.ID, &offer.ConversationID, &offer.SwapID, &offer.SenderID, &offer.ReceiverID,
			&offer.Title, &offer.SkillOffered, &offer.SkillWanted, &offer.SessionDays, &offer.Duration,
			&offer.Status, &offer.CreatedAt, &offer.UpdatedAt,
		)
		if err != nil {
			r.log.Error("Failed to scan offer", "error", err)
			return nil, err
		}
		offers = append(offers, offer)
	}

	return offers, nil
}

func (r *offerRepository) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	query := `
		UPDATE offers
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		r.log.Error("Failed to update offer status", "error", err, "offer_id", id)
		return false, err
	}

	return tag.RowsAffected() > 0, nil
}

func (r *offerRepository) RejectPendingBySwap(ctx context.Context, swapID, excludeOfferID uuid.UUID) (int64, error) {
	query := `
		UPDATE offers
		SET status = 'rejected', updated_at = $3
		WHERE swap_id = $1 AND id != $2 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, swapID, excludeOfferID, time.Now())
	if err != nil {
		r.log.Error("Failed to cascade reject offers", "error", err, "swap_id", swapID)
		return 0, err
	}

	return tag.RowsAffected(), nil
}
