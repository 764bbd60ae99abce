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

type SwapRepository interface {
	Create(ctx context.Context, swap *domain.Swap) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Swap, error)
	// Activate переводит обмен open -> active и фиксирует партнера,
	// разговор и предложение-источник
	Activate(ctx context.Context, id, partnerID, conversationID, originOfferID uuid.UUID) error
}

type swapRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewSwapRepository(db *pgxpool.Pool, log logger.Logger) SwapRepository {
	return &swapRepository{db: db, log: log}
}

func (r *swapRepository) Create(ctx context.Context, swap *domain.Swap) error {
	query := `
		INSERT INTO swaps (
			id, owner_id, partner_id, title, skill_offered, skill_wanted,
			session_days, duration, status, conversation_id, origin_offer_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRow(ctx, query,
		swap.ID, swap.OwnerID, swap.PartnerID, swap.Title, swap.SkillOffered, swap.SkillWanted,
		swap.SessionDays, swap.Duration, swap.Status, swap.ConversationID, swap.OriginOfferID,
		swap.CreatedAt, swap.UpdatedAt,
	).Scan(&swap.CreatedAt, &swap.UpdatedAt)

	if err != nil {
		r.log.Error("Failed to create swap", "error", err)
		return err
	}

	return nil
}

func (r *swapRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Swap, error) {
	query := `
		SELECT id, owner_id, partner_id, title, skill_offered, skill_wanted,
		       session_days, duration, status, conversation_id, origin_offer_id,
		       created_at, updated_at
		FROM swaps
		WHERE id = $1
	`

	swap := &domain.Swap{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&swap.ID, &swap.OwnerID, &swap.PartnerID, &swap.Title, &swap.SkillOffered, &swap.SkillWanted,
		&swap.SessionDays, &swap.Duration, &swap.Status, &swap.ConversationID, &swap.OriginOfferID,
		&swap.CreatedAt, &swap.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrSwapNotFound
		}
		r.log.Error("Failed to get swap", "error", err)
		return nil, err
	}

	return swap, nil
}

func (r *swapRepository) Activate(ctx context.Context, id, partnerID, conversationID, originOfferID uuid.UUID) error {
	query := `
		UPDATE swaps
		SET status = 'active', partner_id = $2, conversation_id = $3, origin_offer_id = $4, updated_at = $5
		WHERE id = $1
	`

	tag, err := r.db.Exec(ctx, query, id, partnerID, conversationID, originOfferID, time.Now())
	if err != nil {
		r.log.Error("Failed to activate swap", "error", err, "swap_id", id)
		return err
	}
	if tag.RowsAffected() == 0 {
		return appErrors.ErrSwapNotFound
	}

	return nil
}
