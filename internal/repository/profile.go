package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"skill_swap/internal/domain"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

// ProfileRepository — read-only доступ к профилям участников.
// Профильный CRUD ядру не принадлежит.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
}

type profileRepository struct {
	db  *pgxpool.Pool
	log logger.Logger
}

func NewProfileRepository(db *pgxpool.Pool, log logger.Logger) ProfileRepository {
	return &profileRepository{db: db, log: log}
}

func (r *profileRepository) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT id, display_name, avatar_url, timezone
		FROM users
		WHERE id = $1 AND is_active = true
	`

	profile := &domain.Profile{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&profile.ID, &profile.DisplayName, &profile.AvatarURL, &profile.Timezone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, appErrors.ErrUserNotFound
		}
		r.log.Error("Failed to get profile", "error", err)
		return nil, err
	}

	return profile, nil
}
