package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"skill_swap/internal/domain"
	"skill_swap/internal/repository"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

type ConversationService interface {
	// GetOrCreate идемпотентно разрешает разговор для пары участников;
	// (A,B) и (B,A) дают один и тот же id
	GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error)
	GetForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error)
	SetFlags(ctx context.Context, conversationID, userID uuid.UUID, archived, starred bool) error
}

type conversationService struct {
	conversationRepo repository.ConversationRepository
	profileRepo      repository.ProfileRepository
	auditRepo        repository.AuditRepository
	log              logger.Logger
}

func NewConversationService(
	conversationRepo repository.ConversationRepository,
	profileRepo repository.ProfileRepository,
	auditRepo repository.AuditRepository,
	log logger.Logger,
) ConversationService {
	return &conversationService{
		conversationRepo: conversationRepo,
		profileRepo:      profileRepo,
		auditRepo:        auditRepo,
		log:              log,
	}
}

func (s *conversationService) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	if userA == userB {
		return nil, appErrors.ErrBadRequest
	}

	conversation, created, err := s.conversationRepo.GetOrCreate(ctx, userA, userB)
	if err != nil {
		return nil, err
	}

	if created {
		s.log.Info("Conversation created", "conversation_id", conversation.ID)
		audit := &domain.AuditLog{
			EventTime:      time.Now(),
			ActorUserID:    &userA,
			ActorRole:      domain.ActorRoleUser,
			ConversationID: &conversation.ID,
			EventType:      domain.EventTypeConversationCreated,
			Payload: map[string]interface{}{
				"participant_low":  conversation.ParticipantLow.String(),
				"participant_high": conversation.ParticipantHigh.String(),
			},
		}
		if err := s.auditRepo.CreateLog(ctx, audit); err != nil {
			// Аудит не должен ронять создание разговора
			s.log.Warn("Failed to audit conversation creation", "error", err)
		}
	}

	return conversation, nil
}

func (s *conversationService) GetForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, appErrors.ErrForbidden
	}
	return conversation, nil
}

func (s *conversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	summaries, err := s.conversationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Профиль собеседника и флаги best-effort: список читается и без них
	for _, summary := range summaries {
		peerID := summary.Conversation.Peer(userID)
		profile, err := s.profileRepo.GetProfile(ctx, peerID)
		if err != nil {
			s.log.Warn("Failed to load peer profile", "error", err, "user_id", peerID)
		} else {
			summary.Peer = profile
		}

		flags, err := s.conversationRepo.GetFlags(ctx, summary.Conversation.ID, userID)
		if err != nil {
			// Отсутствие записи означает флаги по умолчанию
			if !errors.Is(err, appErrors.ErrNotFound) {
				s.log.Warn("Failed to load conversation flags", "error", err, "conversation_id", summary.Conversation.ID)
			}
			continue
		}
		summary.Flags = flags
	}

	return summaries, nil
}

func (s *conversationService) SetFlags(ctx context.Context, conversationID, userID uuid.UUID, archived, starred bool) error {
	if _, err := s.GetForParticipant(ctx, conversationID, userID); err != nil {
		return err
	}

	flags := &domain.ConversationFlags{
		ConversationID: conversationID,
		UserID:         userID,
		Archived:       archived,
		Starred:        starred,
	}
	return s.conversationRepo.UpsertFlags(ctx, flags)
}
