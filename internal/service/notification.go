package service

import (
	"context"

	"github.com/google/uuid"
	"skill_swap/internal/domain"
	"skill_swap/internal/repository"
	"skill_swap/pkg/logger"
)

type NotificationService interface {
	// Recent возвращает последние уведомления пользователя (новые первыми)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)
}

type notificationService struct {
	notificationRepo repository.NotificationRepository
	log              logger.Logger
}

func NewNotificationService(notificationRepo repository.NotificationRepository, log logger.Logger) NotificationService {
	return &notificationService{notificationRepo: notificationRepo, log: log}
}

func (s *notificationService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.notificationRepo.Recent(ctx, userID, limit)
}
