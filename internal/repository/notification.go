package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"skill_swap/internal/domain"
	"skill_swap/pkg/logger"
)

const (
	// Очередь уведомлений пользователя; храним последние N
	NotificationQueueKeyPrefix = "notifications:user:%s"
	NotificationChannelPrefix  = "notify:user:%s"
	NotificationQueueLimit     = 100
)

type NotificationRepository interface {
	// Push ставит уведомление в очередь получателя и публикует его
	// в канал доставки. Вызывающие относятся к ошибке как к некритичной.
	Push(ctx context.Context, notification *domain.Notification) error
	// Recent возвращает последние уведомления пользователя (новые первыми)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error)
}

type notificationRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewNotificationRepository(rdb *redis.Client, log logger.Logger) NotificationRepository {
	return &notificationRepository{rdb: rdb, log: log}
}

func (r *notificationRepository) Push(ctx context.Context, notification *domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		r.log.Error("Failed to marshal notification", "error", err)
		return err
	}

	key := fmt.Sprintf(NotificationQueueKeyPrefix, notification.UserID.String())
	if err := r.rdb.LPush(ctx, key, payload).Err(); err != nil {
		r.log.Error("Failed to push notification", "error", err, "user_id", notification.UserID)
		return err
	}
	if err := r.rdb.LTrim(ctx, key, 0, NotificationQueueLimit-1).Err(); err != nil {
		r.log.Warn("Failed to trim notification queue", "error", err)
	}

	channel := fmt.Sprintf(NotificationChannelPrefix, notification.UserID.String())
	if err := r.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		r.log.Warn("Failed to publish notification", "error", err)
	}

	return nil
}

func (r *notificationRepository) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	key := fmt.Sprintf(NotificationQueueKeyPrefix, userID.String())
	items, err := r.rdb.LRange(ctx, key, 0, int64(limit-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return []*domain.Notification{}, nil
		}
		r.log.Error("Failed to read notifications", "error", err)
		return nil, err
	}

	notifications := make([]*domain.Notification, 0, len(items))
	for _, item := range items {
		notification := &domain.Notification{}
		if err := json.Unmarshal([]byte(item), notification); err != nil {
			r.log.Warn("Failed to unmarshal notification", "error", err)
			continue
		}
		notifications = append(notifications, notification)
	}

	return notifications, nil
}
