package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"skill_swap/internal/domain"
	"skill_swap/pkg/logger"
)

const (
	// Ключ множества онлайн-пользователей. Без TTL: множество советующее,
	// некорректное отключение исправляется следующим полным resync
	PresenceOnlineKey = "presence:online"

	// Канал join/leave событий
	PresenceEventsChannel = "presence:events"
)

type PresenceRepository interface {
	// Track объявляет присутствие: добавляет в онлайн-множество и публикует join
	Track(ctx context.Context, userID uuid.UUID) error
	// Untrack убирает пользователя и публикует leave
	Untrack(ctx context.Context, userID uuid.UUID) error
	// Online возвращает полный текущий набор отслеживаемых ключей (для sync)
	Online(ctx context.Context) ([]uuid.UUID, error)
	// SubscribeEvents подписывает на инкрементальные join/leave сигналы
	SubscribeEvents(ctx context.Context) (<-chan *domain.PresenceEvent, func(), error)
}

type presenceRepository struct {
	rdb *redis.Client
	log logger.Logger
}

func NewPresenceRepository(rdb *redis.Client, log logger.Logger) PresenceRepository {
	return &presenceRepository{rdb: rdb, log: log}
}

func (r *presenceRepository) Track(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.SAdd(ctx, PresenceOnlineKey, userID.String()).Err(); err != nil {
		r.log.Error("Failed to track presence", "error", err, "user_id", userID)
		return err
	}

	return r.publish(ctx, &domain.PresenceEvent{
		Type:      domain.PresenceEventJoin,
		UserID:    userID,
		Timestamp: time.Now(),
	})
}

func (r *presenceRepository) Untrack(ctx context.Context, userID uuid.UUID) error {
	if err := r.rdb.SRem(ctx, PresenceOnlineKey, userID.String()).Err(); err != nil {
		r.log.Error("Failed to untrack presence", "error", err, "user_id", userID)
		return err
	}

	return r.publish(ctx, &domain.PresenceEvent{
		Type:      domain.PresenceEventLeave,
		UserID:    userID,
		Timestamp: time.Now(),
	})
}

func (r *presenceRepository) Online(ctx context.Context) ([]uuid.UUID, error) {
	members, err := r.rdb.SMembers(ctx, PresenceOnlineKey).Result()
	if err != nil {
		r.log.Error("Failed to read online set", "error", err)
		return nil, err
	}

	online := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		id, err := uuid.Parse(member)
		if err != nil {
			r.log.Warn("Skipping malformed presence key", "member", member)
			continue
		}
		online = append(online, id)
	}

	return online, nil
}

func (r *presenceRepository) SubscribeEvents(ctx context.Context) (<-chan *domain.PresenceEvent, func(), error) {
	pubsub := r.rdb.Subscribe(ctx, PresenceEventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		r.log.Error("Failed to subscribe to presence events", "error", err)
		return nil, nil, err
	}

	out := make(chan *domain.PresenceEvent)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			event := &domain.PresenceEvent{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				r.log.Warn("Failed to unmarshal presence event", "error", err)
				continue
			}
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() {
		_ = pubsub.Close()
	}
	return out, cancel, nil
}

func (r *presenceRepository) publish(ctx context.Context, event *domain.PresenceEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := r.rdb.Publish(ctx, PresenceEventsChannel, payload).Err(); err != nil {
		r.log.Error("Failed to publish presence event", "error", err, "type", event.Type)
		return err
	}
	return nil
}
