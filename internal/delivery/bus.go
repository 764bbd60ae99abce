package delivery

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"skill_swap/pkg/logger"
)

// EventBus — push-канал строчных изменений. Доставка может дублироваться;
// подписчики обязаны дедуплицировать по id строки.
type EventBus interface {
	Publish(ctx context.Context, topic string, event *Event) error
	Subscribe(ctx context.Context, topics ...string) (<-chan *Event, func(), error)
}

type redisEventBus struct {
	rdb *redis.Client
	log logger.Logger
}

func NewRedisEventBus(rdb *redis.Client, log logger.Logger) EventBus {
	return &redisEventBus{rdb: rdb, log: log}
}

func (b *redisEventBus) Publish(ctx context.Context, topic string, event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		b.log.Error("Failed to marshal event", "error", err)
		return err
	}

	if err := b.rdb.Publish(ctx, topic, payload).Err(); err != nil {
		b.log.Error("Failed to publish event", "error", err, "topic", topic)
		return err
	}

	return nil
}

func (b *redisEventBus) Subscribe(ctx context.Context, topics ...string) (<-chan *Event, func(), error) {
	pubsub := b.rdb.Subscribe(ctx, topics...)
	if _, err := pubsub.Receive(ctx); err != nil {
		b.log.Error("Failed to subscribe", "error", err, "topics", topics)
		return nil, nil, err
	}

	out := make(chan *Event)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			event := &Event{}
			if err := json.Unmarshal([]byte(msg.Payload), event); err != nil {
				b.log.Warn("Failed to unmarshal event", "error", err)
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
