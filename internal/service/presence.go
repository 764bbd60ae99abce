package service

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"skill_swap/internal/domain"
	"skill_swap/internal/repository"
	"skill_swap/pkg/logger"
)

type PresenceService interface {
	Track(ctx context.Context, userID uuid.UUID) error
	Untrack(ctx context.Context, userID uuid.UUID) error
	Online(ctx context.Context) ([]uuid.UUID, error)
	SubscribeEvents(ctx context.Context) (<-chan *domain.PresenceEvent, func(), error)
}

type presenceService struct {
	presenceRepo repository.PresenceRepository
	log          logger.Logger
}

func NewPresenceService(presenceRepo repository.PresenceRepository, log logger.Logger) PresenceService {
	return &presenceService{presenceRepo: presenceRepo, log: log}
}

func (s *presenceService) Track(ctx context.Context, userID uuid.UUID) error {
	return s.presenceRepo.Track(ctx, userID)
}

func (s *presenceService) Untrack(ctx context.Context, userID uuid.UUID) error {
	return s.presenceRepo.Untrack(ctx, userID)
}

func (s *presenceService) Online(ctx context.Context) ([]uuid.UUID, error) {
	return s.presenceRepo.Online(ctx)
}

func (s *presenceService) SubscribeEvents(ctx context.Context) (<-chan *domain.PresenceEvent, func(), error) {
	return s.presenceRepo.SubscribeEvents(ctx)
}

// PresenceTracker агрегирует join/leave сигналы в множество онлайн-ключей.
// Множество советующее и eventually-consistent: полный Sync сбрасывает его
// целиком, инкрементальные Join/Leave применяются не дожидаясь resync-а.
type PresenceTracker struct {
	mu     sync.RWMutex
	online map[uuid.UUID]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{online: make(map[uuid.UUID]struct{})}
}

// Sync сбрасывает множество к полному набору отслеживаемых ключей
func (t *PresenceTracker) Sync(keys []uuid.UUID) {
	next := make(map[uuid.UUID]struct{}, len(keys))
	for _, key := range keys {
		next[key] = struct{}{}
	}

	t.mu.Lock()
	t.online = next
	t.mu.Unlock()
}

// Apply оптимистично применяет одиночный join/leave сигнал
func (t *PresenceTracker) Apply(event *domain.PresenceEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Type {
	case domain.PresenceEventJoin:
		t.online[event.UserID] = struct{}{}
	case domain.PresenceEventLeave:
		delete(t.online, event.UserID)
	}
}

func (t *PresenceTracker) IsOnline(userID uuid.UUID) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.online[userID]
	return ok
}

func (t *PresenceTracker) Online() []uuid.UUID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]uuid.UUID, 0, len(t.online))
	for key := range t.online {
		out = append(out, key)
	}
	return out
}
