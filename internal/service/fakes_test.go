package service

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"skill_swap/internal/delivery"
	"skill_swap/internal/domain"
	appErrors "skill_swap/pkg/errors"
)

// Ручные фейки вместо моков: поведение in-memory повторяет контракт
// реальных репозиториев, включая охраняемые переходы статусов.

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
func (nopLogger) Fatal(msg string, args ...any) {}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[uuid.UUID]*domain.Conversation
	flags         map[string]*domain.ConversationFlags
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[uuid.UUID]*domain.Conversation),
		flags:         make(map[string]*domain.ConversationFlags),
	}
}

func (r *fakeConversationRepo) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	low, high := domain.CanonicalPair(userA, userB)
	for _, c := range r.conversations {
		if c.ParticipantLow == low && c.ParticipantHigh == high {
			return c, false, nil
		}
	}

	c := &domain.Conversation{
		ID:              uuid.New(),
		ParticipantLow:  low,
		ParticipantHigh: high,
	}
	r.conversations[c.ID] = c
	return c, true, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.conversations[id]
	if !ok {
		return nil, appErrors.ErrConversationNotFound
	}
	return c, nil
}

func (r *fakeConversationRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.ConversationSummary
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, &domain.ConversationSummary{Conversation: c})
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) UpsertFlags(ctx context.Context, flags *domain.ConversationFlags) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := flags.ConversationID.String() + "/" + flags.UserID.String()
	r.flags[key] = flags
	return nil
}

func (r *fakeConversationRepo) GetFlags(ctx context.Context, conversationID, userID uuid.UUID) (*domain.ConversationFlags, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := conversationID.String() + "/" + userID.String()
	if flags, ok := r.flags[key]; ok {
		return flags, nil
	}
	return nil, appErrors.ErrNotFound
}

// add регистрирует готовый разговор для тестовой пары
func (r *fakeConversationRepo) add(userA, userB uuid.UUID) *domain.Conversation {
	c, _, _ := r.GetOrCreate(context.Background(), userA, userB)
	return c
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*domain.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*domain.Profile)}
}

func (r *fakeProfileRepo) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if profile, ok := r.profiles[userID]; ok {
		return profile, nil
	}
	return nil, appErrors.ErrUserNotFound
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	messages  []*domain.Message
	createErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.messages {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, appErrors.ErrMessageNotFound
}

func (r *fakeMessageRepo) List(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })

	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeMessageRepo) ListNewest(ctx context.Context, conversationID uuid.UUID, limit int) ([]*domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Message
	for _, m := range r.messages {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Less(out[j]) })

	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *fakeMessageRepo) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for _, m := range r.messages {
		if m.ConversationID == conversationID && m.ReceiverID == userID && !m.Read {
			m.Read = true
			affected++
		}
	}
	return affected, nil
}

type fakeOfferRepo struct {
	mu     sync.Mutex
	offers map[uuid.UUID]*domain.Offer
}

func newFakeOfferRepo() *fakeOfferRepo {
	return &fakeOfferRepo{offers: make(map[uuid.UUID]*domain.Offer)}
}

func (r *fakeOfferRepo) Create(ctx context.Context, offer *domain.Offer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *offer
	r.offers[offer.ID] = &clone
	return nil
}

func (r *fakeOfferRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return nil, appErrors.ErrOfferNotFound
	}
	clone := *offer
	return &clone, nil
}

func (r *fakeOfferRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID) ([]*domain.Offer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Offer
	for _, offer := range r.offers {
		if offer.ConversationID == conversationID {
			clone := *offer
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeOfferRepo) UpdateStatusIfPending(ctx context.Context, id uuid.UUID, status string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	offer, ok := r.offers[id]
	if !ok {
		return false, appErrors.ErrOfferNotFound
	}
	if offer.Status != domain.OfferStatusPending {
		return false, nil
	}
	offer.Status = status
	return true, nil
}

func (r *fakeOfferRepo) RejectPendingBySwap(ctx context.Context, swapID, excludeOfferID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rejected int64
	for _, offer := range r.offers {
		if offer.ID == excludeOfferID || offer.SwapID == nil || *offer.SwapID != swapID {
			continue
		}
		if offer.Status == domain.OfferStatusPending {
			offer.Status = domain.OfferStatusRejected
			rejected++
		}
	}
	return rejected, nil
}

func (r *fakeOfferRepo) status(id uuid.UUID) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offers[id].Status
}

type fakeSwapRepo struct {
	mu        sync.Mutex
	swaps     map[uuid.UUID]*domain.Swap
	created   int
	activated int
}

func newFakeSwapRepo() *fakeSwapRepo {
	return &fakeSwapRepo{swaps: make(map[uuid.UUID]*domain.Swap)}
}

func (r *fakeSwapRepo) Create(ctx context.Context, swap *domain.Swap) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *swap
	r.swaps[swap.ID] = &clone
	r.created++
	return nil
}

func (r *fakeSwapRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Swap, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	swap, ok := r.swaps[id]
	if !ok {
		return nil, appErrors.ErrSwapNotFound
	}
	clone := *swap
	return &clone, nil
}

func (r *fakeSwapRepo) Activate(ctx context.Context, id, partnerID, conversationID, originOfferID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	swap, ok := r.swaps[id]
	if !ok {
		return appErrors.ErrSwapNotFound
	}
	swap.Status = domain.SwapStatusActive
	swap.PartnerID = &partnerID
	swap.ConversationID = &conversationID
	swap.OriginOfferID = &originOfferID
	r.activated++
	return nil
}

func (r *fakeSwapRepo) mutations() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created + r.activated
}

type fakeAttachmentRepo struct {
	mu          sync.Mutex
	attachments []*domain.Attachment
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{}
}

func (r *fakeAttachmentRepo) Create(ctx context.Context, attachment *domain.Attachment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.attachments = append(r.attachments, attachment)
	return nil
}

func (r *fakeAttachmentRepo) ListByMessage(ctx context.Context, messageID uuid.UUID) ([]*domain.Attachment, error) {
	byID, _ := r.ListByMessageIDs(ctx, []uuid.UUID{messageID})
	return byID[messageID], nil
}

func (r *fakeAttachmentRepo) ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]*domain.Attachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := make(map[uuid.UUID]struct{}, len(messageIDs))
	for _, id := range messageIDs {
		wanted[id] = struct{}{}
	}

	out := make(map[uuid.UUID][]*domain.Attachment)
	for _, a := range r.attachments {
		if _, ok := wanted[a.MessageID]; ok {
			out[a.MessageID] = append(out[a.MessageID], a)
		}
	}
	return out, nil
}

type fakeNotificationRepo struct {
	mu     sync.Mutex
	pushed []*domain.Notification
}

func newFakeNotificationRepo() *fakeNotificationRepo {
	return &fakeNotificationRepo{}
}

func (r *fakeNotificationRepo) Push(ctx context.Context, notification *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pushed = append(r.pushed, notification)
	return nil
}

func (r *fakeNotificationRepo) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Notification
	for i := len(r.pushed) - 1; i >= 0 && len(out) < limit; i-- {
		if r.pushed[i].UserID == userID {
			out = append(out, r.pushed[i])
		}
	}
	return out, nil
}

type fakeAuditRepo struct {
	mu   sync.Mutex
	logs []*domain.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo {
	return &fakeAuditRepo{}
}

func (r *fakeAuditRepo) CreateLog(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log.ID = int64(len(r.logs) + 1)
	r.logs = append(r.logs, log)
	return nil
}

type fakeBus struct {
	mu        sync.Mutex
	published []publishedEvent
}

type publishedEvent struct {
	topic string
	event *delivery.Event
}

func newFakeBus() *fakeBus {
	return &fakeBus{}
}

func (b *fakeBus) Publish(ctx context.Context, topic string, event *delivery.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.published = append(b.published, publishedEvent{topic: topic, event: event})
	return nil
}

func (b *fakeBus) Subscribe(ctx context.Context, topics ...string) (<-chan *delivery.Event, func(), error) {
	ch := make(chan *delivery.Event)
	return ch, func() { close(ch) }, nil
}

func (b *fakeBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.published))
	for _, p := range b.published {
		out = append(out, p.topic)
	}
	return out
}

// fakeStorage падает на загрузке файлов, содержимое которых равно failData
type fakeStorage struct {
	mu       sync.Mutex
	failData string
	uploads  []string
	deleted  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{}
}

func (s *fakeStorage) Upload(ctx context.Context, data []byte, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failData != "" && string(data) == s.failData {
		return "", fmt.Errorf("upload rejected")
	}
	s.uploads = append(s.uploads, path)
	return "https://storage.local/" + path, nil
}

func (s *fakeStorage) Delete(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleted = append(s.deleted, path)
	return nil
}
