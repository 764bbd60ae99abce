package handler

import (
	"context"

	"github.com/google/uuid"
	"skill_swap/internal/domain"
	"skill_swap/internal/service"
)

// Заглушки сервисов для маршрутных тестов: каждая отдает
// преднастроенный результат, не трогая хранилище

type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...any) {}
func (nopLogger) Info(msg string, args ...any)  {}
func (nopLogger) Warn(msg string, args ...any)  {}
func (nopLogger) Error(msg string, args ...any) {}
func (nopLogger) Fatal(msg string, args ...any) {}

type stubAuthService struct {
	user *domain.User
	err  error
}

func (s *stubAuthService) Register(ctx context.Context, email, password, displayName, timezone string) (*domain.User, error) {
	return s.user, s.err
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (*service.LoginResponse, error) {
	return nil, s.err
}

func (s *stubAuthService) RefreshToken(ctx context.Context, refreshToken string) (*service.TokenResponse, error) {
	return nil, s.err
}

func (s *stubAuthService) ValidateToken(ctx context.Context, tokenString string) (*domain.User, error) {
	return s.user, s.err
}

type stubConversationService struct {
	conversation *domain.Conversation
	summaries    []*domain.ConversationSummary
	err          error
}

func (s *stubConversationService) GetOrCreate(ctx context.Context, userA, userB uuid.UUID) (*domain.Conversation, error) {
	return s.conversation, s.err
}

func (s *stubConversationService) GetForParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Conversation, error) {
	return s.conversation, s.err
}

func (s *stubConversationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ConversationSummary, error) {
	return s.summaries, s.err
}

func (s *stubConversationService) SetFlags(ctx context.Context, conversationID, userID uuid.UUID, archived, starred bool) error {
	return s.err
}

type stubMessageService struct {
	message  *domain.Message
	messages []*domain.Message
	updated  int64
	err      error
}

func (s *stubMessageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, content string, attachments []service.AttachmentUpload) (*domain.Message, error) {
	return s.message, s.err
}

func (s *stubMessageService) SendOffer(ctx context.Context, conversationID, senderID uuid.UUID, offerID uuid.UUID) (*domain.Message, error) {
	return s.message, s.err
}

func (s *stubMessageService) SendSystem(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	return s.message, s.err
}

func (s *stubMessageService) List(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	return s.messages, s.err
}

func (s *stubMessageService) ListRecent(ctx context.Context, conversationID, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	return s.messages, s.err
}

func (s *stubMessageService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	return s.updated, s.err
}
