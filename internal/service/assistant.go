package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"skill_swap/internal/domain"
	"skill_swap/pkg/logger"
)

// AssistantUserID — зарезервированный id скриптового ассистента.
// Его нет в реестре участников: разговоры с ним обходят и push-канал,
// и poll — сообщения живут только в памяти сессии.
var AssistantUserID = uuid.MustParse("00000000-0000-0000-0000-00000000a551")

// ReplyFunc — чистая функция генерации ответа; состояние ей не принадлежит
type ReplyFunc func(lastMessage string, history []string) string

type AssistantService interface {
	// IsAssistantConversation сообщает, нужно ли движку доставки
	// пропустить подписку и poll для этого собеседника
	IsAssistantConversation(peerID uuid.UUID) bool
	// Exchange добавляет сообщение пользователя и сгенерированный ответ
	// в память сессии и возвращает оба
	Exchange(userID uuid.UUID, text string) (*domain.Message, *domain.Message)
	History(userID uuid.UUID) []*domain.Message
}

type assistantService struct {
	reply ReplyFunc
	log   logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID][]*domain.Message
}

func NewAssistantService(reply ReplyFunc, log logger.Logger) AssistantService {
	return &assistantService{
		reply:    reply,
		log:      log,
		sessions: make(map[uuid.UUID][]*domain.Message),
	}
}

func (s *assistantService) IsAssistantConversation(peerID uuid.UUID) bool {
	return peerID == AssistantUserID
}

func (s *assistantService) Exchange(userID uuid.UUID, text string) (*domain.Message, *domain.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := make([]string, 0, len(s.sessions[userID]))
	for _, m := range s.sessions[userID] {
		history = append(history, m.Content)
	}

	now := time.Now()
	userMessage := &domain.Message{
		ID:          uuid.New(),
		SenderID:    userID,
		ReceiverID:  AssistantUserID,
		MessageType: domain.MessageTypeUser,
		Content:     text,
		CreatedAt:   now,
	}

	replyMessage := &domain.Message{
		ID:          uuid.New(),
		SenderID:    AssistantUserID,
		ReceiverID:  userID,
		MessageType: domain.MessageTypeUser,
		Content:     s.reply(text, history),
		CreatedAt:   now.Add(time.Millisecond),
	}

	s.sessions[userID] = append(s.sessions[userID], userMessage, replyMessage)
	return userMessage, replyMessage
}

func (s *assistantService) History(userID uuid.UUID) []*domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := s.sessions[userID]
	out := make([]*domain.Message, len(history))
	copy(out, history)
	return out
}
