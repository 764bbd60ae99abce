package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"skill_swap/internal/delivery"
	"skill_swap/internal/domain"
	"skill_swap/internal/repository"
	"skill_swap/internal/storage"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

// AttachmentUpload — входящий файл при отправке сообщения
type AttachmentUpload struct {
	FileName string
	FileType string
	Data     []byte
}

type MessageService interface {
	// Send вставляет ровно одну строку сообщения; вложения загружаются
	// после и независимо — частичный сбой вложения не откатывает сообщение
	Send(ctx context.Context, conversationID, senderID uuid.UUID, content string, attachments []AttachmentUpload) (*domain.Message, error)
	// SendOffer добавляет сообщение-носитель предложения (content пустой)
	SendOffer(ctx context.Context, conversationID, senderID uuid.UUID, offerID uuid.UUID) (*domain.Message, error)
	// SendSystem добавляет системное сообщение (подтверждение сделки и т.п.)
	SendSystem(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error)
	List(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]*domain.Message, error)
	// ListRecent возвращает хвостовое окно лога (последние limit сообщений,
	// по возрастанию) — источник poll-сверки движка доставки
	ListRecent(ctx context.Context, conversationID, userID uuid.UUID, limit int) ([]*domain.Message, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error)
}

type messageService struct {
	messageRepo      repository.MessageRepository
	attachmentRepo   repository.AttachmentRepository
	conversationRepo repository.ConversationRepository
	notificationRepo repository.NotificationRepository
	objectStorage    storage.ObjectStorage
	bus              delivery.EventBus
	log              logger.Logger
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	attachmentRepo repository.AttachmentRepository,
	conversationRepo repository.ConversationRepository,
	notificationRepo repository.NotificationRepository,
	objectStorage storage.ObjectStorage,
	bus delivery.EventBus,
	log logger.Logger,
) MessageService {
	return &messageService{
		messageRepo:      messageRepo,
		attachmentRepo:   attachmentRepo,
		conversationRepo: conversationRepo,
		notificationRepo: notificationRepo,
		objectStorage:    objectStorage,
		bus:              bus,
		log:              log,
	}
}

func (s *messageService) Send(ctx context.Context, conversationID, senderID uuid.UUID, content string, attachments []AttachmentUpload) (*domain.Message, error) {
	if content == "" && len(attachments) == 0 {
		return nil, appErrors.ErrEmptyMessage
	}

	message, err := s.append(ctx, conversationID, senderID, domain.MessageTypeUser, content, nil)
	if err != nil {
		return nil, err
	}

	// Вложения best-effort: сообщение авторитетно, сбой загрузки
	// отбрасывает конкретный файл и сообщается вызывающему
	for _, upload := range attachments {
		attachment, err := s.storeAttachment(ctx, message.ID, upload)
		if err != nil {
			s.log.Warn("Attachment upload failed", "error", err, "file", upload.FileName, "message_id", message.ID)
			message.FailedAttachments = append(message.FailedAttachments, upload.FileName)
			continue
		}
		message.Attachments = append(message.Attachments, attachment)
	}

	s.publishInsert(ctx, message)
	s.notify(ctx, message.ReceiverID, &domain.Notification{
		Type:  domain.NotificationTypeNewMessage,
		Title: "New message",
		Body:  content,
		Data:  map[string]string{"conversation_id": conversationID.String()},
	})

	return message, nil
}

func (s *messageService) SendOffer(ctx context.Context, conversationID, senderID uuid.UUID, offerID uuid.UUID) (*domain.Message, error) {
	message, err := s.append(ctx, conversationID, senderID, domain.MessageTypeUser, "", &offerID)
	if err != nil {
		return nil, err
	}
	s.publishInsert(ctx, message)
	return message, nil
}

func (s *messageService) SendSystem(ctx context.Context, conversationID, senderID uuid.UUID, content string) (*domain.Message, error) {
	message, err := s.append(ctx, conversationID, senderID, domain.MessageTypeSystem, content, nil)
	if err != nil {
		return nil, err
	}
	s.publishInsert(ctx, message)
	return message, nil
}

func (s *messageService) List(ctx context.Context, conversationID, userID uuid.UUID, limit, offset int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, appErrors.ErrForbidden
	}

	messages, err := s.messageRepo.List(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	s.loadAttachments(ctx, conversationID, messages)
	return messages, nil
}

func (s *messageService) ListRecent(ctx context.Context, conversationID, userID uuid.UUID, limit int) ([]*domain.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, appErrors.ErrForbidden
	}

	messages, err := s.messageRepo.ListNewest(ctx, conversationID, limit)
	if err != nil {
		return nil, err
	}

	s.loadAttachments(ctx, conversationID, messages)
	return messages, nil
}

func (s *messageService) loadAttachments(ctx context.Context, conversationID uuid.UUID, messages []*domain.Message) {
	messageIDs := make([]uuid.UUID, 0, len(messages))
	for _, m := range messages {
		messageIDs = append(messageIDs, m.ID)
	}
	attachments, err := s.attachmentRepo.ListByMessageIDs(ctx, messageIDs)
	if err != nil {
		// Лог читается и без вложений
		s.log.Warn("Failed to load attachments", "error", err, "conversation_id", conversationID)
		return
	}
	for _, m := range messages {
		m.Attachments = attachments[m.ID]
	}
}

func (s *messageService) MarkRead(ctx context.Context, conversationID, userID uuid.UUID) (int64, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return 0, err
	}
	if !conversation.HasParticipant(userID) {
		return 0, appErrors.ErrForbidden
	}

	return s.messageRepo.MarkRead(ctx, conversationID, userID)
}

func (s *messageService) append(ctx context.Context, conversationID, senderID uuid.UUID, messageType, content string, offerID *uuid.UUID) (*domain.Message, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(senderID) {
		return nil, appErrors.ErrForbidden
	}

	message := &domain.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		ReceiverID:     conversation.Peer(senderID),
		MessageType:    messageType,
		Content:        content,
		OfferID:        offerID,
		Read:           false,
		CreatedAt:      time.Now(),
	}

	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

func (s *messageService) storeAttachment(ctx context.Context, messageID uuid.UUID, upload AttachmentUpload) (*domain.Attachment, error) {
	attachmentID := uuid.New()
	path := fmt.Sprintf("%s/%s", messageID.String(), attachmentID.String())

	url, err := s.objectStorage.Upload(ctx, upload.Data, path)
	if err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		ID:          attachmentID,
		MessageID:   messageID,
		FileName:    upload.FileName,
		FileType:    upload.FileType,
		FileSize:    int64(len(upload.Data)),
		StoragePath: path,
		URL:         url,
		CreatedAt:   time.Now(),
	}

	if err := s.attachmentRepo.Create(ctx, attachment); err != nil {
		// Строка не записалась — убираем осиротевший файл
		if delErr := s.objectStorage.Delete(ctx, path); delErr != nil {
			s.log.Warn("Failed to delete orphaned upload", "error", delErr, "path", path)
		}
		return nil, err
	}

	return attachment, nil
}

// publishInsert раздает вставку в топик разговора и в топики обоих
// участников (для обновления списка разговоров)
func (s *messageService) publishInsert(ctx context.Context, message *domain.Message) {
	event, err := delivery.NewEvent(delivery.EventTypeInsert, delivery.TableMessages, message)
	if err != nil {
		s.log.Error("Failed to build message event", "error", err)
		return
	}

	topics := []string{
		delivery.ConversationTopic(message.ConversationID),
		delivery.UserTopic(message.SenderID),
		delivery.UserTopic(message.ReceiverID),
	}
	for _, topic := range topics {
		if err := s.bus.Publish(ctx, topic, event); err != nil {
			// Poll-канал закроет пропуск
			s.log.Warn("Failed to publish message event", "error", err, "topic", topic)
		}
	}
}

func (s *messageService) notify(ctx context.Context, userID uuid.UUID, notification *domain.Notification) {
	notification.UserID = userID
	notification.CreatedAt = time.Now()
	if err := s.notificationRepo.Push(ctx, notification); err != nil {
		// Fire-and-forget: сбой уведомления не роняет операцию
		s.log.Warn("Failed to push notification", "error", err, "user_id", userID)
	}
}
