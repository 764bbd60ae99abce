package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"skill_swap/internal/delivery"
	"skill_swap/internal/domain"
	"skill_swap/internal/repository"
	appErrors "skill_swap/pkg/errors"
	"skill_swap/pkg/logger"
)

// CreateOfferInput — поля нового предложения об обмене
type CreateOfferInput struct {
	ConversationID uuid.UUID
	SwapID         *uuid.UUID
	SenderID       uuid.UUID
	Title          string
	SkillOffered   string
	SkillWanted    string
	SessionDays    []string
	Duration       string
}

type OfferService interface {
	// Create пишет pending-предложение, затем сообщение-носитель, затем
	// уведомление получателю. Сбой записи предложения отменяет все три шага.
	Create(ctx context.Context, input CreateOfferInput) (*domain.Offer, error)
	// Accept — терминальный переход. Побочные эффекты (upsert обмена,
	// каскадное отклонение, подтверждающее сообщение, уведомление)
	// выполняются ровно один раз: повторный вызов срезается на проверке
	// статуса до каких-либо мутаций обмена.
	Accept(ctx context.Context, offerID, actingUserID uuid.UUID) (*domain.Offer, error)
	Reject(ctx context.Context, offerID, actingUserID uuid.UUID) (*domain.Offer, error)
	ListByConversation(ctx context.Context, conversationID, userID uuid.UUID) ([]*domain.Offer, error)
}

type offerService struct {
	offerRepo        repository.OfferRepository
	swapRepo         repository.SwapRepository
	conversationRepo repository.ConversationRepository
	notificationRepo repository.NotificationRepository
	auditRepo        repository.AuditRepository
	messages         MessageService
	bus              delivery.EventBus
	log              logger.Logger
}

func NewOfferService(
	offerRepo repository.OfferRepository,
	swapRepo repository.SwapRepository,
	conversationRepo repository.ConversationRepository,
	notificationRepo repository.NotificationRepository,
	auditRepo repository.AuditRepository,
	messages MessageService,
	bus delivery.EventBus,
	log logger.Logger,
) OfferService {
	return &offerService{
		offerRepo:        offerRepo,
		swapRepo:         swapRepo,
		conversationRepo: conversationRepo,
		notificationRepo: notificationRepo,
		auditRepo:        auditRepo,
		messages:         messages,
		bus:              bus,
		log:              log,
	}
}

func (s *offerService) Create(ctx context.Context, input CreateOfferInput) (*domain.Offer, error) {
	if input.Title == "" || input.SkillOffered == "" || input.SkillWanted == "" {
		return nil, appErrors.ErrBadRequest
	}

	conversation, err := s.conversationRepo.GetByID(ctx, input.ConversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(input.SenderID) {
		return nil, appErrors.ErrForbidden
	}

	// Предложение с привязкой к существующему обмену должно на него указывать
	if input.SwapID != nil {
		if _, err := s.swapRepo.GetByID(ctx, *input.SwapID); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	offer := &domain.Offer{
		ID:             uuid.New(),
		ConversationID: input.ConversationID,
		SwapID:         input.SwapID,
		SenderID:       input.SenderID,
		ReceiverID:     conversation.Peer(input.SenderID),
		Title:          input.Title,
		SkillOffered:   input.SkillOffered,
		SkillWanted:    input.SkillWanted,
		SessionDays:    input.SessionDays,
		Duration:       input.Duration,
		Status:         domain.OfferStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.offerRepo.Create(ctx, offer); err != nil {
		// Ни сообщения, ни уведомления после сбоя записи
		return nil, err
	}

	if _, err := s.messages.SendOffer(ctx, offer.ConversationID, offer.SenderID, offer.ID); err != nil {
		s.log.Error("Failed to append offer message", "error", err, "offer_id", offer.ID)
	}

	s.notify(ctx, offer.ReceiverID, &domain.Notification{
		Type:  domain.NotificationTypeOfferCreated,
		Title: "New swap offer",
		Body:  offer.Title,
		Data:  offerData(offer),
	})
	s.audit(ctx, offer.SenderID, offer, domain.EventTypeOfferCreated)
	s.publishUpdate(ctx, offer, delivery.EventTypeInsert)

	return offer, nil
}

func (s *offerService) Accept(ctx context.Context, offerID, actingUserID uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actingUserID != offer.ReceiverID {
		return nil, appErrors.ErrUnauthorized
	}
	if offer.IsTerminal() {
		return nil, appErrors.ErrInvalidState
	}

	// Охраняемый переход: при конкурентном accept/reject выигрывает
	// первая запись, проигравший не доходит до побочных эффектов
	flipped, err := s.offerRepo.UpdateStatusIfPending(ctx, offer.ID, domain.OfferStatusAccepted)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, appErrors.ErrInvalidState
	}
	offer.Status = domain.OfferStatusAccepted

	swapID, err := s.upsertSwap(ctx, offer)
	if err != nil {
		// Статус уже терминален; мутацию обмена не откатываем, сообщаем
		s.log.Error("Failed to upsert swap after accept", "error", err, "offer_id", offer.ID)
		return nil, err
	}
	offer.SwapID = &swapID

	rejected, err := s.offerRepo.RejectPendingBySwap(ctx, swapID, offer.ID)
	if err != nil {
		s.log.Error("Failed to cascade reject offers", "error", err, "swap_id", swapID)
	} else if rejected > 0 {
		s.log.Info("Cascade rejected sibling offers", "swap_id", swapID, "count", rejected)
	}

	confirmation := fmt.Sprintf("Offer accepted: %s", offer.Title)
	if _, err := s.messages.SendSystem(ctx, offer.ConversationID, actingUserID, confirmation); err != nil {
		s.log.Warn("Failed to append confirmation message", "error", err, "offer_id", offer.ID)
	}

	s.notify(ctx, offer.SenderID, &domain.Notification{
		Type:  domain.NotificationTypeOfferAccepted,
		Title: "Offer accepted",
		Body:  offer.Title,
		Data:  offerData(offer),
	})
	s.audit(ctx, actingUserID, offer, domain.EventTypeOfferAccepted)
	s.publishUpdate(ctx, offer, delivery.EventTypeUpdate)

	return offer, nil
}

func (s *offerService) Reject(ctx context.Context, offerID, actingUserID uuid.UUID) (*domain.Offer, error) {
	offer, err := s.offerRepo.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if actingUserID != offer.ReceiverID {
		return nil, appErrors.ErrUnauthorized
	}
	if offer.IsTerminal() {
		return nil, appErrors.ErrInvalidState
	}

	flipped, err := s.offerRepo.UpdateStatusIfPending(ctx, offer.ID, domain.OfferStatusRejected)
	if err != nil {
		return nil, err
	}
	if !flipped {
		return nil, appErrors.ErrInvalidState
	}
	offer.Status = domain.OfferStatusRejected

	// Никакой мутации обмена при отказе
	s.notify(ctx, offer.SenderID, &domain.Notification{
		Type:  domain.NotificationTypeOfferRejected,
		Title: "Offer rejected",
		Body:  offer.Title,
		Data:  offerData(offer),
	})
	s.audit(ctx, actingUserID, offer, domain.EventTypeOfferRejected)
	s.publishUpdate(ctx, offer, delivery.EventTypeUpdate)

	return offer, nil
}

func (s *offerService) ListByConversation(ctx context.Context, conversationID, userID uuid.UUID) ([]*domain.Offer, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conversation.HasParticipant(userID) {
		return nil, appErrors.ErrForbidden
	}

	return s.offerRepo.ListByConversation(ctx, conversationID)
}

// upsertSwap: предложение с существующим обменом активирует его,
// предложение "из чата" (без swap_id) всегда создает новый обмен
func (s *offerService) upsertSwap(ctx context.Context, offer *domain.Offer) (uuid.UUID, error) {
	if offer.SwapID != nil {
		err := s.swapRepo.Activate(ctx, *offer.SwapID, offer.SenderID, offer.ConversationID, offer.ID)
		if err != nil {
			return uuid.Nil, err
		}
		return *offer.SwapID, nil
	}

	now := time.Now()
	swap := &domain.Swap{
		ID:             uuid.New(),
		OwnerID:        offer.ReceiverID,
		PartnerID:      &offer.SenderID,
		Title:          offer.Title,
		SkillOffered:   offer.SkillOffered,
		SkillWanted:    offer.SkillWanted,
		SessionDays:    offer.SessionDays,
		Duration:       offer.Duration,
		Status:         domain.SwapStatusActive,
		ConversationID: &offer.ConversationID,
		OriginOfferID:  &offer.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.swapRepo.Create(ctx, swap); err != nil {
		return uuid.Nil, err
	}
	return swap.ID, nil
}

func (s *offerService) publishUpdate(ctx context.Context, offer *domain.Offer, eventType string) {
	event, err := delivery.NewEvent(eventType, delivery.TableOffers, offer)
	if err != nil {
		s.log.Error("Failed to build offer event", "error", err)
		return
	}

	// Статусы предложений идут в пользовательские топики
	for _, topic := range []string{delivery.UserTopic(offer.SenderID), delivery.UserTopic(offer.ReceiverID)} {
		if err := s.bus.Publish(ctx, topic, event); err != nil {
			s.log.Warn("Failed to publish offer event", "error", err, "topic", topic)
		}
	}
}

func (s *offerService) notify(ctx context.Context, userID uuid.UUID, notification *domain.Notification) {
	notification.UserID = userID
	notification.CreatedAt = time.Now()
	if err := s.notificationRepo.Push(ctx, notification); err != nil {
		s.log.Warn("Failed to push notification", "error", err, "user_id", userID)
	}
}

func (s *offerService) audit(ctx context.Context, actorID uuid.UUID, offer *domain.Offer, eventType string) {
	auditLog := &domain.AuditLog{
		EventTime:      time.Now(),
		ActorUserID:    &actorID,
		ActorRole:      domain.ActorRoleUser,
		ConversationID: &offer.ConversationID,
		EventType:      eventType,
		Payload: map[string]interface{}{
			"offer_id": offer.ID.String(),
			"status":   offer.Status,
		},
	}
	if err := s.auditRepo.CreateLog(ctx, auditLog); err != nil {
		s.log.Warn("Failed to audit offer transition", "error", err)
	}
}

func offerData(offer *domain.Offer) map[string]string {
	return map[string]string{
		"offer_id":        offer.ID.String(),
		"conversation_id": offer.ConversationID.String(),
	}
}
