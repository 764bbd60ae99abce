package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skill_swap/internal/domain"
	appErrors "skill_swap/pkg/errors"
)

type offerFixture struct {
	conversations *fakeConversationRepo
	offers        *fakeOfferRepo
	swaps         *fakeSwapRepo
	messages      *fakeMessageRepo
	notifications *fakeNotificationRepo
	bus           *fakeBus
	service       OfferService

	sender   uuid.UUID
	receiver uuid.UUID
	conv     *domain.Conversation
}

func newOfferFixture(t *testing.T) *offerFixture {
	t.Helper()

	f := &offerFixture{
		conversations: newFakeConversationRepo(),
		offers:        newFakeOfferRepo(),
		swaps:         newFakeSwapRepo(),
		messages:      newFakeMessageRepo(),
		notifications: newFakeNotificationRepo(),
		bus:           newFakeBus(),
		sender:        uuid.New(),
		receiver:      uuid.New(),
	}
	f.conv = f.conversations.add(f.sender, f.receiver)

	messageService := NewMessageService(
		f.messages, newFakeAttachmentRepo(), f.conversations,
		f.notifications, newFakeStorage(), f.bus, nopLogger{},
	)
	f.service = NewOfferService(
		f.offers, f.swaps, f.conversations,
		f.notifications, newFakeAuditRepo(), messageService, f.bus, nopLogger{},
	)
	return f
}

func (f *offerFixture) create(t *testing.T, swapID *uuid.UUID) *domain.Offer {
	t.Helper()

	offer, err := f.service.Create(context.Background(), CreateOfferInput{
		ConversationID: f.conv.ID,
		SwapID:         swapID,
		SenderID:       f.sender,
		Title:          "Guitar for Spanish",
		SkillOffered:   "guitar",
		SkillWanted:    "spanish",
		SessionDays:    []string{"mon", "wed"},
		Duration:       "1h",
	})
	require.NoError(t, err)
	return offer
}

func TestOfferCreate(t *testing.T) {
	f := newOfferFixture(t)

	offer := f.create(t, nil)

	assert.Equal(t, domain.OfferStatusPending, offer.Status)
	assert.Equal(t, f.receiver, offer.ReceiverID)

	// Сообщение-носитель: пустой content, проставленный offer_id
	carriers, err := f.messages.List(context.Background(), f.conv.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, carriers, 1)
	assert.Empty(t, carriers[0].Content)
	require.NotNil(t, carriers[0].OfferID)
	assert.Equal(t, offer.ID, *carriers[0].OfferID)

	// Уведомление уходит получателю
	recent, err := f.notifications.Recent(context.Background(), f.receiver, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.NotificationTypeOfferCreated, recent[0].Type)
}

func TestOfferCreateValidation(t *testing.T) {
	f := newOfferFixture(t)

	t.Run("missing fields", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), CreateOfferInput{
			ConversationID: f.conv.ID,
			SenderID:       f.sender,
		})
		assert.ErrorIs(t, err, appErrors.ErrBadRequest)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := f.service.Create(context.Background(), CreateOfferInput{
			ConversationID: f.conv.ID,
			SenderID:       uuid.New(),
			Title:          "t",
			SkillOffered:   "a",
			SkillWanted:    "b",
		})
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	})

	t.Run("unknown swap", func(t *testing.T) {
		missing := uuid.New()
		_, err := f.service.Create(context.Background(), CreateOfferInput{
			ConversationID: f.conv.ID,
			SwapID:         &missing,
			SenderID:       f.sender,
			Title:          "t",
			SkillOffered:   "a",
			SkillWanted:    "b",
		})
		assert.ErrorIs(t, err, appErrors.ErrSwapNotFound)
	})
}

func TestOfferAcceptFromChatCreatesSwap(t *testing.T) {
	f := newOfferFixture(t)
	offer := f.create(t, nil)

	accepted, err := f.service.Accept(context.Background(), offer.ID, f.receiver)
	require.NoError(t, err)

	assert.Equal(t, domain.OfferStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.SwapID)

	swap, err := f.swaps.GetByID(context.Background(), *accepted.SwapID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusActive, swap.Status)
	assert.Equal(t, f.receiver, swap.OwnerID)
	require.NotNil(t, swap.PartnerID)
	assert.Equal(t, f.sender, *swap.PartnerID)
	require.NotNil(t, swap.OriginOfferID)
	assert.Equal(t, offer.ID, *swap.OriginOfferID)

	// Подтверждающее системное сообщение после носителя
	log, err := f.messages.List(context.Background(), f.conv.ID, 100, 0)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, domain.MessageTypeSystem, log[1].MessageType)
	assert.Contains(t, log[1].Content, "Guitar for Spanish")
}

func TestOfferAcceptActivatesExistingSwap(t *testing.T) {
	f := newOfferFixture(t)

	swap := &domain.Swap{
		ID:      uuid.New(),
		OwnerID: f.receiver,
		Title:   "Guitar for Spanish",
		Status:  domain.SwapStatusOpen,
	}
	require.NoError(t, f.swaps.Create(context.Background(), swap))
	offer := f.create(t, &swap.ID)

	accepted, err := f.service.Accept(context.Background(), offer.ID, f.receiver)
	require.NoError(t, err)
	require.NotNil(t, accepted.SwapID)
	assert.Equal(t, swap.ID, *accepted.SwapID)

	activated, err := f.swaps.GetByID(context.Background(), swap.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SwapStatusActive, activated.Status)
	require.NotNil(t, activated.PartnerID)
	assert.Equal(t, f.sender, *activated.PartnerID)
}

func TestOfferAcceptOnlyReceiver(t *testing.T) {
	f := newOfferFixture(t)
	offer := f.create(t, nil)

	_, err := f.service.Accept(context.Background(), offer.ID, f.sender)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Equal(t, domain.OfferStatusPending, f.offers.status(offer.ID))
}

func TestOfferTerminalStateIsFinal(t *testing.T) {
	f := newOfferFixture(t)
	offer := f.create(t, nil)

	_, err := f.service.Accept(context.Background(), offer.ID, f.receiver)
	require.NoError(t, err)
	mutationsAfterAccept := f.swaps.mutations()

	// Повторный accept и reject срезаются без побочных эффектов
	_, err = f.service.Accept(context.Background(), offer.ID, f.receiver)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)

	_, err = f.service.Reject(context.Background(), offer.ID, f.receiver)
	assert.ErrorIs(t, err, appErrors.ErrInvalidState)

	assert.Equal(t, mutationsAfterAccept, f.swaps.mutations())
	assert.Equal(t, domain.OfferStatusAccepted, f.offers.status(offer.ID))
}

func TestOfferAcceptCascadeRejectsSiblings(t *testing.T) {
	f := newOfferFixture(t)

	swap := &domain.Swap{
		ID:      uuid.New(),
		OwnerID: f.receiver,
		Title:   "Guitar for Spanish",
		Status:  domain.SwapStatusOpen,
	}
	require.NoError(t, f.swaps.Create(context.Background(), swap))

	winner := f.create(t, &swap.ID)
	sibling := f.create(t, &swap.ID)
	unrelated := f.create(t, nil)

	_, err := f.service.Accept(context.Background(), winner.ID, f.receiver)
	require.NoError(t, err)

	assert.Equal(t, domain.OfferStatusAccepted, f.offers.status(winner.ID))
	assert.Equal(t, domain.OfferStatusRejected, f.offers.status(sibling.ID))
	// Предложение без привязки к этому обмену не трогаем
	assert.Equal(t, domain.OfferStatusPending, f.offers.status(unrelated.ID))
}

func TestOfferReject(t *testing.T) {
	f := newOfferFixture(t)
	offer := f.create(t, nil)

	rejected, err := f.service.Reject(context.Background(), offer.ID, f.receiver)
	require.NoError(t, err)
	assert.Equal(t, domain.OfferStatusRejected, rejected.Status)

	// Отказ не создает и не активирует обмен
	assert.Equal(t, 0, f.swaps.mutations())

	recent, err := f.notifications.Recent(context.Background(), f.sender, 10)
	require.NoError(t, err)
	require.NotEmpty(t, recent)
	assert.Equal(t, domain.NotificationTypeOfferRejected, recent[0].Type)
}
