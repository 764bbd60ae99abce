package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"skill_swap/internal/delivery"
	"skill_swap/internal/domain"
	appErrors "skill_swap/pkg/errors"
)

type messageFixture struct {
	conversations *fakeConversationRepo
	messages      *fakeMessageRepo
	notifications *fakeNotificationRepo
	storage       *fakeStorage
	bus           *fakeBus
	service       MessageService

	sender   uuid.UUID
	receiver uuid.UUID
	conv     *domain.Conversation
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()

	f := &messageFixture{
		conversations: newFakeConversationRepo(),
		messages:      newFakeMessageRepo(),
		notifications: newFakeNotificationRepo(),
		storage:       newFakeStorage(),
		bus:           newFakeBus(),
		sender:        uuid.New(),
		receiver:      uuid.New(),
	}
	f.conv = f.conversations.add(f.sender, f.receiver)
	f.service = NewMessageService(
		f.messages, newFakeAttachmentRepo(), f.conversations,
		f.notifications, f.storage, f.bus, nopLogger{},
	)
	return f
}

func TestMessageSend(t *testing.T) {
	f := newMessageFixture(t)

	message, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, f.receiver, message.ReceiverID)
	assert.False(t, message.Read)

	// Вставка раздается в топик разговора и обоим участникам
	assert.Contains(t, f.bus.topics(), delivery.ConversationTopic(f.conv.ID))
	assert.Contains(t, f.bus.topics(), delivery.UserTopic(f.sender))
	assert.Contains(t, f.bus.topics(), delivery.UserTopic(f.receiver))

	recent, err := f.notifications.Recent(context.Background(), f.receiver, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, domain.NotificationTypeNewMessage, recent[0].Type)
}

func TestMessageSendValidation(t *testing.T) {
	f := newMessageFixture(t)

	t.Run("empty", func(t *testing.T) {
		_, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "", nil)
		assert.ErrorIs(t, err, appErrors.ErrEmptyMessage)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := f.service.Send(context.Background(), f.conv.ID, uuid.New(), "hello", nil)
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	})

	t.Run("attachments only", func(t *testing.T) {
		_, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "", []AttachmentUpload{
			{FileName: "a.png", FileType: "image/png", Data: []byte("png")},
		})
		assert.NoError(t, err)
	})
}

func TestMessagePartialAttachmentFailure(t *testing.T) {
	f := newMessageFixture(t)
	f.storage.failData = "broken"

	message, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "files", []AttachmentUpload{
		{FileName: "ok.png", FileType: "image/png", Data: []byte("fine")},
		{FileName: "bad.png", FileType: "image/png", Data: []byte("broken")},
	})
	require.NoError(t, err, "сбой вложения не откатывает сообщение")

	require.Len(t, message.Attachments, 1)
	assert.Equal(t, "ok.png", message.Attachments[0].FileName)
	assert.Equal(t, []string{"bad.png"}, message.FailedAttachments)

	// Строка сообщения записана несмотря на сбой
	stored, err := f.messages.GetByID(context.Background(), message.ID)
	require.NoError(t, err)
	assert.Equal(t, "files", stored.Content)
}

func TestMessageListOrder(t *testing.T) {
	f := newMessageFixture(t)

	first, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "one", nil)
	require.NoError(t, err)
	second, err := f.service.Send(context.Background(), f.conv.ID, f.receiver, "two", nil)
	require.NoError(t, err)

	listed, err := f.service.List(context.Background(), f.conv.ID, f.sender, 100, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, first.ID, listed[0].ID)
	assert.Equal(t, second.ID, listed[1].ID)

	// Чужому лог не отдается
	_, err = f.service.List(context.Background(), f.conv.ID, uuid.New(), 100, 0)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMessageListRecentReturnsTailWindow(t *testing.T) {
	f := newMessageFixture(t)

	var sent []*domain.Message
	for i := 0; i < 5; i++ {
		m, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "ping", nil)
		require.NoError(t, err)
		sent = append(sent, m)
	}

	// Окно меньше лога: возвращается его хвост, по возрастанию
	recent, err := f.service.ListRecent(context.Background(), f.conv.ID, f.sender, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, sent[2].ID, recent[0].ID)
	assert.Equal(t, sent[4].ID, recent[2].ID)

	_, err = f.service.ListRecent(context.Background(), f.conv.ID, uuid.New(), 3)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMessageMarkReadIdempotent(t *testing.T) {
	f := newMessageFixture(t)

	for i := 0; i < 3; i++ {
		_, err := f.service.Send(context.Background(), f.conv.ID, f.sender, "ping", nil)
		require.NoError(t, err)
	}

	affected, err := f.service.MarkRead(context.Background(), f.conv.ID, f.receiver)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	// Повторный вызов успешен и ничего не трогает
	affected, err = f.service.MarkRead(context.Background(), f.conv.ID, f.receiver)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)

	// Флаг получателя не затрагивает сообщения, адресованные отправителю
	affected, err = f.service.MarkRead(context.Background(), f.conv.ID, f.sender)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}
