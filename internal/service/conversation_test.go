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

func newConversationService() (ConversationService, *fakeConversationRepo) {
	repo := newFakeConversationRepo()
	return NewConversationService(repo, newFakeProfileRepo(), newFakeAuditRepo(), nopLogger{}), repo
}

func TestConversationPairIsCanonical(t *testing.T) {
	svc, _ := newConversationService()
	userA := uuid.New()
	userB := uuid.New()

	first, err := svc.GetOrCreate(context.Background(), userA, userB)
	require.NoError(t, err)

	// Обратный порядок участников дает тот же разговор
	second, err := svc.GetOrCreate(context.Background(), userB, userA)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	// Повторный вызов идемпотентен
	third, err := svc.GetOrCreate(context.Background(), userA, userB)
	require.NoError(t, err)
	assert.Equal(t, first.ID, third.ID)

	assert.True(t, first.ParticipantLow.String() < first.ParticipantHigh.String())
}

func TestConversationSelfPairRejected(t *testing.T) {
	svc, _ := newConversationService()
	userA := uuid.New()

	_, err := svc.GetOrCreate(context.Background(), userA, userA)
	assert.ErrorIs(t, err, appErrors.ErrBadRequest)
}

func TestConversationGetForParticipant(t *testing.T) {
	svc, repo := newConversationService()
	userA := uuid.New()
	userB := uuid.New()
	conv := repo.add(userA, userB)

	t.Run("participant", func(t *testing.T) {
		got, err := svc.GetForParticipant(context.Background(), conv.ID, userA)
		require.NoError(t, err)
		assert.Equal(t, conv.ID, got.ID)
	})

	t.Run("outsider", func(t *testing.T) {
		_, err := svc.GetForParticipant(context.Background(), conv.ID, uuid.New())
		assert.ErrorIs(t, err, appErrors.ErrForbidden)
	})

	t.Run("unknown conversation", func(t *testing.T) {
		_, err := svc.GetForParticipant(context.Background(), uuid.New(), userA)
		assert.ErrorIs(t, err, appErrors.ErrConversationNotFound)
	})
}

func TestConversationListEnrichesPeerProfile(t *testing.T) {
	repo := newFakeConversationRepo()
	profiles := newFakeProfileRepo()
	svc := NewConversationService(repo, profiles, newFakeAuditRepo(), nopLogger{})

	userA := uuid.New()
	userB := uuid.New()
	userC := uuid.New()
	repo.add(userA, userB)
	repo.add(userA, userC)
	profiles.profiles[userB] = &domain.Profile{ID: userB, DisplayName: "Dana"}

	summaries, err := svc.ListForUser(context.Background(), userA)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	var withProfile, withoutProfile int
	for _, s := range summaries {
		if s.Peer != nil {
			withProfile++
			assert.Equal(t, "Dana", s.Peer.DisplayName)
		} else {
			// Недоступный профиль не ломает список
			withoutProfile++
		}
	}
	assert.Equal(t, 1, withProfile)
	assert.Equal(t, 1, withoutProfile)
}

func TestConversationSetFlags(t *testing.T) {
	svc, repo := newConversationService()
	userA := uuid.New()
	userB := uuid.New()
	conv := repo.add(userA, userB)

	require.NoError(t, svc.SetFlags(context.Background(), conv.ID, userA, true, false))

	// Пометка видна только проставившему участнику
	summariesA, err := svc.ListForUser(context.Background(), userA)
	require.NoError(t, err)
	require.Len(t, summariesA, 1)
	require.NotNil(t, summariesA[0].Flags)
	assert.True(t, summariesA[0].Flags.Archived)
	assert.False(t, summariesA[0].Flags.Starred)

	summariesB, err := svc.ListForUser(context.Background(), userB)
	require.NoError(t, err)
	require.Len(t, summariesB, 1)
	assert.Nil(t, summariesB[0].Flags)

	// Чужой разговор пометить нельзя
	err = svc.SetFlags(context.Background(), conv.ID, uuid.New(), true, true)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
