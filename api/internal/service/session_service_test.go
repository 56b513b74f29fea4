package service

import (
	"context"
	"errors"
	"testing"

	"dream-advisor/api/internal/mocks"
	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/messaging"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestSessionService(t *testing.T) (*SessionService, *mocks.MockSessionRepository, *mocks.MockIdeaRepository, *mocks.MockSessionTaskPublisher) {
	t.Helper()
	sessionRepo := mocks.NewMockSessionRepository(t)
	ideaRepo := mocks.NewMockIdeaRepository(t)
	publisher := mocks.NewMockSessionTaskPublisher(t)
	svc := NewSessionService(sessionRepo, ideaRepo, publisher, zap.NewNop())
	return svc, sessionRepo, ideaRepo, publisher
}

func TestSessionService_Start_Success(t *testing.T) {
	svc, sessionRepo, ideaRepo, publisher := newTestSessionService(t)

	profileID := uuid.New()
	idea := &models.Idea{
		ID:          uuid.New(),
		ProfileID:   profileID,
		Description: "An app that analyzes dreams",
		Status:      models.IdeaStatusSubmitted,
	}

	ideaRepo.On("GetIdeaByID", mock.Anything, idea.ID).Return(idea, nil).Once()
	sessionRepo.On("CreateSession", mock.Anything, mock.AnythingOfType("*models.TherapySession")).Return(nil).Once()
	ideaRepo.On("UpdateIdeaStatus", mock.Anything, idea.ID, models.IdeaStatusAnalyzing).Return(nil).Once()

	var published messaging.SessionTaskPayload
	publisher.On("PublishSessionTask", mock.Anything, mock.AnythingOfType("messaging.SessionTaskPayload")).
		Run(func(args mock.Arguments) {
			published = args.Get(1).(messaging.SessionTaskPayload)
		}).Return(nil).Once()

	session, err := svc.Start(context.Background(), profileID, models.TierFree, idea.ID, "prof-optimist")
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, models.SessionStatusGenerating, session.Status)
	assert.Equal(t, "prof-optimist", session.PersonaID)
	assert.Equal(t, session.ID.String(), published.SessionID)
	assert.Equal(t, idea.Description, published.IdeaText)
	assert.NotEmpty(t, published.TaskID)

	publisher.AssertExpectations(t)
}

func TestSessionService_Start_UnknownPersona(t *testing.T) {
	svc, _, _, _ := newTestSessionService(t)

	_, err := svc.Start(context.Background(), uuid.New(), models.TierFree, uuid.New(), "dr-nobody")
	require.ErrorIs(t, err, models.ErrPersonaNotFound)
}

func TestSessionService_Start_PremiumPersonaGate(t *testing.T) {
	svc, _, ideaRepo, publisher := newTestSessionService(t)

	// shark-vc доступен только premium-подписке
	_, err := svc.Start(context.Background(), uuid.New(), models.TierFree, uuid.New(), "shark-vc")
	require.ErrorIs(t, err, models.ErrPersonaPremiumOnly)
	ideaRepo.AssertNotCalled(t, "GetIdeaByID", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishSessionTask", mock.Anything, mock.Anything)
}

func TestSessionService_Start_ForeignIdea(t *testing.T) {
	svc, _, ideaRepo, _ := newTestSessionService(t)

	idea := &models.Idea{ID: uuid.New(), ProfileID: uuid.New(), Status: models.IdeaStatusSubmitted}
	ideaRepo.On("GetIdeaByID", mock.Anything, idea.ID).Return(idea, nil).Once()

	_, err := svc.Start(context.Background(), uuid.New(), models.TierFree, idea.ID, "prof-optimist")
	require.ErrorIs(t, err, models.ErrIdeaNotFound)
}

func TestSessionService_Start_GenerationInFlight(t *testing.T) {
	svc, _, ideaRepo, _ := newTestSessionService(t)

	profileID := uuid.New()
	idea := &models.Idea{ID: uuid.New(), ProfileID: profileID, Status: models.IdeaStatusAnalyzing}
	ideaRepo.On("GetIdeaByID", mock.Anything, idea.ID).Return(idea, nil).Once()

	_, err := svc.Start(context.Background(), profileID, models.TierFree, idea.ID, "prof-optimist")
	require.ErrorIs(t, err, models.ErrGenerationInFlight)
}

func TestSessionService_Start_PublishFailureFailsSession(t *testing.T) {
	svc, sessionRepo, ideaRepo, publisher := newTestSessionService(t)

	profileID := uuid.New()
	idea := &models.Idea{
		ID:          uuid.New(),
		ProfileID:   profileID,
		Description: "An app that analyzes dreams",
		Status:      models.IdeaStatusSubmitted,
	}

	ideaRepo.On("GetIdeaByID", mock.Anything, idea.ID).Return(idea, nil).Once()
	sessionRepo.On("CreateSession", mock.Anything, mock.Anything).Return(nil).Once()
	ideaRepo.On("UpdateIdeaStatus", mock.Anything, idea.ID, models.IdeaStatusAnalyzing).Return(nil).Once()
	publisher.On("PublishSessionTask", mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()
	sessionRepo.On("FailSession", mock.Anything, mock.AnythingOfType("uuid.UUID")).Return(nil).Once()

	_, err := svc.Start(context.Background(), profileID, models.TierFree, idea.ID, "prof-optimist")
	require.Error(t, err)
	sessionRepo.AssertExpectations(t)
}

func TestLeaderboardService_Top(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{SessionID: uuid.New(), Username: "alice", Score: 9.1},
		{SessionID: uuid.New(), Username: "bob", Score: 7.4},
	}

	t.Run("served from cache", func(t *testing.T) {
		repo := mocks.NewMockLeaderboardRepository(t)
		cache := mocks.NewMockLeaderboardCache(t)
		svc := NewLeaderboardService(repo, cache, zap.NewNop())

		cache.On("Top", mock.Anything, 10, 0).Return(entries, nil).Once()

		got, err := svc.Top(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, entries, got)
		repo.AssertNotCalled(t, "ListEntries", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cold cache falls back to repository", func(t *testing.T) {
		repo := mocks.NewMockLeaderboardRepository(t)
		cache := mocks.NewMockLeaderboardCache(t)
		svc := NewLeaderboardService(repo, cache, zap.NewNop())

		cache.On("Top", mock.Anything, 10, 0).Return(nil, interfaces.ErrNotFound).Once()
		repo.On("ListEntries", mock.Anything, 10, 0).Return(entries, nil).Once()

		got, err := svc.Top(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("no repo and no cache returns empty list", func(t *testing.T) {
		svc := NewLeaderboardService(nil, nil, zap.NewNop())

		got, err := svc.Top(context.Background(), 10, 0)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("limit is clamped", func(t *testing.T) {
		repo := mocks.NewMockLeaderboardRepository(t)
		svc := NewLeaderboardService(repo, nil, zap.NewNop())

		repo.On("ListEntries", mock.Anything, 20, 0).Return([]models.LeaderboardEntry{}, nil).Once()

		_, err := svc.Top(context.Background(), 1000, -3)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})
}
