package service

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"dream-advisor/api/internal/mocks"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestIdeaService_Submit(t *testing.T) {
	profileID := uuid.New()

	t.Run("success with explicit title", func(t *testing.T) {
		ideaRepo := mocks.NewMockIdeaRepository(t)
		svc := NewIdeaService(ideaRepo, zap.NewNop())

		ideaRepo.On("CreateIdea", mock.Anything, mock.AnythingOfType("*models.Idea")).Return(nil).Once()

		idea, err := svc.Submit(context.Background(), profileID, "Dream app", "An app that analyzes dreams", models.SubmissionText)
		require.NoError(t, err)
		assert.Equal(t, "Dream app", idea.Title)
		assert.Equal(t, models.IdeaStatusSubmitted, idea.Status)
		assert.Equal(t, models.SubmissionText, idea.SubmissionMethod)
		assert.Equal(t, profileID, idea.ProfileID)
	})

	t.Run("title defaults to truncated description", func(t *testing.T) {
		ideaRepo := mocks.NewMockIdeaRepository(t)
		svc := NewIdeaService(ideaRepo, zap.NewNop())

		ideaRepo.On("CreateIdea", mock.Anything, mock.Anything).Return(nil).Once()

		longDescription := strings.Repeat("marketplace for dreams ", 10)
		idea, err := svc.Submit(context.Background(), profileID, "", longDescription, models.SubmissionText)
		require.NoError(t, err)
		assert.Len(t, idea.Title, 60)
	})

	t.Run("title truncation keeps multi-byte runes intact", func(t *testing.T) {
		ideaRepo := mocks.NewMockIdeaRepository(t)
		svc := NewIdeaService(ideaRepo, zap.NewNop())

		ideaRepo.On("CreateIdea", mock.Anything, mock.Anything).Return(nil).Once()

		longDescription := strings.Repeat("маркетплейс снов ", 10)
		idea, err := svc.Submit(context.Background(), profileID, "", longDescription, models.SubmissionText)
		require.NoError(t, err)
		assert.True(t, utf8.ValidString(idea.Title), "title must not end mid-rune")
		assert.Equal(t, 60, utf8.RuneCountInString(idea.Title))
	})

	t.Run("unknown method is normalized to text", func(t *testing.T) {
		ideaRepo := mocks.NewMockIdeaRepository(t)
		svc := NewIdeaService(ideaRepo, zap.NewNop())

		ideaRepo.On("CreateIdea", mock.Anything, mock.Anything).Return(nil).Once()

		idea, err := svc.Submit(context.Background(), profileID, "App", "An app that analyzes dreams", models.SubmissionMethod("carrier-pigeon"))
		require.NoError(t, err)
		assert.Equal(t, models.SubmissionText, idea.SubmissionMethod)
	})

	t.Run("too short description", func(t *testing.T) {
		ideaRepo := mocks.NewMockIdeaRepository(t)
		svc := NewIdeaService(ideaRepo, zap.NewNop())

		_, err := svc.Submit(context.Background(), profileID, "App", "   short  ", models.SubmissionText)
		require.ErrorIs(t, err, models.ErrIdeaTooShort)
		ideaRepo.AssertNotCalled(t, "CreateIdea", mock.Anything, mock.Anything)
	})
}

func TestIdeaService_Get_OwnershipCheck(t *testing.T) {
	ideaRepo := mocks.NewMockIdeaRepository(t)
	svc := NewIdeaService(ideaRepo, zap.NewNop())

	owner := uuid.New()
	stranger := uuid.New()
	idea := &models.Idea{ID: uuid.New(), ProfileID: owner, Title: "Mine"}

	ideaRepo.On("GetIdeaByID", mock.Anything, idea.ID).Return(idea, nil).Twice()

	got, err := svc.Get(context.Background(), owner, idea.ID)
	require.NoError(t, err)
	assert.Equal(t, idea.ID, got.ID)

	// Чужая идея неотличима от несуществующей
	_, err = svc.Get(context.Background(), stranger, idea.ID)
	require.ErrorIs(t, err, models.ErrIdeaNotFound)
}

func TestIdeaService_List_ClampsLimit(t *testing.T) {
	ideaRepo := mocks.NewMockIdeaRepository(t)
	svc := NewIdeaService(ideaRepo, zap.NewNop())

	profileID := uuid.New()
	ideaRepo.On("ListIdeasByProfile", mock.Anything, profileID, 20, 0).
		Return([]models.Idea{}, nil).Twice()

	_, err := svc.List(context.Background(), profileID, 0, -5)
	require.NoError(t, err)
	_, err = svc.List(context.Background(), profileID, 500, 0)
	require.NoError(t, err)

	ideaRepo.AssertExpectations(t)
}

func TestIdeaService_Archive(t *testing.T) {
	ideaRepo := mocks.NewMockIdeaRepository(t)
	svc := NewIdeaService(ideaRepo, zap.NewNop())

	owner := uuid.New()
	idea := &models.Idea{ID: uuid.New(), ProfileID: owner}

	ideaRepo.On("GetIdeaByID", mock.Anything, idea.ID).Return(idea, nil).Once()
	ideaRepo.On("UpdateIdeaStatus", mock.Anything, idea.ID, models.IdeaStatusArchived).Return(nil).Once()

	require.NoError(t, svc.Archive(context.Background(), owner, idea.ID))
	ideaRepo.AssertExpectations(t)
}
