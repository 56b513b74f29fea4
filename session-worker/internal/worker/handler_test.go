package worker

import (
	"errors"
	"testing"
	"time"

	"dream-advisor/pkg/ai"
	"dream-advisor/session-worker/internal/config"
	"dream-advisor/session-worker/internal/mocks"
	"dream-advisor/shared/advisor"
	"dream-advisor/shared/messaging"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		AIMaxAttempts:     2,
		AIBaseRetryDelay:  time.Millisecond,
		AITimeout:         time.Second,
		ElevenLabsTimeout: time.Second,
		TavusTimeout:      time.Second,
		TavusPollInterval: time.Millisecond,
		TavusMaxPolls:     1,
		StockVideoURL:     "https://cdn.example.com/stock-therapist.mp4",
	}
}

type handlerFixture struct {
	aiClient    *mocks.MockAIClient
	video       *mocks.MockVideoGenerator
	speech      *mocks.MockSpeechSynthesizer
	audio       *mocks.MockAudioSaver
	sessionRepo *mocks.MockSessionRepository
	ideaRepo    *mocks.MockIdeaRepository
	profileRepo *mocks.MockProfileRepository
	lbRepo      *mocks.MockLeaderboardRepository
	lbCache     *mocks.MockLeaderboardCache
	publisher   *mocks.MockClientUpdatePublisher
	handler     *TaskHandler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		aiClient:    mocks.NewMockAIClient(t),
		video:       mocks.NewMockVideoGenerator(t),
		speech:      mocks.NewMockSpeechSynthesizer(t),
		audio:       mocks.NewMockAudioSaver(t),
		sessionRepo: mocks.NewMockSessionRepository(t),
		ideaRepo:    mocks.NewMockIdeaRepository(t),
		profileRepo: mocks.NewMockProfileRepository(t),
		lbRepo:      mocks.NewMockLeaderboardRepository(t),
		lbCache:     mocks.NewMockLeaderboardCache(t),
		publisher:   mocks.NewMockClientUpdatePublisher(t),
	}

	engine := advisor.NewScriptEngine(f.aiClient)
	engine.SetJitterFunc(func() float64 { return 0 })

	f.handler = NewTaskHandler(testConfig(), engine, f.video, f.speech, f.audio,
		f.sessionRepo, f.ideaRepo, f.profileRepo, f.lbRepo, f.lbCache, f.publisher)
	f.handler.syncAudio = true
	return f
}

func testPayload() (messaging.SessionTaskPayload, uuid.UUID, uuid.UUID, uuid.UUID) {
	profileID := uuid.New()
	ideaID := uuid.New()
	sessionID := uuid.New()
	payload := messaging.SessionTaskPayload{
		TaskID:    uuid.NewString(),
		ProfileID: profileID.String(),
		IdeaID:    ideaID.String(),
		SessionID: sessionID.String(),
		PersonaID: "prof-optimist",
		IdeaText:  "An AI app for pets",
	}
	return payload, profileID, ideaID, sessionID
}

func TestTaskHandler_Handle(t *testing.T) {
	t.Run("completes the full pipeline and publishes to the leaderboard", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, profileID, ideaID, sessionID := testPayload()
		persona, _ := models.GetPersona("prof-optimist")

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, payload.IdeaText, mock.Anything).
			Return("Encouraging script about pets.", ai.UsageInfo{TotalTokens: 100}, nil).Once()

		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID,
			"Encouraging script about pets.", persona.Insights, mock.AnythingOfType("string")).Return(nil).Once()

		f.video.On("Enabled").Return(true)
		f.video.On("CreateVideo", mock.Anything, "Encouraging script about pets.", mock.AnythingOfType("string")).
			Return("video-123", nil).Once()
		f.video.On("WaitForVideo", mock.Anything, "video-123").
			Return("https://tavus.example.com/video-123.mp4", nil).Once()
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID,
			mock.MatchedBy(func(v *string) bool {
				return v != nil && *v == "https://tavus.example.com/video-123.mp4"
			}), (*string)(nil)).Return(nil).Once()

		f.speech.On("Enabled").Return(false)

		// prof-optimist 7.8 + 0.18 (длина) + 0.5 (buzzword) = 8.48 -> 8.5
		f.sessionRepo.On("CompleteSession", mock.Anything, sessionID, 8.5, "Genius Level!").Return(nil).Once()

		f.profileRepo.On("GetProfileByID", mock.Anything, profileID).
			Return(&models.Profile{ID: profileID, Username: "founder42"}, nil).Once()
		f.ideaRepo.On("GetIdeaByID", mock.Anything, ideaID).
			Return(&models.Idea{ID: ideaID, Title: "Pet AI"}, nil).Once()
		f.lbRepo.On("CreateEntry", mock.Anything, mock.MatchedBy(func(e *models.LeaderboardEntry) bool {
			return e.SessionID == sessionID && e.Username == "founder42" &&
				e.IdeaTitle == "Pet AI" && e.Score == 8.5 && e.IsPublic
		})).Return(nil).Once()
		f.lbCache.On("Add", mock.Anything, mock.AnythingOfType("models.LeaderboardEntry")).Return(nil).Once()

		f.profileRepo.On("IncrementStats", mock.Anything, profileID, 8.5).Return(nil).Once()
		f.ideaRepo.On("UpdateIdeaStatus", mock.Anything, ideaID, models.IdeaStatusCompleted).Return(nil).Once()

		f.publisher.On("PublishClientUpdate", mock.Anything, mock.AnythingOfType("messaging.SessionUpdatePayload")).Return(nil)

		err := f.handler.Handle(payload)
		require.NoError(t, err)

		f.publisher.AssertCalled(t, "PublishClientUpdate", mock.Anything,
			mock.MatchedBy(func(u messaging.SessionUpdatePayload) bool {
				return u.Status == messaging.UpdateStatusCompleted &&
					u.Score == 8.5 && u.Verdict == "Genius Level!" &&
					u.VideoURL == "https://tavus.example.com/video-123.mp4"
			}))
		f.sessionRepo.AssertExpectations(t)
		f.lbRepo.AssertExpectations(t)
	})

	t.Run("falls back to the canned script when AI attempts are exhausted", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, sessionID := testPayload()
		persona, _ := models.GetPersona("prof-optimist")
		fallback := persona.RenderFallback(payload.IdeaText)

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", ai.UsageInfo{}, errors.New("upstream 503")).Times(2)

		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID, fallback, persona.Insights, mock.Anything).Return(nil).Once()
		f.video.On("Enabled").Return(false)
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID, mock.MatchedBy(func(v *string) bool {
			return v != nil && *v == "https://cdn.example.com/stock-therapist.mp4"
		}), (*string)(nil)).Return(nil).Once()
		f.speech.On("Enabled").Return(false)
		f.sessionRepo.On("CompleteSession", mock.Anything, sessionID, 8.5, "Genius Level!").Return(nil).Once()

		f.profileRepo.On("GetProfileByID", mock.Anything, mock.Anything).
			Return(nil, models.ErrProfileNotFound).Once()
		f.profileRepo.On("IncrementStats", mock.Anything, mock.Anything, 8.5).Return(nil).Once()
		f.ideaRepo.On("UpdateIdeaStatus", mock.Anything, mock.Anything, models.IdeaStatusCompleted).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.NoError(t, err)

		f.aiClient.AssertNumberOfCalls(t, "GenerateText", 2)
		f.sessionRepo.AssertExpectations(t)
	})

	t.Run("uses the stock clip when video generation fails", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, sessionID := testPayload()

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Script.", ai.UsageInfo{}, nil).Once()
		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID, "Script.", mock.Anything, mock.Anything).Return(nil).Once()

		f.video.On("Enabled").Return(true)
		f.video.On("CreateVideo", mock.Anything, "Script.", mock.Anything).
			Return("", errors.New("tavus is down")).Once()
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID, mock.MatchedBy(func(v *string) bool {
			return v != nil && *v == "https://cdn.example.com/stock-therapist.mp4"
		}), (*string)(nil)).Return(nil).Once()

		f.speech.On("Enabled").Return(false)
		f.sessionRepo.On("CompleteSession", mock.Anything, sessionID, mock.Anything, mock.Anything).Return(nil).Once()
		f.profileRepo.On("GetProfileByID", mock.Anything, mock.Anything).Return(&models.Profile{Username: "u"}, nil).Maybe()
		f.ideaRepo.On("GetIdeaByID", mock.Anything, mock.Anything).Return(&models.Idea{Title: "t"}, nil).Maybe()
		f.lbRepo.On("CreateEntry", mock.Anything, mock.Anything).Return(nil).Maybe()
		f.lbCache.On("Add", mock.Anything, mock.Anything).Return(nil).Maybe()
		f.profileRepo.On("IncrementStats", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.ideaRepo.On("UpdateIdeaStatus", mock.Anything, mock.Anything, models.IdeaStatusCompleted).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.NoError(t, err)
		f.sessionRepo.AssertExpectations(t)
	})

	t.Run("synthesizes audio and delivers a follow-up update", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, sessionID := testPayload()
		persona, _ := models.GetPersona("prof-optimist")

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Script.", ai.UsageInfo{}, nil).Once()
		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID, "Script.", mock.Anything, mock.Anything).Return(nil).Once()
		f.video.On("Enabled").Return(false)
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID, mock.AnythingOfType("*string"), (*string)(nil)).Return(nil).Once()

		f.speech.On("Enabled").Return(true)
		f.speech.On("Synthesize", mock.Anything, persona.VoiceID, "Script.").
			Return([]byte("mp3-bytes"), nil).Once()
		f.audio.On("Save", payload.SessionID, []byte("mp3-bytes")).
			Return("/static/audio/"+payload.SessionID+".mp3", nil).Once()
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID, (*string)(nil),
			mock.MatchedBy(func(a *string) bool {
				return a != nil && *a == "/static/audio/"+payload.SessionID+".mp3"
			})).Return(nil).Once()

		f.sessionRepo.On("CompleteSession", mock.Anything, sessionID, mock.Anything, mock.Anything).Return(nil).Once()
		f.profileRepo.On("GetProfileByID", mock.Anything, mock.Anything).Return(&models.Profile{Username: "u"}, nil).Maybe()
		f.ideaRepo.On("GetIdeaByID", mock.Anything, mock.Anything).Return(&models.Idea{Title: "t"}, nil).Maybe()
		f.lbRepo.On("CreateEntry", mock.Anything, mock.Anything).Return(nil).Maybe()
		f.lbCache.On("Add", mock.Anything, mock.Anything).Return(nil).Maybe()
		f.profileRepo.On("IncrementStats", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
		f.ideaRepo.On("UpdateIdeaStatus", mock.Anything, mock.Anything, models.IdeaStatusCompleted).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.NoError(t, err)

		f.publisher.AssertCalled(t, "PublishClientUpdate", mock.Anything,
			mock.MatchedBy(func(u messaging.SessionUpdatePayload) bool {
				return u.Status == messaging.UpdateStatusProgress &&
					u.Stage == messaging.StageAudio &&
					u.AudioURL == "/static/audio/"+payload.SessionID+".mp3"
			}))
		f.speech.AssertExpectations(t)
		f.audio.AssertExpectations(t)
	})

	t.Run("skips leaderboard and profile stats in ephemeral mode", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, sessionID := testPayload()

		// Воркер без БД: только сессии в памяти, рейтинга и профилей нет
		f.handler.profileRepo = nil
		f.handler.leaderboardRepo = nil
		f.handler.leaderboardCache = nil
		f.handler.ideaRepo = nil

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Script.", ai.UsageInfo{}, nil).Once()
		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID, "Script.", mock.Anything, mock.Anything).Return(nil).Once()
		f.video.On("Enabled").Return(false)
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID, mock.AnythingOfType("*string"), (*string)(nil)).Return(nil).Once()
		f.speech.On("Enabled").Return(false)
		f.sessionRepo.On("CompleteSession", mock.Anything, sessionID, mock.Anything, mock.Anything).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.NoError(t, err)

		f.lbRepo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
		f.profileRepo.AssertNotCalled(t, "IncrementStats", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("keeps a below-threshold session off the leaderboard", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, profileID, ideaID, sessionID := testPayload()
		payload.PersonaID = "dr-brutal"

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, payload.IdeaText, mock.Anything).
			Return("Blunt breakdown of the idea.", ai.UsageInfo{}, nil).Once()
		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID,
			"Blunt breakdown of the idea.", mock.Anything, mock.Anything).Return(nil).Once()
		f.video.On("Enabled").Return(false)
		f.sessionRepo.On("UpdateMediaURLs", mock.Anything, sessionID, mock.AnythingOfType("*string"), (*string)(nil)).Return(nil).Once()
		f.speech.On("Enabled").Return(false)

		// dr-brutal 4.2 + 0.18 (длина) + 0.5 (buzzword) = 4.88 -> 4.9: ниже порога 7.0
		f.sessionRepo.On("CompleteSession", mock.Anything, sessionID, 4.9, "Needs Work").Return(nil).Once()
		f.profileRepo.On("IncrementStats", mock.Anything, profileID, 4.9).Return(nil).Once()
		f.ideaRepo.On("UpdateIdeaStatus", mock.Anything, ideaID, models.IdeaStatusCompleted).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.NoError(t, err)

		// Сессия завершается нормально, но в рейтинг не попадает
		f.lbRepo.AssertNotCalled(t, "CreateEntry", mock.Anything, mock.Anything)
		f.lbCache.AssertNotCalled(t, "Add", mock.Anything, mock.Anything)
		f.profileRepo.AssertNotCalled(t, "GetProfileByID", mock.Anything, mock.Anything)
		f.sessionRepo.AssertExpectations(t)
	})

	t.Run("fails the session when the script cannot be persisted", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, sessionID := testPayload()

		f.aiClient.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("Script.", ai.UsageInfo{}, nil).Once()
		f.sessionRepo.On("UpdateScript", mock.Anything, sessionID, mock.Anything, mock.Anything, mock.Anything).
			Return(errors.New("db is gone")).Once()
		f.sessionRepo.On("FailSession", mock.Anything, sessionID).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.Error(t, err)

		f.sessionRepo.AssertCalled(t, "FailSession", mock.Anything, sessionID)
		f.publisher.AssertCalled(t, "PublishClientUpdate", mock.Anything,
			mock.MatchedBy(func(u messaging.SessionUpdatePayload) bool {
				return u.Status == messaging.UpdateStatusFailed
			}))
	})

	t.Run("rejects an unknown persona", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, sessionID := testPayload()
		payload.PersonaID = "dr-unknown"

		f.sessionRepo.On("FailSession", mock.Anything, sessionID).Return(nil).Once()
		f.publisher.On("PublishClientUpdate", mock.Anything, mock.Anything).Return(nil)

		err := f.handler.Handle(payload)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown persona")
	})

	t.Run("rejects a malformed session id", func(t *testing.T) {
		f := newHandlerFixture(t)
		payload, _, _, _ := testPayload()
		payload.SessionID = "not-a-uuid"

		err := f.handler.Handle(payload)
		require.Error(t, err)
	})
}
