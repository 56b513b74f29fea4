package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"dream-advisor/api/internal/config"
	"dream-advisor/api/internal/mocks"
	"dream-advisor/shared/advisor"
	"dream-advisor/shared/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testAdvisorConfig() *config.Config {
	return &config.Config{
		StockVideoURL:     "https://example.com/stock.mp4",
		TavusTimeout:      time.Second,
		TavusPollInterval: 10 * time.Millisecond,
		TavusMaxPolls:     2,
	}
}

func testPersona(t *testing.T) models.Persona {
	t.Helper()
	persona, ok := models.GetPersona("prof-optimist")
	require.True(t, ok)
	return persona
}

func TestAdvisorService_Transcribe(t *testing.T) {
	cfg := testAdvisorConfig()
	engine := advisor.NewScriptEngine(nil)

	t.Run("disabled provider returns canned transcript", func(t *testing.T) {
		transcriber := mocks.NewMockSpeechTranscriber(t)
		transcriber.On("Enabled").Return(false).Once()

		svc := NewAdvisorService(cfg, engine, transcriber, nil, nil, nil, zap.NewNop())
		got := svc.Transcribe(context.Background(), []byte("audio"), "pitch.webm")
		assert.Equal(t, cannedTranscript, got)
	})

	t.Run("transcription error returns canned transcript", func(t *testing.T) {
		transcriber := mocks.NewMockSpeechTranscriber(t)
		transcriber.On("Enabled").Return(true).Once()
		transcriber.On("Transcribe", mock.Anything, []byte("audio"), "pitch.webm").
			Return("", errors.New("stt unavailable")).Once()

		svc := NewAdvisorService(cfg, engine, transcriber, nil, nil, nil, zap.NewNop())
		got := svc.Transcribe(context.Background(), []byte("audio"), "pitch.webm")
		assert.Equal(t, cannedTranscript, got)
	})

	t.Run("successful transcription", func(t *testing.T) {
		transcriber := mocks.NewMockSpeechTranscriber(t)
		transcriber.On("Enabled").Return(true).Once()
		transcriber.On("Transcribe", mock.Anything, []byte("audio"), "pitch.webm").
			Return("my brilliant idea", nil).Once()

		svc := NewAdvisorService(cfg, engine, transcriber, nil, nil, nil, zap.NewNop())
		got := svc.Transcribe(context.Background(), []byte("audio"), "pitch.webm")
		assert.Equal(t, "my brilliant idea", got)
	})
}

func TestAdvisorService_Analyze_NoProviders(t *testing.T) {
	cfg := testAdvisorConfig()
	engine := advisor.NewScriptEngine(nil)
	engine.SetJitterFunc(func() float64 { return 0 })
	persona := testPersona(t)

	svc := NewAdvisorService(cfg, engine, nil, nil, nil, nil, zap.NewNop())

	ideaText := "An AI app that analyzes dreams and turns them into startup pitches"
	result := svc.Analyze(context.Background(), persona, ideaText)

	assert.Equal(t, ideaText, result.Transcript)
	assert.Equal(t, persona.ID, result.Therapist)
	assert.Equal(t, persona.Insights, result.Insights)
	// Без AI-клиента сценарий берется из заготовки персоны
	assert.Contains(t, result.Script, ideaText)
	assert.InDelta(t, engine.ComputeScore(persona, ideaText), result.Score, 0.11)
	assert.NotEmpty(t, result.Advice)
	// Нет провайдеров: озвучки нет, видео подменяется стоковым роликом
	assert.Empty(t, result.AudioURL)
	assert.Equal(t, cfg.StockVideoURL, result.VideoURL)
}

func TestAdvisorService_Analyze_WithMedia(t *testing.T) {
	cfg := testAdvisorConfig()
	engine := advisor.NewScriptEngine(nil)
	engine.SetJitterFunc(func() float64 { return 0 })
	persona := testPersona(t)

	speech := mocks.NewMockSpeechSynthesizer(t)
	speech.On("Enabled").Return(true).Once()
	speech.On("Synthesize", mock.Anything, persona.VoiceID, mock.AnythingOfType("string")).
		Return([]byte("mp3-bytes"), nil).Once()

	audio := mocks.NewMockAudioSaver(t)
	audio.On("Save", mock.MatchedBy(func(id string) bool {
		return strings.HasPrefix(id, "legacy-")
	}), []byte("mp3-bytes")).Return("/static/audio/legacy-x.mp3", nil).Once()

	video := mocks.NewMockVideoGenerator(t)
	video.On("Enabled").Return(true).Once()
	video.On("CreateVideo", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("string")).
		Return("vid-123", nil).Once()
	video.On("WaitForVideo", mock.Anything, "vid-123").
		Return("https://cdn.example.com/vid-123.mp4", nil).Once()

	svc := NewAdvisorService(cfg, engine, nil, speech, video, audio, zap.NewNop())
	result := svc.Analyze(context.Background(), persona, "An app that analyzes dreams")

	assert.Equal(t, "/static/audio/legacy-x.mp3", result.AudioURL)
	assert.Equal(t, "https://cdn.example.com/vid-123.mp4", result.VideoURL)

	speech.AssertExpectations(t)
	audio.AssertExpectations(t)
	video.AssertExpectations(t)
}

func TestAdvisorService_Analyze_VideoTimeoutFallsBackToStock(t *testing.T) {
	cfg := testAdvisorConfig()
	engine := advisor.NewScriptEngine(nil)
	persona := testPersona(t)

	video := mocks.NewMockVideoGenerator(t)
	video.On("Enabled").Return(true).Once()
	video.On("CreateVideo", mock.Anything, mock.Anything, mock.Anything).
		Return("vid-slow", nil).Once()
	video.On("WaitForVideo", mock.Anything, "vid-slow").
		Return("", context.DeadlineExceeded).Once()

	svc := NewAdvisorService(cfg, engine, nil, nil, video, nil, zap.NewNop())
	result := svc.Analyze(context.Background(), persona, "An app that analyzes dreams")

	assert.Equal(t, cfg.StockVideoURL, result.VideoURL)
}
