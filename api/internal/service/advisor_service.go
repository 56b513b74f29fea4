package service

import (
	"context"
	"time"

	"dream-advisor/api/internal/config"
	"dream-advisor/shared/advisor"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// cannedTranscript подставляется вместо распознанного текста, когда STT
// недоступен (нет ключа провайдера). Пользователь все равно получает разбор.
const cannedTranscript = "An app that uses AI to help people practice pitching their startup ideas"

// SpeechTranscriber - речь в текст для голосовых заявок legacy-эндпоинта.
type SpeechTranscriber interface {
	Enabled() bool
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// LegacyResult - результат синхронного разбора идеи (старый proxy-эндпоинт).
type LegacyResult struct {
	Transcript string   `json:"transcript"`
	Script     string   `json:"script"`
	Score      float64  `json:"score"`
	AudioURL   string   `json:"audioUrl,omitempty"`
	VideoURL   string   `json:"videoUrl,omitempty"`
	Therapist  string   `json:"therapist"`
	Insights   []string `json:"insights"`
	Advice     string   `json:"advice"`
}

// AdvisorService выполняет разбор идеи синхронно, в рамках одного HTTP
// запроса: одна попытка генерации сценария, озвучка и видео по возможности.
// Асинхронный пайплайн сессий живет в воркере, здесь только legacy-путь.
type AdvisorService struct {
	cfg         *config.Config
	engine      *advisor.ScriptEngine
	transcriber SpeechTranscriber
	speech      advisor.SpeechSynthesizer
	video       advisor.VideoGenerator
	audio       advisor.AudioSaver
	logger      *zap.Logger
}

// NewAdvisorService creates a new synchronous advisor service.
func NewAdvisorService(
	cfg *config.Config,
	engine *advisor.ScriptEngine,
	transcriber SpeechTranscriber,
	speech advisor.SpeechSynthesizer,
	video advisor.VideoGenerator,
	audio advisor.AudioSaver,
	logger *zap.Logger,
) *AdvisorService {
	return &AdvisorService{
		cfg:         cfg,
		engine:      engine,
		transcriber: transcriber,
		speech:      speech,
		video:       video,
		audio:       audio,
		logger:      logger.Named("AdvisorService"),
	}
}

// Transcribe распознает аудио заявки. Без провайдера возвращает canned-текст.
func (s *AdvisorService) Transcribe(ctx context.Context, audio []byte, filename string) string {
	if s.transcriber == nil || !s.transcriber.Enabled() {
		s.logger.Info("STT provider disabled, using canned transcript")
		return cannedTranscript
	}
	text, err := s.transcriber.Transcribe(ctx, audio, filename)
	if err != nil || text == "" {
		s.logger.Warn("Transcription failed, using canned transcript", zap.Error(err))
		return cannedTranscript
	}
	return text
}

// Analyze генерирует сценарий и оценку синхронно. Одна попытка AI,
// fallback-сценарий персоны при любой ошибке генерации.
func (s *AdvisorService) Analyze(ctx context.Context, persona models.Persona, ideaText string) LegacyResult {
	script := s.engine.GenerateScript(ctx, persona, ideaText)
	score := s.engine.ComputeScore(persona, ideaText)
	verdict := advisor.VerdictFor(score)

	result := LegacyResult{
		Transcript: ideaText,
		Script:     script,
		Score:      score,
		Therapist:  persona.ID,
		Insights:   persona.Insights,
		Advice:     advisor.AdviceFor(verdict),
	}

	result.AudioURL = s.synthesizeAudio(ctx, persona, script)
	result.VideoURL = s.generateVideo(ctx, persona, script)
	return result
}

// synthesizeAudio озвучивает сценарий голосом персоны. Ошибка не фатальна:
// ответ уходит без audioUrl.
func (s *AdvisorService) synthesizeAudio(ctx context.Context, persona models.Persona, script string) string {
	if s.speech == nil || !s.speech.Enabled() || s.audio == nil {
		return ""
	}
	data, err := s.speech.Synthesize(ctx, persona.VoiceID, script)
	if err != nil {
		s.logger.Warn("Speech synthesis failed for legacy request", zap.Error(err),
			zap.String("personaID", persona.ID))
		return ""
	}
	url, err := s.audio.Save("legacy-"+uuid.NewString(), data)
	if err != nil {
		s.logger.Error("Failed to save synthesized audio", zap.Error(err))
		return ""
	}
	return url
}

// generateVideo пытается получить talking-head видео в рамках бюджета
// запроса; при недоступности или таймауте возвращает стоковый ролик.
func (s *AdvisorService) generateVideo(ctx context.Context, persona models.Persona, script string) string {
	if s.video == nil || !s.video.Enabled() {
		return s.cfg.StockVideoURL
	}

	budget := s.cfg.TavusPollInterval*time.Duration(s.cfg.TavusMaxPolls+1) + s.cfg.TavusTimeout
	ctx, cancel := context.WithTimeout(ctx, budget)
	defer cancel()

	videoID, err := s.video.CreateVideo(ctx, script, persona.ID+"-legacy-"+uuid.NewString())
	if err != nil {
		s.logger.Warn("Video creation failed for legacy request, using stock clip", zap.Error(err))
		return s.cfg.StockVideoURL
	}
	videoURL, err := s.video.WaitForVideo(ctx, videoID)
	if err != nil {
		s.logger.Warn("Video did not finish within request budget, using stock clip",
			zap.Error(err), zap.String("videoID", videoID))
		return s.cfg.StockVideoURL
	}
	return videoURL
}
