package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"time"

	"dream-advisor/session-worker/internal/config"
	"dream-advisor/shared/advisor"
	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/messaging"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// TaskHandler обрабатывает задачи генерации сессий: сценарий, видео,
// озвучка, оценка, рейтинг.
type TaskHandler struct {
	cfg    *config.Config
	engine *advisor.ScriptEngine
	video  advisor.VideoGenerator
	speech advisor.SpeechSynthesizer
	audio  advisor.AudioSaver

	sessionRepo interfaces.SessionRepository
	ideaRepo    interfaces.IdeaRepository
	// profileRepo и leaderboard* равны nil в ephemeral-режиме:
	// без БД нет ни статистики профиля, ни публичного рейтинга.
	profileRepo      interfaces.ProfileRepository
	leaderboardRepo  interfaces.LeaderboardRepository
	leaderboardCache interfaces.LeaderboardCache

	publisher interfaces.ClientUpdatePublisher

	// syncAudio выполняет озвучку синхронно вместо fire-and-forget.
	// Только для тестов.
	syncAudio bool
}

// NewTaskHandler создает новый экземпляр обработчика задач.
func NewTaskHandler(
	cfg *config.Config,
	engine *advisor.ScriptEngine,
	video advisor.VideoGenerator,
	speech advisor.SpeechSynthesizer,
	audio advisor.AudioSaver,
	sessionRepo interfaces.SessionRepository,
	ideaRepo interfaces.IdeaRepository,
	profileRepo interfaces.ProfileRepository,
	leaderboardRepo interfaces.LeaderboardRepository,
	leaderboardCache interfaces.LeaderboardCache,
	publisher interfaces.ClientUpdatePublisher,
) *TaskHandler {
	return &TaskHandler{
		cfg:              cfg,
		engine:           engine,
		video:            video,
		speech:           speech,
		audio:            audio,
		sessionRepo:      sessionRepo,
		ideaRepo:         ideaRepo,
		profileRepo:      profileRepo,
		leaderboardRepo:  leaderboardRepo,
		leaderboardCache: leaderboardCache,
		publisher:        publisher,
	}
}

// Handle обрабатывает одну задачу генерации сессии.
// Возвращенная ошибка приводит к Nack без requeue (сообщение уходит в DLQ).
func (h *TaskHandler) Handle(payload messaging.SessionTaskPayload) (err error) {
	MetricsIncrementTasksReceived()
	taskStartTime := time.Now()
	log.Printf("[TaskID: %s] Обработка задачи: SessionID=%s, PersonaID=%s, длина идеи=%d",
		payload.TaskID, payload.SessionID, payload.PersonaID, len(payload.IdeaText))

	taskStatus := "success"
	defer func() {
		if err != nil {
			taskStatus = "failed"
		}
		pushMetrics()
		log.Printf("[TaskID: %s] Завершение обработки задачи. Статус: %s. Общее время: %v.",
			payload.TaskID, taskStatus, time.Since(taskStartTime))
	}()

	sessionID, parseErr := uuid.Parse(payload.SessionID)
	if parseErr != nil {
		MetricsIncrementTaskFailed("bad_payload")
		return fmt.Errorf("invalid session id %q: %w", payload.SessionID, parseErr)
	}

	persona, ok := models.GetPersona(payload.PersonaID)
	if !ok {
		MetricsIncrementTaskFailed("unknown_persona")
		h.failSession(payload, sessionID, fmt.Sprintf("unknown persona %q", payload.PersonaID))
		return fmt.Errorf("unknown persona %q", payload.PersonaID)
	}

	if payload.IdeaText == "" {
		MetricsIncrementTaskFailed("idea_text_empty")
		h.failSession(payload, sessionID, "idea text is empty")
		return errors.New("idea text is empty")
	}

	h.publishProgress(payload, messaging.StageScript, nil)

	// --- Этап 1: Генерация сценария (LLM с ретраями, затем заготовка) ---
	script, usedFallback := h.generateScript(payload, persona)

	score := h.engine.ComputeScore(persona, payload.IdeaText)
	verdict := advisor.VerdictFor(score)
	advice := advisor.AdviceFor(verdict)

	if saveErr := h.sessionRepo.UpdateScript(context.Background(), sessionID, script, persona.Insights, advice); saveErr != nil {
		log.Printf("[TaskID: %s] Ошибка сохранения сценария: %v", payload.TaskID, saveErr)
		MetricsIncrementTaskFailed("save_script_error")
		h.failSession(payload, sessionID, "failed to persist script")
		return fmt.Errorf("failed to persist script: %w", saveErr)
	}

	update := messaging.SessionUpdatePayload{Script: script}
	h.publishProgress(payload, messaging.StageVideo, &update)

	// --- Этап 2: Видео-аватар (при любой ошибке - стоковый ролик) ---
	videoURL := h.generateVideo(payload, persona, script)
	if saveErr := h.sessionRepo.UpdateMediaURLs(context.Background(), sessionID, models.StringPtr(videoURL), nil); saveErr != nil {
		// Видео не критично для завершения сессии, продолжаем
		log.Printf("[TaskID: %s] Ошибка сохранения video URL: %v", payload.TaskID, saveErr)
	}

	// --- Этап 3: Озвучка (fire-and-forget, результат доедет отдельным апдейтом) ---
	if h.speech != nil && h.speech.Enabled() && h.audio != nil {
		if h.syncAudio {
			h.processAudio(payload, sessionID, persona, script)
		} else {
			go h.processAudio(payload, sessionID, persona, script)
		}
	}

	// --- Этап 4: Финальная оценка и вердикт ---
	if saveErr := h.sessionRepo.CompleteSession(context.Background(), sessionID, score, verdict); saveErr != nil {
		log.Printf("[TaskID: %s] Ошибка завершения сессии: %v", payload.TaskID, saveErr)
		MetricsIncrementTaskFailed("complete_error")
		h.publishFailed(payload, "failed to finalize session")
		return fmt.Errorf("failed to finalize session: %w", saveErr)
	}

	// --- Этап 5: Рейтинг и статистика профиля (пропускается в ephemeral-режиме) ---
	h.publishToLeaderboard(payload, sessionID, persona, score)
	h.updateProfileStats(payload, score)
	h.markIdeaCompleted(payload)

	completed := messaging.SessionUpdatePayload{
		TaskID:    payload.TaskID,
		ProfileID: payload.ProfileID,
		SessionID: payload.SessionID,
		Status:    messaging.UpdateStatusCompleted,
		Script:    script,
		Score:     score,
		Verdict:   verdict,
		VideoURL:  videoURL,
	}
	if pubErr := h.publisher.PublishClientUpdate(context.Background(), completed); pubErr != nil {
		log.Printf("[TaskID: %s] Ошибка отправки финального уведомления: %v", payload.TaskID, pubErr)
		MetricsIncrementTaskFailed("notify_error")
		return fmt.Errorf("failed to publish completion update: %w", pubErr)
	}

	if usedFallback {
		log.Printf("[TaskID: %s] Сессия завершена на заготовленном сценарии. Score: %.1f (%s)", payload.TaskID, score, verdict)
	} else {
		log.Printf("[TaskID: %s] Сессия завершена. Score: %.1f (%s)", payload.TaskID, score, verdict)
	}
	MetricsIncrementTaskSucceeded()
	return nil
}

// generateScript вызывает LLM с ретраями и экспоненциальным бэкоффом;
// после исчерпания попыток возвращает заготовленный сценарий персоны.
func (h *TaskHandler) generateScript(payload messaging.SessionTaskPayload, persona models.Persona) (script string, usedFallback bool) {
	stageStart := time.Now()
	defer func() {
		MetricsObserveStageDuration(string(messaging.StageScript), time.Since(stageStart))
	}()

	baseDelay := h.cfg.AIBaseRetryDelay

	for attempt := 1; attempt <= h.cfg.AIMaxAttempts; attempt++ {
		log.Printf("[TaskID: %s] Вызов AI API (Попытка %d/%d)...", payload.TaskID, attempt, h.cfg.AIMaxAttempts)
		ctx, cancel := context.WithTimeout(context.Background(), h.cfg.AITimeout)
		aiScript, usage, attemptErr := h.engine.GenerateWithAI(ctx, persona, payload.IdeaText)
		cancel()

		if attemptErr == nil {
			log.Printf("[TaskID: %s] AI API успешно ответил (Попытка %d). Длина сценария: %d", payload.TaskID, attempt, len(aiScript))
			if usage.TotalTokens > 0 {
				MetricsAddTokensUsed(float64(usage.TotalTokens))
			}
			return aiScript, false
		}

		if errors.Is(attemptErr, advisor.ErrNoAIClient) {
			// AI не сконфигурирован, ретраи бессмысленны
			break
		}

		log.Printf("[TaskID: %s] Ошибка вызова AI API (Попытка %d/%d): %v", payload.TaskID, attempt, h.cfg.AIMaxAttempts, attemptErr)
		if attempt == h.cfg.AIMaxAttempts {
			log.Printf("[TaskID: %s] Достигнуто максимальное количество попыток (%d) вызова AI.", payload.TaskID, h.cfg.AIMaxAttempts)
			break
		}

		delay := float64(baseDelay) * math.Pow(2, float64(attempt-1))
		jitter := delay * 0.1
		delay += jitter * (rand.Float64()*2 - 1)
		waitDuration := time.Duration(delay)
		if waitDuration < baseDelay {
			waitDuration = baseDelay
		}
		log.Printf("[TaskID: %s] Ожидание %v перед следующей попыткой...", payload.TaskID, waitDuration)
		time.Sleep(waitDuration)
	}

	MetricsIncrementFallbackScript()
	return persona.RenderFallback(payload.IdeaText), true
}

// generateVideo запускает генерацию talking-head видео и дожидается URL.
// Любая ошибка или отключенный клиент приводят к стоковому ролику.
func (h *TaskHandler) generateVideo(payload messaging.SessionTaskPayload, persona models.Persona, script string) string {
	stageStart := time.Now()
	defer func() {
		MetricsObserveStageDuration(string(messaging.StageVideo), time.Since(stageStart))
	}()

	if h.video == nil || !h.video.Enabled() {
		log.Printf("[TaskID: %s] Видео-клиент не сконфигурирован, используем стоковый ролик.", payload.TaskID)
		return h.cfg.StockVideoURL
	}

	// Бюджет этапа: все опросы статуса плюс запас на сам запрос создания
	budget := h.cfg.TavusPollInterval*time.Duration(h.cfg.TavusMaxPolls+1) + h.cfg.TavusTimeout
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	videoName := fmt.Sprintf("%s-%s", persona.ID, payload.SessionID)
	videoID, err := h.video.CreateVideo(ctx, script, videoName)
	if err != nil {
		log.Printf("[TaskID: %s] Ошибка создания видео: %v. Используем стоковый ролик.", payload.TaskID, err)
		return h.cfg.StockVideoURL
	}

	videoURL, err := h.video.WaitForVideo(ctx, videoID)
	if err != nil {
		log.Printf("[TaskID: %s] Видео %s не дождалось готовности: %v. Используем стоковый ролик.", payload.TaskID, videoID, err)
		return h.cfg.StockVideoURL
	}

	log.Printf("[TaskID: %s] Видео готово: %s", payload.TaskID, videoURL)
	return videoURL
}

// processAudio синтезирует озвучку, сохраняет ее и досылает клиенту
// отдельный progress-апдейт с audio URL. Ошибки только логируются:
// озвучка не блокирует завершение сессии.
func (h *TaskHandler) processAudio(payload messaging.SessionTaskPayload, sessionID uuid.UUID, persona models.Persona, script string) {
	stageStart := time.Now()
	defer func() {
		MetricsObserveStageDuration(string(messaging.StageAudio), time.Since(stageStart))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), h.cfg.ElevenLabsTimeout)
	defer cancel()

	audioData, err := h.speech.Synthesize(ctx, persona.VoiceID, script)
	if err != nil {
		log.Printf("[TaskID: %s] Ошибка синтеза озвучки: %v", payload.TaskID, err)
		return
	}

	audioURL, err := h.audio.Save(payload.SessionID, audioData)
	if err != nil {
		log.Printf("[TaskID: %s] Ошибка сохранения озвучки: %v", payload.TaskID, err)
		return
	}

	if saveErr := h.sessionRepo.UpdateMediaURLs(context.Background(), sessionID, nil, models.StringPtr(audioURL)); saveErr != nil {
		log.Printf("[TaskID: %s] Ошибка сохранения audio URL: %v", payload.TaskID, saveErr)
	}

	update := messaging.SessionUpdatePayload{AudioURL: audioURL}
	h.publishProgress(payload, messaging.StageAudio, &update)
	log.Printf("[TaskID: %s] Озвучка готова: %s", payload.TaskID, audioURL)
}

// publishToLeaderboard публикует сессию в рейтинге, если оценка прошла порог.
func (h *TaskHandler) publishToLeaderboard(payload messaging.SessionTaskPayload, sessionID uuid.UUID, persona models.Persona, score float64) {
	if score < models.LeaderboardThreshold {
		return
	}
	if h.leaderboardRepo == nil || h.profileRepo == nil || h.ideaRepo == nil {
		// ephemeral-режим: рейтинга нет
		return
	}

	ctx := context.Background()

	profileID, err := uuid.Parse(payload.ProfileID)
	if err != nil {
		log.Printf("[TaskID: %s] Профиль не задан, сессия не попадает в рейтинг.", payload.TaskID)
		return
	}
	ideaID, err := uuid.Parse(payload.IdeaID)
	if err != nil {
		log.Printf("[TaskID: %s] Идея не задана, сессия не попадает в рейтинг.", payload.TaskID)
		return
	}

	profile, err := h.profileRepo.GetProfileByID(ctx, profileID)
	if err != nil {
		log.Printf("[TaskID: %s] Не удалось получить профиль для рейтинга: %v", payload.TaskID, err)
		return
	}
	idea, err := h.ideaRepo.GetIdeaByID(ctx, ideaID)
	if err != nil {
		log.Printf("[TaskID: %s] Не удалось получить идею для рейтинга: %v", payload.TaskID, err)
		return
	}

	entry := &models.LeaderboardEntry{
		SessionID:   sessionID,
		Username:    profile.Username,
		IdeaTitle:   idea.Title,
		Score:       score,
		PersonaName: persona.Name,
		IsPublic:    true,
	}

	if err := h.leaderboardRepo.CreateEntry(ctx, entry); err != nil {
		if errors.Is(err, interfaces.ErrEntryAlreadyExists) {
			log.Printf("[TaskID: %s] Сессия уже опубликована в рейтинге.", payload.TaskID)
			return
		}
		log.Printf("[TaskID: %s] Ошибка публикации в рейтинг: %v", payload.TaskID, err)
		return
	}

	if h.leaderboardCache != nil {
		if err := h.leaderboardCache.Add(ctx, *entry); err != nil {
			log.Printf("[TaskID: %s] Ошибка обновления кэша рейтинга: %v", payload.TaskID, err)
		}
	}

	log.Printf("[TaskID: %s] Сессия опубликована в рейтинге со score %.1f.", payload.TaskID, score)
}

// updateProfileStats добавляет завершенную сессию к агрегатам профиля.
func (h *TaskHandler) updateProfileStats(payload messaging.SessionTaskPayload, score float64) {
	if h.profileRepo == nil {
		return
	}
	profileID, err := uuid.Parse(payload.ProfileID)
	if err != nil {
		return
	}
	if err := h.profileRepo.IncrementStats(context.Background(), profileID, score); err != nil {
		log.Printf("[TaskID: %s] Ошибка обновления статистики профиля: %v", payload.TaskID, err)
	}
}

// markIdeaCompleted переводит идею в статус completed.
func (h *TaskHandler) markIdeaCompleted(payload messaging.SessionTaskPayload) {
	if h.ideaRepo == nil {
		return
	}
	ideaID, err := uuid.Parse(payload.IdeaID)
	if err != nil {
		return
	}
	if err := h.ideaRepo.UpdateIdeaStatus(context.Background(), ideaID, models.IdeaStatusCompleted); err != nil {
		log.Printf("[TaskID: %s] Ошибка обновления статуса идеи: %v", payload.TaskID, err)
	}
}

// failSession помечает сессию проваленной и уведомляет клиента.
func (h *TaskHandler) failSession(payload messaging.SessionTaskPayload, sessionID uuid.UUID, reason string) {
	if err := h.sessionRepo.FailSession(context.Background(), sessionID); err != nil {
		log.Printf("[TaskID: %s] Ошибка пометки сессии как проваленной: %v", payload.TaskID, err)
	}
	h.publishFailed(payload, reason)
}

// publishFailed отправляет клиенту уведомление о провале пайплайна.
func (h *TaskHandler) publishFailed(payload messaging.SessionTaskPayload, reason string) {
	update := messaging.SessionUpdatePayload{
		TaskID:    payload.TaskID,
		ProfileID: payload.ProfileID,
		SessionID: payload.SessionID,
		Status:    messaging.UpdateStatusFailed,
		Error:     reason,
	}
	if err := h.publisher.PublishClientUpdate(context.Background(), update); err != nil {
		log.Printf("[TaskID: %s] Ошибка отправки уведомления о провале: %v", payload.TaskID, err)
	}
}

// publishProgress отправляет клиенту промежуточный апдейт. extra, если задан,
// дополняет апдейт полями этапа (сценарий, audio URL).
func (h *TaskHandler) publishProgress(payload messaging.SessionTaskPayload, stage messaging.PipelineStage, extra *messaging.SessionUpdatePayload) {
	update := messaging.SessionUpdatePayload{
		TaskID:    payload.TaskID,
		ProfileID: payload.ProfileID,
		SessionID: payload.SessionID,
		Status:    messaging.UpdateStatusProgress,
		Stage:     stage,
	}
	if extra != nil {
		update.Script = extra.Script
		update.AudioURL = extra.AudioURL
	}
	if err := h.publisher.PublishClientUpdate(context.Background(), update); err != nil {
		log.Printf("[TaskID: %s] Ошибка отправки progress-уведомления (%s): %v", payload.TaskID, stage, err)
	}
}
