package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dream-advisor/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxAudioUploadSize ограничивает размер голосовой заявки legacy-эндпоинта.
const maxAudioUploadSize = 10 << 20 // 10 MiB

// @Summary Синхронный разбор идеи (legacy)
// @Description Старый proxy-эндпоинт: принимает аудио или текст и возвращает
// @Description готовый разбор одним ответом, без очереди и аккаунта.
// @Tags legacy
// @Accept mpfd
// @Produce json
// @Param audio formData file false "Голосовая заявка"
// @Param text formData string false "Текст идеи"
// @Param therapist formData string false "ID персоны"
// @Success 200 {object} service.LegacyResult
// @Failure 400 {object} models.LegacyErrorResponse "Нет ни аудио, ни текста"
// @Router /session [post]
func (h *ApiHandler) legacySession(c *gin.Context) {
	therapistID := c.PostForm("therapist")
	persona, ok := models.GetPersona(therapistID)
	if !ok {
		// Старый клиент иногда не присылает персону: берем первую бесплатную
		persona = models.AllPersonas()[0]
	}

	var ideaText string
	kind := "text"

	file, header, err := c.Request.FormFile("audio")
	if err == nil {
		defer file.Close()
		audio, readErr := io.ReadAll(io.LimitReader(file, maxAudioUploadSize))
		if readErr != nil {
			zap.L().Error("Failed to read uploaded audio", zap.Error(readErr))
			c.JSON(http.StatusInternalServerError, models.LegacyErrorResponse{Error: "Failed to read audio file"})
			return
		}
		kind = "audio"
		ideaText = h.advisorService.Transcribe(c.Request.Context(), audio, header.Filename)
	} else {
		ideaText = strings.TrimSpace(c.PostForm("text"))
	}

	if ideaText == "" {
		// Формат ошибки старого клиента: единственное поле "error"
		c.JSON(http.StatusBadRequest, models.LegacyErrorResponse{Error: "No audio file or text provided"})
		return
	}

	legacySessionsTotal.WithLabelValues(kind).Inc()
	result := h.advisorService.Analyze(c.Request.Context(), persona, ideaText)
	c.JSON(http.StatusOK, result)
}

// @Summary Каталог персон
// @Tags legacy
// @Produce json
// @Success 200 {array} therapistResponse
// @Router /therapists [get]
func (h *ApiHandler) listTherapists(c *gin.Context) {
	personas := models.AllPersonas()
	resp := make([]therapistResponse, 0, len(personas))
	for _, p := range personas {
		resp = append(resp, therapistResponse{
			ID:          p.ID,
			Name:        p.Name,
			Personality: p.Personality,
			Voice:       p.VoiceID,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary Состояние сервиса
// @Description Статус и доступность внешних провайдеров (настроенные ключи)
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Router /health [get]
func (h *ApiHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		APIs: healthAPIStatus{
			ElevenLabs: h.speechEnabled != nil && h.speechEnabled(),
			Tavus:      h.videoEnabled != nil && h.videoEnabled(),
		},
	})
}

// @Summary Публичный рейтинг
// @Tags leaderboard
// @Produce json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {array} models.LeaderboardEntry
// @Router /api/leaderboard [get]
func (h *ApiHandler) getLeaderboard(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.leaderboardService.Top(c.Request.Context(), limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}
