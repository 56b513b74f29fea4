package handler

import (
	"net/http"
	"strconv"

	"dream-advisor/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary Подача идеи
// @Description Создает новую идею стартапа в статусе submitted
// @Tags ideas
// @Accept json
// @Produce json
// @Param request body submitIdeaRequest true "Идея"
// @Success 201 {object} models.Idea "Созданная идея"
// @Failure 400 {object} models.ErrorResponse "Описание короче 10 символов"
// @Security BearerAuth
// @Router /api/ideas [post]
func (h *ApiHandler) submitIdea(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}

	var req submitIdeaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	idea, err := h.ideaService.Submit(c.Request.Context(), profileID, req.Title, req.Description, models.SubmissionMethod(req.SubmissionMethod))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	ideasSubmittedTotal.Inc()
	c.JSON(http.StatusCreated, idea)
}

// @Summary Список идей профиля
// @Tags ideas
// @Produce json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {array} models.Idea
// @Security BearerAuth
// @Router /api/ideas [get]
func (h *ApiHandler) listIdeas(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	ideas, err := h.ideaService.List(c.Request.Context(), profileID, limit, offset)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ideas)
}

// @Summary Идея по ID
// @Tags ideas
// @Produce json
// @Param idea_id path string true "ID идеи"
// @Success 200 {object} models.Idea
// @Failure 404 {object} models.ErrorResponse "Идея не найдена"
// @Security BearerAuth
// @Router /api/ideas/{idea_id} [get]
func (h *ApiHandler) getIdea(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}
	ideaID, err := uuid.Parse(c.Param("idea_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid idea id"})
		return
	}

	idea, err := h.ideaService.Get(c.Request.Context(), profileID, ideaID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, idea)
}

// @Summary Архивация идеи
// @Tags ideas
// @Produce json
// @Param idea_id path string true "ID идеи"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/ideas/{idea_id}/archive [post]
func (h *ApiHandler) archiveIdea(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}
	ideaID, err := uuid.Parse(c.Param("idea_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid idea id"})
		return
	}

	if err := h.ideaService.Archive(c.Request.Context(), profileID, ideaID); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": string(models.IdeaStatusArchived)})
}

// @Summary Запуск сессии разбора
// @Description Создает сессию в статусе generating и ставит задачу воркеру
// @Tags sessions
// @Accept json
// @Produce json
// @Param idea_id path string true "ID идеи"
// @Param request body startSessionRequest true "Персона"
// @Success 202 {object} map[string]interface{} "Сессия принята в генерацию"
// @Failure 403 {object} models.ErrorResponse "Персона требует premium"
// @Security BearerAuth
// @Router /api/ideas/{idea_id}/sessions [post]
func (h *ApiHandler) startSession(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}
	ideaID, err := uuid.Parse(c.Param("idea_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid idea id"})
		return
	}

	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	session, err := h.sessionService.Start(c.Request.Context(), profileID, getTierFromContext(c), ideaID, req.PersonaID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	sessionsStartedTotal.WithLabelValues(session.PersonaID).Inc()
	c.JSON(http.StatusAccepted, gin.H{
		"session_id": session.ID.String(),
		"status":     session.Status,
	})
}

// @Summary Состояние сессии
// @Tags sessions
// @Produce json
// @Param session_id path string true "ID сессии"
// @Success 200 {object} models.TherapySession
// @Failure 404 {object} models.ErrorResponse "Сессия не найдена"
// @Security BearerAuth
// @Router /api/sessions/{session_id} [get]
func (h *ApiHandler) getSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid session id"})
		return
	}

	session, err := h.sessionService.Get(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
