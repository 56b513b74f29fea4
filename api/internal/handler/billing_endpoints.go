package handler

import (
	"net/http"

	"dream-advisor/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary Таблица тарифов
// @Tags billing
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/billing/plans [get]
func (h *ApiHandler) getBillingPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"plans": h.billingService.Plans(),
		"billing": gin.H{
			"mode": h.billingService.Mode(),
		},
	})
}

// @Summary Апгрейд подписки (симуляция)
// @Description Фиксированная задержка, затем перевод профиля на premium
// @Tags billing
// @Produce json
// @Success 200 {object} models.Profile "Обновленный профиль"
// @Failure 409 {object} models.ErrorResponse "Уже premium"
// @Security BearerAuth
// @Router /api/billing/upgrade [post]
func (h *ApiHandler) upgradeSubscription(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}

	profile, err := h.billingService.Upgrade(c.Request.Context(), profileID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	upgradesTotal.Inc()
	c.JSON(http.StatusOK, profile)
}

// @Summary Проверка карты (симуляция)
// @Description Только формат, без алгоритма Луна; 10% случайных отказов.
// @Description Никак не связана с апгрейдом подписки.
// @Tags billing
// @Accept json
// @Produce json
// @Param request body validateCardRequest true "Данные карты"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} models.ErrorResponse "Неверные данные карты"
// @Failure 402 {object} models.ErrorResponse "Карта отклонена"
// @Security BearerAuth
// @Router /api/billing/validate-card [post]
func (h *ApiHandler) validateCard(c *gin.Context) {
	var req validateCardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.billingService.ValidateCard(req.Number, req.Expiry, req.CVC); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

// @Summary Выпуск NFT-сертификата (симуляция)
// @Description Фиксированная задержка и детерминированный фейковый token id
// @Tags certificates
// @Produce json
// @Param session_id path string true "ID сессии"
// @Success 201 {object} models.NFTCertificate
// @Failure 409 {object} models.ErrorResponse "Уже выпущен или нет в рейтинге"
// @Security BearerAuth
// @Router /api/sessions/{session_id}/certificate [post]
func (h *ApiHandler) mintCertificate(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid session id"})
		return
	}

	cert, err := h.nftService.Mint(c.Request.Context(), sessionID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	certificatesMintedTotal.Inc()
	c.JSON(http.StatusCreated, cert)
}
