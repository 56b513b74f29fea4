package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Текущий профиль
// @Description Возвращает профиль с тарифом и агрегатами по токену
// @Tags profile
// @Produce json
// @Success 200 {object} models.Profile "Профиль"
// @Failure 401 {object} models.ErrorResponse "Неавторизован"
// @Security BearerAuth
// @Router /api/me [get]
func (h *ApiHandler) getMe(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}

	profile, err := h.profileRepo.GetProfileByID(c.Request.Context(), profileID)
	if err != nil {
		zap.L().Warn("Failed to fetch profile for /me", zap.String("profileID", profileID.String()), zap.Error(err))
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
