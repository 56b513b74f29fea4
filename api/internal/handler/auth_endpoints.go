package handler

import (
	"errors"
	"fmt"
	"net/http"
	"unicode"

	"dream-advisor/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// @Summary Регистрация нового профиля
// @Description Создает новый аккаунт с бесплатным тарифом
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Данные для регистрации"
// @Success 201 {object} map[string]interface{} "Успешная регистрация"
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 409 {object} models.ErrorResponse "Профиль уже существует"
// @Router /auth/register [post]
func (h *ApiHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request data: " + err.Error()}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	if len(req.Username) < minUsernameLength || len(req.Username) > maxUsernameLength {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: fmt.Sprintf("Username length must be between %d and %d characters", minUsernameLength, maxUsernameLength)}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}
	if !usernameRegex.MatchString(req.Username) {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Username can only contain letters, numbers, underscores, and hyphens"}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	if len(req.Password) < minPasswordLength || len(req.Password) > maxPasswordLength {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: fmt.Sprintf("Password length must be between %d and %d characters", minPasswordLength, maxPasswordLength)}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}
	var (
		hasLetter bool
		hasDigit  bool
	)
	for _, char := range req.Password {
		if unicode.IsLetter(char) {
			hasLetter = true
		}
		if unicode.IsDigit(char) {
			hasDigit = true
		}
		if hasLetter && hasDigit {
			break
		}
	}
	if !hasLetter || !hasDigit {
		errResp := models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Password must contain at least one letter and one digit"}
		c.AbortWithStatusJSON(http.StatusBadRequest, errResp)
		return
	}

	profile, err := h.authService.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()

	c.JSON(http.StatusCreated, gin.H{
		"id":                profile.ID.String(),
		"username":          profile.Username,
		"email":             profile.Email,
		"subscription_tier": profile.SubscriptionTier,
	})
}

// @Summary Вход в систему
// @Description Аутентификация профиля и получение токенов
// @Tags auth
// @Accept json
// @Produce json
// @Param request body loginRequest true "Данные для входа"
// @Success 200 {object} models.TokenDetails "Токены доступа"
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Failure 401 {object} models.ErrorResponse "Неверные учетные данные"
// @Router /auth/login [post]
func (h *ApiHandler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	tokens, err := h.authService.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// @Summary Выход из системы
// @Description Отзыв пары токенов профиля
// @Tags auth
// @Accept json
// @Produce json
// @Param request body logoutRequest true "Refresh токен для отзыва"
// @Success 200 {object} map[string]interface{} "Успешный выход"
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *ApiHandler) logout(c *gin.Context) {
	profileID, err := getProfileIDFromContext(c)
	if err != nil {
		return
	}
	accessUUID := c.GetString("access_uuid")
	if accessUUID == "" {
		zap.L().Error("Access UUID missing in context during logout")
		handleServiceError(c, errors.New("internal server error: context missing access uuid"))
		return
	}

	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	// jti refresh-токена достаем без проверки подписи: отзыв и так
	// идемпотентен, а подпись уже проверена при выдаче.
	var refreshUUID string
	if req.RefreshToken != "" {
		token, _, parseErr := new(jwt.Parser).ParseUnverified(req.RefreshToken, &models.Claims{})
		if parseErr == nil {
			if claims, ok := token.Claims.(*models.Claims); ok {
				refreshUUID = claims.ID
			}
		}
	}

	if err := h.authService.Logout(c.Request.Context(), profileID, accessUUID, refreshUUID); err != nil {
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// @Summary Обновление токенов
// @Description Получение новой пары токенов по refresh токену
// @Tags auth
// @Accept json
// @Produce json
// @Param request body refreshRequest true "Refresh токен"
// @Success 200 {object} models.TokenDetails "Новые токены"
// @Failure 401 {object} models.ErrorResponse "Неверный или истекший токен"
// @Router /auth/refresh [post]
func (h *ApiHandler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: "Invalid request body: " + err.Error()})
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	refreshesTotal.Inc()
	c.JSON(http.StatusOK, tokens)
}

// getProfileIDFromContext извлекает ProfileID, установленный AuthMiddleware.
// При отсутствии пишет 500 в ответ и возвращает ошибку.
func getProfileIDFromContext(c *gin.Context) (uuid.UUID, error) {
	profileID, ok := models.GetProfileIDFromContext(c.Request.Context())
	if !ok {
		zap.L().Error("Profile ID missing in request context")
		handleServiceError(c, errors.New("internal server error: context missing profile id"))
		return uuid.Nil, models.ErrInternalServer
	}
	return profileID, nil
}

// getTierFromContext извлекает уровень подписки из контекста запроса.
func getTierFromContext(c *gin.Context) models.SubscriptionTier {
	tier, ok := models.GetTierFromContext(c.Request.Context())
	if !ok || !tier.IsValid() {
		return models.TierFree
	}
	return tier
}
