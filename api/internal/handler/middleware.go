package handler

import (
	"strings"

	"dream-advisor/shared/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func (h *ApiHandler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			zap.L().Warn("Authorization header missing")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			zap.L().Warn("Invalid Authorization header format")
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, models.ErrTokenInvalid)
			return
		}

		claims, err := h.authService.VerifyAccessToken(c.Request.Context(), parts[1])
		if err != nil {
			tokenVerificationsTotal.WithLabelValues("failure").Inc()
			handleServiceError(c, err)
			return
		}

		tokenVerificationsTotal.WithLabelValues("success").Inc()
		// Идентичность кладется в request context, чтобы ее видел и код вне gin
		ctx := models.WithProfileID(c.Request.Context(), claims.UserID)
		ctx = models.WithTier(ctx, claims.Tier)
		c.Request = c.Request.WithContext(ctx)
		c.Set("access_uuid", claims.ID)
		c.Next()
	}
}
