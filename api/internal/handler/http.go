package handler

import (
	"regexp"

	"dream-advisor/api/internal/config"
	"dream-advisor/api/internal/service"
	"dream-advisor/shared/interfaces"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// --- Константы для валидации ---
const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 8
	maxPasswordLength = 100
)

// Регулярное выражение для проверки допустимых символов в имени пользователя
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ApiHandler wires HTTP routes to the underlying services.
type ApiHandler struct {
	cfg *config.Config

	authService        service.AuthService // nil в ephemeral-режиме
	advisorService     *service.AdvisorService
	ideaService        *service.IdeaService
	sessionService     *service.SessionService
	leaderboardService *service.LeaderboardService
	billingService     *service.BillingService // nil в ephemeral-режиме
	nftService         *service.NFTService     // nil в ephemeral-режиме
	profileRepo        interfaces.ProfileRepository

	wsManager *ConnectionManager

	speechEnabled func() bool
	videoEnabled  func() bool

	logger *zap.Logger
}

// Deps groups the dependencies of the HTTP layer.
type Deps struct {
	Cfg                *config.Config
	AuthService        service.AuthService
	AdvisorService     *service.AdvisorService
	IdeaService        *service.IdeaService
	SessionService     *service.SessionService
	LeaderboardService *service.LeaderboardService
	BillingService     *service.BillingService
	NFTService         *service.NFTService
	ProfileRepo        interfaces.ProfileRepository
	WSManager          *ConnectionManager
	SpeechEnabled      func() bool
	VideoEnabled       func() bool
	Logger             *zap.Logger
}

// NewApiHandler creates the HTTP handler layer.
func NewApiHandler(deps Deps) *ApiHandler {
	return &ApiHandler{
		cfg:                deps.Cfg,
		authService:        deps.AuthService,
		advisorService:     deps.AdvisorService,
		ideaService:        deps.IdeaService,
		sessionService:     deps.SessionService,
		leaderboardService: deps.LeaderboardService,
		billingService:     deps.BillingService,
		nftService:         deps.NFTService,
		profileRepo:        deps.ProfileRepo,
		wsManager:          deps.WSManager,
		speechEnabled:      deps.SpeechEnabled,
		videoEnabled:       deps.VideoEnabled,
		logger:             deps.Logger.Named("ApiHandler"),
	}
}

// RegisterRoutes mounts all routes on the gin engine. В ephemeral-режиме
// (authService == nil) монтируется только публичная часть: аккаунтов,
// биллинга и сертификатов без персистентности не существует.
func (h *ApiHandler) RegisterRoutes(router *gin.Engine) {
	// Публичная часть: legacy-proxy, каталог персон, health, рейтинг
	router.POST("/session", h.legacySession)
	router.GET("/therapists", h.listTherapists)
	router.GET("/health", h.health)
	router.GET("/api/leaderboard", h.getLeaderboard)

	if h.authService == nil {
		h.logger.Warn("Ephemeral mode: auth, ideas, billing and certificate routes are not mounted")
		return
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/logout", h.AuthMiddleware(), h.logout)
		authGroup.POST("/refresh", h.refresh)
	}

	router.GET("/ws", h.serveWS)

	protected := router.Group("/api")
	protected.Use(h.AuthMiddleware())
	{
		protected.GET("/me", h.getMe)

		protected.POST("/ideas", h.submitIdea)
		protected.GET("/ideas", h.listIdeas)
		protected.GET("/ideas/:idea_id", h.getIdea)
		protected.POST("/ideas/:idea_id/archive", h.archiveIdea)
		protected.POST("/ideas/:idea_id/sessions", h.startSession)

		protected.GET("/sessions/:session_id", h.getSession)
		protected.POST("/sessions/:session_id/certificate", h.mintCertificate)

		protected.GET("/billing/plans", h.getBillingPlans)
		protected.POST("/billing/upgrade", h.upgradeSubscription)
		protected.POST("/billing/validate-card", h.validateCard)
	}
}
