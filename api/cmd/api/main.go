package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dream-advisor/api/internal/config"
	"dream-advisor/api/internal/handler"
	apiMessaging "dream-advisor/api/internal/messaging"
	"dream-advisor/api/internal/service"
	"dream-advisor/migrations"
	"dream-advisor/pkg/ai"
	"dream-advisor/pkg/elevenlabs"
	"dream-advisor/pkg/migration"
	"dream-advisor/pkg/tavus"
	"dream-advisor/shared/advisor"
	"dream-advisor/shared/database"
	"dream-advisor/shared/interfaces"
	sharedLogger "dream-advisor/shared/logger"
	sharedMiddleware "dream-advisor/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	ginprometheus "github.com/zsais/go-gin-prometheus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".env")
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// --- Logger Setup ---
	logger, err := sharedLogger.New(sharedLogger.Config{
		Level:    cfg.LogLevel,
		Encoding: "json",
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	zap.L().Info("Logger initialized successfully", zap.String("logLevel", cfg.LogLevel))

	// --- Providers for the synchronous legacy path ---
	var aiClient ai.Client
	if cfg.AIAPIKey != "" {
		aiClient, err = ai.NewClient(ai.Config{
			ClientType:      cfg.AIClientType,
			APIKey:          cfg.AIAPIKey,
			BaseURL:         cfg.AIBaseURL,
			Model:           cfg.AIModel,
			Timeout:         cfg.AITimeout,
			MaxPromptTokens: cfg.AIMaxPromptToken,
		})
		if err != nil {
			zap.L().Fatal("Failed to create AI client", zap.Error(err))
		}
	} else {
		zap.L().Warn("AI API key is not configured: legacy endpoint serves fallback scripts only")
	}
	engine := advisor.NewScriptEngine(aiClient)

	speechClient := elevenlabs.New(elevenlabs.Config{
		APIKey:  cfg.ElevenLabsAPIKey,
		BaseURL: cfg.ElevenLabsBaseURL,
		Timeout: cfg.ElevenLabsTimeout,
	}, logger)

	videoClient := tavus.New(tavus.Config{
		APIKey:       cfg.TavusAPIKey,
		BaseURL:      cfg.TavusBaseURL,
		ReplicaID:    cfg.TavusReplicaID,
		Timeout:      cfg.TavusTimeout,
		PollInterval: cfg.TavusPollInterval,
		MaxPolls:     cfg.TavusMaxPolls,
	}, logger)

	audioStore, err := advisor.NewAudioStore(logger, cfg.AudioSavePath, cfg.AudioPublicBaseURL)
	if err != nil {
		zap.L().Fatal("Failed to init audio store", zap.Error(err))
	}

	advisorSvc := service.NewAdvisorService(cfg, engine, speechClient, speechClient, videoClient, audioStore, logger)

	// --- Storage: PostgreSQL or ephemeral ---
	// Недоступный PostgreSQL переводит api в ephemeral-режим: in-memory
	// идеи/сессии, без аккаунтов, рейтинга, биллинга и сертификатов.
	var (
		ephemeral       bool
		pgPool          *pgxpool.Pool
		profileRepo     interfaces.ProfileRepository
		ideaRepo        interfaces.IdeaRepository
		sessionRepo     interfaces.SessionRepository
		leaderboardRepo interfaces.LeaderboardRepository
		nftRepo         interfaces.NFTRepository
	)

	if cfg.DBHost == "" {
		ephemeral = true
		zap.L().Warn("DB_HOST is empty: api runs in EPHEMERAL mode, no accounts, leaderboard or persistence")
	} else {
		pgPool, err = setupPostgres(cfg)
		if err != nil {
			ephemeral = true
			zap.L().Warn("PostgreSQL is unreachable: api runs in EPHEMERAL mode, no accounts, leaderboard or persistence",
				zap.Error(err))
		}
	}

	if ephemeral {
		ideaRepo = database.NewMemoryIdeaStore(logger)
		sessionRepo = database.NewMemorySessionStore(logger)
	} else {
		defer pgPool.Close()

		migrator := migration.NewMigrator(migration.Config{
			MigrationsPath: ".",
			MigrationsFS:   migrations.FS,
		}, pgPool)
		if err := migrator.Up(context.Background()); err != nil {
			zap.L().Fatal("Failed to apply migrations", zap.Error(err))
		}

		profileRepo = database.NewPgProfileRepository(pgPool, logger)
		ideaRepo = database.NewPgIdeaRepository(pgPool, logger)
		sessionRepo = database.NewPgSessionRepository(pgPool, logger)
		leaderboardRepo = database.NewPgLeaderboardRepository(pgPool, logger)
		nftRepo = database.NewPgNFTRepository(pgPool, logger)
	}

	// --- Redis, RabbitMQ and the full service set (skipped in ephemeral mode) ---
	var (
		authSvc          service.AuthService
		billingSvc       *service.BillingService
		nftSvc           *service.NFTService
		leaderboardCache interfaces.LeaderboardCache
		taskPublisher    interfaces.SessionTaskPublisher
		updateConsumer   *apiMessaging.UpdateConsumer
	)

	wsManager := handler.NewConnectionManager()

	if !ephemeral {
		redisClient, err := setupRedis(cfg)
		if err != nil {
			zap.L().Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer redisClient.Close()
		zap.L().Info("Connected to Redis")

		tokenRepo := database.NewRedisTokenRepository(redisClient, logger)
		leaderboardCache = database.NewRedisLeaderboardCache(redisClient, logger)

		mqConn, err := connectRabbitMQ(cfg.RabbitMQURL, logger)
		if err != nil {
			zap.L().Fatal("Failed to connect to RabbitMQ", zap.Error(err))
		}
		defer mqConn.Close()
		zap.L().Info("Connected to RabbitMQ")

		mqChannel, err := mqConn.Channel()
		if err != nil {
			zap.L().Fatal("Failed to open RabbitMQ channel", zap.Error(err))
		}
		taskPublisher, err = apiMessaging.NewRabbitMQTaskPublisher(mqChannel)
		if err != nil {
			zap.L().Fatal("Failed to create task publisher", zap.Error(err))
		}

		updateConsumer = apiMessaging.NewUpdateConsumer(mqConn, wsManager)

		authSvc = service.NewAuthService(profileRepo, tokenRepo, cfg, logger)
		billingSvc = service.NewBillingService(profileRepo, cfg.BillingPublicKey, cfg.BillingSimulatedDelay, logger)
		nftSvc = service.NewNFTService(sessionRepo, nftRepo, leaderboardRepo, leaderboardCache, logger)
	}

	ideaSvc := service.NewIdeaService(ideaRepo, logger)
	leaderboardSvc := service.NewLeaderboardService(leaderboardRepo, leaderboardCache, logger)

	var sessionSvc *service.SessionService
	if taskPublisher != nil {
		sessionSvc = service.NewSessionService(sessionRepo, ideaRepo, taskPublisher, logger)
	}

	apiHandler := handler.NewApiHandler(handler.Deps{
		Cfg:                cfg,
		AuthService:        authSvc,
		AdvisorService:     advisorSvc,
		IdeaService:        ideaSvc,
		SessionService:     sessionSvc,
		LeaderboardService: leaderboardSvc,
		BillingService:     billingSvc,
		NFTService:         nftSvc,
		ProfileRepo:        profileRepo,
		WSManager:          wsManager,
		SpeechEnabled:      speechClient.Enabled,
		VideoEnabled:       videoClient.Enabled,
		Logger:             logger,
	})

	// --- HTTP Server Setup (Gin) ---
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.ZapLoggingMiddlewareForGin(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	allowedOrigins := cfg.GetAllowedOrigins()
	if len(allowedOrigins) > 0 {
		corsConfig.AllowOrigins = allowedOrigins
	} else {
		corsConfig.AllowOrigins = []string{"http://localhost:3000"}
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.AllowCredentials = true
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Озвучка отдается как статика из локального хранилища
	router.Static(cfg.AudioPublicBaseURL, cfg.AudioSavePath)

	apiHandler.RegisterRoutes(router)

	// Prometheus middleware применяем после регистрации роутов
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	// --- Background consumer of pipeline updates ---
	if updateConsumer != nil {
		go func() {
			zap.L().Info("Starting client update consumer...")
			if err := updateConsumer.StartConsuming(); err != nil {
				zap.L().Error("Client update consumer stopped with error", zap.Error(err))
			}
		}()
	}

	// --- Start HTTP Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	zap.L().Info("Starting HTTP server", zap.String("port", cfg.ServerPort), zap.Bool("ephemeral", ephemeral))

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zap.L().Fatal("HTTP Server listen error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zap.L().Info("Shutting down server...")

	if updateConsumer != nil {
		updateConsumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("HTTP Server forced to shutdown", zap.Error(err))
	}

	zap.L().Info("Server exiting")
}

// setupPostgres initializes the PostgreSQL connection pool with retry logic.
// Неудача не фатальна: вызывающий код переключается в ephemeral-режим.
func setupPostgres(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to parse postgres config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	var pool *pgxpool.Pool
	var lastErr error
	maxRetries := 5
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		connectCtx, connectCancel := context.WithTimeout(context.Background(), 5*time.Second)
		pool, err = pgxpool.NewWithConfig(connectCtx, poolConfig)
		connectCancel()

		if err == nil {
			pingCtx, pingCancel := context.WithTimeout(context.Background(), 2*time.Second)
			err = pool.Ping(pingCtx)
			pingCancel()

			if err == nil {
				zap.L().Info("Successfully connected and pinged PostgreSQL", zap.Int("attempt", attempt))
				return pool, nil
			}
			pool.Close()
		}

		lastErr = fmt.Errorf("unable to connect to postgres (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Postgres connection failed, retrying...",
			zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to postgres after %d attempts: %w", maxRetries, lastErr)
}

// setupRedis initializes the Redis client with retry logic.
func setupRedis(cfg *config.Config) (*redis.Client, error) {
	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}

	var client *redis.Client
	var lastErr error
	maxRetries := 10
	retryDelay := 3 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		client = redis.NewClient(redisOpts)

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, err := client.Ping(pingCtx).Result()
		pingCancel()

		if err == nil {
			return client, nil
		}

		client.Close()
		lastErr = fmt.Errorf("unable to ping redis (attempt %d/%d): %w", attempt, maxRetries, err)
		zap.L().Warn("Redis ping failed, retrying...",
			zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries), zap.Error(err))
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}

	return nil, fmt.Errorf("failed to connect to redis after %d attempts: %w", maxRetries, lastErr)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками.
func connectRabbitMQ(url string, logger *zap.Logger) (*amqp091.Connection, error) {
	var conn *amqp091.Connection
	var err error
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1
		conn, err = amqp091.Dial(url)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ", zap.Int("attempt", attempt))
			go func() {
				notifyClose := make(chan *amqp091.Error)
				conn.NotifyClose(notifyClose)
				if closeErr := <-notifyClose; closeErr != nil {
					logger.Error("RabbitMQ connection closed unexpectedly", zap.Error(closeErr))
				}
			}()
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying...",
			zap.Int("attempt", attempt), zap.Int("max_attempts", maxRetries), zap.Error(err))
		time.Sleep(retryDelay)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", maxRetries, err)
}
