package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dream-advisor/migrations"
	"dream-advisor/pkg/ai"
	"dream-advisor/pkg/elevenlabs"
	"dream-advisor/pkg/migration"
	"dream-advisor/pkg/tavus"
	"dream-advisor/session-worker/internal/config"
	workerMessaging "dream-advisor/session-worker/internal/messaging"
	"dream-advisor/shared/advisor"
	"dream-advisor/session-worker/internal/worker"
	"dream-advisor/shared/database"
	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/logger"
	"dream-advisor/shared/messaging"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

func main() {
	log.Println("Запуск воркера генерации сессий...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Ошибка инициализации логгера: %v", err)
	}
	defer zapLogger.Sync()

	// --- HTTP-сервер для метрик Prometheus и health ---
	go startMetricsServer(cfg.MetricsPort)

	// Pushgateway опционален: без него метрики доступны только на /metrics
	if cfg.PushgatewayURL != "" {
		if err := worker.InitMetricsPusher(cfg.PushgatewayURL); err != nil {
			log.Printf("Pushgateway недоступен, продолжаем без пуша метрик: %v", err)
		} else {
			worker.StartMetricsPusher(cfg.MetricsPushInterval)
			defer worker.CleanupMetrics()
		}
	}

	// --- AI клиент (необязателен: без него работают заготовленные сценарии) ---
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
			log.Fatalf("Ошибка инициализации AI клиента: %v", err)
		}
	} else {
		log.Println("AI API ключ не задан, сценарии будут собираться из заготовок персон.")
	}
	engine := advisor.NewScriptEngine(aiClient)

	// --- Медиа-клиенты ---
	speechClient := elevenlabs.New(elevenlabs.Config{
		APIKey:  cfg.ElevenLabsAPIKey,
		BaseURL: cfg.ElevenLabsBaseURL,
		Timeout: cfg.ElevenLabsTimeout,
	}, zapLogger)
	videoClient := tavus.New(tavus.Config{
		APIKey:       cfg.TavusAPIKey,
		BaseURL:      cfg.TavusBaseURL,
		ReplicaID:    cfg.TavusReplicaID,
		Timeout:      cfg.TavusTimeout,
		PollInterval: cfg.TavusPollInterval,
		MaxPolls:     cfg.TavusMaxPolls,
	}, zapLogger)
	log.Printf("Медиа-клиенты: elevenlabs=%v, tavus=%v", speechClient.Enabled(), videoClient.Enabled())

	audioStore, err := advisor.NewAudioStore(zapLogger, cfg.AudioSavePath, cfg.AudioPublicBaseURL)
	if err != nil {
		log.Fatalf("Ошибка инициализации хранилища озвучки: %v", err)
	}

	// --- Хранилище: PostgreSQL или ephemeral-режим ---
	var (
		sessionRepo      interfaces.SessionRepository
		ideaRepo         interfaces.IdeaRepository
		profileRepo      interfaces.ProfileRepository
		leaderboardRepo  interfaces.LeaderboardRepository
		leaderboardCache interfaces.LeaderboardCache
	)

	if cfg.DBHost == "" {
		log.Println("DB_HOST пуст: воркер работает в ephemeral-режиме, без персистентности и рейтинга.")
		sessionRepo = database.NewMemorySessionStore(zapLogger)
		ideaRepo = database.NewMemoryIdeaStore(zapLogger)
	} else {
		log.Println("Подключение к PostgreSQL...")
		dbPool, err := setupDatabase(cfg)
		if err != nil {
			log.Fatalf("Не удалось подключиться к базе данных: %v", err)
		}
		defer dbPool.Close()
		log.Println("Успешное подключение к PostgreSQL")

		migrator := migration.NewMigrator(migration.Config{
			MigrationsPath: ".",
			MigrationsFS:   migrations.FS,
		}, dbPool)
		if err := migrator.Up(context.Background()); err != nil {
			log.Fatalf("Ошибка применения миграций: %v", err)
		}

		sessionRepo = database.NewPgSessionRepository(dbPool, zapLogger)
		ideaRepo = database.NewPgIdeaRepository(dbPool, zapLogger)
		profileRepo = database.NewPgProfileRepository(dbPool, zapLogger)
		leaderboardRepo = database.NewPgLeaderboardRepository(dbPool, zapLogger)

		if cfg.RedisAddr != "" {
			redisClient := redis.NewClient(&redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
			})
			if err := redisClient.Ping(context.Background()).Err(); err != nil {
				log.Printf("Redis недоступен (%v), кэш рейтинга отключен.", err)
			} else {
				defer redisClient.Close()
				leaderboardCache = database.NewRedisLeaderboardCache(redisClient, zapLogger)
			}
		}
	}

	// --- RabbitMQ ---
	conn, err := connectRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("Не удалось подключиться к RabbitMQ: %v", err)
	}
	defer conn.Close()
	log.Println("Успешное подключение к RabbitMQ")

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("Не удалось открыть канал: %v", err)
	}
	defer ch.Close()

	if err := declareTaskTopology(ch); err != nil {
		log.Fatalf("Ошибка объявления топологии RabbitMQ: %v", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		log.Fatalf("Не удалось установить QoS: %v", err)
	}
	log.Println("QoS (prefetch count=1) установлен")

	publisher, err := workerMessaging.NewRabbitMQUpdatePublisher(ch)
	if err != nil {
		log.Fatalf("Не удалось создать паблишер апдейтов: %v", err)
	}

	taskHandler := worker.NewTaskHandler(cfg, engine, videoClient, speechClient, audioStore,
		sessionRepo, ideaRepo, profileRepo, leaderboardRepo, leaderboardCache, publisher)

	msgs, err := ch.Consume(
		messaging.SessionTaskQueueName, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("Не удалось зарегистрировать консьюмера: %v", err)
	}

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})

	log.Println(" [*] Ожидание задач генерации. Для выхода нажмите CTRL+C")

	go func() {
		defer close(done)
		for msg := range msgs {
			var payload messaging.SessionTaskPayload
			if err := json.Unmarshal(msg.Body, &payload); err != nil {
				log.Printf("Ошибка десериализации JSON: %v. Отклоняем сообщение (nack, no requeue).", err)
				worker.MetricsIncrementTaskFailed("deserialization")
				msg.Nack(false, false)
				continue
			}

			if err := taskHandler.Handle(payload); err != nil {
				// Requeue=false: повторная обработка 'плохой' задачи бессмысленна,
				// сообщение уходит в DLQ.
				log.Printf("[TaskID: %s] Ошибка обработки задачи: %v. Отклоняем сообщение (nack, no requeue).", payload.TaskID, err)
				msg.Nack(false, false)
			} else {
				msg.Ack(false)
			}
		}
		log.Println("Канал сообщений закрыт, горутина обработки завершается.")
	}()

	select {
	case <-stopChan:
		log.Println("Получен сигнал завершения. Закрываем канал консьюмера...")
		// Закрытие канала останавливает range msgs, текущая задача дообрабатывается
		ch.Close()
		<-done
	case <-done:
	}

	zapLogger.Info("Воркер генерации сессий остановлен")
}

// declareTaskTopology объявляет DLX, DLQ и основную очередь задач.
// Параметры должны совпадать с паблишером api-сервиса.
func declareTaskTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		messaging.SessionTaskDLXName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("не удалось объявить DLX: %w", err)
	}

	if _, err := ch.QueueDeclare(
		messaging.SessionTaskDLQName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		return fmt.Errorf("не удалось объявить DLQ '%s': %w", messaging.SessionTaskDLQName, err)
	}

	if err := ch.QueueBind(
		messaging.SessionTaskDLQName,
		messaging.SessionTaskDLQRoutingKey,
		messaging.SessionTaskDLXName,
		false,
		nil,
	); err != nil {
		return fmt.Errorf("не удалось связать DLQ с DLX: %w", err)
	}

	args := amqp.Table{
		"x-queue-mode":              "lazy", // Используем lazy queues для экономии памяти
		"x-dead-letter-exchange":    messaging.SessionTaskDLXName,
		"x-dead-letter-routing-key": messaging.SessionTaskDLQRoutingKey,
	}
	if _, err := ch.QueueDeclare(
		messaging.SessionTaskQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		args,
	); err != nil {
		return fmt.Errorf("не удалось объявить очередь '%s': %w", messaging.SessionTaskQueueName, err)
	}

	log.Printf("Топология RabbitMQ объявлена: очередь '%s', DLX '%s', DLQ '%s'",
		messaging.SessionTaskQueueName, messaging.SessionTaskDLXName, messaging.SessionTaskDLQName)
	return nil
}

// startMetricsServer запускает HTTP-сервер для эндпоинта /metrics
func startMetricsServer(port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(worker.Registry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	})

	log.Printf("Запуск HTTP-сервера для метрик Prometheus и health на :%s...", port)
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Fatalf("Ошибка запуска HTTP-сервера для метрик: %v", err)
	}
}

// setupDatabase инициализирует и возвращает пул соединений с БД
func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	var dbPool *pgxpool.Pool
	var err error
	maxRetries := 50
	retryDelay := 3 * time.Second

	dsn := cfg.GetDSN()
	poolConfig, parseErr := pgxpool.ParseConfig(dsn)
	if parseErr != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", parseErr)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	log.Printf("Попытка подключения к PostgreSQL (до %d раз с интервалом %v)...", maxRetries, retryDelay)

	for i := 0; i < maxRetries; i++ {
		attempt := i + 1

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)

		dbPool, err = pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			log.Printf("[Попытка %d/%d] Не удалось создать пул соединений: %v", attempt, maxRetries, err)
			cancel()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
			}
			continue
		}

		if err = dbPool.Ping(ctx); err != nil {
			log.Printf("[Попытка %d/%d] Не удалось выполнить ping к PostgreSQL: %v", attempt, maxRetries, err)
			dbPool.Close()
			cancel()
			if i < maxRetries-1 {
				time.Sleep(retryDelay)
			}
			continue
		}

		cancel()
		log.Printf("Успешное подключение и ping к PostgreSQL (попытка %d)", attempt)
		return dbPool, nil
	}

	return nil, fmt.Errorf("не удалось подключиться к БД после %d попыток: %w", maxRetries, err)
}

// connectRabbitMQ пытается подключиться к RabbitMQ с несколькими попытками
func connectRabbitMQ(url string) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	maxRetries := 5
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			return conn, nil
		}
		log.Printf("Не удалось подключиться к RabbitMQ (попытка %d/%d): %v. Повтор через %v...", i+1, maxRetries, err, retryDelay)
		time.Sleep(retryDelay)
	}
	return nil, err
}
