package worker

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	jobName = "session_worker"
)

var (
	// Общий реестр для всех метрик этого воркера
	registry = prometheus.NewRegistry()

	// Мы используем promauto.With(registry), чтобы метрики регистрировались в
	// локальном реестре, а не в глобальном prometheus.DefaultRegistry
	tasksReceived = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "session_worker_tasks_received_total",
			Help: "Total number of session tasks received by the worker.",
		},
	)
	tasksFailed = promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_worker_tasks_failed_total",
			Help: "Total number of session tasks failed, partitioned by failure reason.",
		},
		[]string{"reason"},
	)
	tasksSucceeded = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "session_worker_tasks_succeeded_total",
			Help: "Total number of session tasks successfully processed.",
		},
	)
	tokensUsed = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "session_worker_ai_tokens_used_total",
			Help: "Total number of AI tokens used for script generation.",
		},
	)
	fallbackScripts = promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "session_worker_fallback_scripts_total",
			Help: "Total number of sessions that fell back to a canned script.",
		},
	)
	pipelineStageDuration = promauto.With(registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "session_worker_pipeline_stage_duration_seconds",
			Help:    "Duration of each pipeline stage (script, video, audio).",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// Pusher для отправки метрик в Pushgateway
	pusher *push.Pusher

	groupingKey map[string]string
)

// Registry возвращает локальный реестр воркера для promhttp.
func Registry() *prometheus.Registry {
	return registry
}

// InitMetricsPusher инициализирует клиент Pushgateway.
// pushgatewayURL: адрес Pushgateway (e.g., "http://localhost:9092")
func InitMetricsPusher(pushgatewayURL string) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
		log.Printf("[Metrics] Warning: could not get hostname: %v", err)
	}
	pid := os.Getpid()
	instanceID := fmt.Sprintf("%s-%d", hostname, pid)

	groupingKey = map[string]string{
		"instance": instanceID,
	}

	log.Printf("[Metrics] Initializing Pushgateway pusher for job '%s' with instance '%s' to %s", jobName, instanceID, pushgatewayURL)

	pusher = push.New(pushgatewayURL, jobName).Gatherer(registry).Grouping("instance", instanceID)

	// Сразу отправляем нулевые метрики, чтобы проверить соединение
	if err := pusher.Push(); err != nil {
		return fmt.Errorf("could not push initial metrics to Pushgateway: %w", err)
	}
	log.Printf("[Metrics] Initial push to Pushgateway successful.")
	return nil
}

// StartMetricsPusher запускает горутину для периодической отправки метрик.
func StartMetricsPusher(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			if pusher == nil {
				ticker.Stop()
				log.Println("[Metrics] Pusher is nil, stopping periodic push.")
				return
			}
			_ = pushMetrics()
		}
	}()
	log.Printf("[Metrics] Started periodic pusher with interval %v", interval)
}

// pushMetrics отправляет текущие метрики в Pushgateway.
func pushMetrics() error {
	if pusher == nil {
		return errors.New("pusher not initialized")
	}

	err := pusher.Push()
	if err != nil {
		log.Printf("[Metrics] Error pushing metrics to Pushgateway: %v", err)
		return err
	}
	return nil
}

// MetricsIncrementTasksReceived увеличивает счетчик полученных задач.
func MetricsIncrementTasksReceived() {
	tasksReceived.Inc()
	pushMetrics()
}

// MetricsIncrementTaskFailed увеличивает счетчик неудачных задач для указанной причины.
func MetricsIncrementTaskFailed(reason string) {
	tasksFailed.WithLabelValues(reason).Inc()
	pushMetrics()
}

// MetricsIncrementTaskSucceeded увеличивает счетчик успешно выполненных задач.
func MetricsIncrementTaskSucceeded() {
	tasksSucceeded.Inc()
	pushMetrics()
}

// MetricsAddTokensUsed добавляет использованные токены к счетчику.
func MetricsAddTokensUsed(count float64) {
	tokensUsed.Add(count)
	pushMetrics()
}

// MetricsIncrementFallbackScript отмечает сессию, собранную на заготовленном сценарии.
func MetricsIncrementFallbackScript() {
	fallbackScripts.Inc()
	pushMetrics()
}

// MetricsObserveStageDuration записывает длительность этапа пайплайна.
func MetricsObserveStageDuration(stage string, d time.Duration) {
	pipelineStageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// CleanupMetrics удаляет метрики этого инстанса из Pushgateway.
// Должна вызываться через defer в main.
func CleanupMetrics() {
	if pusher == nil {
		return
	}

	log.Printf("[Metrics] Deleting metrics from Pushgateway for job '%s', grouping key: %v", jobName, groupingKey)
	if err := pusher.Delete(); err != nil {
		log.Printf("[Metrics] Error deleting metrics from Pushgateway: %v", err)
	}
}
