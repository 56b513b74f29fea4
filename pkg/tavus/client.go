package tavus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://tavusapi.com"

// ErrDisabled возвращается, когда клиент работает без API ключа.
var ErrDisabled = errors.New("tavus client is disabled (no api key)")

// ErrVideoGenerationFailed - ошибка генерации видео провайдером.
var ErrVideoGenerationFailed = errors.New("video generation failed")

// ErrVideoNotReady означает, что видео ещё рендерится. Не терминальная
// ошибка: поллер повторит запрос статуса.
var ErrVideoNotReady = errors.New("video is not ready yet")

// Config содержит настройки клиента Tavus.
type Config struct {
	APIKey       string
	BaseURL      string
	ReplicaID    string        // Реплика (аватар) для talking-head видео
	Timeout      time.Duration // Таймаут одного HTTP запроса
	PollInterval time.Duration // Интервал между опросами статуса
	MaxPolls     int           // Максимум опросов статуса
}

// Client - обёртка над Tavus API для генерации talking-head видео.
type Client struct {
	apiKey       string
	baseURL      string
	replicaID    string
	pollInterval time.Duration
	maxPolls     int
	httpClient   *http.Client
	logger       *zap.Logger
}

// New создает новый клиент. Пустой или placeholder-ключ дает отключенный клиент.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = 10 * time.Second
	}
	maxPolls := cfg.MaxPolls
	if maxPolls <= 0 {
		maxPolls = 30
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	lower := strings.ToLower(apiKey)
	if strings.HasPrefix(lower, "your_") || strings.Contains(lower, "placeholder") {
		apiKey = ""
	}

	return &Client{
		apiKey:       apiKey,
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		replicaID:    cfg.ReplicaID,
		pollInterval: pollInterval,
		maxPolls:     maxPolls,
		httpClient:   &http.Client{Timeout: timeout},
		logger:       logger.Named("TavusClient"),
	}
}

// Enabled сообщает, сконфигурирован ли клиент реальным ключом.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// createVideoRequest - тело запроса на создание видео.
type createVideoRequest struct {
	ReplicaID string `json:"replica_id"`
	Script    string `json:"script"`
	VideoName string `json:"video_name,omitempty"`
}

// videoResponse - ответ Tavus на создание/статус видео.
type videoResponse struct {
	VideoID     string `json:"video_id"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url"`
	HostedURL   string `json:"hosted_url"`
}

// CreateVideo запускает генерацию видео по сценарию и возвращает ID видео.
func (c *Client) CreateVideo(ctx context.Context, script, videoName string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	log := c.logger.With(zap.String("video_name", videoName), zap.Int("script_len", len(script)))

	reqPayload := createVideoRequest{
		ReplicaID: c.replicaID,
		Script:    script,
		VideoName: videoName,
	}
	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpointURL := c.baseURL + "/v2/videos"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)

	log.Debug("Sending create video request", zap.String("url", endpointURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to execute create video request", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrVideoGenerationFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Error("Create video API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return "", fmt.Errorf("%w: API returned status %d", ErrVideoGenerationFailed, resp.StatusCode)
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrVideoGenerationFailed, readErr)
	}

	var parsed videoResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid response body: %v", ErrVideoGenerationFailed, err)
	}
	if parsed.VideoID == "" {
		return "", fmt.Errorf("%w: response without video_id", ErrVideoGenerationFailed)
	}

	log.Info("Video generation started", zap.String("video_id", parsed.VideoID))
	return parsed.VideoID, nil
}

// GetVideoURL запрашивает статус видео. Возвращает ErrVideoNotReady, пока
// рендеринг не завершился.
func (c *Client) GetVideoURL(ctx context.Context, videoID string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	endpointURL := fmt.Sprintf("%s/v2/videos/%s", c.baseURL, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpointURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrVideoGenerationFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: API returned status %d", ErrVideoGenerationFailed, resp.StatusCode)
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrVideoGenerationFailed, readErr)
	}

	var parsed videoResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("%w: invalid response body: %v", ErrVideoGenerationFailed, err)
	}

	switch parsed.Status {
	case "ready", "completed":
		url := parsed.DownloadURL
		if url == "" {
			url = parsed.HostedURL
		}
		if url == "" {
			return "", fmt.Errorf("%w: ready video without url", ErrVideoGenerationFailed)
		}
		return url, nil
	case "error", "failed", "deleted":
		return "", fmt.Errorf("%w: provider reported status %q", ErrVideoGenerationFailed, parsed.Status)
	default:
		// queued / generating
		return "", ErrVideoNotReady
	}
}

// WaitForVideo поллит статус видео с фиксированным интервалом до maxPolls
// попыток. Возвращает URL готового видео или ошибку.
func (c *Client) WaitForVideo(ctx context.Context, videoID string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	log := c.logger.With(zap.String("video_id", videoID))

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for attempt := 1; attempt <= c.maxPolls; attempt++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}

		url, err := c.GetVideoURL(ctx, videoID)
		if err == nil {
			log.Info("Video is ready", zap.Int("attempt", attempt), zap.String("url", url))
			return url, nil
		}
		if !errors.Is(err, ErrVideoNotReady) {
			log.Error("Video polling failed", zap.Int("attempt", attempt), zap.Error(err))
			return "", err
		}
		log.Debug("Video not ready yet", zap.Int("attempt", attempt))
	}

	log.Warn("Video polling exhausted attempts", zap.Int("max_polls", c.maxPolls))
	return "", fmt.Errorf("%w: polling timed out after %d attempts", ErrVideoGenerationFailed, c.maxPolls)
}
