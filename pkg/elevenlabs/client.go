package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.elevenlabs.io"

// ErrDisabled возвращается, когда клиент работает без API ключа.
var ErrDisabled = errors.New("elevenlabs client is disabled (no api key)")

// ErrSynthesisFailed - ошибка синтеза речи.
var ErrSynthesisFailed = errors.New("speech synthesis failed")

// ErrTranscriptionFailed - ошибка распознавания речи.
var ErrTranscriptionFailed = errors.New("speech transcription failed")

// Config содержит настройки клиента ElevenLabs.
type Config struct {
	APIKey  string
	BaseURL string
	ModelID string // Модель TTS (eleven_multilingual_v2 по умолчанию)
	Timeout time.Duration
}

// Client - тонкая обёртка над ElevenLabs API: распознавание речи для
// голосовых заявок и синтез озвучки сценария голосом персоны.
type Client struct {
	apiKey     string
	baseURL    string
	modelID    string
	httpClient *http.Client
	logger     *zap.Logger
}

// New создает новый клиент. Пустой или placeholder-ключ дает отключенный
// клиент: вызовы возвращают ErrDisabled, /health показывает elevenlabs=false.
func New(cfg Config, logger *zap.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = "eleven_multilingual_v2"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	apiKey := strings.TrimSpace(cfg.APIKey)
	if isPlaceholderKey(apiKey) {
		apiKey = ""
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		modelID:    modelID,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("ElevenLabsClient"),
	}
}

// isPlaceholderKey отсекает незаполненные значения из .env.example.
func isPlaceholderKey(key string) bool {
	if key == "" {
		return true
	}
	lower := strings.ToLower(key)
	return strings.HasPrefix(lower, "your_") || strings.Contains(lower, "placeholder")
}

// Enabled сообщает, сконфигурирован ли клиент реальным ключом.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// Transcribe отправляет аудио на распознавание и возвращает текст.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !c.Enabled() {
		return "", ErrDisabled
	}

	log := c.logger.With(zap.String("filename", filename), zap.Int("size_bytes", len(audio)))

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart form: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.WriteField("model_id", "scribe_v1"); err != nil {
		return "", fmt.Errorf("failed to write model field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart form: %w", err)
	}

	endpointURL := c.baseURL + "/v1/speech-to-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("xi-api-key", c.apiKey)

	log.Debug("Sending transcription request", zap.String("url", endpointURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to execute transcription request", zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Transcription API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return "", fmt.Errorf("%w: API returned status %d", ErrTranscriptionFailed, resp.StatusCode)
	}
	if readErr != nil {
		return "", fmt.Errorf("%w: failed to read response body: %v", ErrTranscriptionFailed, readErr)
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		log.Error("Failed to parse transcription response", zap.Error(err))
		return "", fmt.Errorf("%w: invalid response body: %v", ErrTranscriptionFailed, err)
	}
	if strings.TrimSpace(parsed.Text) == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}

	log.Info("Transcription completed", zap.Int("transcript_len", len(parsed.Text)))
	return parsed.Text, nil
}

// ttsRequest - тело запроса text-to-speech.
type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// Synthesize озвучивает текст голосом voiceID и возвращает mp3-байты.
func (c *Client) Synthesize(ctx context.Context, voiceID, text string) ([]byte, error) {
	if !c.Enabled() {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrSynthesisFailed)
	}

	log := c.logger.With(zap.String("voice_id", voiceID), zap.Int("text_len", len(text)))

	reqPayload := ttsRequest{
		Text:    text,
		ModelID: c.modelID,
		VoiceSettings: voiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.75,
		},
	}
	reqBodyBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	endpointURL := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, voiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpointURL, bytes.NewReader(reqBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", c.apiKey)

	log.Debug("Sending synthesis request", zap.String("url", endpointURL))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("Failed to execute synthesis request", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}
	defer resp.Body.Close()

	bodyBytes, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		log.Error("Synthesis API returned non-OK status",
			zap.Int("status_code", resp.StatusCode),
			zap.ByteString("response_body", bodyBytes),
		)
		return nil, fmt.Errorf("%w: API returned status %d", ErrSynthesisFailed, resp.StatusCode)
	}
	if readErr != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrSynthesisFailed, readErr)
	}
	if len(bodyBytes) == 0 {
		return nil, fmt.Errorf("%w: API returned empty audio data", ErrSynthesisFailed)
	}

	log.Info("Audio data received", zap.Int("size_bytes", len(bodyBytes)))
	return bodyBytes, nil
}
