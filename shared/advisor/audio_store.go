package advisor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrAudioSaveFailed возвращается, когда озвучку не удалось записать на диск.
var ErrAudioSaveFailed = errors.New("failed to save audio file")

// AudioSaver сохраняет синтезированную озвучку и возвращает публичный URL.
type AudioSaver interface {
	Save(sessionID string, data []byte) (string, error)
}

var _ AudioSaver = (*AudioStore)(nil)

// AudioStore сохраняет озвучку сценария на локальный диск (volume) и
// строит публичный URL, по которому фронт заберет файл.
type AudioStore struct {
	logger        *zap.Logger
	savePath      string
	publicBaseURL string
}

// NewAudioStore создает хранилище озвучки. Директория создается заранее,
// чтобы не проверять ее на каждом сохранении.
func NewAudioStore(logger *zap.Logger, savePath, publicBaseURL string) (*AudioStore, error) {
	if savePath == "" {
		return nil, errors.New("audio save path (AUDIO_SAVE_PATH) is not configured")
	}
	if publicBaseURL == "" {
		return nil, errors.New("audio public base URL (AUDIO_PUBLIC_BASE_URL) is not configured")
	}

	if err := os.MkdirAll(savePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory %s: %w", savePath, err)
	}

	return &AudioStore{
		logger:        logger.Named("AudioStore"),
		savePath:      savePath,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Save записывает mp3-файл озвучки сессии и возвращает публичный URL.
func (s *AudioStore) Save(sessionID string, data []byte) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is required but empty", ErrAudioSaveFailed)
	}

	fileName := fmt.Sprintf("%s.mp3", sessionID)
	filePath := filepath.Join(s.savePath, fileName)

	err := os.WriteFile(filePath, data, 0644) // Права доступа rw-r--r--
	if err != nil {
		s.logger.Error("Failed to save audio to file", zap.String("path", filePath), zap.Error(err))
		return "", fmt.Errorf("%w: %v", ErrAudioSaveFailed, err)
	}

	s.logger.Info("Audio saved to file",
		zap.String("path", filePath),
		zap.Int("size_bytes", len(data)))

	return fmt.Sprintf("%s/%s", s.publicBaseURL, fileName), nil
}
