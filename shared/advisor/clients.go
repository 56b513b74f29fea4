package advisor

import (
	"context"

	"dream-advisor/pkg/elevenlabs"
	"dream-advisor/pkg/tavus"
)

// VideoGenerator генерирует видео-аватар терапевта по сценарию сессии.
type VideoGenerator interface {
	// Enabled сообщает, сконфигурирован ли клиент реальным API-ключом.
	Enabled() bool
	// CreateVideo ставит видео в генерацию и возвращает его ID.
	CreateVideo(ctx context.Context, script, videoName string) (string, error)
	// WaitForVideo опрашивает статус видео до готовности и возвращает URL.
	WaitForVideo(ctx context.Context, videoID string) (string, error)
}

// SpeechSynthesizer озвучивает сценарий голосом персоны.
type SpeechSynthesizer interface {
	Enabled() bool
	// Synthesize возвращает аудио (mp3) для переданного текста.
	Synthesize(ctx context.Context, voiceID, text string) ([]byte, error)
}

var _ VideoGenerator = (*tavus.Client)(nil)
var _ SpeechSynthesizer = (*elevenlabs.Client)(nil)
