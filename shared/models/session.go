package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus отражает состояние генерации сессии.
type SessionStatus string

const (
	SessionStatusGenerating SessionStatus = "generating"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// TherapySession - один разбор идеи одной персоной: сценарий, озвучка,
// видео и финальная оценка. Score равен nil до завершения пайплайна.
type TherapySession struct {
	ID          uuid.UUID     `json:"id"`
	IdeaID      uuid.UUID     `json:"idea_id"`
	PersonaID   string        `json:"persona_id"`
	PersonaName string        `json:"persona_name"`
	Script      string        `json:"script"`
	VideoURL    *string       `json:"video_url,omitempty"`
	AudioURL    *string       `json:"audio_url,omitempty"`
	Score       *float64      `json:"score,omitempty"`
	Verdict     string        `json:"verdict,omitempty"`
	Insights    []string      `json:"insights,omitempty"`
	Advice      string        `json:"advice,omitempty"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
}
