package models

import (
	"time"

	"github.com/google/uuid"
)

// IdeaStatus отражает жизненный цикл идеи.
type IdeaStatus string

const (
	IdeaStatusSubmitted IdeaStatus = "submitted"
	IdeaStatusAnalyzing IdeaStatus = "analyzing"
	IdeaStatusCompleted IdeaStatus = "completed"
	IdeaStatusArchived  IdeaStatus = "archived"
)

// SubmissionMethod - способ подачи идеи (текст или голос).
type SubmissionMethod string

const (
	SubmissionText  SubmissionMethod = "text"
	SubmissionVoice SubmissionMethod = "voice"
)

// Idea представляет поданную пользователем идею стартапа.
type Idea struct {
	ID               uuid.UUID        `json:"id"`
	ProfileID        uuid.UUID        `json:"profile_id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	SubmissionMethod SubmissionMethod `json:"submission_method"`
	Status           IdeaStatus       `json:"status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
