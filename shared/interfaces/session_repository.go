package interfaces

import (
	"context"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// SessionRepository defines the interface for therapy session persistence.
type SessionRepository interface {
	// CreateSession inserts a new session row in the "generating" state.
	CreateSession(ctx context.Context, session *models.TherapySession) error

	// GetSessionByID retrieves a session by its ID.
	// Returns models.ErrSessionNotFound if it does not exist.
	GetSessionByID(ctx context.Context, id uuid.UUID) (*models.TherapySession, error)

	// UpdateScript sets the generated script, insights and advice.
	UpdateScript(ctx context.Context, id uuid.UUID, script string, insights []string, advice string) error

	// UpdateMediaURLs sets the video and/or audio URL. Nil pointers leave the
	// corresponding column untouched.
	UpdateMediaURLs(ctx context.Context, id uuid.UUID, videoURL, audioURL *string) error

	// CompleteSession marks the session completed with its final score and verdict.
	CompleteSession(ctx context.Context, id uuid.UUID, score float64, verdict string) error

	// FailSession marks the session failed.
	FailSession(ctx context.Context, id uuid.UUID) error
}
