package interfaces

import (
	"context"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// IdeaRepository defines the interface for idea persistence.
type IdeaRepository interface {
	// CreateIdea inserts a new idea row.
	CreateIdea(ctx context.Context, idea *models.Idea) error

	// GetIdeaByID retrieves an idea by its ID.
	// Returns models.ErrIdeaNotFound if it does not exist.
	GetIdeaByID(ctx context.Context, id uuid.UUID) (*models.Idea, error)

	// ListIdeasByProfile retrieves ideas for a profile, newest first.
	ListIdeasByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]models.Idea, error)

	// UpdateIdeaStatus advances the idea lifecycle.
	// Returns models.ErrIdeaNotFound if no row was affected.
	UpdateIdeaStatus(ctx context.Context, id uuid.UUID, status models.IdeaStatus) error
}
