package interfaces

import (
	"context"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// ProfileRepository defines the interface for profile persistence (PostgreSQL).
// This interface lives in shared so the api service and the session worker can
// both depend on it without importing each other's internals.
type ProfileRepository interface {
	// CreateProfile inserts a new profile. Returns models.ErrUserAlreadyExists /
	// models.ErrEmailAlreadyExists on unique constraint violations.
	CreateProfile(ctx context.Context, profile *models.Profile) error

	// GetProfileByUsername retrieves a profile by username.
	// Returns models.ErrProfileNotFound if it does not exist.
	GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error)

	// GetProfileByID retrieves a profile by its ID.
	// Returns models.ErrProfileNotFound if it does not exist.
	GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// UpdateSubscriptionTier writes a new subscription tier for the profile.
	UpdateSubscriptionTier(ctx context.Context, profileID uuid.UUID, tier models.SubscriptionTier) error

	// IncrementStats adds one completed session and the session score to the
	// profile aggregates.
	IncrementStats(ctx context.Context, profileID uuid.UUID, score float64) error
}
