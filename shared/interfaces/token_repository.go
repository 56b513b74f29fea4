package interfaces

import (
	"context"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// TokenRepository defines the interface for token persistence (e.g., Redis).
// This interface is defined in shared so that implementations (like in shared/database)
// and consumers (like the api service) can depend on it without circular dependencies.
type TokenRepository interface {
	// SetToken stores the token details (Access & Refresh UUIDs mapped to ProfileID)
	// with appropriate TTLs.
	SetToken(ctx context.Context, profileID uuid.UUID, td *models.TokenDetails) error

	// DeleteTokens removes the specified token UUIDs from the store.
	// Returns the number of keys deleted.
	DeleteTokens(ctx context.Context, profileID uuid.UUID, accessUUID, refreshUUID string) (int64, error)

	// GetProfileIDByAccessUUID checks if the Access UUID exists in the store and
	// returns the associated ProfileID.
	// Returns models.ErrTokenNotFound if the token is not found (or expired).
	GetProfileIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error)

	// GetProfileIDByRefreshUUID checks if the Refresh UUID exists in the store and
	// returns the associated ProfileID.
	// Returns models.ErrTokenNotFound if the token is not found (or expired).
	GetProfileIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error)

	// DeleteTokensByProfileID removes all tokens associated with a profile.
	// Returns the number of tokens deleted.
	DeleteTokensByProfileID(ctx context.Context, profileID uuid.UUID) (int64, error)
}
