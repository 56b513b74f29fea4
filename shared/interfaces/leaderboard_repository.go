package interfaces

import (
	"context"
	"errors"

	"dream-advisor/shared/models"

	"github.com/google/uuid"
)

// ErrEntryAlreadyExists возвращается при попытке повторной публикации сессии.
var ErrEntryAlreadyExists = errors.New("leaderboard entry already exists")

// LeaderboardRepository defines the interface for public leaderboard persistence.
type LeaderboardRepository interface {
	// CreateEntry inserts a new leaderboard entry. Returns ErrEntryAlreadyExists
	// when the session already has an entry.
	CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error

	// ListEntries retrieves public entries ordered by score descending.
	ListEntries(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error)

	// GetEntryBySessionID retrieves the entry for a session.
	// Returns models.ErrEntryNotFound if it does not exist.
	GetEntryBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.LeaderboardEntry, error)

	// SetNFTMinted flips the nft_minted flag for the session's entry.
	SetNFTMinted(ctx context.Context, sessionID uuid.UUID) error
}

// LeaderboardCache is the hot read path for the leaderboard (Redis ZSET).
// A miss falls back to the repository.
type LeaderboardCache interface {
	// Add inserts or updates the entry in the cache.
	Add(ctx context.Context, entry models.LeaderboardEntry) error

	// Top returns up to limit entries starting at offset, score descending.
	// Returns ErrNotFound when the cache is empty (cold start).
	Top(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error)

	// MarkMinted updates the cached nft_minted flag, if the entry is cached.
	MarkMinted(ctx context.Context, sessionID uuid.UUID) error
}

// NFTRepository defines the interface for simulated certificate persistence.
type NFTRepository interface {
	// CreateCertificate inserts a certificate. Returns models.ErrAlreadyMinted
	// when the session already has one.
	CreateCertificate(ctx context.Context, cert *models.NFTCertificate) error

	// GetCertificateBySessionID retrieves a certificate for a session.
	// Returns models.ErrNotFound if it does not exist.
	GetCertificateBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.NFTCertificate, error)
}
