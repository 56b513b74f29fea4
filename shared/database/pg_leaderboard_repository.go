package database

import (
	"context"
	"errors"
	"fmt"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check
var _ interfaces.LeaderboardRepository = (*pgLeaderboardRepository)(nil)

// pgLeaderboardRepository реализует интерфейс LeaderboardRepository для PostgreSQL.
type pgLeaderboardRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgLeaderboardRepository создает новый экземпляр репозитория рейтинга.
func NewPgLeaderboardRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.LeaderboardRepository {
	return &pgLeaderboardRepository{
		db:     db,
		logger: logger.Named("PgLeaderboardRepo"),
	}
}

// CreateEntry добавляет запись в рейтинг.
func (r *pgLeaderboardRepository) CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	query := `INSERT INTO leaderboard_entries (session_id, username, idea_title, score, persona_name, is_public)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, created_at`
	logFields := []zap.Field{
		zap.String("sessionID", entry.SessionID.String()),
		zap.String("username", entry.Username),
		zap.Float64("score", entry.Score),
	}
	r.logger.Debug("Adding leaderboard entry", logFields...)

	err := r.db.QueryRow(ctx, query, entry.SessionID, entry.Username, entry.IdeaTitle, entry.Score, entry.PersonaName, entry.IsPublic).
		Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation (сессия уже на доске)
				r.logger.Warn("Leaderboard entry already exists (unique constraint violation)", logFields...)
				return interfaces.ErrEntryAlreadyExists
			case "23503": // foreign_key_violation (сессия не найдена)
				r.logger.Warn("Session not found for leaderboard entry (foreign key violation)", logFields...)
				return models.ErrSessionNotFound
			}
		}
		r.logger.Error("Failed to add leaderboard entry", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to add leaderboard entry: %w", err)
	}

	r.logger.Info("Leaderboard entry added successfully", logFields...)
	return nil
}

// ListEntries возвращает публичные записи, отсортированные по score убыванию.
func (r *pgLeaderboardRepository) ListEntries(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error) {
	query := `SELECT id, session_id, username, idea_title, score, persona_name, nft_minted, is_public, created_at
	          FROM leaderboard_entries
	          WHERE is_public = TRUE
	          ORDER BY score DESC, created_at ASC
	          LIMIT $1 OFFSET $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.Int("limit", limit), zap.Int("offset", offset))

	entries := make([]models.LeaderboardEntry, 0)
	if err := pgxscan.Select(ctx, r.db, &entries, query, limit, offset); err != nil {
		r.logger.Error("Failed to query leaderboard entries from postgres", zap.Error(err))
		return nil, fmt.Errorf("failed to query leaderboard entries: %w", err)
	}

	return entries, nil
}

// GetEntryBySessionID возвращает запись рейтинга для сессии.
func (r *pgLeaderboardRepository) GetEntryBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.LeaderboardEntry, error) {
	query := `SELECT id, session_id, username, idea_title, score, persona_name, nft_minted, is_public, created_at
	          FROM leaderboard_entries WHERE session_id = $1`
	entry := &models.LeaderboardEntry{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("sessionID", sessionID.String()))
	err := r.db.QueryRow(ctx, query, sessionID).Scan(
		&entry.ID, &entry.SessionID, &entry.Username, &entry.IdeaTitle,
		&entry.Score, &entry.PersonaName, &entry.NFTMinted, &entry.IsPublic, &entry.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Leaderboard entry not found by session ID", zap.String("sessionID", sessionID.String()))
			return nil, models.ErrEntryNotFound
		}
		r.logger.Error("Failed to get leaderboard entry from postgres", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("failed to get leaderboard entry: %w", err)
	}
	return entry, nil
}

// SetNFTMinted выставляет флаг nft_minted для записи сессии.
func (r *pgLeaderboardRepository) SetNFTMinted(ctx context.Context, sessionID uuid.UUID) error {
	query := `UPDATE leaderboard_entries SET nft_minted = TRUE WHERE session_id = $1`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("sessionID", sessionID.String()))

	cmdTag, err := r.db.Exec(ctx, query, sessionID)
	if err != nil {
		r.logger.Error("Failed to set nft_minted flag in postgres", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return fmt.Errorf("failed to set nft_minted flag: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to set nft_minted for non-existent entry", zap.String("sessionID", sessionID.String()))
		return models.ErrEntryNotFound
	}

	return nil
}
