package database

import (
	"context"
	"errors"
	"fmt"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// Compile-time check to ensure pgProfileRepository implements ProfileRepository
var _ interfaces.ProfileRepository = (*pgProfileRepository)(nil)

type pgProfileRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgProfileRepository creates a new PostgreSQL-backed ProfileRepository.
func NewPgProfileRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProfileRepository {
	return &pgProfileRepository{
		db:     db,
		logger: logger.Named("PgProfileRepo"),
	}
}

// CreateProfile inserts a new profile into the database.
func (r *pgProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	query := `INSERT INTO profiles (username, email, password_hash, subscription_tier)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, created_at, updated_at`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", profile.Username), zap.String("email", profile.Email))
	err := r.db.QueryRow(ctx, query, profile.Username, profile.Email, profile.PasswordHash, profile.SubscriptionTier).
		Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		// Check for unique constraint violation (duplicate username or email)
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // 23505 is unique_violation
			logFields := []zap.Field{zap.String("username", profile.Username), zap.String("email", profile.Email)}
			if pgErr.ConstraintName == "profiles_email_key" {
				r.logger.Warn("Attempted to create duplicate profile by email", logFields...)
				return models.ErrEmailAlreadyExists
			}
			r.logger.Warn("Attempted to create duplicate profile by username", append(logFields, zap.String("constraint", pgErr.ConstraintName))...)
			return models.ErrUserAlreadyExists
		}
		r.logger.Error("Failed to create profile in postgres", zap.Error(err), zap.String("username", profile.Username))
		return fmt.Errorf("failed to create profile in postgres: %w", err)
	}
	r.logger.Info("Profile created successfully", zap.String("profileID", profile.ID.String()), zap.String("username", profile.Username))
	return nil
}

// GetProfileByUsername retrieves a profile by its username.
func (r *pgProfileRepository) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	query := `SELECT id, username, email, password_hash, subscription_tier, total_sessions, total_score, created_at, updated_at
	          FROM profiles WHERE username = $1`
	profile := &models.Profile{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("username", username))
	err := r.db.QueryRow(ctx, query, username).Scan(
		&profile.ID, &profile.Username, &profile.Email, &profile.PasswordHash,
		&profile.SubscriptionTier, &profile.TotalSessions, &profile.TotalScore,
		&profile.CreatedAt, &profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Profile not found by username", zap.String("username", username))
			return nil, models.ErrProfileNotFound
		}
		r.logger.Error("Failed to get profile by username from postgres", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("failed to get profile by username from postgres: %w", err)
	}
	return profile, nil
}

// GetProfileByID retrieves a profile by its ID.
func (r *pgProfileRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT id, username, email, password_hash, subscription_tier, total_sessions, total_score, created_at, updated_at
	          FROM profiles WHERE id = $1`
	profile := &models.Profile{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))
	err := r.db.QueryRow(ctx, query, id).Scan(
		&profile.ID, &profile.Username, &profile.Email, &profile.PasswordHash,
		&profile.SubscriptionTier, &profile.TotalSessions, &profile.TotalScore,
		&profile.CreatedAt, &profile.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Profile not found by ID", zap.String("id", id.String()))
			return nil, models.ErrProfileNotFound
		}
		r.logger.Error("Failed to get profile by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get profile by id from postgres: %w", err)
	}
	return profile, nil
}

// UpdateSubscriptionTier обновляет уровень подписки профиля.
func (r *pgProfileRepository) UpdateSubscriptionTier(ctx context.Context, profileID uuid.UUID, tier models.SubscriptionTier) error {
	query := `UPDATE profiles SET subscription_tier = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("profileID", profileID.String()), zap.String("tier", string(tier)))

	cmdTag, err := r.db.Exec(ctx, query, tier, profileID)
	if err != nil {
		r.logger.Error("Failed to update subscription tier in postgres", zap.Error(err), zap.String("profileID", profileID.String()))
		return fmt.Errorf("failed to update subscription tier: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update tier for non-existent profile", zap.String("profileID", profileID.String()))
		return models.ErrProfileNotFound
	}

	r.logger.Info("Subscription tier updated successfully", zap.String("profileID", profileID.String()), zap.String("tier", string(tier)))
	return nil
}

// IncrementStats атомарно увеличивает агрегаты профиля после завершения сессии.
func (r *pgProfileRepository) IncrementStats(ctx context.Context, profileID uuid.UUID, score float64) error {
	query := `UPDATE profiles
	          SET total_sessions = total_sessions + 1,
	              total_score = total_score + $1,
	              updated_at = CURRENT_TIMESTAMP
	          WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("profileID", profileID.String()), zap.Float64("score", score))

	cmdTag, err := r.db.Exec(ctx, query, score, profileID)
	if err != nil {
		r.logger.Error("Failed to increment profile stats in postgres", zap.Error(err), zap.String("profileID", profileID.String()))
		return fmt.Errorf("failed to increment profile stats: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to increment stats for non-existent profile", zap.String("profileID", profileID.String()))
		return models.ErrProfileNotFound
	}

	return nil
}
