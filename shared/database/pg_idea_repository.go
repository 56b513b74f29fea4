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

// Compile-time check
var _ interfaces.IdeaRepository = (*pgIdeaRepository)(nil)

// pgIdeaRepository реализует интерфейс IdeaRepository для PostgreSQL.
type pgIdeaRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgIdeaRepository создает новый экземпляр репозитория идей.
func NewPgIdeaRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.IdeaRepository {
	return &pgIdeaRepository{
		db:     db,
		logger: logger.Named("PgIdeaRepo"),
	}
}

// CreateIdea вставляет новую идею.
func (r *pgIdeaRepository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	query := `INSERT INTO ideas (profile_id, title, description, submission_method, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at, updated_at`
	logFields := []zap.Field{
		zap.String("profileID", idea.ProfileID.String()),
		zap.String("title", idea.Title),
	}
	r.logger.Debug("Creating idea record", logFields...)

	err := r.db.QueryRow(ctx, query, idea.ProfileID, idea.Title, idea.Description, idea.SubmissionMethod, idea.Status).
		Scan(&idea.ID, &idea.CreatedAt, &idea.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation (профиль не найден)
			r.logger.Warn("Profile not found for idea (foreign key violation)", logFields...)
			return models.ErrProfileNotFound
		}
		r.logger.Error("Failed to create idea record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create idea: %w", err)
	}

	r.logger.Info("Idea record created successfully", append(logFields, zap.String("ideaID", idea.ID.String()))...)
	return nil
}

// GetIdeaByID возвращает идею по ID.
func (r *pgIdeaRepository) GetIdeaByID(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	query := `SELECT id, profile_id, title, description, submission_method, status, created_at, updated_at
	          FROM ideas WHERE id = $1`
	idea := &models.Idea{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))
	err := r.db.QueryRow(ctx, query, id).Scan(
		&idea.ID, &idea.ProfileID, &idea.Title, &idea.Description,
		&idea.SubmissionMethod, &idea.Status, &idea.CreatedAt, &idea.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Idea not found by ID", zap.String("id", id.String()))
			return nil, models.ErrIdeaNotFound
		}
		r.logger.Error("Failed to get idea by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get idea by id: %w", err)
	}
	return idea, nil
}

// ListIdeasByProfile возвращает идеи профиля, новые первыми.
func (r *pgIdeaRepository) ListIdeasByProfile(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]models.Idea, error) {
	query := `SELECT id, profile_id, title, description, submission_method, status, created_at, updated_at
	          FROM ideas WHERE profile_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2 OFFSET $3`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("profileID", profileID.String()), zap.Int("limit", limit), zap.Int("offset", offset))

	rows, err := r.db.Query(ctx, query, profileID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to query ideas from postgres", zap.Error(err), zap.String("profileID", profileID.String()))
		return nil, fmt.Errorf("failed to query ideas: %w", err)
	}
	defer rows.Close()

	ideas := make([]models.Idea, 0)
	for rows.Next() {
		var idea models.Idea
		if err := rows.Scan(
			&idea.ID, &idea.ProfileID, &idea.Title, &idea.Description,
			&idea.SubmissionMethod, &idea.Status, &idea.CreatedAt, &idea.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan idea row", zap.Error(err))
			continue
		}
		ideas = append(ideas, idea)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating idea rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating idea rows: %w", err)
	}

	return ideas, nil
}

// UpdateIdeaStatus переводит идею в новый статус.
func (r *pgIdeaRepository) UpdateIdeaStatus(ctx context.Context, id uuid.UUID, status models.IdeaStatus) error {
	query := `UPDATE ideas SET status = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()), zap.String("status", string(status)))

	cmdTag, err := r.db.Exec(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update idea status in postgres", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update idea status: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update status for non-existent idea", zap.String("id", id.String()))
		return models.ErrIdeaNotFound
	}

	return nil
}
