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
var _ interfaces.SessionRepository = (*pgSessionRepository)(nil)

// pgSessionRepository реализует интерфейс SessionRepository для PostgreSQL.
type pgSessionRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgSessionRepository создает новый экземпляр репозитория сессий.
func NewPgSessionRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.SessionRepository {
	return &pgSessionRepository{
		db:     db,
		logger: logger.Named("PgSessionRepo"),
	}
}

// CreateSession вставляет новую сессию в статусе generating.
func (r *pgSessionRepository) CreateSession(ctx context.Context, session *models.TherapySession) error {
	query := `INSERT INTO therapy_sessions (idea_id, persona_id, persona_name, script, status)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id, created_at`
	logFields := []zap.Field{
		zap.String("ideaID", session.IdeaID.String()),
		zap.String("personaID", session.PersonaID),
	}
	r.logger.Debug("Creating session record", logFields...)

	err := r.db.QueryRow(ctx, query, session.IdeaID, session.PersonaID, session.PersonaName, session.Script, session.Status).
		Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation (идея не найдена)
			r.logger.Warn("Idea not found for session (foreign key violation)", logFields...)
			return models.ErrIdeaNotFound
		}
		r.logger.Error("Failed to create session record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create session: %w", err)
	}

	r.logger.Info("Session record created successfully", append(logFields, zap.String("sessionID", session.ID.String()))...)
	return nil
}

// GetSessionByID возвращает сессию по ID.
func (r *pgSessionRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*models.TherapySession, error) {
	query := `SELECT id, idea_id, persona_id, persona_name, script, video_url, audio_url,
	                 score, verdict, insights, advice, status, created_at, completed_at
	          FROM therapy_sessions WHERE id = $1`
	session := &models.TherapySession{}
	var verdict, advice *string
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))
	err := r.db.QueryRow(ctx, query, id).Scan(
		&session.ID, &session.IdeaID, &session.PersonaID, &session.PersonaName,
		&session.Script, &session.VideoURL, &session.AudioURL,
		&session.Score, &verdict, &session.Insights, &advice,
		&session.Status, &session.CreatedAt, &session.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Session not found by ID", zap.String("id", id.String()))
			return nil, models.ErrSessionNotFound
		}
		r.logger.Error("Failed to get session by id from postgres", zap.Error(err), zap.String("id", id.String()))
		return nil, fmt.Errorf("failed to get session by id: %w", err)
	}
	if verdict != nil {
		session.Verdict = *verdict
	}
	if advice != nil {
		session.Advice = *advice
	}
	return session, nil
}

// UpdateScript сохраняет сгенерированный сценарий, инсайты и совет.
func (r *pgSessionRepository) UpdateScript(ctx context.Context, id uuid.UUID, script string, insights []string, advice string) error {
	query := `UPDATE therapy_sessions SET script = $1, insights = $2, advice = $3 WHERE id = $4`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))

	cmdTag, err := r.db.Exec(ctx, query, script, insights, advice, id)
	if err != nil {
		r.logger.Error("Failed to update session script in postgres", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update session script: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update script for non-existent session", zap.String("id", id.String()))
		return models.ErrSessionNotFound
	}

	return nil
}

// UpdateMediaURLs записывает ссылки на видео и/или аудио.
// Nil-указатель оставляет соответствующую колонку без изменений.
func (r *pgSessionRepository) UpdateMediaURLs(ctx context.Context, id uuid.UUID, videoURL, audioURL *string) error {
	queryBase := "UPDATE therapy_sessions SET id = id"
	args := []interface{}{}
	argID := 1

	if videoURL != nil {
		queryBase += fmt.Sprintf(", video_url = $%d", argID)
		args = append(args, *videoURL)
		argID++
	}
	if audioURL != nil {
		queryBase += fmt.Sprintf(", audio_url = $%d", argID)
		args = append(args, *audioURL)
		argID++
	}

	// Если нечего обновлять, просто выходим
	if len(args) == 0 {
		r.logger.Info("UpdateMediaURLs called with no fields to update", zap.String("id", id.String()))
		return nil
	}

	query := queryBase + fmt.Sprintf(" WHERE id = $%d", argID)
	args = append(args, id)

	r.logger.Debug("Executing update media query", zap.String("query", query), zap.String("id", id.String()))
	cmdTag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to update session media urls in postgres", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to update session media urls: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update media urls for non-existent session", zap.String("id", id.String()))
		return models.ErrSessionNotFound
	}

	return nil
}

// CompleteSession помечает сессию завершённой с финальной оценкой и вердиктом.
func (r *pgSessionRepository) CompleteSession(ctx context.Context, id uuid.UUID, score float64, verdict string) error {
	query := `UPDATE therapy_sessions
	          SET score = $1, verdict = $2, status = $3, completed_at = CURRENT_TIMESTAMP
	          WHERE id = $4`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()), zap.Float64("score", score))

	cmdTag, err := r.db.Exec(ctx, query, score, verdict, models.SessionStatusCompleted, id)
	if err != nil {
		r.logger.Error("Failed to complete session in postgres", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to complete session: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to complete non-existent session", zap.String("id", id.String()))
		return models.ErrSessionNotFound
	}

	r.logger.Info("Session completed successfully", zap.String("id", id.String()), zap.Float64("score", score), zap.String("verdict", verdict))
	return nil
}

// FailSession помечает сессию неуспешной.
func (r *pgSessionRepository) FailSession(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE therapy_sessions SET status = $1, completed_at = CURRENT_TIMESTAMP WHERE id = $2`
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("id", id.String()))

	cmdTag, err := r.db.Exec(ctx, query, models.SessionStatusFailed, id)
	if err != nil {
		r.logger.Error("Failed to mark session failed in postgres", zap.Error(err), zap.String("id", id.String()))
		return fmt.Errorf("failed to mark session failed: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to fail non-existent session", zap.String("id", id.String()))
		return models.ErrSessionNotFound
	}

	return nil
}
