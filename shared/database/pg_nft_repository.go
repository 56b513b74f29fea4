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
var _ interfaces.NFTRepository = (*pgNFTRepository)(nil)

// pgNFTRepository хранит симулированные сертификаты. Никакой настоящей
// чеканки здесь нет, таблица существует ради идемпотентности операции.
type pgNFTRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

// NewPgNFTRepository создает новый экземпляр репозитория сертификатов.
func NewPgNFTRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.NFTRepository {
	return &pgNFTRepository{
		db:     db,
		logger: logger.Named("PgNFTRepo"),
	}
}

// CreateCertificate вставляет сертификат для сессии.
func (r *pgNFTRepository) CreateCertificate(ctx context.Context, cert *models.NFTCertificate) error {
	query := `INSERT INTO nft_certificates (session_id, token_id) VALUES ($1, $2) RETURNING id, minted_at`
	logFields := []zap.Field{
		zap.String("sessionID", cert.SessionID.String()),
		zap.String("tokenID", cert.TokenID),
	}
	r.logger.Debug("Creating certificate record", logFields...)

	err := r.db.QueryRow(ctx, query, cert.SessionID, cert.TokenID).Scan(&cert.ID, &cert.MintedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505": // unique_violation (сертификат уже выпущен)
				r.logger.Warn("Certificate already exists (unique constraint violation)", logFields...)
				return models.ErrAlreadyMinted
			case "23503": // foreign_key_violation (сессия не найдена)
				r.logger.Warn("Session not found for certificate (foreign key violation)", logFields...)
				return models.ErrSessionNotFound
			}
		}
		r.logger.Error("Failed to create certificate record", append(logFields, zap.Error(err))...)
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	r.logger.Info("Certificate record created successfully", logFields...)
	return nil
}

// GetCertificateBySessionID возвращает сертификат сессии.
func (r *pgNFTRepository) GetCertificateBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.NFTCertificate, error) {
	query := `SELECT id, session_id, token_id, minted_at FROM nft_certificates WHERE session_id = $1`
	cert := &models.NFTCertificate{}
	r.logger.Debug("Executing query", zap.String("query", query), zap.String("sessionID", sessionID.String()))
	err := r.db.QueryRow(ctx, query, sessionID).Scan(&cert.ID, &cert.SessionID, &cert.TokenID, &cert.MintedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("Certificate not found by session ID", zap.String("sessionID", sessionID.String()))
			return nil, models.ErrNotFound
		}
		r.logger.Error("Failed to get certificate from postgres", zap.Error(err), zap.String("sessionID", sessionID.String()))
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	return cert, nil
}
