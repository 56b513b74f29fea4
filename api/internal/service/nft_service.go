package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// mintDelay - фиксированная задержка "чеканки". Чистая симуляция:
// взаимодействия с блокчейном нет нигде в кодовой базе.
const mintDelay = 3 * time.Second

// NFTService симулирует выпуск сертификата за сессию из рейтинга.
type NFTService struct {
	sessionRepo     interfaces.SessionRepository
	nftRepo         interfaces.NFTRepository
	leaderboardRepo interfaces.LeaderboardRepository
	cache           interfaces.LeaderboardCache // может быть nil
	delay           time.Duration
	logger          *zap.Logger
}

// NewNFTService creates the simulated certificate service.
func NewNFTService(
	sessionRepo interfaces.SessionRepository,
	nftRepo interfaces.NFTRepository,
	leaderboardRepo interfaces.LeaderboardRepository,
	cache interfaces.LeaderboardCache,
	logger *zap.Logger,
) *NFTService {
	return &NFTService{
		sessionRepo:     sessionRepo,
		nftRepo:         nftRepo,
		leaderboardRepo: leaderboardRepo,
		cache:           cache,
		delay:           mintDelay,
		logger:          logger.Named("NFTService"),
	}
}

// SetMintDelay подменяет задержку чеканки (для тестов).
func (s *NFTService) SetMintDelay(d time.Duration) {
	s.delay = d
}

// FakeTokenID детерминированно выводит псевдо-идентификатор токена из ID
// сессии: одинаковый для повторных запросов, но выглядит как настоящий.
func FakeTokenID(sessionID uuid.UUID) string {
	sum := sha256.Sum256([]byte(sessionID.String()))
	return "DREAM-" + hex.EncodeToString(sum[:8])
}

// Mint выпускает сертификат для сессии из рейтинга. Сессия должна быть
// завершена и опубликована в рейтинге; повторная чеканка возвращает
// models.ErrAlreadyMinted.
func (s *NFTService) Mint(ctx context.Context, sessionID uuid.UUID) (*models.NFTCertificate, error) {
	session, err := s.sessionRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionStatusCompleted || session.Score == nil {
		return nil, fmt.Errorf("%w: session is not completed", models.ErrInvalidInput)
	}
	if *session.Score < models.LeaderboardThreshold {
		return nil, models.ErrBelowThreshold
	}

	if _, err := s.leaderboardRepo.GetEntryBySessionID(ctx, sessionID); err != nil {
		if errors.Is(err, models.ErrEntryNotFound) {
			return nil, models.ErrBelowThreshold
		}
		return nil, err
	}

	// Симуляция чеканки
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	cert := &models.NFTCertificate{
		ID:        uuid.New(),
		SessionID: sessionID,
		TokenID:   FakeTokenID(sessionID),
		MintedAt:  time.Now(),
	}
	if err := s.nftRepo.CreateCertificate(ctx, cert); err != nil {
		// ErrAlreadyMinted пробрасываем как есть
		return nil, err
	}

	if err := s.leaderboardRepo.SetNFTMinted(ctx, sessionID); err != nil {
		s.logger.Error("Failed to flip nft_minted flag on leaderboard entry",
			zap.Error(err), zap.String("sessionID", sessionID.String()))
	}
	if s.cache != nil {
		if err := s.cache.MarkMinted(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to mark minted in leaderboard cache",
				zap.Error(err), zap.String("sessionID", sessionID.String()))
		}
	}

	s.logger.Info("Certificate minted (simulated)",
		zap.String("sessionID", sessionID.String()), zap.String("tokenID", cert.TokenID))
	return cert, nil
}
