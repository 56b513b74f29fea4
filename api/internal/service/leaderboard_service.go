package service

import (
	"context"
	"errors"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"go.uber.org/zap"
)

// LeaderboardService отдает публичный рейтинг: горячий путь через Redis ZSET,
// при холодном кэше или его отсутствии - напрямую из PostgreSQL.
type LeaderboardService struct {
	repo   interfaces.LeaderboardRepository
	cache  interfaces.LeaderboardCache // может быть nil
	logger *zap.Logger
}

// NewLeaderboardService creates a new leaderboard read service.
func NewLeaderboardService(repo interfaces.LeaderboardRepository, cache interfaces.LeaderboardCache, logger *zap.Logger) *LeaderboardService {
	return &LeaderboardService{
		repo:   repo,
		cache:  cache,
		logger: logger.Named("LeaderboardService"),
	}
}

// Top возвращает записи рейтинга по убыванию оценки.
func (s *LeaderboardService) Top(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	if s.cache != nil {
		entries, err := s.cache.Top(ctx, limit, offset)
		if err == nil {
			return entries, nil
		}
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.Warn("Leaderboard cache read failed, falling back to repository", zap.Error(err))
		}
	}

	if s.repo == nil {
		// Ephemeral-режим: рейтинга нет, отдаем пустой список
		return []models.LeaderboardEntry{}, nil
	}
	return s.repo.ListEntries(ctx, limit, offset)
}
