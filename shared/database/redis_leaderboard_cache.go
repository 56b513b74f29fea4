package database

import (
	"context"
	"encoding/json"
	"fmt"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	leaderboardScoresKey  = "leaderboard:scores"  // ZSET: member = sessionID, score = оценка
	leaderboardEntriesKey = "leaderboard:entries" // HASH: field = sessionID, value = JSON записи
)

// Compile-time check
var _ interfaces.LeaderboardCache = (*redisLeaderboardCache)(nil)

// redisLeaderboardCache - горячий путь чтения рейтинга. Источник истины
// остаётся в PostgreSQL; промах по кэшу обслуживается из репозитория.
type redisLeaderboardCache struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisLeaderboardCache creates a new Redis-backed LeaderboardCache.
func NewRedisLeaderboardCache(client *redis.Client, logger *zap.Logger) interfaces.LeaderboardCache {
	return &redisLeaderboardCache{
		client: client,
		logger: logger.Named("RedisLeaderboardCache"),
	}
}

// Add вставляет или обновляет запись в кэше.
func (c *redisLeaderboardCache) Add(ctx context.Context, entry models.LeaderboardEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
	}

	member := entry.SessionID.String()

	pipe := c.client.Pipeline()
	pipe.ZAdd(ctx, leaderboardScoresKey, redis.Z{Score: entry.Score, Member: member})
	pipe.HSet(ctx, leaderboardEntriesKey, member, data)

	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Error("Failed to add leaderboard entry to cache", zap.Error(err), zap.String("sessionID", member))
		return fmt.Errorf("failed to add leaderboard entry to cache: %w", err)
	}

	c.logger.Debug("Leaderboard entry cached", zap.String("sessionID", member), zap.Float64("score", entry.Score))
	return nil
}

// Top возвращает до limit записей начиная с offset, по убыванию оценки.
// На холодном кэше возвращает ErrNotFound.
func (c *redisLeaderboardCache) Top(ctx context.Context, limit, offset int) ([]models.LeaderboardEntry, error) {
	start := int64(offset)
	stop := int64(offset + limit - 1)

	sessionIDs, err := c.client.ZRevRange(ctx, leaderboardScoresKey, start, stop).Result()
	if err != nil {
		c.logger.Error("Failed to read leaderboard ZSET", zap.Error(err))
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}
	if len(sessionIDs) == 0 {
		// Пустой ZSET неотличим от холодного кэша, поэтому промах.
		return nil, interfaces.ErrNotFound
	}

	raw, err := c.client.HMGet(ctx, leaderboardEntriesKey, sessionIDs...).Result()
	if err != nil {
		c.logger.Error("Failed to read leaderboard entries hash", zap.Error(err))
		return nil, fmt.Errorf("failed to read leaderboard cache: %w", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(raw))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok || s == "" {
			c.logger.Warn("Leaderboard hash missing entry for ranked session", zap.String("sessionID", sessionIDs[i]))
			continue
		}
		var entry models.LeaderboardEntry
		if err := json.Unmarshal([]byte(s), &entry); err != nil {
			c.logger.Warn("Failed to unmarshal cached leaderboard entry", zap.Error(err), zap.String("sessionID", sessionIDs[i]))
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// MarkMinted обновляет закэшированный флаг nft_minted, если запись в кэше есть.
func (c *redisLeaderboardCache) MarkMinted(ctx context.Context, sessionID uuid.UUID) error {
	member := sessionID.String()

	raw, err := c.client.HGet(ctx, leaderboardEntriesKey, member).Result()
	if err != nil {
		if err == redis.Nil {
			// Запись не в кэше - не ошибка, её подтянут из БД.
			return nil
		}
		c.logger.Error("Failed to read cached leaderboard entry", zap.Error(err), zap.String("sessionID", member))
		return fmt.Errorf("failed to read cached leaderboard entry: %w", err)
	}

	var entry models.LeaderboardEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("Failed to unmarshal cached leaderboard entry, dropping it", zap.Error(err), zap.String("sessionID", member))
		// Битую запись проще выкинуть, чем чинить.
		c.client.HDel(ctx, leaderboardEntriesKey, member)
		c.client.ZRem(ctx, leaderboardScoresKey, member)
		return nil
	}

	entry.NFTMinted = true
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal leaderboard entry: %w", err)
	}

	if err := c.client.HSet(ctx, leaderboardEntriesKey, member, data).Err(); err != nil {
		c.logger.Error("Failed to update cached leaderboard entry", zap.Error(err), zap.String("sessionID", member))
		return fmt.Errorf("failed to update cached leaderboard entry: %w", err)
	}

	return nil
}
