package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Compile-time check to ensure redisTokenRepository implements TokenRepository
var _ interfaces.TokenRepository = (*redisTokenRepository)(nil)

type redisTokenRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisTokenRepository creates a new Redis-backed TokenRepository.
func NewRedisTokenRepository(client *redis.Client, logger *zap.Logger) interfaces.TokenRepository {
	return &redisTokenRepository{
		client: client,
		logger: logger.Named("RedisTokenRepo"),
	}
}

// SetToken stores token details in Redis.
// We store two key-value pairs for each token pair:
// 1. AccessUUID -> ProfileID (with AccessTokenTTL)
// 2. RefreshUUID -> ProfileID (with RefreshTokenTTL)
// And add identifiers to a profile-specific set:
// profile_tokens:{ProfileID} -> { "access:{AccessUUID}", "refresh:{RefreshUUID}" }
func (r *redisTokenRepository) SetToken(ctx context.Context, profileID uuid.UUID, td *models.TokenDetails) error {
	at := time.Unix(td.AtExpires, 0)
	rt := time.Unix(td.RtExpires, 0)
	now := time.Now()

	accessKey := fmt.Sprintf("access_uuid:%s", td.AccessUUID)
	refreshKey := fmt.Sprintf("refresh_uuid:%s", td.RefreshUUID)
	profileIDStr := profileID.String()
	profileSetKey := fmt.Sprintf("profile_tokens:%s", profileIDStr)

	accessTTL := at.Sub(now)
	refreshTTL := rt.Sub(now)

	accessIdentifier := fmt.Sprintf("access:%s", td.AccessUUID)
	refreshIdentifier := fmt.Sprintf("refresh:%s", td.RefreshUUID)

	// Use pipeline for atomic operations
	pipe := r.client.Pipeline()
	pipe.Set(ctx, accessKey, profileIDStr, accessTTL)
	pipe.Set(ctx, refreshKey, profileIDStr, refreshTTL)
	pipe.SAdd(ctx, profileSetKey, accessIdentifier, refreshIdentifier)

	r.logger.Debug("Setting tokens in Redis and adding to profile set",
		zap.String("profileID", profileIDStr),
		zap.String("accessUUID", td.AccessUUID),
		zap.String("refreshUUID", td.RefreshUUID),
		zap.Duration("accessTTL", accessTTL),
		zap.Duration("refreshTTL", refreshTTL),
	)

	_, err := pipe.Exec(ctx)
	if err != nil {
		r.logger.Error("Failed to set token details in redis", zap.Error(err), zap.String("profileID", profileIDStr))
		return fmt.Errorf("failed to set token details in redis: %w", err)
	}
	return nil
}

// DeleteTokens removes tokens from Redis based on their UUIDs and removes them from the profile's set.
func (r *redisTokenRepository) DeleteTokens(ctx context.Context, profileID uuid.UUID, accessUUID, refreshUUID string) (int64, error) {
	keysToDelete := []string{}
	identifiersToRemove := []interface{}{}
	logFields := []zap.Field{zap.String("profileID", profileID.String())}
	profileSetKey := fmt.Sprintf("profile_tokens:%s", profileID.String())

	if accessUUID != "" {
		keysToDelete = append(keysToDelete, fmt.Sprintf("access_uuid:%s", accessUUID))
		identifiersToRemove = append(identifiersToRemove, fmt.Sprintf("access:%s", accessUUID))
		logFields = append(logFields, zap.String("accessUUID", accessUUID))
	}
	if refreshUUID != "" {
		keysToDelete = append(keysToDelete, fmt.Sprintf("refresh_uuid:%s", refreshUUID))
		identifiersToRemove = append(identifiersToRemove, fmt.Sprintf("refresh:%s", refreshUUID))
		logFields = append(logFields, zap.String("refreshUUID", refreshUUID))
	}

	if len(keysToDelete) == 0 {
		r.logger.Warn("DeleteTokens called with no UUIDs")
		return 0, nil
	}

	r.logger.Debug("Deleting tokens from Redis and removing from set", logFields...)

	pipe := r.client.Pipeline()
	delCmd := pipe.Del(ctx, keysToDelete...)
	pipe.SRem(ctx, profileSetKey, identifiersToRemove...)

	_, err := pipe.Exec(ctx)
	if err != nil {
		logFields = append(logFields, zap.Error(err))
		r.logger.Error("Failed to execute pipeline for deleting tokens and removing from set", logFields...)
		return 0, fmt.Errorf("failed to delete tokens/remove from set: %w", err)
	}

	deletedCount, _ := delCmd.Result() // Pipeline error checked above

	logFields = append(logFields, zap.Int64("deletedCount", deletedCount))
	r.logger.Info("Tokens deleted from Redis and removed from set", logFields...)
	return deletedCount, nil
}

// GetProfileIDByAccessUUID retrieves the ProfileID associated with an AccessUUID.
func (r *redisTokenRepository) GetProfileIDByAccessUUID(ctx context.Context, accessUUID string) (uuid.UUID, error) {
	return r.getProfileID(ctx, fmt.Sprintf("access_uuid:%s", accessUUID))
}

// GetProfileIDByRefreshUUID retrieves the ProfileID associated with a RefreshUUID.
func (r *redisTokenRepository) GetProfileIDByRefreshUUID(ctx context.Context, refreshUUID string) (uuid.UUID, error) {
	return r.getProfileID(ctx, fmt.Sprintf("refresh_uuid:%s", refreshUUID))
}

func (r *redisTokenRepository) getProfileID(ctx context.Context, key string) (uuid.UUID, error) {
	r.logger.Debug("Getting token from Redis", zap.String("key", key))
	profileIDStr, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			r.logger.Debug("Token not found in Redis", zap.String("key", key))
			return uuid.Nil, models.ErrTokenNotFound
		}
		r.logger.Error("Failed to get token from redis", zap.Error(err), zap.String("key", key))
		return uuid.Nil, fmt.Errorf("failed to get token from redis: %w", err)
	}

	profileID, err := uuid.Parse(profileIDStr)
	if err != nil {
		// Эта ошибка серьезная - данные в Redis повреждены
		r.logger.Error("Failed to parse profileID (UUID) from redis data",
			zap.Error(err),
			zap.String("key", key),
			zap.String("value", profileIDStr),
		)
		return uuid.Nil, fmt.Errorf("corrupted profileID data in redis for key %s: %w", key, err)
	}
	return profileID, nil
}

// DeleteTokensByProfileID removes all tokens associated with a profile using the profile-specific set.
func (r *redisTokenRepository) DeleteTokensByProfileID(ctx context.Context, profileID uuid.UUID) (int64, error) {
	log := r.logger.With(zap.String("profileID", profileID.String()))
	log.Info("Attempting to delete all tokens for profile using Set")

	profileIDStr := profileID.String()
	profileSetKey := fmt.Sprintf("profile_tokens:%s", profileIDStr)

	// 1. Get all token identifiers from the profile's set
	tokenIdentifiers, err := r.client.SMembers(ctx, profileSetKey).Result()
	if err != nil {
		if err == redis.Nil { // Key (set) doesn't exist
			log.Info("No token set found for profile, nothing to delete.")
			return 0, nil
		}
		log.Error("Failed to get token identifiers from profile set", zap.Error(err))
		return 0, fmt.Errorf("failed to retrieve token identifiers for profile %s: %w", profileIDStr, err)
	}

	if len(tokenIdentifiers) == 0 {
		log.Info("Token set for profile is empty, nothing to delete.")
		r.client.Del(ctx, profileSetKey)
		return 0, nil
	}

	// 2. Construct the actual token keys to delete
	keysToDelete := make([]string, 0, len(tokenIdentifiers))
	for _, identifier := range tokenIdentifiers {
		parts := strings.SplitN(identifier, ":", 2)
		if len(parts) != 2 {
			log.Warn("Malformed token identifier found in profile set", zap.String("identifier", identifier))
			continue
		}
		switch parts[0] {
		case "access":
			keysToDelete = append(keysToDelete, fmt.Sprintf("access_uuid:%s", parts[1]))
		case "refresh":
			keysToDelete = append(keysToDelete, fmt.Sprintf("refresh_uuid:%s", parts[1]))
		default:
			log.Warn("Unknown token type found in profile set identifier", zap.String("identifier", identifier))
		}
	}

	// 3. Delete the actual token keys and the profile set
	pipe := r.client.Pipeline()
	var delCmd *redis.IntCmd
	if len(keysToDelete) > 0 {
		delCmd = pipe.Del(ctx, keysToDelete...)
	}
	pipe.Del(ctx, profileSetKey)

	_, err = pipe.Exec(ctx)
	if err != nil {
		log.Error("Failed to execute pipeline for deleting tokens and set", zap.Error(err))
		return 0, fmt.Errorf("failed to delete tokens and set for profile %s: %w", profileIDStr, err)
	}

	var totalDeleted int64
	if delCmd != nil {
		totalDeleted, _ = delCmd.Result()
	}

	log.Info("Deleted tokens for profile using Set", zap.Int64("deletedTokenKeys", totalDeleted), zap.Int("tokenIdentifiersFound", len(tokenIdentifiers)))
	return totalDeleted, nil
}
