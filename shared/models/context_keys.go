package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey - приватный тип для ключей контекста, чтобы избежать коллизий.
type contextKey string

const (
	// ProfileContextKey используется как ключ для хранения ProfileID в контексте запроса.
	ProfileContextKey contextKey = "profileID"
	// TierContextKey используется как ключ для хранения уровня подписки в контексте запроса.
	TierContextKey contextKey = "subscriptionTier"
)

// GetProfileIDFromContext извлекает ProfileID из контекста.
// Возвращает ID и true, если ключ найден и значение корректного типа.
func GetProfileIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(ProfileContextKey).(uuid.UUID)
	return id, ok
}

// WithProfileID возвращает контекст с установленным ProfileID.
func WithProfileID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, ProfileContextKey, id)
}

// GetTierFromContext извлекает уровень подписки из контекста.
func GetTierFromContext(ctx context.Context) (SubscriptionTier, bool) {
	tier, ok := ctx.Value(TierContextKey).(SubscriptionTier)
	return tier, ok
}

// WithTier возвращает контекст с установленным уровнем подписки.
func WithTier(ctx context.Context, tier SubscriptionTier) context.Context {
	return context.WithValue(ctx, TierContextKey, tier)
}
