package models

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionTier определяет уровень подписки профиля.
type SubscriptionTier string

const (
	TierFree       SubscriptionTier = "free"
	TierPremium    SubscriptionTier = "premium"
	TierEnterprise SubscriptionTier = "enterprise"
)

// IsValid проверяет, является ли строка допустимым уровнем подписки.
func (t SubscriptionTier) IsValid() bool {
	switch t {
	case TierFree, TierPremium, TierEnterprise:
		return true
	default:
		return false
	}
}

// IsPremium возвращает true для платных уровней подписки.
func (t SubscriptionTier) IsPremium() bool {
	return t == TierPremium || t == TierEnterprise
}

// Profile представляет аккаунт пользователя и его агрегаты.
// total_sessions и total_score инкрементируются воркером при завершении сессии.
type Profile struct {
	ID               uuid.UUID        `json:"id"`
	Username         string           `json:"username"`
	Email            string           `json:"email"`
	PasswordHash     string           `json:"-"`
	SubscriptionTier SubscriptionTier `json:"subscription_tier"`
	TotalSessions    int              `json:"total_sessions"`
	TotalScore       float64          `json:"total_score"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
