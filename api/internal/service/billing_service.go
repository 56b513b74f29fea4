package service

import (
	"context"
	"math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BillingMode отражает режим биллинга в ответах API. Платежи всегда
// симулируются; режим влияет только на предупреждение и поле в ответе.
type BillingMode string

const (
	BillingModeSimulated BillingMode = "simulated"
	BillingModeTest      BillingMode = "test"
)

// Plan - строка статической таблицы сравнения тарифов.
type Plan struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	PriceUSD     float64  `json:"price_usd"`
	PersonaCount int      `json:"persona_count"`
	Features     []string `json:"features"`
}

var billingPlans = []Plan{
	{
		ID:           string(models.TierFree),
		Name:         "Dreamer",
		PriceUSD:     0,
		PersonaCount: models.FreePersonaCount(),
		Features: []string{
			"Text idea submissions",
			"2 free advisor personas",
			"Public leaderboard access",
		},
	},
	{
		ID:           string(models.TierPremium),
		Name:         "Visionary",
		PriceUSD:     9.99,
		PersonaCount: len(models.AllPersonas()),
		Features: []string{
			"Voice idea submissions",
			"All 5 advisor personas",
			"Talking-head video sessions",
			"NFT score certificates",
		},
	},
}

var cardNumberRe = regexp.MustCompile(`^\d{13,19}$`)

// BillingService симулирует подписочный биллинг. Реальный платежный
// процессор не вызывается никогда и нигде.
type BillingService struct {
	profileRepo    interfaces.ProfileRepository
	mode           BillingMode
	simulatedDelay time.Duration
	logger         *zap.Logger

	mu      sync.Mutex
	decline func() bool // инжектируемый 10% отказ карты
}

// NewBillingService creates the simulated billing service. publicKey управляет
// только режимом: валидный pk_ ключ дает "test", всё остальное - "simulated".
func NewBillingService(profileRepo interfaces.ProfileRepository, publicKey string, simulatedDelay time.Duration, logger *zap.Logger) *BillingService {
	log := logger.Named("BillingService")

	mode := BillingModeSimulated
	switch {
	case publicKey == "" || strings.Contains(publicKey, "placeholder"):
		log.Warn("Billing public key is absent or placeholder, billing runs in simulated mode")
	case strings.HasPrefix(publicKey, "sk_"):
		// Секретный ключ в публичной конфигурации - проблема сама по себе
		log.Warn("Secret key detected in BILLING_PUBLIC_KEY, refusing it; billing runs in simulated mode")
	case strings.HasPrefix(publicKey, "pk_"):
		mode = BillingModeTest
	default:
		log.Warn("Billing public key has unexpected format, billing runs in simulated mode")
	}

	return &BillingService{
		profileRepo:    profileRepo,
		mode:           mode,
		simulatedDelay: simulatedDelay,
		logger:         log,
		decline:        func() bool { return rand.Float64() < 0.1 },
	}
}

// SetDeclineFunc подменяет симуляцию отказа карты (для тестов).
func (s *BillingService) SetDeclineFunc(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.decline = fn
}

// Mode возвращает текущий режим биллинга.
func (s *BillingService) Mode() BillingMode {
	return s.mode
}

// Plans возвращает статическую таблицу тарифов.
func (s *BillingService) Plans() []Plan {
	return billingPlans
}

// Upgrade симулирует оплату фиксированной задержкой и переводит профиль
// на premium. Ключа идемпотентности нет: повторный вызов на premium-профиле
// возвращает ErrAlreadySubscribed.
func (s *BillingService) Upgrade(ctx context.Context, profileID uuid.UUID) (*models.Profile, error) {
	profile, err := s.profileRepo.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if profile.SubscriptionTier.IsPremium() {
		return nil, models.ErrAlreadySubscribed
	}

	// Симуляция обработки платежа
	select {
	case <-time.After(s.simulatedDelay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := s.profileRepo.UpdateSubscriptionTier(ctx, profileID, models.TierPremium); err != nil {
		s.logger.Error("Failed to update subscription tier", zap.Error(err),
			zap.String("profileID", profileID.String()))
		return nil, err
	}

	profile.SubscriptionTier = models.TierPremium
	s.logger.Info("Profile upgraded to premium (simulated payment)",
		zap.String("profileID", profileID.String()))
	return profile, nil
}

// ValidateCard - симуляция проверки карты для демонстрации UI-состояний.
// Только длина и формат, без алгоритма Луна, плюс 10% случайных отказов.
// Никогда не связана с Upgrade.
func (s *BillingService) ValidateCard(number, expiry, cvc string) error {
	number = strings.ReplaceAll(strings.ReplaceAll(number, " ", ""), "-", "")
	if !cardNumberRe.MatchString(number) {
		return models.ErrInvalidCard
	}
	if !validExpiry(expiry) {
		return models.ErrInvalidCard
	}
	if len(cvc) < 3 || len(cvc) > 4 || strings.TrimFunc(cvc, isDigit) != "" {
		return models.ErrInvalidCard
	}

	s.mu.Lock()
	declined := s.decline()
	s.mu.Unlock()
	if declined {
		return models.ErrCardDeclined
	}
	return nil
}

// validExpiry проверяет формат MM/YY без проверки истечения срока.
func validExpiry(expiry string) bool {
	parts := strings.Split(expiry, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return false
	}
	if strings.TrimFunc(parts[0], isDigit) != "" || strings.TrimFunc(parts[1], isDigit) != "" {
		return false
	}
	return parts[0] >= "01" && parts[0] <= "12"
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}
