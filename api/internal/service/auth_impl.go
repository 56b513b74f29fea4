package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"dream-advisor/api/internal/config"
	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const tokenIssuer = "dream-advisor-api"

type authServiceImpl struct {
	profileRepo interfaces.ProfileRepository
	tokenRepo   interfaces.TokenRepository
	cfg         *config.Config
	logger      *zap.Logger
}

// NewAuthService creates a new instance of the authentication service.
func NewAuthService(profileRepo interfaces.ProfileRepository, tokenRepo interfaces.TokenRepository, cfg *config.Config, logger *zap.Logger) AuthService {
	return &authServiceImpl{
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		cfg:         cfg,
		logger:      logger.Named("AuthService"),
	}
}

var _ AuthService = (*authServiceImpl)(nil)

// Register регистрирует новый профиль.
func (s *authServiceImpl) Register(ctx context.Context, username, email, password string) (*models.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.logger.Info("Registering new profile", zap.String("username", username))

	if _, err := mail.ParseAddress(email); err != nil {
		s.logger.Warn("Registration attempt with invalid email format", zap.String("username", username))
		return nil, fmt.Errorf("%w: invalid email format", models.ErrInvalidCredentials)
	}

	// Предварительная проверка username. Конфликт email ловим на уникальном
	// индексе при вставке: репозиторий вернет ErrEmailAlreadyExists.
	_, err := s.profileRepo.GetProfileByUsername(ctx, username)
	if err == nil {
		s.logger.Warn("Registration attempt with existing username", zap.String("username", username))
		return nil, models.ErrUserAlreadyExists
	}
	if !errors.Is(err, models.ErrProfileNotFound) {
		s.logger.Error("Failed to check username existence", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("ошибка проверки имени пользователя: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	profile := &models.Profile{
		ID:               uuid.New(),
		Username:         username,
		Email:            email,
		PasswordHash:     hash,
		SubscriptionTier: models.TierFree,
	}
	if err := s.profileRepo.CreateProfile(ctx, profile); err != nil {
		// Репозиторий возвращает сентинелы на конфликтах уникальности
		s.logger.Warn("Failed to create profile", zap.Error(err), zap.String("username", username))
		return nil, err
	}

	s.logger.Info("Profile registered successfully",
		zap.String("profileID", profile.ID.String()), zap.String("username", username))
	return profile, nil
}

// Login аутентифицирует профиль и выпускает пару токенов.
func (s *authServiceImpl) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	s.logger.Info("Login attempt", zap.String("username", username))

	profile, err := s.profileRepo.GetProfileByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			s.logger.Warn("Login attempt for unknown username", zap.String("username", username))
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("Failed to get profile during login", zap.Error(err), zap.String("username", username))
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}

	if !checkPasswordHash(password, profile.PasswordHash) {
		s.logger.Warn("Login attempt with wrong password", zap.String("username", username))
		return nil, models.ErrInvalidCredentials
	}

	td, err := s.createTokens(profile)
	if err != nil {
		return nil, err
	}

	if err := s.tokenRepo.SetToken(ctx, profile.ID, td); err != nil {
		s.logger.Error("Failed to save token details via repository", zap.Error(err),
			zap.String("profileID", profile.ID.String()))
		return nil, fmt.Errorf("ошибка сохранения токенов: %w", err)
	}

	s.logger.Info("Login successful", zap.String("profileID", profile.ID.String()))
	return td, nil
}

// Logout удаляет токены из хранилища. Всегда возвращает nil: даже при ошибке
// хранилища клиент считается разлогиненным.
func (s *authServiceImpl) Logout(ctx context.Context, profileID uuid.UUID, accessUUID, refreshUUID string) error {
	deleted, err := s.tokenRepo.DeleteTokens(ctx, profileID, accessUUID, refreshUUID)
	if err != nil {
		s.logger.Error("Non-critical: failed to delete tokens during logout", zap.Error(err),
			zap.String("profileID", profileID.String()))
		return nil
	}
	s.logger.Info("Logout successful", zap.String("profileID", profileID.String()), zap.Int64("deleted", deleted))
	return nil
}

// Refresh проверяет refresh-токен, ротирует пару и удаляет старую.
func (s *authServiceImpl) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	s.logger.Debug("Refreshing token pair")

	token, err := jwt.ParseWithClaims(refreshToken, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			s.logger.Debug("Refresh token expired")
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			s.logger.Warn("Refresh attempt with malformed token")
			return nil, models.ErrTokenMalformed
		}
		s.logger.Error("Failed to parse refresh token", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		s.logger.Warn("Refresh attempt with invalid token structure or signature")
		return nil, models.ErrTokenInvalid
	}

	refreshUUID := claims.ID
	profileID, err := s.tokenRepo.GetProfileIDByRefreshUUID(ctx, refreshUUID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Warn("Refresh token not found in store (revoked or expired)",
				zap.String("refreshUUID", refreshUUID))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking refresh token existence via repository", zap.Error(err))
		return nil, fmt.Errorf("ошибка проверки refresh токена: %w", err)
	}
	if profileID != claims.UserID {
		s.logger.Warn("Refresh token profile mismatch", zap.String("refreshUUID", refreshUUID))
		return nil, models.ErrTokenInvalid
	}

	profile, err := s.profileRepo.GetProfileByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, models.ErrProfileNotFound) {
			// Профиль из валидного токена не найден - токен невалиден
			s.logger.Warn("Profile from valid refresh token not found", zap.String("profileID", profileID.String()))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Failed to get profile during refresh", zap.Error(err))
		return nil, fmt.Errorf("ошибка получения профиля: %w", err)
	}

	newTd, err := s.createTokens(profile)
	if err != nil {
		return nil, err
	}

	// Удаляем старую пару. Некритично для пользователя, но важно для нас.
	if _, delErr := s.tokenRepo.DeleteTokens(ctx, profileID, "", refreshUUID); delErr != nil {
		s.logger.Error("Non-critical: failed to delete old refresh token during refresh",
			zap.Error(delErr), zap.String("refreshUUID", refreshUUID))
	}

	if err := s.tokenRepo.SetToken(ctx, profileID, newTd); err != nil {
		s.logger.Error("Failed to save new token details during refresh", zap.Error(err),
			zap.String("profileID", profileID.String()))
		return nil, fmt.Errorf("ошибка сохранения токенов: %w", err)
	}

	s.logger.Info("Token refreshed successfully", zap.String("profileID", profileID.String()))
	return newTd, nil
}

// VerifyAccessToken parses and validates an access token string.
func (s *authServiceImpl) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, models.ErrTokenExpired
		}
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, models.ErrTokenMalformed
		}
		s.logger.Debug("Failed to parse access token", zap.Error(err))
		return nil, models.ErrTokenInvalid
	}

	claims, ok := token.Claims.(*models.Claims)
	if !ok || !token.Valid {
		s.logger.Warn("Access token verification failed (invalid claims type or signature)")
		return nil, models.ErrTokenInvalid
	}

	// Проверяем наличие токена в хранилище: logout инвалидирует токен
	// до истечения срока его жизни.
	if _, err := s.tokenRepo.GetProfileIDByAccessUUID(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Debug("Access token not found in store (revoked/logged out)",
				zap.String("accessUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		s.logger.Error("Error checking access token existence via repository", zap.Error(err))
		return nil, fmt.Errorf("ошибка проверки access токена: %w", err)
	}

	return claims, nil
}

// createTokens generates a new access and refresh token pair for a profile.
func (s *authServiceImpl) createTokens(profile *models.Profile) (*models.TokenDetails, error) {
	now := time.Now()
	td := &models.TokenDetails{
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	acClaims := &models.Claims{
		UserID: profile.ID,
		Tier:   profile.SubscriptionTier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.AccessUUID,
			Subject:   profile.ID.String(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.AtExpires, 0)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	acToken := jwt.NewWithClaims(jwt.SigningMethodHS256, acClaims)
	var err error
	td.AccessToken, err = acToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.String("profileID", profile.ID.String()))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	rcClaims := &models.Claims{
		UserID: profile.ID,
		Tier:   profile.SubscriptionTier,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        td.RefreshUUID,
			Subject:   profile.ID.String(),
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Unix(td.RtExpires, 0)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	rtToken := jwt.NewWithClaims(jwt.SigningMethodHS256, rcClaims)
	td.RefreshToken, err = rtToken.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.String("profileID", profile.ID.String()))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return td, nil
}

// hashPassword generates a bcrypt hash of the password.
func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// checkPasswordHash compares a plain text password with a stored bcrypt hash.
func checkPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
