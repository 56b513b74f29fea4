package service

import (
	"context"
	"testing"
	"time"

	"dream-advisor/api/internal/config"
	"dream-advisor/api/internal/mocks"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuthService(t *testing.T) (AuthService, *mocks.MockProfileRepository, *mocks.MockTokenRepository) {
	t.Helper()
	profileRepo := mocks.NewMockProfileRepository(t)
	tokenRepo := mocks.NewMockTokenRepository(t)
	cfg := &config.Config{
		JWTSecret:       "test-secret",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 168 * time.Hour,
	}
	svc := NewAuthService(profileRepo, tokenRepo, cfg, zap.NewNop())
	return svc, profileRepo, tokenRepo
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, profileRepo, _ := newTestAuthService(t)
	ctx := context.Background()

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").
		Return(nil, models.ErrProfileNotFound).Once()
	profileRepo.On("CreateProfile", mock.Anything, mock.AnythingOfType("*models.Profile")).
		Return(nil).Once()

	profile, err := svc.Register(ctx, "alice", "  Alice@Example.COM ", "password1")
	require.NoError(t, err)
	require.NotNil(t, profile)

	assert.Equal(t, "alice", profile.Username)
	assert.Equal(t, "alice@example.com", profile.Email, "email должен нормализоваться")
	assert.Equal(t, models.TierFree, profile.SubscriptionTier)
	assert.NotEqual(t, uuid.Nil, profile.ID)
	assert.NotEqual(t, "password1", profile.PasswordHash)
	assert.True(t, checkPasswordHash("password1", profile.PasswordHash))

	profileRepo.AssertExpectations(t)
}

func TestAuthService_Register_InvalidEmail(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Register(context.Background(), "alice", "not-an-email", "password1")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Register_UsernameTaken(t *testing.T) {
	svc, profileRepo, _ := newTestAuthService(t)

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").
		Return(&models.Profile{ID: uuid.New(), Username: "alice"}, nil).Once()

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.ErrorIs(t, err, models.ErrUserAlreadyExists)
	profileRepo.AssertExpectations(t)
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	svc, profileRepo, _ := newTestAuthService(t)

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").
		Return(nil, models.ErrProfileNotFound).Once()
	// Конфликт email ловится на уникальном индексе при вставке
	profileRepo.On("CreateProfile", mock.Anything, mock.AnythingOfType("*models.Profile")).
		Return(models.ErrEmailAlreadyExists).Once()

	_, err := svc.Register(context.Background(), "alice", "alice@example.com", "password1")
	require.ErrorIs(t, err, models.ErrEmailAlreadyExists)
	profileRepo.AssertExpectations(t)
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, profileRepo, tokenRepo := newTestAuthService(t)

	hash, err := hashPassword("password1")
	require.NoError(t, err)
	profile := &models.Profile{
		ID:               uuid.New(),
		Username:         "alice",
		PasswordHash:     hash,
		SubscriptionTier: models.TierFree,
	}

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").Return(profile, nil).Once()
	tokenRepo.On("SetToken", mock.Anything, profile.ID, mock.AnythingOfType("*models.TokenDetails")).
		Return(nil).Once()

	td, err := svc.Login(context.Background(), "alice", "password1")
	require.NoError(t, err)
	require.NotNil(t, td)

	assert.NotEmpty(t, td.AccessToken)
	assert.NotEmpty(t, td.RefreshToken)
	assert.NotEqual(t, td.AccessUUID, td.RefreshUUID)
	assert.Greater(t, td.RtExpires, td.AtExpires)

	tokenRepo.AssertExpectations(t)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, profileRepo, _ := newTestAuthService(t)

	hash, err := hashPassword("password1")
	require.NoError(t, err)
	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").
		Return(&models.Profile{ID: uuid.New(), Username: "alice", PasswordHash: hash}, nil).Once()

	_, err = svc.Login(context.Background(), "alice", "wrong-password")
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownUsername(t *testing.T) {
	svc, profileRepo, _ := newTestAuthService(t)

	profileRepo.On("GetProfileByUsername", mock.Anything, "ghost").
		Return(nil, models.ErrProfileNotFound).Once()

	_, err := svc.Login(context.Background(), "ghost", "password1")
	// Не раскрываем, существует ли пользователь
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
}

func TestAuthService_Refresh_RotatesPair(t *testing.T) {
	svc, profileRepo, tokenRepo := newTestAuthService(t)
	ctx := context.Background()

	hash, err := hashPassword("password1")
	require.NoError(t, err)
	profile := &models.Profile{
		ID:               uuid.New(),
		Username:         "alice",
		PasswordHash:     hash,
		SubscriptionTier: models.TierPremium,
	}

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").Return(profile, nil).Once()
	tokenRepo.On("SetToken", mock.Anything, profile.ID, mock.AnythingOfType("*models.TokenDetails")).
		Return(nil).Twice()

	td, err := svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	tokenRepo.On("GetProfileIDByRefreshUUID", mock.Anything, td.RefreshUUID).
		Return(profile.ID, nil).Once()
	profileRepo.On("GetProfileByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	// Старая пара удаляется при ротации
	tokenRepo.On("DeleteTokens", mock.Anything, profile.ID, "", td.RefreshUUID).
		Return(int64(1), nil).Once()

	newTd, err := svc.Refresh(ctx, td.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, newTd)

	assert.NotEqual(t, td.RefreshUUID, newTd.RefreshUUID)
	assert.NotEqual(t, td.AccessUUID, newTd.AccessUUID)

	tokenRepo.AssertExpectations(t)
	profileRepo.AssertExpectations(t)
}

func TestAuthService_Refresh_RevokedToken(t *testing.T) {
	svc, profileRepo, tokenRepo := newTestAuthService(t)
	ctx := context.Background()

	hash, err := hashPassword("password1")
	require.NoError(t, err)
	profile := &models.Profile{ID: uuid.New(), Username: "alice", PasswordHash: hash}

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").Return(profile, nil).Once()
	tokenRepo.On("SetToken", mock.Anything, profile.ID, mock.Anything).Return(nil).Once()

	td, err := svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	tokenRepo.On("GetProfileIDByRefreshUUID", mock.Anything, td.RefreshUUID).
		Return(uuid.Nil, models.ErrTokenNotFound).Once()

	_, err = svc.Refresh(ctx, td.RefreshToken)
	require.ErrorIs(t, err, models.ErrTokenInvalid)
}

func TestAuthService_Refresh_MalformedToken(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	_, err := svc.Refresh(context.Background(), "definitely-not-a-jwt")
	require.ErrorIs(t, err, models.ErrTokenMalformed)
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	svc, profileRepo, tokenRepo := newTestAuthService(t)
	ctx := context.Background()

	hash, err := hashPassword("password1")
	require.NoError(t, err)
	profile := &models.Profile{
		ID:               uuid.New(),
		Username:         "alice",
		PasswordHash:     hash,
		SubscriptionTier: models.TierPremium,
	}

	profileRepo.On("GetProfileByUsername", mock.Anything, "alice").Return(profile, nil).Once()
	tokenRepo.On("SetToken", mock.Anything, profile.ID, mock.Anything).Return(nil).Once()

	td, err := svc.Login(ctx, "alice", "password1")
	require.NoError(t, err)

	t.Run("valid token present in store", func(t *testing.T) {
		tokenRepo.On("GetProfileIDByAccessUUID", mock.Anything, td.AccessUUID).
			Return(profile.ID, nil).Once()

		claims, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, profile.ID, claims.UserID)
		assert.Equal(t, models.TierPremium, claims.Tier)
		assert.Equal(t, td.AccessUUID, claims.ID)
	})

	t.Run("revoked token", func(t *testing.T) {
		tokenRepo.On("GetProfileIDByAccessUUID", mock.Anything, td.AccessUUID).
			Return(uuid.Nil, models.ErrTokenNotFound).Once()

		_, err := svc.VerifyAccessToken(ctx, td.AccessToken)
		require.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.VerifyAccessToken(ctx, "garbage")
		require.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}
