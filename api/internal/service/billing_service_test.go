package service

import (
	"context"
	"testing"

	"dream-advisor/api/internal/mocks"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewBillingService_ModeSelection(t *testing.T) {
	testCases := []struct {
		name      string
		publicKey string
		expected  BillingMode
	}{
		{"empty key", "", BillingModeSimulated},
		{"placeholder key", "pk_placeholder_123", BillingModeSimulated},
		{"secret key refused", "sk_live_abc123", BillingModeSimulated},
		{"valid publishable key", "pk_test_abc123", BillingModeTest},
		{"unexpected format", "whatever", BillingModeSimulated},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewBillingService(nil, tc.publicKey, 0, zap.NewNop())
			assert.Equal(t, tc.expected, svc.Mode())
		})
	}
}

func TestBillingService_Plans(t *testing.T) {
	svc := NewBillingService(nil, "", 0, zap.NewNop())

	plans := svc.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, string(models.TierFree), plans[0].ID)
	assert.Equal(t, string(models.TierPremium), plans[1].ID)
	assert.Equal(t, models.FreePersonaCount(), plans[0].PersonaCount)
	assert.Equal(t, len(models.AllPersonas()), plans[1].PersonaCount)
	assert.Greater(t, plans[1].PriceUSD, plans[0].PriceUSD)
}

func TestBillingService_Upgrade_Success(t *testing.T) {
	profileRepo := mocks.NewMockProfileRepository(t)
	svc := NewBillingService(profileRepo, "", 0, zap.NewNop())

	profileID := uuid.New()
	profileRepo.On("GetProfileByID", mock.Anything, profileID).
		Return(&models.Profile{ID: profileID, SubscriptionTier: models.TierFree}, nil).Once()
	profileRepo.On("UpdateSubscriptionTier", mock.Anything, profileID, models.TierPremium).
		Return(nil).Once()

	profile, err := svc.Upgrade(context.Background(), profileID)
	require.NoError(t, err)
	assert.Equal(t, models.TierPremium, profile.SubscriptionTier)

	profileRepo.AssertExpectations(t)
}

func TestBillingService_Upgrade_AlreadyPremium(t *testing.T) {
	profileRepo := mocks.NewMockProfileRepository(t)
	svc := NewBillingService(profileRepo, "", 0, zap.NewNop())

	profileID := uuid.New()
	profileRepo.On("GetProfileByID", mock.Anything, profileID).
		Return(&models.Profile{ID: profileID, SubscriptionTier: models.TierPremium}, nil).Once()

	_, err := svc.Upgrade(context.Background(), profileID)
	require.ErrorIs(t, err, models.ErrAlreadySubscribed)
	profileRepo.AssertNotCalled(t, "UpdateSubscriptionTier", mock.Anything, mock.Anything, mock.Anything)
}

func TestBillingService_ValidateCard(t *testing.T) {
	svc := NewBillingService(nil, "", 0, zap.NewNop())
	svc.SetDeclineFunc(func() bool { return false })

	testCases := []struct {
		name    string
		number  string
		expiry  string
		cvc     string
		wantErr error
	}{
		{"valid card", "4242424242424242", "12/30", "123", nil},
		{"valid with spaces and dashes", "4242 4242-4242 4242", "01/27", "1234", nil},
		{"too short number", "424242", "12/30", "123", models.ErrInvalidCard},
		{"letters in number", "4242abcd42424242", "12/30", "123", models.ErrInvalidCard},
		{"bad expiry month", "4242424242424242", "13/30", "123", models.ErrInvalidCard},
		{"bad expiry format", "4242424242424242", "1230", "123", models.ErrInvalidCard},
		{"cvc too short", "4242424242424242", "12/30", "12", models.ErrInvalidCard},
		{"cvc not numeric", "4242424242424242", "12/30", "12a", models.ErrInvalidCard},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := svc.ValidateCard(tc.number, tc.expiry, tc.cvc)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestBillingService_ValidateCard_SimulatedDecline(t *testing.T) {
	svc := NewBillingService(nil, "", 0, zap.NewNop())
	svc.SetDeclineFunc(func() bool { return true })

	err := svc.ValidateCard("4242424242424242", "12/30", "123")
	require.ErrorIs(t, err, models.ErrCardDeclined)
}
