package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dream-advisor/api/internal/config"
	"dream-advisor/api/internal/mocks"
	"dream-advisor/api/internal/service"
	"dream-advisor/shared/advisor"
	"dream-advisor/shared/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeAuthService подменяет проверку токенов в тестах обработчиков.
// "valid-token" дает сохраненные claims, всё остальное - ошибку.
type fakeAuthService struct {
	claims *models.Claims
}

func (f *fakeAuthService) Register(ctx context.Context, username, email, password string) (*models.Profile, error) {
	return nil, models.ErrInternalServer
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	return nil, models.ErrInvalidCredentials
}

func (f *fakeAuthService) Logout(ctx context.Context, profileID uuid.UUID, accessUUID, refreshUUID string) error {
	return nil
}

func (f *fakeAuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	return nil, models.ErrTokenInvalid
}

func (f *fakeAuthService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	if tokenString == "valid-token" && f.claims != nil {
		return f.claims, nil
	}
	return nil, models.ErrTokenInvalid
}

var _ service.AuthService = (*fakeAuthService)(nil)

type routerDeps struct {
	deps Deps
}

func newTestRouter(t *testing.T, mutate func(*Deps)) (*gin.Engine, *routerDeps) {
	t.Helper()

	cfg := &config.Config{
		StockVideoURL:     "https://example.com/stock.mp4",
		TavusTimeout:      time.Second,
		TavusPollInterval: time.Millisecond,
		TavusMaxPolls:     1,
	}
	engine := advisor.NewScriptEngine(nil)
	engine.SetJitterFunc(func() float64 { return 0 })

	deps := Deps{
		Cfg:                cfg,
		AdvisorService:     service.NewAdvisorService(cfg, engine, nil, nil, nil, nil, zap.NewNop()),
		IdeaService:        service.NewIdeaService(mocks.NewMockIdeaRepository(t), zap.NewNop()),
		LeaderboardService: service.NewLeaderboardService(nil, nil, zap.NewNop()),
		WSManager:          NewConnectionManager(),
		Logger:             zap.NewNop(),
	}
	if mutate != nil {
		mutate(&deps)
	}

	router := gin.New()
	NewApiHandler(deps).RegisterRoutes(router)
	return router, &routerDeps{deps: deps}
}

func TestLegacySession_NoContent(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/session", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	// Формат ошибки зафиксирован старым клиентом
	assert.JSONEq(t, `{"error":"No audio file or text provided"}`, rec.Body.String())
}

func TestLegacySession_TextFlow(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "An AI app that analyzes dreams"))
	require.NoError(t, mw.WriteField("therapist", "dr-brutal"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/session", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result service.LegacyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "An AI app that analyzes dreams", result.Transcript)
	assert.Equal(t, "dr-brutal", result.Therapist)
	assert.NotEmpty(t, result.Script)
	assert.Greater(t, result.Score, 0.0)
	assert.Equal(t, "https://example.com/stock.mp4", result.VideoURL)
	assert.Empty(t, result.AudioURL)
}

func TestLegacySession_UnknownTherapistFallsBack(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("text", "An app that analyzes dreams"))
	require.NoError(t, mw.WriteField("therapist", "dr-nobody"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/session", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var result service.LegacyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, models.AllPersonas()[0].ID, result.Therapist)
}

func TestListTherapists(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/therapists", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp []therapistResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, len(models.AllPersonas()))
	assert.Equal(t, "prof-optimist", resp[0].ID)
	assert.NotEmpty(t, resp[0].Voice)
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, func(d *Deps) {
		d.SpeechEnabled = func() bool { return true }
		d.VideoEnabled = func() bool { return false }
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.APIs.ElevenLabs)
	assert.False(t, resp.APIs.Tavus)

	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}

func TestGetLeaderboard(t *testing.T) {
	entries := []models.LeaderboardEntry{
		{SessionID: uuid.New(), Username: "alice", IdeaTitle: "Dream app", Score: 9.1, PersonaName: "Shark VC"},
	}
	repo := mocks.NewMockLeaderboardRepository(t)
	repo.On("ListEntries", mock.Anything, 20, 0).Return(entries, nil).Once()

	router, _ := newTestRouter(t, func(d *Deps) {
		d.LeaderboardService = service.NewLeaderboardService(repo, nil, zap.NewNop())
	})

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got []models.LeaderboardEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)
}

func TestEphemeralMode_ProtectedRoutesNotMounted(t *testing.T) {
	router, _ := newTestRouter(t, nil) // authService == nil

	for _, path := range []string{"/api/me", "/api/ideas", "/auth/register"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code, "route %s must not exist in ephemeral mode", path)
	}
}

func TestAuthMiddleware(t *testing.T) {
	profileID := uuid.New()
	profile := &models.Profile{ID: profileID, Username: "alice", SubscriptionTier: models.TierFree}

	profileRepo := mocks.NewMockProfileRepository(t)
	profileRepo.On("GetProfileByID", mock.Anything, profileID).Return(profile, nil).Maybe()

	auth := &fakeAuthService{claims: &models.Claims{UserID: profileID, Tier: models.TierFree}}
	router, _ := newTestRouter(t, func(d *Deps) {
		d.AuthService = auth
		d.ProfileRepo = profileRepo
	})

	t.Run("missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Token abc")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer wrong-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var got models.Profile
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("propagates identity into the request context", func(t *testing.T) {
		h := NewApiHandler(Deps{AuthService: auth, Logger: zap.NewNop()})

		r := gin.New()
		r.GET("/whoami", h.AuthMiddleware(), func(c *gin.Context) {
			id, ok := models.GetProfileIDFromContext(c.Request.Context())
			require.True(t, ok, "profile id must be present in the request context")
			tier, ok := models.GetTierFromContext(c.Request.Context())
			require.True(t, ok, "tier must be present in the request context")
			c.JSON(http.StatusOK, gin.H{"profile_id": id.String(), "tier": string(tier)})
		})

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t,
			fmt.Sprintf(`{"profile_id":%q,"tier":"free"}`, profileID),
			rec.Body.String())
	})
}

func TestStartSession_PremiumPersonaGate(t *testing.T) {
	profileID := uuid.New()
	auth := &fakeAuthService{claims: &models.Claims{UserID: profileID, Tier: models.TierFree}}

	sessionSvc := service.NewSessionService(
		mocks.NewMockSessionRepository(t),
		mocks.NewMockIdeaRepository(t),
		mocks.NewMockSessionTaskPublisher(t),
		zap.NewNop(),
	)
	router, _ := newTestRouter(t, func(d *Deps) {
		d.AuthService = auth
		d.SessionService = sessionSvc
	})

	body := strings.NewReader(`{"persona_id":"shark-vc"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/ideas/"+uuid.NewString()+"/sessions", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer valid-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodePremiumRequired, resp.Code)
}

func TestValidateCard_Endpoint(t *testing.T) {
	profileID := uuid.New()
	auth := &fakeAuthService{claims: &models.Claims{UserID: profileID, Tier: models.TierFree}}

	billing := service.NewBillingService(nil, "", 0, zap.NewNop())
	billing.SetDeclineFunc(func() bool { return false })

	router, _ := newTestRouter(t, func(d *Deps) {
		d.AuthService = auth
		d.BillingService = billing
	})

	t.Run("valid card", func(t *testing.T) {
		body := strings.NewReader(`{"number":"4242424242424242","expiry":"12/30","cvc":"123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/billing/validate-card", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("declined card", func(t *testing.T) {
		billing.SetDeclineFunc(func() bool { return true })
		defer billing.SetDeclineFunc(func() bool { return false })

		body := strings.NewReader(`{"number":"4242424242424242","expiry":"12/30","cvc":"123"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/billing/validate-card", body)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer valid-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusPaymentRequired, rec.Code)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "card_declined", resp.Code)
	})
}
