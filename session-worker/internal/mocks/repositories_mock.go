package mocks

import (
	"context"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSessionRepository is a mock type for the interfaces.SessionRepository type
type MockSessionRepository struct {
	mock.Mock
}

func (_m *MockSessionRepository) CreateSession(ctx context.Context, session *models.TherapySession) error {
	ret := _m.Called(ctx, session)
	return ret.Error(0)
}

func (_m *MockSessionRepository) GetSessionByID(ctx context.Context, id uuid.UUID) (*models.TherapySession, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.TherapySession
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.TherapySession)
	}
	return r0, ret.Error(1)
}

func (_m *MockSessionRepository) UpdateScript(ctx context.Context, id uuid.UUID, script string, insights []string, advice string) error {
	ret := _m.Called(ctx, id, script, insights, advice)
	return ret.Error(0)
}

func (_m *MockSessionRepository) UpdateMediaURLs(ctx context.Context, id uuid.UUID, videoURL *string, audioURL *string) error {
	ret := _m.Called(ctx, id, videoURL, audioURL)
	return ret.Error(0)
}

func (_m *MockSessionRepository) CompleteSession(ctx context.Context, id uuid.UUID, score float64, verdict string) error {
	ret := _m.Called(ctx, id, score, verdict)
	return ret.Error(0)
}

func (_m *MockSessionRepository) FailSession(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// NewMockSessionRepository creates a new instance of MockSessionRepository.
// The first argument is typically a *testing.T value.
func NewMockSessionRepository(t interface {
	mock.TestingT
	Helper()
}) *MockSessionRepository {
	m := &MockSessionRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.SessionRepository = (*MockSessionRepository)(nil)

// MockLeaderboardRepository is a mock type for the interfaces.LeaderboardRepository type
type MockLeaderboardRepository struct {
	mock.Mock
}

func (_m *MockLeaderboardRepository) CreateEntry(ctx context.Context, entry *models.LeaderboardEntry) error {
	ret := _m.Called(ctx, entry)
	return ret.Error(0)
}

func (_m *MockLeaderboardRepository) ListEntries(ctx context.Context, limit int, offset int) ([]models.LeaderboardEntry, error) {
	ret := _m.Called(ctx, limit, offset)

	var r0 []models.LeaderboardEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.LeaderboardEntry)
	}
	return r0, ret.Error(1)
}

func (_m *MockLeaderboardRepository) GetEntryBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.LeaderboardEntry, error) {
	ret := _m.Called(ctx, sessionID)

	var r0 *models.LeaderboardEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.LeaderboardEntry)
	}
	return r0, ret.Error(1)
}

func (_m *MockLeaderboardRepository) SetNFTMinted(ctx context.Context, sessionID uuid.UUID) error {
	ret := _m.Called(ctx, sessionID)
	return ret.Error(0)
}

// NewMockLeaderboardRepository creates a new instance of MockLeaderboardRepository.
// The first argument is typically a *testing.T value.
func NewMockLeaderboardRepository(t interface {
	mock.TestingT
	Helper()
}) *MockLeaderboardRepository {
	m := &MockLeaderboardRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.LeaderboardRepository = (*MockLeaderboardRepository)(nil)

// MockLeaderboardCache is a mock type for the interfaces.LeaderboardCache type
type MockLeaderboardCache struct {
	mock.Mock
}

func (_m *MockLeaderboardCache) Add(ctx context.Context, entry models.LeaderboardEntry) error {
	ret := _m.Called(ctx, entry)
	return ret.Error(0)
}

func (_m *MockLeaderboardCache) Top(ctx context.Context, limit int, offset int) ([]models.LeaderboardEntry, error) {
	ret := _m.Called(ctx, limit, offset)

	var r0 []models.LeaderboardEntry
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.LeaderboardEntry)
	}
	return r0, ret.Error(1)
}

func (_m *MockLeaderboardCache) MarkMinted(ctx context.Context, sessionID uuid.UUID) error {
	ret := _m.Called(ctx, sessionID)
	return ret.Error(0)
}

// NewMockLeaderboardCache creates a new instance of MockLeaderboardCache.
// The first argument is typically a *testing.T value.
func NewMockLeaderboardCache(t interface {
	mock.TestingT
	Helper()
}) *MockLeaderboardCache {
	m := &MockLeaderboardCache{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.LeaderboardCache = (*MockLeaderboardCache)(nil)

// MockProfileRepository is a mock type for the interfaces.ProfileRepository type
type MockProfileRepository struct {
	mock.Mock
}

func (_m *MockProfileRepository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	ret := _m.Called(ctx, profile)
	return ret.Error(0)
}

func (_m *MockProfileRepository) GetProfileByUsername(ctx context.Context, username string) (*models.Profile, error) {
	ret := _m.Called(ctx, username)

	var r0 *models.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockProfileRepository) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Profile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Profile)
	}
	return r0, ret.Error(1)
}

func (_m *MockProfileRepository) UpdateSubscriptionTier(ctx context.Context, profileID uuid.UUID, tier models.SubscriptionTier) error {
	ret := _m.Called(ctx, profileID, tier)
	return ret.Error(0)
}

func (_m *MockProfileRepository) IncrementStats(ctx context.Context, profileID uuid.UUID, score float64) error {
	ret := _m.Called(ctx, profileID, score)
	return ret.Error(0)
}

// NewMockProfileRepository creates a new instance of MockProfileRepository.
// The first argument is typically a *testing.T value.
func NewMockProfileRepository(t interface {
	mock.TestingT
	Helper()
}) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.ProfileRepository = (*MockProfileRepository)(nil)

// MockIdeaRepository is a mock type for the interfaces.IdeaRepository type
type MockIdeaRepository struct {
	mock.Mock
}

func (_m *MockIdeaRepository) CreateIdea(ctx context.Context, idea *models.Idea) error {
	ret := _m.Called(ctx, idea)
	return ret.Error(0)
}

func (_m *MockIdeaRepository) GetIdeaByID(ctx context.Context, id uuid.UUID) (*models.Idea, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.Idea
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.Idea)
	}
	return r0, ret.Error(1)
}

func (_m *MockIdeaRepository) ListIdeasByProfile(ctx context.Context, profileID uuid.UUID, limit int, offset int) ([]models.Idea, error) {
	ret := _m.Called(ctx, profileID, limit, offset)

	var r0 []models.Idea
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.Idea)
	}
	return r0, ret.Error(1)
}

func (_m *MockIdeaRepository) UpdateIdeaStatus(ctx context.Context, id uuid.UUID, status models.IdeaStatus) error {
	ret := _m.Called(ctx, id, status)
	return ret.Error(0)
}

// NewMockIdeaRepository creates a new instance of MockIdeaRepository.
// The first argument is typically a *testing.T value.
func NewMockIdeaRepository(t interface {
	mock.TestingT
	Helper()
}) *MockIdeaRepository {
	m := &MockIdeaRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.IdeaRepository = (*MockIdeaRepository)(nil)
