package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// In-memory реализации репозиториев для ephemeral-режима: процесс стартовал
// без PostgreSQL, и сервис работает как одноразовое демо. Данные живут
// только до рестарта, между репликами не разделяются.

// Compile-time checks
var (
	_ interfaces.IdeaRepository    = (*memoryIdeaStore)(nil)
	_ interfaces.SessionRepository = (*memorySessionStore)(nil)
)

type memoryIdeaStore struct {
	mu     sync.RWMutex
	ideas  map[uuid.UUID]models.Idea
	logger *zap.Logger
}

// NewMemoryIdeaStore creates an in-memory IdeaRepository.
func NewMemoryIdeaStore(logger *zap.Logger) interfaces.IdeaRepository {
	return &memoryIdeaStore{
		ideas:  make(map[uuid.UUID]models.Idea),
		logger: logger.Named("MemoryIdeaStore"),
	}
}

func (s *memoryIdeaStore) CreateIdea(_ context.Context, idea *models.Idea) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea.ID = uuid.New()
	now := time.Now().UTC()
	idea.CreatedAt = now
	idea.UpdatedAt = now
	s.ideas[idea.ID] = *idea

	s.logger.Debug("Idea stored in memory", zap.String("ideaID", idea.ID.String()))
	return nil
}

func (s *memoryIdeaStore) GetIdeaByID(_ context.Context, id uuid.UUID) (*models.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idea, ok := s.ideas[id]
	if !ok {
		return nil, models.ErrIdeaNotFound
	}
	return &idea, nil
}

func (s *memoryIdeaStore) ListIdeasByProfile(_ context.Context, profileID uuid.UUID, limit, offset int) ([]models.Idea, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]models.Idea, 0)
	for _, idea := range s.ideas {
		if idea.ProfileID == profileID {
			matched = append(matched, idea)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.After(matched[j].CreatedAt) })

	if offset >= len(matched) {
		return []models.Idea{}, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (s *memoryIdeaStore) UpdateIdeaStatus(_ context.Context, id uuid.UUID, status models.IdeaStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idea, ok := s.ideas[id]
	if !ok {
		return models.ErrIdeaNotFound
	}
	idea.Status = status
	idea.UpdatedAt = time.Now().UTC()
	s.ideas[id] = idea
	return nil
}

type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]models.TherapySession
	logger   *zap.Logger
}

// NewMemorySessionStore creates an in-memory SessionRepository.
func NewMemorySessionStore(logger *zap.Logger) interfaces.SessionRepository {
	return &memorySessionStore{
		sessions: make(map[uuid.UUID]models.TherapySession),
		logger:   logger.Named("MemorySessionStore"),
	}
}

func (s *memorySessionStore) CreateSession(_ context.Context, session *models.TherapySession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session.ID = uuid.New()
	session.CreatedAt = time.Now().UTC()
	s.sessions[session.ID] = *session

	s.logger.Debug("Session stored in memory", zap.String("sessionID", session.ID.String()))
	return nil
}

func (s *memorySessionStore) GetSessionByID(_ context.Context, id uuid.UUID) (*models.TherapySession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return &session, nil
}

func (s *memorySessionStore) UpdateScript(_ context.Context, id uuid.UUID, script string, insights []string, advice string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	session.Script = script
	session.Insights = insights
	session.Advice = advice
	s.sessions[id] = session
	return nil
}

func (s *memorySessionStore) UpdateMediaURLs(_ context.Context, id uuid.UUID, videoURL, audioURL *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	if videoURL != nil {
		session.VideoURL = videoURL
	}
	if audioURL != nil {
		session.AudioURL = audioURL
	}
	s.sessions[id] = session
	return nil
}

func (s *memorySessionStore) CompleteSession(_ context.Context, id uuid.UUID, score float64, verdict string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	now := time.Now().UTC()
	session.Score = models.Float64Ptr(score)
	session.Verdict = verdict
	session.Status = models.SessionStatusCompleted
	session.CompletedAt = &now
	s.sessions[id] = session
	return nil
}

func (s *memorySessionStore) FailSession(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return models.ErrSessionNotFound
	}
	now := time.Now().UTC()
	session.Status = models.SessionStatusFailed
	session.CompletedAt = &now
	s.sessions[id] = session
	return nil
}
