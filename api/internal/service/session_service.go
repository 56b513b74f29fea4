package service

import (
	"context"
	"fmt"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/messaging"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService ставит задачи генерации сессий и отдает их состояние.
// Сам пайплайн (сценарий, видео, озвучка, оценка) выполняет воркер.
type SessionService struct {
	sessionRepo interfaces.SessionRepository
	ideaRepo    interfaces.IdeaRepository
	publisher   interfaces.SessionTaskPublisher
	logger      *zap.Logger
}

// NewSessionService creates a new session orchestration service.
func NewSessionService(
	sessionRepo interfaces.SessionRepository,
	ideaRepo interfaces.IdeaRepository,
	publisher interfaces.SessionTaskPublisher,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo: sessionRepo,
		ideaRepo:    ideaRepo,
		publisher:   publisher,
		logger:      logger.Named("SessionService"),
	}
}

// Start создает сессию в статусе generating и публикует задачу в очередь.
// Premium-персона с бесплатным тарифом дает models.ErrPersonaPremiumOnly.
func (s *SessionService) Start(ctx context.Context, profileID uuid.UUID, tier models.SubscriptionTier, ideaID uuid.UUID, personaID string) (*models.TherapySession, error) {
	persona, ok := models.GetPersona(personaID)
	if !ok {
		return nil, models.ErrPersonaNotFound
	}
	if !persona.AccessibleBy(tier) {
		return nil, models.ErrPersonaPremiumOnly
	}

	idea, err := s.ideaRepo.GetIdeaByID(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.ProfileID != profileID {
		return nil, models.ErrIdeaNotFound
	}
	if idea.Status == models.IdeaStatusAnalyzing {
		return nil, models.ErrGenerationInFlight
	}

	session := &models.TherapySession{
		ID:          uuid.New(),
		IdeaID:      ideaID,
		PersonaID:   persona.ID,
		PersonaName: persona.Name,
		Status:      models.SessionStatusGenerating,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		s.logger.Error("Failed to create session", zap.Error(err), zap.String("ideaID", ideaID.String()))
		return nil, err
	}

	if err := s.ideaRepo.UpdateIdeaStatus(ctx, ideaID, models.IdeaStatusAnalyzing); err != nil {
		// Некритично: статус идеи догонит воркер при завершении
		s.logger.Warn("Failed to mark idea analyzing", zap.Error(err), zap.String("ideaID", ideaID.String()))
	}

	payload := messaging.SessionTaskPayload{
		TaskID:    uuid.NewString(),
		ProfileID: profileID.String(),
		IdeaID:    ideaID.String(),
		SessionID: session.ID.String(),
		PersonaID: persona.ID,
		IdeaText:  idea.Description,
	}
	if err := s.publisher.PublishSessionTask(ctx, payload); err != nil {
		s.logger.Error("Failed to publish session task, failing session",
			zap.Error(err), zap.String("sessionID", session.ID.String()))
		if failErr := s.sessionRepo.FailSession(ctx, session.ID); failErr != nil {
			s.logger.Error("Failed to mark session failed after publish error", zap.Error(failErr))
		}
		return nil, fmt.Errorf("не удалось поставить задачу генерации: %w", err)
	}

	s.logger.Info("Session generation task published",
		zap.String("taskID", payload.TaskID),
		zap.String("sessionID", session.ID.String()),
		zap.String("personaID", persona.ID))
	return session, nil
}

// Get возвращает текущее состояние сессии.
func (s *SessionService) Get(ctx context.Context, sessionID uuid.UUID) (*models.TherapySession, error) {
	return s.sessionRepo.GetSessionByID(ctx, sessionID)
}
