package service

import (
	"context"
	"strings"

	"dream-advisor/shared/interfaces"
	"dream-advisor/shared/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// minIdeaDescriptionLength - минимальная длина описания идеи.
const minIdeaDescriptionLength = 10

// maxGeneratedTitleRunes - длина заголовка, выведенного из описания.
const maxGeneratedTitleRunes = 60

// IdeaService управляет жизненным циклом идей.
type IdeaService struct {
	ideaRepo interfaces.IdeaRepository
	logger   *zap.Logger
}

// NewIdeaService creates a new idea service.
func NewIdeaService(ideaRepo interfaces.IdeaRepository, logger *zap.Logger) *IdeaService {
	return &IdeaService{
		ideaRepo: ideaRepo,
		logger:   logger.Named("IdeaService"),
	}
}

// Submit создает новую идею в статусе submitted.
func (s *IdeaService) Submit(ctx context.Context, profileID uuid.UUID, title, description string, method models.SubmissionMethod) (*models.Idea, error) {
	description = strings.TrimSpace(description)
	if len(description) < minIdeaDescriptionLength {
		return nil, models.ErrIdeaTooShort
	}
	title = strings.TrimSpace(title)
	if title == "" {
		// Заголовок опционален: берем первые слова описания
		title = description
		// Срез по рунам: байтовый срез порвал бы не-ASCII описание посередине символа
		if runes := []rune(title); len(runes) > maxGeneratedTitleRunes {
			title = string(runes[:maxGeneratedTitleRunes])
		}
	}
	if method != models.SubmissionVoice {
		method = models.SubmissionText
	}

	idea := &models.Idea{
		ID:               uuid.New(),
		ProfileID:        profileID,
		Title:            title,
		Description:      description,
		SubmissionMethod: method,
		Status:           models.IdeaStatusSubmitted,
	}
	if err := s.ideaRepo.CreateIdea(ctx, idea); err != nil {
		s.logger.Error("Failed to create idea", zap.Error(err), zap.String("profileID", profileID.String()))
		return nil, err
	}
	s.logger.Info("Idea submitted", zap.String("ideaID", idea.ID.String()),
		zap.String("profileID", profileID.String()), zap.String("method", string(method)))
	return idea, nil
}

// List возвращает идеи профиля, новые первыми.
func (s *IdeaService) List(ctx context.Context, profileID uuid.UUID, limit, offset int) ([]models.Idea, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.ideaRepo.ListIdeasByProfile(ctx, profileID, limit, offset)
}

// Get возвращает идею с проверкой принадлежности профилю.
func (s *IdeaService) Get(ctx context.Context, profileID, ideaID uuid.UUID) (*models.Idea, error) {
	idea, err := s.ideaRepo.GetIdeaByID(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	if idea.ProfileID != profileID {
		// Не раскрываем существование чужой идеи
		return nil, models.ErrIdeaNotFound
	}
	return idea, nil
}

// Archive переводит идею в статус archived.
func (s *IdeaService) Archive(ctx context.Context, profileID, ideaID uuid.UUID) error {
	if _, err := s.Get(ctx, profileID, ideaID); err != nil {
		return err
	}
	return s.ideaRepo.UpdateIdeaStatus(ctx, ideaID, models.IdeaStatusArchived)
}
