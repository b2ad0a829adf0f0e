package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
)

type overrideService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	hashCost  int
}

func NewOverrideService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, hashCost int) OverrideService {
	return &overrideService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		hashCost:  hashCost,
	}
}

func (s *overrideService) SetUserOverride(ctx context.Context, quizID uint, userID string, req *OverrideRequest, actorID string) (*OverrideResponse, error) {
	return s.save(ctx, quizID, &models.QuizOverride{UserID: &userID}, req, actorID)
}

func (s *overrideService) SetGroupOverride(ctx context.Context, quizID uint, groupID string, req *OverrideRequest, actorID string) (*OverrideResponse, error) {
	return s.save(ctx, quizID, &models.QuizOverride{GroupID: &groupID}, req, actorID)
}

func (s *overrideService) save(ctx context.Context, quizID uint, override *models.QuizOverride, req *OverrideRequest, actorID string) (*OverrideResponse, error) {
	if err := s.validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.ensureQuiz(ctx, quizID); err != nil {
		return nil, err
	}

	override.QuizID = quizID
	override.TimeOpen = req.TimeOpen
	override.TimeClose = req.TimeClose
	override.TimeLimit = req.TimeLimit
	override.Attempts = req.Attempts
	override.CreatedBy = actorID
	if req.Password != nil && *req.Password != "" {
		hash, err := hashPassword(*req.Password, s.hashCost)
		if err != nil {
			return nil, err
		}
		override.Password = &hash
	}

	if err := s.repo.Override().Save(ctx, nil, override); err != nil {
		return nil, fmt.Errorf("failed to save override: %w", err)
	}

	s.logger.InfoContext(ctx, "Quiz override saved",
		"quiz_id", quizID,
		"override_id", override.ID,
		"user_override", override.IsUserOverride(),
		"actor_id", actorID)
	return toOverrideResponse(override), nil
}

// DeleteOverride removes an override; it must belong to the given quiz
func (s *overrideService) DeleteOverride(ctx context.Context, quizID, overrideID uint) error {
	override, err := s.repo.Override().GetByID(ctx, nil, overrideID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrOverrideNotFound
		}
		return fmt.Errorf("failed to get override: %w", err)
	}
	if override.QuizID != quizID {
		return ErrOverrideNotFound
	}

	if err := s.repo.Override().Delete(ctx, nil, overrideID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrOverrideNotFound
		}
		return fmt.Errorf("failed to delete override: %w", err)
	}
	s.logger.InfoContext(ctx, "Quiz override deleted", "quiz_id", quizID, "override_id", overrideID)
	return nil
}

func (s *overrideService) ListOverrides(ctx context.Context, quizID uint) ([]*OverrideResponse, error) {
	if err := s.ensureQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	rows, err := s.repo.Override().ListByQuiz(ctx, nil, quizID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	out := make([]*OverrideResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toOverrideResponse(row))
	}
	return out, nil
}

func (s *overrideService) validateRequest(req *OverrideRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if req.TimeOpen == nil && req.TimeClose == nil && req.TimeLimit == nil && req.Attempts == nil &&
		(req.Password == nil || *req.Password == "") {
		return fmt.Errorf("%w: at least one setting must be overridden", ErrInvalidOverride)
	}
	if req.TimeOpen != nil && req.TimeClose != nil && *req.TimeOpen != 0 && *req.TimeClose != 0 && *req.TimeClose <= *req.TimeOpen {
		return ValidationErrors{{Field: "time_close", Message: "must be after time_open", Rule: "business_logic"}}
	}
	return nil
}

func (s *overrideService) ensureQuiz(ctx context.Context, quizID uint) error {
	exists, err := s.repo.Quiz().ExistsByID(ctx, nil, quizID)
	if err != nil {
		return fmt.Errorf("failed to check quiz: %w", err)
	}
	if !exists {
		return ErrQuizNotFound
	}
	return nil
}

func toOverrideResponse(o *models.QuizOverride) *OverrideResponse {
	return &OverrideResponse{
		QuizOverride: o,
		HasPassword:  o.Password != nil && *o.Password != "",
	}
}
