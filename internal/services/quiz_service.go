package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
	"github.com/SAP-F-2025/quiz-access-service/internal/validator"
)

type quizService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	hashCost  int
}

func NewQuizService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, hashCost int) QuizService {
	return &quizService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		hashCost:  hashCost,
	}
}

func (s *quizService) Create(ctx context.Context, req *QuizSettingsRequest, creatorID string) (*QuizResponse, error) {
	if err := s.validateSettings(req); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{CreatedBy: creatorID}
	if err := s.applySettings(quiz, req); err != nil {
		return nil, err
	}
	if err := s.repo.Quiz().Create(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}

	s.logger.Info("Quiz created", "quiz_id", quiz.ID, "creator_id", creatorID)
	return toQuizResponse(quiz), nil
}

func (s *quizService) GetByID(ctx context.Context, id uint) (*QuizResponse, error) {
	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return toQuizResponse(quiz), nil
}

// UpdateSettings replaces the access settings. An empty password keeps the current one.
func (s *quizService) UpdateSettings(ctx context.Context, id uint, req *QuizSettingsRequest) (*QuizResponse, error) {
	if err := s.validateSettings(req); err != nil {
		return nil, err
	}

	quiz, err := s.repo.Quiz().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}

	if err := s.applySettings(quiz, req); err != nil {
		return nil, err
	}
	if err := s.repo.Quiz().Update(ctx, nil, quiz); err != nil {
		return nil, fmt.Errorf("failed to update quiz: %w", err)
	}

	s.logger.Info("Quiz settings updated", "quiz_id", id)
	return toQuizResponse(quiz), nil
}

func (s *quizService) validateSettings(req *QuizSettingsRequest) error {
	if err := s.validator.Validate(req); err != nil {
		return err
	}
	var errs ValidationErrors
	if req.TimeOpen != 0 && req.TimeClose != 0 && req.TimeClose <= req.TimeOpen {
		errs = append(errs, validator.ValidationError{Field: "time_close", Message: "must be after time_open", Rule: "business_logic"})
	}
	if req.Delay2 != 0 && req.Attempts != 0 && req.Attempts < 3 {
		errs = append(errs, validator.ValidationError{Field: "delay2", Message: "needs at least 3 attempts", Rule: "business_logic"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *quizService) applySettings(quiz *models.Quiz, req *QuizSettingsRequest) error {
	quiz.Title = req.Title
	quiz.TimeOpen = req.TimeOpen
	quiz.TimeClose = req.TimeClose
	quiz.TimeLimit = req.TimeLimit
	quiz.GracePeriod = req.GracePeriod
	quiz.OverdueHandling = req.OverdueHandling
	if quiz.OverdueHandling == "" {
		quiz.OverdueHandling = "autosubmit"
	}
	quiz.Attempts = req.Attempts
	quiz.Delay1 = req.Delay1
	quiz.Delay2 = req.Delay2
	quiz.Subnet = req.Subnet
	quiz.BrowserSecurity = req.BrowserSecurity
	quiz.AllowOffline = req.AllowOffline

	if req.Password != "" {
		hash, err := hashPassword(req.Password, s.hashCost)
		if err != nil {
			return err
		}
		quiz.Password = hash
	}
	return nil
}

func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

func toQuizResponse(q *models.Quiz) *QuizResponse {
	return &QuizResponse{
		ID:              q.ID,
		Title:           q.Title,
		TimeOpen:        q.TimeOpen,
		TimeClose:       q.TimeClose,
		TimeLimit:       q.TimeLimit,
		GracePeriod:     q.GracePeriod,
		OverdueHandling: q.OverdueHandling,
		Attempts:        q.Attempts,
		Delay1:          q.Delay1,
		Delay2:          q.Delay2,
		Subnet:          q.Subnet,
		HasPassword:     q.Password != "",
		BrowserSecurity: q.BrowserSecurity,
		AllowOffline:    q.AllowOffline,
		CreatedBy:       q.CreatedBy,
		UpdatedAt:       q.UpdatedAt,
	}
}
