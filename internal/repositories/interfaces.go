package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-access-service/internal/models"
)

// QuizRepository reads and writes quiz access settings
type QuizRepository interface {
	Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error)
	Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error
	ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error)
}

// OverrideRepository manages per-user and per-group overrides
type OverrideRepository interface {
	// Save inserts the override or replaces the existing one for the same quiz and target
	Save(ctx context.Context, tx *gorm.DB, override *models.QuizOverride) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizOverride, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizOverride, error)

	GetUserOverride(ctx context.Context, tx *gorm.DB, quizID uint, userID string) (*models.QuizOverride, error)
	GetGroupOverrides(ctx context.Context, tx *gorm.DB, quizID uint, groupIDs []string) ([]*models.QuizOverride, error)
}

// AttemptFilters narrows attempt listings
type AttemptFilters struct {
	States         []models.AttemptState `json:"states"`
	IncludePreview bool                  `json:"include_preview"`
	Limit          int                   `json:"limit"`
	Offset         int                   `json:"offset"`
}

// AttemptRepository manages quiz attempts
type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error)
	UpdateState(ctx context.Context, tx *gorm.DB, id uint, state models.AttemptState, timeFinish int64) error

	// GetByUserAndQuiz returns the user's attempts ordered by attempt number
	GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint, filters AttemptFilters) ([]*models.QuizAttempt, error)
	GetOpenAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (*models.QuizAttempt, error)
	GetOpenAttempts(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.QuizAttempt, error)
	DeletePreviews(ctx context.Context, tx *gorm.DB, userID string, quizID uint) error
}

// UserRepository resolves identities from the auth provider (read only)
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// NoUserDirectory is used when users are known only from their bearer tokens
type NoUserDirectory struct{}

func (NoUserDirectory) GetByID(_ context.Context, id string) (*models.User, error) {
	return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
}
