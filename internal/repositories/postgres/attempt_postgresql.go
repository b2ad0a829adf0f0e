package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.QuizAttempt) error {
	if err := a.helpers.getDB(tx).WithContext(ctx).Create(attempt).Error; err != nil {
		return fmt.Errorf("failed to create attempt: %w", err)
	}
	return nil
}

// GetByID is never cached: attempt state changes on every transition
func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.helpers.getDB(tx).WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) UpdateState(ctx context.Context, tx *gorm.DB, id uint, state models.AttemptState, timeFinish int64) error {
	updates := map[string]interface{}{"state": state}
	if timeFinish != 0 {
		updates["time_finish"] = timeFinish
	}
	return a.helpers.getDB(tx).WithContext(ctx).
		Model(&models.QuizAttempt{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (a *AttemptPostgreSQL) GetByUserAndQuiz(ctx context.Context, tx *gorm.DB, userID string, quizID uint, filters repositories.AttemptFilters) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	query := a.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND quiz_id = ?", userID, quizID)
	query = a.helpers.ApplyAttemptFilters(query, filters)

	if err := query.Order("attempt_number ASC").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by user and quiz: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetOpenAttempt(ctx context.Context, tx *gorm.DB, userID string, quizID uint) (*models.QuizAttempt, error) {
	var attempt models.QuizAttempt
	if err := a.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND state IN ?", userID, quizID, models.OpenAttemptStates).
		Order("attempt_number DESC").
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

// GetOpenAttempts pages through every attempt that is still in progress or overdue
func (a *AttemptPostgreSQL) GetOpenAttempts(ctx context.Context, tx *gorm.DB, limit, offset int) ([]*models.QuizAttempt, error) {
	var attempts []*models.QuizAttempt
	query := a.helpers.getDB(tx).WithContext(ctx).
		Where("state IN ?", models.OpenAttemptStates).
		Order("id ASC")
	query = a.helpers.ApplyPagination(query, limit, offset)

	if err := query.Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get open attempts: %w", err)
	}
	return attempts, nil
}

// DeletePreviews removes a staff member's earlier previews so a new one starts clean
func (a *AttemptPostgreSQL) DeletePreviews(ctx context.Context, tx *gorm.DB, userID string, quizID uint) error {
	return a.helpers.getDB(tx).WithContext(ctx).
		Where("user_id = ? AND quiz_id = ? AND preview = ?", userID, quizID, true).
		Delete(&models.QuizAttempt{}).Error
}
