package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
)

type OverridePostgreSQL struct {
	helpers *SharedHelpers
}

func NewOverridePostgreSQL(db *gorm.DB) repositories.OverrideRepository {
	return &OverridePostgreSQL{helpers: NewSharedHelpers(db)}
}

// Save replaces any override for the same quiz and target, keeping a single row per target
func (o *OverridePostgreSQL) Save(ctx context.Context, tx *gorm.DB, override *models.QuizOverride) error {
	db := o.helpers.getDB(tx).WithContext(ctx)

	var existing models.QuizOverride
	query := db.Where("quiz_id = ?", override.QuizID)
	if override.IsUserOverride() {
		query = query.Where("user_id = ?", *override.UserID)
	} else {
		query = query.Where("group_id = ?", *override.GroupID)
	}

	err := query.First(&existing).Error
	switch {
	case err == nil:
		override.ID = existing.ID
		override.CreatedAt = existing.CreatedAt
		if err := db.Save(override).Error; err != nil {
			return fmt.Errorf("failed to update override: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := db.Create(override).Error; err != nil {
			return fmt.Errorf("failed to create override: %w", err)
		}
	default:
		return fmt.Errorf("failed to look up override: %w", err)
	}
	return nil
}

func (o *OverridePostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.QuizOverride, error) {
	var override models.QuizOverride
	if err := o.helpers.getDB(tx).WithContext(ctx).First(&override, id).Error; err != nil {
		return nil, fmt.Errorf("failed to get override: %w", err)
	}
	return &override, nil
}

func (o *OverridePostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	result := o.helpers.getDB(tx).WithContext(ctx).Delete(&models.QuizOverride{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete override: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (o *OverridePostgreSQL) ListByQuiz(ctx context.Context, tx *gorm.DB, quizID uint) ([]*models.QuizOverride, error) {
	var overrides []*models.QuizOverride
	if err := o.helpers.getDB(tx).WithContext(ctx).
		Where("quiz_id = ?", quizID).
		Order("id ASC").
		Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("failed to list overrides: %w", err)
	}
	return overrides, nil
}

func (o *OverridePostgreSQL) GetUserOverride(ctx context.Context, tx *gorm.DB, quizID uint, userID string) (*models.QuizOverride, error) {
	var override models.QuizOverride
	if err := o.helpers.getDB(tx).WithContext(ctx).
		Where("quiz_id = ? AND user_id = ?", quizID, userID).
		First(&override).Error; err != nil {
		return nil, err
	}
	return &override, nil
}

func (o *OverridePostgreSQL) GetGroupOverrides(ctx context.Context, tx *gorm.DB, quizID uint, groupIDs []string) ([]*models.QuizOverride, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var overrides []*models.QuizOverride
	if err := o.helpers.getDB(tx).WithContext(ctx).
		Where("quiz_id = ? AND group_id IN ?", quizID, groupIDs).
		Order("id ASC").
		Find(&overrides).Error; err != nil {
		return nil, fmt.Errorf("failed to get group overrides: %w", err)
	}
	return overrides, nil
}
