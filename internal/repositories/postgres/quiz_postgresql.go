package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-access-service/internal/cache"
	"github.com/SAP-F-2025/quiz-access-service/internal/models"
	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
)

type QuizPostgreSQL struct {
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
	cacheTTL     time.Duration
}

// NewQuizPostgreSQL creates the quiz repository. A zero ttl uses the default settings cache TTL.
func NewQuizPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager, ttl time.Duration) repositories.QuizRepository {
	if ttl <= 0 {
		ttl = cache.QuizCacheConfig.TTL
	}
	return &QuizPostgreSQL{
		helpers:      NewSharedHelpers(db),
		cacheManager: cacheManager,
		cacheTTL:     ttl,
	}
}

func (q *QuizPostgreSQL) Create(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.helpers.getDB(tx).WithContext(ctx).Create(quiz).Error; err != nil {
		return fmt.Errorf("failed to create quiz: %w", err)
	}
	return nil
}

// GetByID loads the quiz settings, served from cache when possible
func (q *QuizPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Quiz, error) {
	var quiz models.Quiz
	err := q.cacheManager.Quiz.CacheOrExecute(ctx, cache.QuizKey(id), &quiz, q.cacheTTL, func() (interface{}, error) {
		var dbQuiz models.Quiz
		if err := q.helpers.getDB(tx).WithContext(ctx).First(&dbQuiz, id).Error; err != nil {
			return nil, fmt.Errorf("failed to get quiz: %w", err)
		}
		return &dbQuiz, nil
	})
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (q *QuizPostgreSQL) Update(ctx context.Context, tx *gorm.DB, quiz *models.Quiz) error {
	if err := q.helpers.getDB(tx).WithContext(ctx).Save(quiz).Error; err != nil {
		return fmt.Errorf("failed to update quiz: %w", err)
	}
	cache.InvalidateQuizCache(ctx, q.cacheManager, quiz.ID)
	return nil
}

func (q *QuizPostgreSQL) ExistsByID(ctx context.Context, tx *gorm.DB, id uint) (bool, error) {
	var count int64
	err := q.helpers.getDB(tx).WithContext(ctx).
		Model(&models.Quiz{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
