package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeDelete deletes cache keys, logging instead of failing
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// QuizKey is the cache key of a quiz settings row
func QuizKey(quizID uint) string {
	return fmt.Sprintf("id:%d", quizID)
}

// InvalidateQuizCache drops the cached settings of a quiz
func InvalidateQuizCache(ctx context.Context, cm *CacheManager, quizID uint) {
	SafeDelete(ctx, cm.Quiz, QuizKey(quizID))
}
