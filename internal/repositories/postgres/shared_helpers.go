package postgres

import (
	"gorm.io/gorm"

	"github.com/SAP-F-2025/quiz-access-service/internal/repositories"
)

// SharedHelpers contains common database operations
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// getDB returns the transaction DB if provided, otherwise the default DB
func (h *SharedHelpers) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return h.db
}

// ApplyAttemptFilters applies common filters to attempt queries
func (h *SharedHelpers) ApplyAttemptFilters(query *gorm.DB, filters repositories.AttemptFilters) *gorm.DB {
	if len(filters.States) > 0 {
		query = query.Where("state IN ?", filters.States)
	}
	if !filters.IncludePreview {
		query = query.Where("preview = ?", false)
	}
	return h.ApplyPagination(query, filters.Limit, filters.Offset)
}

// ApplyPagination applies limit and offset when set
func (h *SharedHelpers) ApplyPagination(query *gorm.DB, limit, offset int) *gorm.DB {
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	return query
}
