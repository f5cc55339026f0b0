package repository

import (
	"fmt"

	"gorm.io/gorm"

	"spokesbot/internal/model"
)

// QueryLogRepository persists the query audit log.
type QueryLogRepository struct {
	db *gorm.DB
}

func NewQueryLogRepository(db *gorm.DB) *QueryLogRepository {
	return &QueryLogRepository{db: db}
}

func (r *QueryLogRepository) Create(entry *model.QueryLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("create query log failed: %w", err)
	}
	return nil
}

// ListRecent returns the newest entries, most recent first.
func (r *QueryLogRepository) ListRecent(limit int) ([]model.QueryLog, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []model.QueryLog
	if err := r.db.Order("created_at DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list query logs failed: %w", err)
	}
	return entries, nil
}
