package repository

import (
	"context"

	"github.com/picknic/picknic-backend/internal/model"
	"gorm.io/gorm"
)

type PointHistoryRepository interface {
	Create(ctx context.Context, h *model.PointHistory) error
	// ListByUser returns the newest entries first.
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.PointHistory, error)
	SetDB(db *gorm.DB)
}

type pointHistoryRepository struct {
	db *gorm.DB
}

func NewPointHistoryRepository(db *gorm.DB) PointHistoryRepository {
	return &pointHistoryRepository{db: db}
}

func (r *pointHistoryRepository) Create(ctx context.Context, h *model.PointHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *pointHistoryRepository) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.PointHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var list []model.PointHistory
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *pointHistoryRepository) SetDB(db *gorm.DB) {
	r.db = db
}
