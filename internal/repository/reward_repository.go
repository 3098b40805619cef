package repository

import (
	"context"

	"github.com/picknic/picknic-backend/internal/model"
	"gorm.io/gorm"
)

type RewardRepository interface {
	FindByID(ctx context.Context, id uint64) (*model.Reward, error)
	List(ctx context.Context) ([]model.Reward, error)
	// DecrementStockChecked takes one unit of stock guarded by the version
	// read at load time; ErrVersionConflict when a concurrent redemption won.
	DecrementStockChecked(ctx context.Context, rw *model.Reward) error
	Create(ctx context.Context, rw *model.Reward) error
	SetDB(db *gorm.DB)
}

type rewardRepository struct {
	db *gorm.DB
}

func NewRewardRepository(db *gorm.DB) RewardRepository {
	return &rewardRepository{db: db}
}

func (r *rewardRepository) FindByID(ctx context.Context, id uint64) (*model.Reward, error) {
	var rw model.Reward
	if err := r.db.WithContext(ctx).First(&rw, id).Error; err != nil {
		return nil, err
	}
	return &rw, nil
}

func (r *rewardRepository) List(ctx context.Context) ([]model.Reward, error) {
	var list []model.Reward
	if err := r.db.WithContext(ctx).
		Order("cost ASC, id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *rewardRepository) DecrementStockChecked(ctx context.Context, rw *model.Reward) error {
	res := r.db.WithContext(ctx).
		Model(&model.Reward{}).
		Where("id = ? AND version = ? AND stock > 0", rw.ID, rw.Version).
		Updates(map[string]interface{}{
			"stock":   gorm.Expr("stock - 1"),
			"version": rw.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	rw.Stock--
	rw.Version++
	return nil
}

func (r *rewardRepository) Create(ctx context.Context, rw *model.Reward) error {
	return r.db.WithContext(ctx).Create(rw).Error
}

func (r *rewardRepository) SetDB(db *gorm.DB) {
	r.db = db
}
