package repository

import (
	"context"

	"github.com/picknic/picknic-backend/internal/model"
	"gorm.io/gorm"
)

type UserRepository interface {
	FindByUserID(ctx context.Context, userID string) (*model.User, error)
	FindAllByUserIDIn(ctx context.Context, userIDs []string) ([]model.User, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	Create(ctx context.Context, u *model.User) error
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUserID(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindAllByUserIDIn(ctx context.Context, userIDs []string) ([]model.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var list []model.User
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *userRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Pluck("user_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *userRepository) Create(ctx context.Context, u *model.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db = db
}
