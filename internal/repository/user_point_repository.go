package repository

import (
	"context"
	"errors"

	"github.com/picknic/picknic-backend/internal/model"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when a version-checked update matched no
// row: a concurrent writer bumped the version between read and write.
var ErrVersionConflict = errors.New("optimistic version conflict")

// SchoolPoints is one row of the durable school aggregate.
type SchoolPoints struct {
	SchoolName  string
	TotalPoints int64
}

type UserPointRepository interface {
	// FindOrCreate reads the row for userID, lazily creating a zero row.
	FindOrCreate(ctx context.Context, userID string) (*model.UserPoint, error)
	// Find reads the row without creating it; gorm.ErrRecordNotFound when absent.
	Find(ctx context.Context, userID string) (*model.UserPoint, error)
	// UpdateChecked writes balance fields guarded by the version read at load
	// time; ErrVersionConflict when a concurrent writer got there first.
	UpdateChecked(ctx context.Context, up *model.UserPoint, currentPoints, totalPoints int64) error
	FindAllByUserIDIn(ctx context.Context, userIDs []string) ([]model.UserPoint, error)
	// SchoolPointsRanking sums total_accumulated_points per school over
	// eligible users, ordered by the ranking collation (sum desc, name asc).
	SchoolPointsRanking(ctx context.Context) ([]SchoolPoints, error)
	SetDB(db *gorm.DB)
}

type userPointRepository struct {
	db *gorm.DB
}

func NewUserPointRepository(db *gorm.DB) UserPointRepository {
	return &userPointRepository{db: db}
}

func (r *userPointRepository) FindOrCreate(ctx context.Context, userID string) (*model.UserPoint, error) {
	var up model.UserPoint
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(&up, &model.UserPoint{UserID: userID}).Error; err != nil {
		return nil, err
	}
	return &up, nil
}

func (r *userPointRepository) Find(ctx context.Context, userID string) (*model.UserPoint, error) {
	var up model.UserPoint
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&up).Error; err != nil {
		return nil, err
	}
	return &up, nil
}

func (r *userPointRepository) UpdateChecked(ctx context.Context, up *model.UserPoint, currentPoints, totalPoints int64) error {
	res := r.db.WithContext(ctx).
		Model(&model.UserPoint{}).
		Where("user_id = ? AND version = ?", up.UserID, up.Version).
		Updates(map[string]interface{}{
			"current_points":           currentPoints,
			"total_accumulated_points": totalPoints,
			"version":                  up.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrVersionConflict
	}
	up.CurrentPoints = currentPoints
	up.TotalAccumulatedPoints = totalPoints
	up.Version++
	return nil
}

func (r *userPointRepository) FindAllByUserIDIn(ctx context.Context, userIDs []string) ([]model.UserPoint, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var list []model.UserPoint
	if err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *userPointRepository) SchoolPointsRanking(ctx context.Context) ([]SchoolPoints, error) {
	var rows []SchoolPoints
	err := r.db.WithContext(ctx).
		Model(&model.UserPoint{}).
		Select("users.school_name AS school_name, SUM(user_points.total_accumulated_points) AS total_points").
		Joins("JOIN users ON users.user_id = user_points.user_id").
		Where("users.is_system_account = ? AND users.school_name <> ''", false).
		Group("users.school_name").
		Order("total_points DESC, school_name ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *userPointRepository) SetDB(db *gorm.DB) {
	r.db = db
}
