package model

import "time"

// UserPoint stores a user's spendable balance and the lifetime total used
// for rankings. Rows are created lazily on first accrual and never deleted.
// Version is the optimistic concurrency token: every write carries the
// version read at load time and bumps it by one.
type UserPoint struct {
	UserID                 string    `gorm:"column:user_id;primaryKey;size:128"`
	CurrentPoints          int64     `gorm:"column:current_points;not null;default:0"`
	TotalAccumulatedPoints int64     `gorm:"column:total_accumulated_points;not null;default:0"`
	Version                int64     `gorm:"column:version;not null;default:0"`
	CreatedAt              time.Time `gorm:"autoCreateTime"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime"`
}

func (UserPoint) TableName() string {
	return "user_points"
}
