package model

import "time"

// Reward is a catalog entry redeemable for points. Stock only ever goes
// down here; restocking is an operational task outside the engine.
type Reward struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	Name        string    `gorm:"column:name;size:255;not null"`
	Description string    `gorm:"column:description;type:text"`
	Cost        int64     `gorm:"column:cost;not null"`
	Stock       int       `gorm:"column:stock;not null;default:0"`
	ImageURL    string    `gorm:"column:image_url;type:text"`
	Version     int64     `gorm:"column:version;not null;default:0"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

func (Reward) TableName() string {
	return "rewards"
}
