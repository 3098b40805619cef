package model

import "time"

type PointType string

const (
	PointTypeVote       PointType = "VOTE"       // vote participation
	PointTypeCreate     PointType = "CREATE"     // vote creation
	PointTypeAttendance PointType = "ATTENDANCE" // daily check-in
	PointTypeEvent      PointType = "EVENT"      // promotional event
	PointTypeUseReward  PointType = "USE_REWARD" // redemption (negative amount)
)

// Gated reports whether the type is subject to a daily quota.
func (t PointType) Gated() bool {
	return t == PointTypeVote || t == PointTypeCreate
}

// PointHistory is the append-only change log of the ledger. Amount is signed;
// redemptions are recorded as negative entries. Rows are immutable and read
// newest-first.
type PointHistory struct {
	ID          uint64    `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"column:user_id;size:128;index;not null"`
	Type        PointType `gorm:"column:type;size:32;not null"`
	Amount      int64     `gorm:"column:amount;not null"`
	Description string    `gorm:"column:description;type:text"`
	ReferenceID string    `gorm:"column:reference_id;size:128"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index"`
}

func (PointHistory) TableName() string {
	return "point_history"
}
