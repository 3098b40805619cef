package model

import "time"

// User carries the profile fields the ranking engine needs: display name,
// school affiliation, and the system-account flag. Identity itself is
// resolved upstream; UserID arrives as a trusted value.
type User struct {
	UserID          string    `gorm:"column:user_id;primaryKey;size:128"`
	Nickname        string    `gorm:"column:nickname;size:64"`
	SchoolName      string    `gorm:"column:school_name;size:128;index"`
	IsSystemAccount bool      `gorm:"column:is_system_account;not null;default:false"`
	CreatedAt       time.Time `gorm:"autoCreateTime"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// RankingEligible reports whether the user may occupy a rank slot. System
// accounts and users without a school affiliation are skipped entirely so
// they never displace a real ranker.
func (u *User) RankingEligible() bool {
	if u == nil {
		return false
	}
	return !u.IsSystemAccount && u.SchoolName != ""
}
