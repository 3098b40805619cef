package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repositories bundles the ledger repositories bound to one transaction.
type Repositories struct {
	UserPoints UserPointRepository
	Rewards    RewardRepository
	History    PointHistoryRepository
}

// TxManager runs a function with all writes committed or rolled back
// together. Redemption needs this: stock and balance must never move
// independently.
type TxManager interface {
	InTransaction(ctx context.Context, fn func(repos Repositories) error) error
}

type gormTxManager struct {
	db *gorm.DB
}

func NewTxManager(db *gorm.DB) TxManager {
	return &gormTxManager{db: db}
}

func (m *gormTxManager) InTransaction(ctx context.Context, fn func(repos Repositories) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(Repositories{
			UserPoints: NewUserPointRepository(tx),
			Rewards:    NewRewardRepository(tx),
			History:    NewPointHistoryRepository(tx),
		})
	})
}
