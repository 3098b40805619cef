package service

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/picknic/picknic-backend/internal/apperrors"
	"github.com/picknic/picknic-backend/internal/model"
	"github.com/picknic/picknic-backend/internal/redis"
	"github.com/picknic/picknic-backend/internal/repository"
)

const (
	attendancePoints     = 5
	attendanceDailyLimit = 1
)

// QuotaLimiter gates daily-quota actions. Implemented by DailyLimiter.
type QuotaLimiter interface {
	CheckAndIncrement(ctx context.Context, actionType, userID string, dailyLimit int) (int64, error)
}

// ScoreStore is the ranking side of the fast store. Implemented by
// redis.LeaderboardStore. Writes through this interface are advisory and
// must never fail an accrual.
type ScoreStore interface {
	IncrementScore(ctx context.Context, key, member string, delta int64) error
	Range(ctx context.Context, key string, start, stop int64) ([]redis.Entry, error)
	Score(ctx context.Context, key, member string) (int64, bool, error)
}

// Quotas holds the per-type daily accrual limits.
type Quotas struct {
	Vote   int
	Create int
}

func (q Quotas) forType(t model.PointType) int {
	if t == model.PointTypeCreate {
		return q.Create
	}
	return q.Vote
}

// HistoryPage is one page of the ledger log plus the live balance.
type HistoryPage struct {
	CurrentPoints int64
	Entries       []model.PointHistory
}

// CheckInResult reports a successful daily check-in.
type CheckInResult struct {
	EarnedPoints  int64
	CurrentPoints int64
}

// PointService owns every mutation of the point ledger: accrual, redemption
// and the history log. Balance rows move only through here.
type PointService interface {
	// Accrue credits amount to userID. Gated types consume daily quota
	// first; the whole call fails with ErrQuotaExceeded before any mutation.
	// A duplicate delivery (same type and referenceID within 24h) is
	// silently skipped.
	Accrue(ctx context.Context, userID string, typ model.PointType, amount int64, schoolName, referenceID string) error
	// Redeem exchanges points for one unit of the reward. Stock and balance
	// move in a single transaction or not at all.
	Redeem(ctx context.Context, userID string, rewardID uint64) error
	History(ctx context.Context, userID string, offset, limit int) (*HistoryPage, error)
	// DailyCheckIn credits the attendance bonus, at most once per day.
	DailyCheckIn(ctx context.Context, userID string) (*CheckInResult, error)
}

type pointService struct {
	tx       repository.TxManager
	points   repository.UserPointRepository
	history  repository.PointHistoryRepository
	limiter  QuotaLimiter
	counters CounterStore
	scores   ScoreStore
	quotas   Quotas
}

func NewPointService(
	tx repository.TxManager,
	points repository.UserPointRepository,
	history repository.PointHistoryRepository,
	limiter QuotaLimiter,
	counters CounterStore,
	scores ScoreStore,
	quotas Quotas,
) PointService {
	return &pointService{
		tx:       tx,
		points:   points,
		history:  history,
		limiter:  limiter,
		counters: counters,
		scores:   scores,
		quotas:   quotas,
	}
}

func (s *pointService) Accrue(ctx context.Context, userID string, typ model.PointType, amount int64, schoolName, referenceID string) error {
	if userID == "" {
		return errors.New("user id is required")
	}
	if amount <= 0 {
		return errors.New("amount must be positive")
	}

	// Claim the dedupe key before touching quota or balance so a redelivered
	// event neither double-credits nor burns a quota slot. A failed claim
	// check (fast store down) falls through: at-least-once is the accepted
	// floor, dedupe only narrows it.
	claimKey := ""
	if referenceID != "" {
		claimKey = redis.ProcessedKey(string(typ), referenceID)
		claimed, err := s.counters.ClaimOnce(ctx, claimKey)
		if err != nil {
			log.WithFields(log.Fields{"user_id": userID, "type": typ, "reference_id": referenceID}).
				WithError(err).Warn("dedupe claim failed, proceeding without")
			claimKey = ""
		} else if !claimed {
			log.WithFields(log.Fields{"user_id": userID, "type": typ, "reference_id": referenceID}).
				Info("duplicate accrual skipped")
			return nil
		}
	}

	if typ.Gated() {
		if _, err := s.limiter.CheckAndIncrement(ctx, string(typ), userID, s.quotas.forType(typ)); err != nil {
			if claimKey != "" && !errors.Is(err, apperrors.ErrQuotaExceeded) {
				s.releaseClaim(ctx, claimKey)
			}
			return err
		}
	}

	err := withOptimisticRetry(func() error {
		return s.tx.InTransaction(ctx, func(repos repository.Repositories) error {
			up, err := repos.UserPoints.FindOrCreate(ctx, userID)
			if err != nil {
				return err
			}
			if err := repos.UserPoints.UpdateChecked(ctx, up,
				up.CurrentPoints+amount, up.TotalAccumulatedPoints+amount); err != nil {
				return err
			}
			return repos.History.Create(ctx, &model.PointHistory{
				UserID:      userID,
				Type:        typ,
				Amount:      amount,
				Description: accrualDescription(typ, amount),
				ReferenceID: referenceID,
			})
		})
	})
	if err != nil {
		if claimKey != "" {
			s.releaseClaim(ctx, claimKey)
		}
		return mapStoreErr(err)
	}

	s.pushScores(ctx, userID, schoolName, amount)

	log.WithFields(log.Fields{"user_id": userID, "type": typ, "amount": amount}).
		Info("points accrued")
	return nil
}

func (s *pointService) Redeem(ctx context.Context, userID string, rewardID uint64) error {
	if userID == "" {
		return errors.New("user id is required")
	}

	var redeemed *model.Reward
	err := withOptimisticRetry(func() error {
		return s.tx.InTransaction(ctx, func(repos repository.Repositories) error {
			rw, err := repos.Rewards.FindByID(ctx, rewardID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Wrapf(apperrors.ErrNotFound, "reward %d not found", rewardID)
				}
				return err
			}
			if rw.Stock <= 0 {
				return apperrors.ErrOutOfStock
			}

			up, err := repos.UserPoints.Find(ctx, userID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.Wrapf(apperrors.ErrInsufficientPoints,
						"not enough points (need %d, have 0)", rw.Cost)
				}
				return err
			}
			if up.CurrentPoints < rw.Cost {
				return apperrors.Wrapf(apperrors.ErrInsufficientPoints,
					"not enough points (need %d, have %d)", rw.Cost, up.CurrentPoints)
			}

			if err := repos.Rewards.DecrementStockChecked(ctx, rw); err != nil {
				return err
			}
			// Redemption spends the balance only; the lifetime total that
			// backs rankings is untouched.
			if err := repos.UserPoints.UpdateChecked(ctx, up,
				up.CurrentPoints-rw.Cost, up.TotalAccumulatedPoints); err != nil {
				return err
			}
			if err := repos.History.Create(ctx, &model.PointHistory{
				UserID:      userID,
				Type:        model.PointTypeUseReward,
				Amount:      -rw.Cost,
				Description: fmt.Sprintf("reward redeemed: %s", rw.Name),
				ReferenceID: fmt.Sprintf("%d", rewardID),
			}); err != nil {
				return err
			}
			redeemed = rw
			return nil
		})
	})
	if err != nil {
		return mapStoreErr(err)
	}

	log.WithFields(log.Fields{"user_id": userID, "reward_id": rewardID, "cost": redeemed.Cost}).
		Info("reward redeemed")
	return nil
}

func (s *pointService) History(ctx context.Context, userID string, offset, limit int) (*HistoryPage, error) {
	var current int64
	up, err := s.points.Find(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mapStoreErr(err)
	}
	if up != nil {
		current = up.CurrentPoints
	}

	entries, err := s.history.ListByUser(ctx, userID, offset, limit)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &HistoryPage{CurrentPoints: current, Entries: entries}, nil
}

func (s *pointService) DailyCheckIn(ctx context.Context, userID string) (*CheckInResult, error) {
	if _, err := s.limiter.CheckAndIncrement(ctx, string(model.PointTypeAttendance), userID, attendanceDailyLimit); err != nil {
		if errors.Is(err, apperrors.ErrQuotaExceeded) {
			return nil, apperrors.Wrapf(apperrors.ErrQuotaExceeded, "already checked in today")
		}
		return nil, err
	}

	if err := s.Accrue(ctx, userID, model.PointTypeAttendance, attendancePoints, "", ""); err != nil {
		return nil, err
	}

	up, err := s.points.Find(ctx, userID)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	return &CheckInResult{EarnedPoints: attendancePoints, CurrentPoints: up.CurrentPoints}, nil
}

// pushScores mirrors an accrual into the leaderboard zsets. Best-effort:
// failures are logged and never reach the caller of Accrue.
func (s *pointService) pushScores(ctx context.Context, userID, schoolName string, amount int64) {
	if err := s.scores.IncrementScore(ctx, redis.WeeklyLeaderboardKey, userID, amount); err != nil {
		log.WithFields(log.Fields{"user_id": userID}).
			WithError(err).Warn("weekly leaderboard push failed")
	}
	if schoolName != "" {
		if err := s.scores.IncrementScore(ctx, redis.SchoolLeaderboardKey, schoolName, amount); err != nil {
			log.WithFields(log.Fields{"school": schoolName}).
				WithError(err).Warn("school leaderboard push failed")
		}
	}
}

func (s *pointService) releaseClaim(ctx context.Context, key string) {
	if err := s.counters.Release(ctx, key); err != nil {
		log.WithField("key", key).WithError(err).Warn("failed to release dedupe claim")
	}
}

// withOptimisticRetry runs attempt, and on a version conflict re-runs it
// exactly once against fresh reads. A second conflict surfaces as
// ErrConcurrencyConflict; the accrual or redemption is never silently
// dropped.
func withOptimisticRetry(attempt func() error) error {
	err := attempt()
	if !errors.Is(err, repository.ErrVersionConflict) {
		return err
	}
	log.WithError(err).Debug("version conflict, retrying once with fresh state")
	err = attempt()
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.Wrap(apperrors.ErrConcurrencyConflict, err)
	}
	return err
}

// mapStoreErr folds unclassified gorm/driver failures into the dependency
// class so callers can tell "retry with backoff" from business rejections.
func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, repository.ErrVersionConflict) {
		return err
	}
	return apperrors.Wrap(apperrors.ErrDependencyUnavailable, err)
}

func accrualDescription(typ model.PointType, amount int64) string {
	switch typ {
	case model.PointTypeVote:
		return fmt.Sprintf("vote participation +%dp", amount)
	case model.PointTypeCreate:
		return fmt.Sprintf("vote creation +%dp", amount)
	case model.PointTypeAttendance:
		return fmt.Sprintf("daily check-in +%dp", amount)
	case model.PointTypeEvent:
		return fmt.Sprintf("event participation +%dp", amount)
	default:
		return fmt.Sprintf("points +%d", amount)
	}
}
