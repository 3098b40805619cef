package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/picknic/picknic-backend/internal/model"
	"github.com/picknic/picknic-backend/internal/redis"
	"github.com/picknic/picknic-backend/internal/repository"
)

// memStore is a tiny in-memory stand-in for mysql that honors the same
// version-check semantics as the real repositories, so the optimistic retry
// paths are exercised for real.
type memStore struct {
	mu      sync.Mutex
	points  map[string]*model.UserPoint
	rewards map[uint64]*model.Reward
	users   map[string]*model.User
	history []model.PointHistory

	// beforePointUpdate runs inside UpdateChecked before the version check,
	// letting tests inject a racing writer.
	beforePointUpdate func(st *memStore, userID string)
	// beforeStockUpdate does the same for reward stock decrements.
	beforeStockUpdate func(st *memStore, id uint64)

	failPointUpdate bool
}

func newMemStore() *memStore {
	return &memStore{
		points:  make(map[string]*model.UserPoint),
		rewards: make(map[uint64]*model.Reward),
		users:   make(map[string]*model.User),
	}
}

func (st *memStore) addReward(rw model.Reward) {
	st.rewards[rw.ID] = &rw
}

func (st *memStore) addUser(u model.User) {
	st.users[u.UserID] = &u
}

func (st *memStore) setPoints(userID string, current, total int64) {
	st.points[userID] = &model.UserPoint{UserID: userID, CurrentPoints: current, TotalAccumulatedPoints: total}
}

// snapshot returns copies for unchanged-state assertions.
func (st *memStore) snapshot(userID string, rewardID uint64) (model.UserPoint, model.Reward) {
	st.mu.Lock()
	defer st.mu.Unlock()
	var up model.UserPoint
	if p, ok := st.points[userID]; ok {
		up = *p
	}
	var rw model.Reward
	if r, ok := st.rewards[rewardID]; ok {
		rw = *r
	}
	return up, rw
}

type memUserPointRepo struct{ st *memStore }

func (r *memUserPointRepo) FindOrCreate(_ context.Context, userID string) (*model.UserPoint, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if up, ok := r.st.points[userID]; ok {
		cp := *up
		return &cp, nil
	}
	r.st.points[userID] = &model.UserPoint{UserID: userID}
	cp := *r.st.points[userID]
	return &cp, nil
}

func (r *memUserPointRepo) Find(_ context.Context, userID string) (*model.UserPoint, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	up, ok := r.st.points[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *up
	return &cp, nil
}

func (r *memUserPointRepo) UpdateChecked(_ context.Context, up *model.UserPoint, currentPoints, totalPoints int64) error {
	if r.st.beforePointUpdate != nil {
		hook := r.st.beforePointUpdate
		r.st.beforePointUpdate = nil
		hook(r.st, up.UserID)
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	if r.st.failPointUpdate {
		return fmt.Errorf("mysql gone away")
	}
	stored, ok := r.st.points[up.UserID]
	if !ok || stored.Version != up.Version {
		return repository.ErrVersionConflict
	}
	stored.CurrentPoints = currentPoints
	stored.TotalAccumulatedPoints = totalPoints
	stored.Version++
	up.CurrentPoints = currentPoints
	up.TotalAccumulatedPoints = totalPoints
	up.Version++
	return nil
}

func (r *memUserPointRepo) FindAllByUserIDIn(_ context.Context, userIDs []string) ([]model.UserPoint, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []model.UserPoint
	for _, id := range userIDs {
		if up, ok := r.st.points[id]; ok {
			out = append(out, *up)
		}
	}
	return out, nil
}

func (r *memUserPointRepo) SchoolPointsRanking(_ context.Context) ([]repository.SchoolPoints, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	sums := make(map[string]int64)
	for _, up := range r.st.points {
		u, ok := r.st.users[up.UserID]
		if !ok || u.IsSystemAccount || u.SchoolName == "" {
			continue
		}
		sums[u.SchoolName] += up.TotalAccumulatedPoints
	}
	out := make([]repository.SchoolPoints, 0, len(sums))
	for name, total := range sums {
		out = append(out, repository.SchoolPoints{SchoolName: name, TotalPoints: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		return out[i].SchoolName < out[j].SchoolName
	})
	return out, nil
}

func (r *memUserPointRepo) SetDB(*gorm.DB) {}

type memRewardRepo struct{ st *memStore }

func (r *memRewardRepo) FindByID(_ context.Context, id uint64) (*model.Reward, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	rw, ok := r.st.rewards[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rw
	return &cp, nil
}

func (r *memRewardRepo) List(_ context.Context) ([]model.Reward, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []model.Reward
	for _, rw := range r.st.rewards {
		out = append(out, *rw)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memRewardRepo) DecrementStockChecked(_ context.Context, rw *model.Reward) error {
	if r.st.beforeStockUpdate != nil {
		hook := r.st.beforeStockUpdate
		r.st.beforeStockUpdate = nil
		hook(r.st, rw.ID)
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	stored, ok := r.st.rewards[rw.ID]
	if !ok || stored.Version != rw.Version || stored.Stock <= 0 {
		return repository.ErrVersionConflict
	}
	stored.Stock--
	stored.Version++
	rw.Stock--
	rw.Version++
	return nil
}

func (r *memRewardRepo) Create(_ context.Context, rw *model.Reward) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.rewards[rw.ID] = rw
	return nil
}

func (r *memRewardRepo) SetDB(*gorm.DB) {}

type memHistoryRepo struct{ st *memStore }

func (r *memHistoryRepo) Create(_ context.Context, h *model.PointHistory) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	h.ID = uint64(len(r.st.history) + 1)
	r.st.history = append(r.st.history, *h)
	return nil
}

func (r *memHistoryRepo) ListByUser(_ context.Context, userID string, offset, limit int) ([]model.PointHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var all []model.PointHistory
	for i := len(r.st.history) - 1; i >= 0; i-- {
		if r.st.history[i].UserID == userID {
			all = append(all, r.st.history[i])
		}
	}
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *memHistoryRepo) SetDB(*gorm.DB) {}

// memTxManager hands the same backing store to every "transaction". The
// fakes are not transactional; redemption atomicity is asserted through the
// version-check ordering instead (stock moves last-write-wins safe).
type memTxManager struct{ st *memStore }

func (m *memTxManager) InTransaction(_ context.Context, fn func(repos repository.Repositories) error) error {
	return fn(repository.Repositories{
		UserPoints: &memUserPointRepo{st: m.st},
		Rewards:    &memRewardRepo{st: m.st},
		History:    &memHistoryRepo{st: m.st},
	})
}

type memUserRepo struct{ st *memStore }

func (r *memUserRepo) FindByUserID(_ context.Context, userID string) (*model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	u, ok := r.st.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *memUserRepo) FindAllByUserIDIn(_ context.Context, userIDs []string) ([]model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var out []model.User
	for _, id := range userIDs {
		if u, ok := r.st.users[id]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *memUserRepo) ListUserIDs(_ context.Context) ([]string, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	var ids []string
	for id := range r.st.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *memUserRepo) Create(_ context.Context, u *model.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	r.st.users[u.UserID] = u
	return nil
}

func (r *memUserRepo) SetDB(*gorm.DB) {}

// fakeCounterStore mimics the redis counter semantics in memory.
type fakeCounterStore struct {
	mu     sync.Mutex
	counts map[string]int64
	claims map[string]bool
	err    error
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64), claims: make(map[string]bool)}
}

func (f *fakeCounterStore) Increment(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.counts[key]++
	return f.counts[key], nil
}

func (f *fakeCounterStore) ClaimOnce(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.claims[key] {
		return false, nil
	}
	f.claims[key] = true
	return true, nil
}

func (f *fakeCounterStore) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.claims, key)
	return nil
}

// fakeScoreStore mimics the leaderboard zsets, including redis's
// member-descending order for equal scores on Range.
type fakeScoreStore struct {
	mu     sync.Mutex
	boards map[string]map[string]int64
	err    error
}

func newFakeScoreStore() *fakeScoreStore {
	return &fakeScoreStore{boards: make(map[string]map[string]int64)}
}

func (f *fakeScoreStore) IncrementScore(_ context.Context, key, member string, delta int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.boards[key] == nil {
		f.boards[key] = make(map[string]int64)
	}
	f.boards[key][member] += delta
	return nil
}

func (f *fakeScoreStore) Range(_ context.Context, key string, start, stop int64) ([]redis.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	board := f.boards[key]
	entries := make([]redis.Entry, 0, len(board))
	for m, s := range board {
		entries = append(entries, redis.Entry{Member: m, Score: s})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		// ZREVRANGE breaks ties by member descending.
		return strings.Compare(entries[i].Member, entries[j].Member) > 0
	})
	if start < 0 {
		start = 0
	}
	if stop < 0 || stop >= int64(len(entries)) {
		stop = int64(len(entries)) - 1
	}
	if start > stop {
		return nil, nil
	}
	return entries[start : stop+1], nil
}

func (f *fakeScoreStore) Score(_ context.Context, key, member string) (int64, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, false, f.err
	}
	s, ok := f.boards[key][member]
	return s, ok, nil
}
