package service

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"github.com/picknic/picknic-backend/internal/apperrors"
	"github.com/picknic/picknic-backend/internal/model"
	"github.com/picknic/picknic-backend/internal/redis"
	"github.com/picknic/picknic-backend/internal/repository"
)

// Scope selects the ranking dimension.
type Scope string

const (
	ScopeWeekly Scope = "weekly" // individual users, lifetime points
	ScopeSchool Scope = "school" // per-school aggregate
)

// Source selects where school-scope scores are read from. The weekly scope
// is always served from the fast store. A single response never mixes
// sources.
type Source string

const (
	// SourceCache reads the maintained zset aggregate. Cheap, may lag.
	SourceCache Source = "cache"
	// SourceDurable recomputes the aggregate from mysql. Authoritative.
	SourceDurable Source = "durable"
)

// RankedEntry is one slot of a ranked list. Rank is 1-based and assigned
// after eligibility filtering, so excluded members never occupy a slot.
type RankedEntry struct {
	Member string `json:"member"`
	Score  int64  `json:"score"`
	Rank   int    `json:"rank"`
}

// Ranker is a ranked user with display fields resolved.
type Ranker struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Points   int64  `json:"points"`
	Rank     int    `json:"rank"`
}

// MyRank describes the calling user's own standing. Rank is nil when the
// user holds no qualifying score or is excluded from ranking.
type MyRank struct {
	Rank     *int   `json:"rank"`
	Points   int64  `json:"points"`
	Username string `json:"username"`
}

type PersonalRankingResult struct {
	TopRankers []Ranker `json:"topRankers"`
	MyRank     MyRank   `json:"myRank"`
}

// MySchool describes the calling user's school standing.
type MySchool struct {
	SchoolName  string `json:"schoolName"`
	Rank        *int   `json:"rank"`
	TotalPoints int64  `json:"totalPoints"`
}

type SchoolRankingResult struct {
	TopSchools []RankedEntry `json:"topSchools"`
	MySchool   *MySchool     `json:"mySchool,omitempty"`
}

// RankingService serves personal and school rankings from the leaderboard
// zsets, falling back to durable recomputation for the school aggregate.
// Tie-breaks are score descending then member ascending on every path, so
// paginated reads are deterministic even with equal scores.
type RankingService interface {
	TopN(ctx context.Context, scope Scope, source Source, offset, limit int) ([]RankedEntry, error)
	// RankOf returns the member's 1-based rank, or ok=false when the member
	// has no score or is ineligible.
	RankOf(ctx context.Context, scope Scope, source Source, member string) (int, bool, error)
	PersonalRanking(ctx context.Context, userID string, offset, limit int) (*PersonalRankingResult, error)
	SchoolRanking(ctx context.Context, userSchool string, source Source, offset, limit int) (*SchoolRankingResult, error)
}

type rankingService struct {
	scores ScoreStore
	users  repository.UserRepository
	points repository.UserPointRepository
}

func NewRankingService(scores ScoreStore, users repository.UserRepository, points repository.UserPointRepository) RankingService {
	return &rankingService{scores: scores, users: users, points: points}
}

func (s *rankingService) TopN(ctx context.Context, scope Scope, source Source, offset, limit int) ([]RankedEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	ranked, err := s.rankedList(ctx, scope, source)
	if err != nil {
		return nil, err
	}
	return pageOf(ranked, offset, limit), nil
}

func (s *rankingService) RankOf(ctx context.Context, scope Scope, source Source, member string) (int, bool, error) {
	ranked, err := s.rankedList(ctx, scope, source)
	if err != nil {
		return 0, false, err
	}
	for _, e := range ranked {
		if e.Member == member {
			return e.Rank, true, nil
		}
	}
	return 0, false, nil
}

func (s *rankingService) PersonalRanking(ctx context.Context, userID string, offset, limit int) (*PersonalRankingResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ranked, err := s.rankedList(ctx, ScopeWeekly, SourceCache)
	if err != nil {
		return nil, err
	}

	page := pageOf(ranked, offset, limit)
	userIDs := make([]string, 0, len(page)+1)
	for _, e := range page {
		userIDs = append(userIDs, e.Member)
	}
	userIDs = append(userIDs, userID)

	users, err := s.users.FindAllByUserIDIn(ctx, userIDs)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}

	rankers := make([]Ranker, 0, len(page))
	for _, e := range page {
		u := byID[e.Member]
		name := "User_" + e.Member
		if u != nil {
			name = u.Nickname
		}
		rankers = append(rankers, Ranker{UserID: e.Member, Username: name, Points: e.Score, Rank: e.Rank})
	}

	my := MyRank{Username: "User_" + userID}
	if u := byID[userID]; u != nil {
		my.Username = u.Nickname
	}
	if up, err := s.points.Find(ctx, userID); err == nil {
		my.Points = up.TotalAccumulatedPoints
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, mapStoreErr(err)
	}
	for _, e := range ranked {
		if e.Member == userID {
			rank := e.Rank
			my.Rank = &rank
			break
		}
	}

	return &PersonalRankingResult{TopRankers: rankers, MyRank: my}, nil
}

func (s *rankingService) SchoolRanking(ctx context.Context, userSchool string, source Source, offset, limit int) (*SchoolRankingResult, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ranked, err := s.rankedList(ctx, ScopeSchool, source)
	if err != nil {
		return nil, err
	}

	result := &SchoolRankingResult{TopSchools: pageOf(ranked, offset, limit)}

	if userSchool != "" {
		my := &MySchool{SchoolName: userSchool}
		for _, e := range ranked {
			if e.Member == userSchool {
				rank := e.Rank
				my.Rank = &rank
				my.TotalPoints = e.Score
				break
			}
		}
		result.MySchool = my
	}
	return result, nil
}

// rankedList builds the fully ordered, eligibility-filtered list for a
// scope. Ranks are assigned after filtering.
func (s *rankingService) rankedList(ctx context.Context, scope Scope, source Source) ([]RankedEntry, error) {
	switch {
	case scope == ScopeSchool && source == SourceDurable:
		return s.schoolListDurable(ctx)
	case scope == ScopeSchool:
		return s.schoolListCached(ctx)
	default:
		return s.weeklyList(ctx)
	}
}

func (s *rankingService) weeklyList(ctx context.Context) ([]RankedEntry, error) {
	entries, err := s.scores.Range(ctx, redis.WeeklyLeaderboardKey, 0, -1)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDependencyUnavailable, err)
	}
	if len(entries) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.Member)
	}
	users, err := s.users.FindAllByUserIDIn(ctx, ids)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	byID := make(map[string]*model.User, len(users))
	for i := range users {
		byID[users[i].UserID] = &users[i]
	}

	// Eligibility before ranking: a skipped member must not hold a slot.
	eligible := entries[:0:0]
	for _, e := range entries {
		if byID[e.Member].RankingEligible() {
			eligible = append(eligible, e)
		}
	}
	return rankEntries(eligible), nil
}

func (s *rankingService) schoolListCached(ctx context.Context) ([]RankedEntry, error) {
	entries, err := s.scores.Range(ctx, redis.SchoolLeaderboardKey, 0, -1)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDependencyUnavailable, err)
	}
	return rankEntries(entries), nil
}

func (s *rankingService) schoolListDurable(ctx context.Context) ([]RankedEntry, error) {
	rows, err := s.points.SchoolPointsRanking(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	entries := make([]redis.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, redis.Entry{Member: row.SchoolName, Score: row.TotalPoints})
	}
	return rankEntries(entries), nil
}

// rankEntries sorts score-desc, member-asc and assigns 1-based ranks. Redis
// orders equal scores by member descending, the SQL path by name ascending;
// re-sorting here keeps both paths identical.
func rankEntries(entries []redis.Entry) []RankedEntry {
	sorted := make([]redis.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Member < sorted[j].Member
	})

	ranked := make([]RankedEntry, len(sorted))
	for i, e := range sorted {
		ranked[i] = RankedEntry{Member: e.Member, Score: e.Score, Rank: i + 1}
	}
	return ranked
}

func pageOf(ranked []RankedEntry, offset, limit int) []RankedEntry {
	if offset >= len(ranked) {
		return nil
	}
	end := offset + limit
	if end > len(ranked) {
		end = len(ranked)
	}
	page := make([]RankedEntry, end-offset)
	copy(page, ranked[offset:end])
	return page
}
