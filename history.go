package main

import (
	"context"
	"fmt"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
)

// userHistory is a per-user summary of what was eaten and done on completed
// days. It is a cache: Rebuild recreates it from recommendations and check-ins.
type userHistory struct {
	FoodsEaten     map[string]int `json:"foods_eaten"`
	ActivitiesDone map[string]int `json:"activities_done"`
	DaysCompleted  int            `json:"days_completed"`
	DaysFailed     int            `json:"days_failed"`
}

func newUserHistory() userHistory {
	return userHistory{FoodsEaten: map[string]int{}, ActivitiesDone: map[string]int{}}
}

func (h userHistory) clone() userHistory {
	c := newUserHistory()
	for k, v := range h.FoodsEaten {
		c.FoodsEaten[k] = v
	}
	for k, v := range h.ActivitiesDone {
		c.ActivitiesDone[k] = v
	}
	c.DaysCompleted, c.DaysFailed = h.DaysCompleted, h.DaysFailed
	return c
}

// record applies one checked-in day. Only completed days count towards
// food and activity frequencies.
func (h *userHistory) record(rec dailyRecommendation, completed bool) {
	if h.FoodsEaten == nil || h.ActivitiesDone == nil {
		*h = h.clone()
	}
	if !completed {
		h.DaysFailed++
		return
	}
	h.DaysCompleted++
	for _, m := range []foodItem{rec.Breakfast, rec.Lunch, rec.Dinner} {
		if m.Name != "" {
			h.FoodsEaten[m.Name]++
		}
	}
	for _, a := range rec.Activities {
		h.ActivitiesDone[a.Name]++
	}
}

// topN returns up to n keys by descending count, ties broken by name.
func topN(counts map[string]int, n int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// historyStore caches userHistory values by user id.
type historyStore interface {
	Load(ctx context.Context, userID int) (userHistory, bool, error)
	Save(ctx context.Context, userID int, h userHistory) error
	Invalidate(ctx context.Context, userID int) error
}

// historySource is the durable log a history is rebuilt from.
type historySource interface {
	CheckedInDays(ctx context.Context, userID int) ([]checkedInDay, error)
}

/* ─── In-process LRU store ───────────────────────────────────────────── */

type lruHistoryStore struct {
	cache *lru.Cache[int, userHistory]
}

func newLRUHistoryStore(size int) (*lruHistoryStore, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[int, userHistory](size)
	if err != nil {
		return nil, fmt.Errorf("create history cache: %w", err)
	}
	return &lruHistoryStore{cache: c}, nil
}

func (s *lruHistoryStore) Load(_ context.Context, userID int) (userHistory, bool, error) {
	h, ok := s.cache.Get(userID)
	if !ok {
		return userHistory{}, false, nil
	}
	return h.clone(), true, nil
}

func (s *lruHistoryStore) Save(_ context.Context, userID int, h userHistory) error {
	s.cache.Add(userID, h.clone())
	return nil
}

func (s *lruHistoryStore) Invalidate(_ context.Context, userID int) error {
	s.cache.Remove(userID)
	return nil
}

/* ─── Service ────────────────────────────────────────────────────────── */

// historyService answers preference queries from the cache, rebuilding a
// user's entry from the source on a miss.
type historyService struct {
	store  historyStore
	source historySource
}

func newHistoryService(store historyStore, source historySource) *historyService {
	return &historyService{store: store, source: source}
}

func (s *historyService) get(ctx context.Context, userID int) (userHistory, error) {
	h, ok, err := s.store.Load(ctx, userID)
	if err != nil {
		return userHistory{}, err
	}
	if ok {
		return h, nil
	}
	return s.Rebuild(ctx, userID)
}

// Rebuild replays every checked-in day for userID and stores the result.
func (s *historyService) Rebuild(ctx context.Context, userID int) (userHistory, error) {
	h := newUserHistory()
	if s.source != nil {
		days, err := s.source.CheckedInDays(ctx, userID)
		if err != nil {
			return userHistory{}, fmt.Errorf("rebuild history for user %d: %w", userID, err)
		}
		for _, d := range days {
			h.record(d.Recommendation, d.Checkin.completed())
		}
	}
	if err := s.store.Save(ctx, userID, h); err != nil {
		return userHistory{}, err
	}
	return h, nil
}

// History returns the current summary for userID.
func (s *historyService) History(ctx context.Context, userID int) (userHistory, error) {
	return s.get(ctx, userID)
}

// TopFoods returns the user's n most frequently eaten foods.
func (s *historyService) TopFoods(ctx context.Context, userID, n int) ([]string, error) {
	h, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return topN(h.FoodsEaten, n), nil
}

// TopActivities returns the user's n most frequently completed activities.
func (s *historyService) TopActivities(ctx context.Context, userID, n int) ([]string, error) {
	h, err := s.get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return topN(h.ActivitiesDone, n), nil
}

// RecordOutcome folds a new check-in into a cached history. Without a cached
// entry nothing is written: the next read rebuilds from the log, which already
// contains the check-in.
func (s *historyService) RecordOutcome(ctx context.Context, userID int, rec dailyRecommendation, completed bool) error {
	h, ok, err := s.store.Load(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	h.record(rec, completed)
	return s.store.Save(ctx, userID, h)
}

// Forget drops the cached entry for userID.
func (s *historyService) Forget(ctx context.Context, userID int) error {
	return s.store.Invalidate(ctx, userID)
}
