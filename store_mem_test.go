package main

import (
	"context"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory coachStore with the same not-found and
// uniqueness semantics as pgStore.
type memStore struct {
	mu       sync.Mutex
	now      func() time.Time
	nextID   int
	users    map[int]user
	profiles map[int]userProfile
	recs     map[int]dailyRecommendation
	checkins map[int]dailyCheckin
	weights  map[int]weightEntry
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{
		now:      now,
		users:    map[int]user{},
		profiles: map[int]userProfile{},
		recs:     map[int]dailyRecommendation{},
		checkins: map[int]dailyCheckin{},
		weights:  map[int]weightEntry{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func inRange(d, start, end time.Time) bool {
	d = dateOf(d)
	return !d.Before(dateOf(start)) && !d.After(dateOf(end))
}

/* ─── Users and profiles ─────────────────────────────────────────────── */

func (s *memStore) CreateUser(_ context.Context, username, email, passwordHash string) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email || u.Username == username {
			return user{}, alreadyExists("username or email already registered")
		}
	}
	now := s.now()
	u := user{ID: s.id(), Username: username, Email: email, Password: passwordHash, CreatedAt: &now}
	s.users[u.ID] = u
	return u, nil
}

func (s *memStore) UserByEmail(_ context.Context, email string) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user{}, notFound("user not found")
}

func (s *memStore) UserByID(_ context.Context, id int) (user, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return user{}, notFound("user not found")
}

func (s *memStore) Profile(_ context.Context, userID int) (userProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		return p, nil
	}
	return userProfile{}, notFound("profile not found")
}

func (s *memStore) ReplaceProfile(_ context.Context, p userProfile) (userProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.DietaryRestrictions == nil {
		p.DietaryRestrictions = []string{}
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = nil
	s.profiles[p.UserID] = p
	return p, nil
}

func (s *memStore) UpdateProfile(_ context.Context, userID int, patch patchProfileRequest) (userProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		return userProfile{}, notFound("profile not found")
	}
	changed := false
	set := func(apply func()) {
		apply()
		changed = true
	}
	if patch.Weight != nil {
		set(func() { p.WeightKG = *patch.Weight })
	}
	if patch.Height != nil {
		set(func() { p.HeightCM = *patch.Height })
	}
	if patch.Age != nil {
		set(func() { p.Age = *patch.Age })
	}
	if patch.Gender != nil {
		set(func() { p.Gender = *patch.Gender })
	}
	if patch.ActivityLevel != nil {
		set(func() { p.ActivityLevel = *patch.ActivityLevel })
	}
	if patch.GoalWeight != nil {
		set(func() { p.GoalWeightKG = patch.GoalWeight })
	}
	if patch.DietaryRestrictions != nil {
		set(func() { p.DietaryRestrictions = normalizeTokens(*patch.DietaryRestrictions) })
	}
	if !changed {
		return userProfile{}, invalidArgument("no fields to update")
	}
	now := s.now()
	p.UpdatedAt = &now
	s.profiles[userID] = p
	return p, nil
}

func (s *memStore) SetProfileWeight(_ context.Context, userID int, weightKG float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.profiles[userID]; ok {
		p.WeightKG = weightKG
		s.profiles[userID] = p
	}
	return nil
}

func (s *memStore) ResetProfile(_ context.Context, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.profiles, userID)
	for id, r := range s.recs {
		if r.UserID == userID {
			delete(s.recs, id)
		}
	}
	for id, c := range s.checkins {
		if c.UserID == userID {
			delete(s.checkins, id)
		}
	}
	for id, w := range s.weights {
		if w.UserID == userID {
			delete(s.weights, id)
		}
	}
	return nil
}

/* ─── Recommendations ────────────────────────────────────────────────── */

func (s *memStore) sortedRecs(userID int, keep func(dailyRecommendation) bool) []dailyRecommendation {
	out := []dailyRecommendation{}
	for _, r := range s.recs {
		if r.UserID == userID && keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out
}

func (s *memStore) byDate(userID int, date time.Time) (dailyRecommendation, bool) {
	for _, r := range s.recs {
		if r.UserID == userID && r.Date.Equal(dateOf(date)) {
			return r, true
		}
	}
	return dailyRecommendation{}, false
}

func (s *memStore) RecommendationByDate(_ context.Context, userID int, date time.Time) (dailyRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.byDate(userID, date); ok {
		return r, nil
	}
	return dailyRecommendation{}, notFound("recommendation not found")
}

func (s *memStore) RecommendationsBetween(_ context.Context, userID int, start, end time.Time) ([]dailyRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedRecs(userID, func(r dailyRecommendation) bool { return inRange(r.Date.Time, start, end) }), nil
}

func (s *memStore) LatestRecommendations(_ context.Context, userID, limit int) ([]dailyRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := dateOf(s.now())
	recs := s.sortedRecs(userID, func(r dailyRecommendation) bool { return !r.Date.After(today) })
	out := []dailyRecommendation{}
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, recs[i])
	}
	return out, nil
}

func (s *memStore) InsertRecommendation(_ context.Context, rec dailyRecommendation) (dailyRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byDate(rec.UserID, rec.Date.Time); ok {
		return dailyRecommendation{}, alreadyExists("recommendation for %s already exists", rec.Date)
	}
	now := s.now()
	rec.ID, rec.CreatedAt = s.id(), &now
	s.recs[rec.ID] = rec
	return rec, nil
}

func (s *memStore) UpsertRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error) {
	s.mu.Lock()
	existing, ok := s.byDate(rec.UserID, rec.Date.Time)
	s.mu.Unlock()
	if !ok {
		return s.InsertRecommendation(ctx, rec)
	}
	rec.ID, rec.CreatedAt, rec.IsCompleted = existing.ID, existing.CreatedAt, existing.IsCompleted
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.ID] = rec
	return rec, nil
}

func (s *memStore) UpdateRecommendation(_ context.Context, rec dailyRecommendation) (dailyRecommendation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.recs[rec.ID]
	if !ok || existing.UserID != rec.UserID {
		return dailyRecommendation{}, notFound("recommendation not found")
	}
	existing.Breakfast, existing.Lunch, existing.Dinner = rec.Breakfast, rec.Lunch, rec.Dinner
	existing.Activities, existing.TotalCalories = rec.Activities, rec.TotalCalories
	s.recs[rec.ID] = existing
	return existing, nil
}

/* ─── Check-ins ──────────────────────────────────────────────────────── */

func (s *memStore) CheckinForRecommendation(_ context.Context, userID, recommendationID int) (dailyCheckin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.checkins {
		if c.UserID == userID && c.RecommendationID == recommendationID {
			return c, nil
		}
	}
	return dailyCheckin{}, notFound("check-in not found")
}

func (s *memStore) InsertCheckin(_ context.Context, c dailyCheckin) (dailyCheckin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.checkins {
		if existing.UserID == c.UserID && existing.RecommendationID == c.RecommendationID {
			return dailyCheckin{}, alreadyExists("already checked in for this recommendation")
		}
	}
	now := s.now()
	c.ID, c.CreatedAt = s.id(), &now
	s.checkins[c.ID] = c
	if rec, ok := s.recs[c.RecommendationID]; ok {
		rec.IsCompleted = c.completed()
		s.recs[rec.ID] = rec
	}
	return c, nil
}

func (s *memStore) CheckinsBetween(_ context.Context, userID int, start, end time.Time) ([]dailyCheckin, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []dailyCheckin{}
	for _, c := range s.checkins {
		if c.UserID == userID && inRange(c.Date.Time, start, end) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *memStore) CountCompletedCheckins(_ context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.checkins {
		if c.UserID == userID && c.completed() {
			n++
		}
	}
	return n, nil
}

func (s *memStore) CheckedInDays(_ context.Context, userID int) ([]checkedInDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	days := []checkedInDay{}
	for _, r := range s.sortedRecs(userID, func(dailyRecommendation) bool { return true }) {
		for _, c := range s.checkins {
			if c.RecommendationID == r.ID {
				days = append(days, checkedInDay{Recommendation: r, Checkin: c})
			}
		}
	}
	return days, nil
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

func (s *memStore) UpsertWeight(_ context.Context, userID int, date time.Time, weightKG float64) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, w := range s.weights {
		if w.UserID == userID && w.Date.Equal(dateOf(date)) {
			w.WeightKG = weightKG
			s.weights[id] = w
			return w, nil
		}
	}
	w := weightEntry{ID: s.id(), UserID: userID, Date: DateOnly{dateOf(date)}, WeightKG: weightKG}
	s.weights[w.ID] = w
	return w, nil
}

func (s *memStore) WeightsBetween(_ context.Context, userID int, start, end time.Time) ([]weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []weightEntry{}
	for _, w := range s.weights {
		if w.UserID == userID && inRange(w.Date.Time, start, end) {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date.Time) })
	return out, nil
}

func (s *memStore) UpdateWeight(_ context.Context, userID, id int, date *time.Time, weightKG *float64) (weightEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weights[id]
	if !ok || w.UserID != userID {
		return weightEntry{}, notFound("weight entry not found")
	}
	if date != nil {
		w.Date = DateOnly{dateOf(*date)}
	}
	if weightKG != nil {
		w.WeightKG = *weightKG
	}
	s.weights[id] = w
	return w, nil
}

func (s *memStore) DeleteWeight(_ context.Context, userID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weights[id]
	if !ok || w.UserID != userID {
		return notFound("weight entry not found")
	}
	delete(s.weights, id)
	return nil
}
