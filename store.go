package main

import (
	"context"
	"time"
)

// coachStore is the persistence boundary for accounts, profiles, plans,
// check-ins and the weight log. Implementations translate missing rows to
// kindNotFound and uniqueness violations to kindAlreadyExists.
type coachStore interface {
	historySource

	CreateUser(ctx context.Context, username, email, passwordHash string) (user, error)
	UserByEmail(ctx context.Context, email string) (user, error)
	UserByID(ctx context.Context, id int) (user, error)

	Profile(ctx context.Context, userID int) (userProfile, error)
	ReplaceProfile(ctx context.Context, p userProfile) (userProfile, error)
	UpdateProfile(ctx context.Context, userID int, patch patchProfileRequest) (userProfile, error)
	SetProfileWeight(ctx context.Context, userID int, weightKG float64) error
	ResetProfile(ctx context.Context, userID int) error

	RecommendationByDate(ctx context.Context, userID int, date time.Time) (dailyRecommendation, error)
	RecommendationsBetween(ctx context.Context, userID int, start, end time.Time) ([]dailyRecommendation, error)
	LatestRecommendations(ctx context.Context, userID, limit int) ([]dailyRecommendation, error)
	InsertRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error)
	UpsertRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error)
	UpdateRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error)

	CheckinForRecommendation(ctx context.Context, userID, recommendationID int) (dailyCheckin, error)
	InsertCheckin(ctx context.Context, c dailyCheckin) (dailyCheckin, error)
	CheckinsBetween(ctx context.Context, userID int, start, end time.Time) ([]dailyCheckin, error)
	CountCompletedCheckins(ctx context.Context, userID int) (int, error)

	UpsertWeight(ctx context.Context, userID int, date time.Time, weightKG float64) (weightEntry, error)
	WeightsBetween(ctx context.Context, userID int, start, end time.Time) ([]weightEntry, error)
	UpdateWeight(ctx context.Context, userID, id int, date *time.Time, weightKG *float64) (weightEntry, error)
	DeleteWeight(ctx context.Context, userID, id int) error
}

// recommendationFromPlan freezes a generated day into a storable row.
func recommendationFromPlan(userID int, date time.Time, day dayPlan) dailyRecommendation {
	rec := dailyRecommendation{
		UserID:         userID,
		Date:           DateOnly{dateOf(date)},
		Breakfast:      day.Meals.Breakfast,
		Lunch:          day.Meals.Lunch,
		Dinner:         day.Meals.Dinner,
		Activities:     day.Activities,
		TargetCalories: day.Meals.TargetCalories,
	}
	if rec.Activities == nil {
		rec.Activities = []activityRecommendation{}
	}
	rec.recomputeTotal()
	return rec
}
