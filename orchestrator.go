package main

import (
	"context"
	"math"
	"math/rand"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	mealRepeatWindow     = 3 // days whose meals are not repeated
	activityRepeatWindow = 2 // days whose activities are not repeated
	preferredFoodCount   = 5
	preferredActivities  = 3
)

var tracer = otel.Tracer("diet-coach/coach")

// userStats is the rounded energy summary attached to every plan day.
type userStats struct {
	BMR            int `json:"bmr"`
	TDEE           int `json:"tdee"`
	TargetCalories int `json:"target_calories"`
	CaloriesToBurn int `json:"calories_to_burn"`
}

// dayPlan is one generated day. When used as context for later days,
// Completed says whether the user followed it.
type dayPlan struct {
	Day        int                      `json:"day,omitempty"`
	Meals      mealPlan                 `json:"meals"`
	Activities []activityRecommendation `json:"activities"`
	UserStats  userStats                `json:"user_stats"`
	Completed  bool                     `json:"-"`
}

// dayPlanFromRecommendation turns a stored recommendation into plan context.
func dayPlanFromRecommendation(rec dailyRecommendation) dayPlan {
	return dayPlan{
		Meals: mealPlan{
			Breakfast:      rec.Breakfast,
			Lunch:          rec.Lunch,
			Dinner:         rec.Dinner,
			TotalCalories:  rec.TotalCalories,
			TargetCalories: rec.TargetCalories,
		},
		Activities: rec.Activities,
		Completed:  rec.IsCompleted,
	}
}

// dayOptions tunes a single-day recommendation. A zero UserID disables
// history preferences; DayInPlan <= 1 disables the adherence adjustment.
type dayOptions struct {
	UserID         int
	DayInPlan      int
	PlanLength     int
	PreviousDays   []dayPlan
	TargetOverride *float64
}

// coach composes the energy model with meal and activity selection. Build one
// per request; it is not safe for concurrent use.
type coach struct {
	meals      *mealSelector
	activities *activitySelector
	history    *historyService
}

func newCoach(catalog foodCatalog, seed *seedData, history *historyService, rng *rand.Rand) *coach {
	return &coach{
		meals:      newMealSelector(catalog, seed.FallbackMeals, rng),
		activities: newActivitySelector(seed.Activities, rng),
		history:    history,
	}
}

// dayTarget returns the intake target for a day, adjusted for adherence over
// the previous days when the day is past the first of the plan.
func dayTarget(p userProfile, stats energyStats, opts dayOptions) float64 {
	if opts.TargetOverride != nil {
		return *opts.TargetOverride
	}
	target := stats.TargetCalories
	if opts.DayInPlan > 1 && len(opts.PreviousDays) > 0 {
		successful := 0
		for _, d := range opts.PreviousDays {
			if d.Completed {
				successful++
			}
		}
		remaining := max(0, opts.PlanLength-opts.DayInPlan+1)
		target = adjustForMissedDays(target, p.WeightKG, p.goalWeight(),
			opts.DayInPlan-1, successful, remaining, stats.TDEE, p.Gender)
	}
	return target
}

// recommendDay builds meals, activities and stats for one day.
func (c *coach) recommendDay(ctx context.Context, p userProfile, opts dayOptions) (dayPlan, error) {
	ctx, span := tracer.Start(ctx, "coach.recommendDay", trace.WithAttributes(
		attribute.Int("user_id", opts.UserID),
		attribute.Int("day_in_plan", opts.DayInPlan),
	))
	defer span.End()

	if opts.PlanLength <= 0 {
		opts.PlanLength = defaultPlanLength
	}
	stats := profileEnergy(p, opts.PlanLength)
	target := dayTarget(p, stats, opts)

	var excludeFoods, excludeActivities []string
	for _, d := range recent(opts.PreviousDays, mealRepeatWindow) {
		excludeFoods = append(excludeFoods, d.Meals.names()...)
	}
	for _, d := range recent(opts.PreviousDays, activityRepeatWindow) {
		for _, a := range d.Activities {
			excludeActivities = append(excludeActivities, a.Name)
		}
	}

	var preferredFoods, preferredActs []string
	if opts.UserID != 0 && c.history != nil {
		var err error
		if preferredFoods, err = c.history.TopFoods(ctx, opts.UserID, preferredFoodCount); err != nil {
			return dayPlan{}, err
		}
		if preferredActs, err = c.history.TopActivities(ctx, opts.UserID, preferredActivities); err != nil {
			return dayPlan{}, err
		}
	}

	meals, err := c.meals.recommendMeals(ctx, target, p.restrictions(), preferredFoods, excludeFoods)
	if err != nil {
		span.RecordError(err)
		return dayPlan{}, err
	}

	burn := caloriesToBurn(stats.TDEE, target)
	acts := c.activities.recommendActivities(burn, preferredActs, excludeActivities)

	span.SetAttributes(attribute.Float64("target_calories", target))
	return dayPlan{
		Day:        opts.DayInPlan,
		Meals:      meals,
		Activities: acts,
		UserStats: userStats{
			BMR:            int(math.Round(stats.BMR)),
			TDEE:           int(math.Round(stats.TDEE)),
			TargetCalories: int(math.Round(target)),
			CaloriesToBurn: int(math.Round(burn)),
		},
	}, nil
}

// recent returns the last n entries of days.
func recent(days []dayPlan, n int) []dayPlan {
	if len(days) <= n {
		return days
	}
	return days[len(days)-n:]
}

// planOptions describes a multi-day fold. StartDay is the program day of the
// first generated day; zero skips the adherence adjustment entirely.
type planOptions struct {
	UserID       int
	Days         int
	StartDay     int
	PlanLength   int
	PreviousDays []dayPlan
}

// planDays generates Days consecutive days in order. Each generated day is
// appended to the context of the next and counted as followed.
func (c *coach) planDays(ctx context.Context, p userProfile, opts planOptions) ([]dayPlan, error) {
	ctx, span := tracer.Start(ctx, "coach.planDays", trace.WithAttributes(
		attribute.Int("user_id", opts.UserID),
		attribute.Int("days", opts.Days),
	))
	defer span.End()

	previous := append([]dayPlan(nil), opts.PreviousDays...)
	plan := make([]dayPlan, 0, opts.Days)
	for i := 0; i < opts.Days; i++ {
		dayIn := 0
		if opts.StartDay > 0 {
			dayIn = opts.StartDay + i
		}
		day, err := c.recommendDay(ctx, p, dayOptions{
			UserID:       opts.UserID,
			DayInPlan:    dayIn,
			PlanLength:   opts.PlanLength,
			PreviousDays: previous,
		})
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		day.Day = i + 1
		day.Completed = true
		plan = append(plan, day)
		previous = append(previous, day)
	}
	return plan, nil
}

// weeklyPlan is a seven-day fold starting at program day one.
func (c *coach) weeklyPlan(ctx context.Context, p userProfile, userID, planLength int) ([]dayPlan, error) {
	return c.planDays(ctx, p, planOptions{UserID: userID, Days: 7, StartDay: 1, PlanLength: planLength})
}

// monthlyPlan is a thirty-day fold starting at program day one.
func (c *coach) monthlyPlan(ctx context.Context, p userProfile, userID, planLength int) ([]dayPlan, error) {
	return c.planDays(ctx, p, planOptions{UserID: userID, Days: 30, StartDay: 1, PlanLength: planLength})
}
