package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

/* ─── Weight progress ────────────────────────────────────────────────── */

func TestAnalyzeWeightProgress(t *testing.T) {
	cases := []struct {
		name       string
		start      float64
		current    float64
		goal       float64
		elapsed    int
		total      int
		wantStatus string
		wantETA    string
	}{
		{"invalid total", 80, 79, 70, 5, 0, "invalid", ""},
		{"negative elapsed", 80, 79, 70, -1, 30, "invalid", ""},
		{"too early", 80, 79, 70, 2, 30, "early", ""},
		{"maintaining", 70, 70.5, 70.05, 10, 30, "on_track", ""},
		{"drifting while maintaining", 70, 72, 70, 10, 30, "off_track", ""},
		// Expected weight at day 15 of 30 is 75.
		{"loss on track", 80, 74.5, 70, 15, 30, "on_track", "Current pace is aligned with the goal timeline"},
		{"loss ahead", 80, 73, 70, 15, 30, "ahead", ""},
		{"loss behind", 80, 79, 70, 15, 30, "behind", "At current rate, goal will be achieved 120 days behind schedule"},
		{"gain behind", 60, 60.5, 65, 15, 30, "behind", ""},
		{"no change yet", 80, 80, 70, 15, 30, "behind", "Not enough data to estimate completion date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := analyzeWeightProgress(tc.start, tc.current, tc.goal, tc.elapsed, tc.total)
			assert.Equal(t, tc.wantStatus, got.Status)
			if tc.wantETA != "" {
				assert.Equal(t, tc.wantETA, got.ETAMessage)
			}
		})
	}

	t.Run("progress fields", func(t *testing.T) {
		got := analyzeWeightProgress(80, 74.5, 70, 15, 30)
		require.NotNil(t, got.ProgressPercent)
		assert.InDelta(t, 55.0, *got.ProgressPercent, 1e-9)
		assert.InDelta(t, 75.0, *got.ExpectedWeight, 1e-9)
		assert.InDelta(t, 0.5, *got.WeightDifference, 1e-9)
		assert.Equal(t, 15, *got.DaysElapsed)
		assert.Equal(t, 15, *got.DaysRemaining)
	})

	t.Run("progress is clamped", func(t *testing.T) {
		got := analyzeWeightProgress(80, 82, 70, 15, 30)
		assert.Zero(t, *got.ProgressPercent)
		got = analyzeWeightProgress(80, 65, 70, 15, 30)
		assert.InDelta(t, 100.0, *got.ProgressPercent, 1e-9)
	})
}

/* ─── Adherence ──────────────────────────────────────────────────────── */

func checkins(pattern ...bool) []dailyCheckin {
	out := make([]dailyCheckin, len(pattern))
	for i, done := range pattern {
		out[i] = dailyCheckin{FoodCompleted: done, ActivityCompleted: done}
	}
	return out
}

func TestAnalyzeAdherence(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		r := analyzeAdherence(nil)
		assert.Equal(t, "no_data", r.Status)
	})

	t.Run("short history with diet insight", func(t *testing.T) {
		cks := checkins(true, true, true, false)
		cks[3].FoodCompleted = true
		r := analyzeAdherence(cks)
		assert.Equal(t, "good", r.Status)
		assert.InDelta(t, 75.0, r.AdherencePercent, 1e-9)
		assert.InDelta(t, 100.0, r.FoodAdherencePercent, 1e-9)
		assert.InDelta(t, 75.0, r.ActivityAdherencePercent, 1e-9)
		assert.Equal(t, 3, r.CompletedDays)
		assert.Equal(t, 4, r.TotalDays)
		require.NotNil(t, r.Insight)
		assert.Equal(t, "Diet adherence is stronger than exercise adherence", *r.Insight)
		assert.Equal(t, "insufficient_data", r.Trend)
	})

	t.Run("exercise insight", func(t *testing.T) {
		cks := checkins(false, false)
		cks[0].ActivityCompleted = true
		cks[1].ActivityCompleted = true
		r := analyzeAdherence(cks)
		assert.Equal(t, "poor", r.Status)
		require.NotNil(t, r.Insight)
		assert.Equal(t, "Exercise adherence is stronger than diet adherence", *r.Insight)
	})

	t.Run("improving", func(t *testing.T) {
		r := analyzeAdherence(checkins(false, false, false, true, true, true, true, true, true, true))
		assert.Equal(t, "good", r.Status)
		assert.Equal(t, "improving", r.Trend)
		assert.Nil(t, r.Insight)
	})

	t.Run("declining", func(t *testing.T) {
		r := analyzeAdherence(checkins(true, true, true, false, false, false, false, false, false, false))
		assert.Equal(t, "poor", r.Status)
		assert.Equal(t, "declining", r.Trend)
	})

	t.Run("stable", func(t *testing.T) {
		all := make([]bool, 12)
		for i := range all {
			all[i] = true
		}
		r := analyzeAdherence(checkins(all...))
		assert.Equal(t, "excellent", r.Status)
		assert.Equal(t, "stable", r.Trend)
	})
}

/* ─── Trajectory ─────────────────────────────────────────────────────── */

func TestPredictWeightTrajectory(t *testing.T) {
	start := day(2026, 3, 1)
	points := []weightPoint{
		{Date: DateOnly{start}, Weight: 80},
		{Date: DateOnly{start.AddDate(0, 0, 2)}, Weight: 79},
		{Date: DateOnly{start.AddDate(0, 0, 4)}, Weight: 78},
	}

	t.Run("fewer than three points", func(t *testing.T) {
		assert.Empty(t, predictWeightTrajectory(points[:2], 5))
	})

	t.Run("nothing to predict", func(t *testing.T) {
		assert.Empty(t, predictWeightTrajectory(points, 0))
	})

	t.Run("collinear points extend the line", func(t *testing.T) {
		got := predictWeightTrajectory(points, 3)
		require.Len(t, got, 3)
		for i, p := range got {
			offset := 5 + i
			assert.True(t, start.AddDate(0, 0, offset).Equal(p.Date.Time), "day %d", offset)
			assert.InDelta(t, 80-0.5*float64(offset), p.Weight, 1e-9)
		}
	})

	t.Run("same-day points give a flat line", func(t *testing.T) {
		flat := []weightPoint{
			{Date: DateOnly{start}, Weight: 80},
			{Date: DateOnly{start}, Weight: 82},
			{Date: DateOnly{start}, Weight: 81},
		}
		got := predictWeightTrajectory(flat, 2)
		require.Len(t, got, 2)
		for _, p := range got {
			assert.InDelta(t, 81.0, p.Weight, 1e-9)
		}
	})
}

/* ─── Calorie adjustment ─────────────────────────────────────────────── */

func TestCalculateCaloriesAdjustment(t *testing.T) {
	cases := []struct {
		name        string
		current     float64
		target      float64
		calories    float64
		days        int
		adherence   float64
		wantNew     float64
		wantAdjust  float64
		wantMessage string
	}{
		{"on target", 70, 70.1, 2000, 30, 100, 2000, 0, "Weight on target, maintain current caloric intake"},
		{"no days left", 80, 75, 2000, 0, 100, 2000, 0, "No days remaining in plan"},
		{"loss capped at 500", 80, 75, 2000, 30, 100, 1500, -500, "Reduce caloric intake to meet weight loss goals"},
		{"gain", 60, 61, 2000, 30, 100, 2257, 257, "Increase caloric intake to meet weight gain goals"},
		{"gain capped at 300", 60, 65, 2000, 30, 100, 2300, 300, "Increase caloric intake to meet weight gain goals"},
		{"healthy minimum", 70, 65, 1300, 30, 100, 1200, -100, "Reduce caloric intake to meet weight loss goals"},
		{"minor", 70, 70.5, 2000, 100, 100, 2038, 38, "Minor adjustment recommended to stay on track"},
		{"low adherence doubles the step", 60, 61, 2000, 100, 20, 2154, 154, "Increase caloric intake to meet weight gain goals"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateCaloriesAdjustment(tc.current, tc.target, tc.calories, tc.days, tc.adherence)
			assert.InDelta(t, tc.wantNew, got.NewCalories, 1e-9)
			assert.InDelta(t, tc.wantAdjust, got.Adjustment, 1e-9)
			assert.Equal(t, tc.wantMessage, got.Message)
		})
	}
}

/* ─── Nutrition ──────────────────────────────────────────────────────── */

func TestAnalyzeNutritionalBalance(t *testing.T) {
	t.Run("no data", func(t *testing.T) {
		assert.Equal(t, "no_data", analyzeNutritionalBalance(nil).Status)
	})

	t.Run("no calories", func(t *testing.T) {
		r := analyzeNutritionalBalance([]mealDay{{}})
		assert.Equal(t, "insufficient_data", r.Status)
	})

	t.Run("balanced", func(t *testing.T) {
		r := analyzeNutritionalBalance([]mealDay{{
			Breakfast: foodItem{Calories: 500, Protein: 25, Carbs: 70, Fat: 10},
			Lunch:     foodItem{Calories: 700, Protein: 35, Carbs: 95, Fat: 20},
			Dinner:    foodItem{Calories: 800, Protein: 40, Carbs: 110, Fat: 20},
		}})
		assert.Equal(t, "analyzed", r.Status)
		assert.InDelta(t, 20.0, r.AvgProteinPercent, 1e-9)
		assert.InDelta(t, 55.0, r.AvgCarbPercent, 1e-9)
		assert.InDelta(t, 22.5, r.AvgFatPercent, 1e-9)
		assert.Equal(t, "optimal", r.ProteinStatus)
		assert.Equal(t, "optimal", r.CarbStatus)
		assert.Equal(t, "optimal", r.FatStatus)
		assert.Empty(t, r.Recommendations)
	})

	t.Run("unbalanced", func(t *testing.T) {
		r := analyzeNutritionalBalance([]mealDay{{
			Lunch: foodItem{Calories: 2000, Protein: 25, Carbs: 400, Fat: 20},
		}})
		assert.Equal(t, "low", r.ProteinStatus)
		assert.Equal(t, "high", r.CarbStatus)
		assert.Equal(t, "low", r.FatStatus)
		assert.Len(t, r.Recommendations, 3)
	})
}

/* ─── Comprehensive analysis ─────────────────────────────────────────── */

func TestComprehensiveAnalysis(t *testing.T) {
	goal := 70.0
	start := day(2026, 1, 1)
	weights := []weightPoint{
		{Date: DateOnly{day(2026, 1, 16)}, Weight: 74.5},
		{Date: DateOnly{day(2026, 1, 8)}, Weight: 77.5},
		{Date: DateOnly{start}, Weight: 80},
	}
	all := make([]bool, 10)
	for i := range all {
		all[i] = true
	}

	r := comprehensiveAnalysis(analysisInput{
		Profile:     userProfile{WeightKG: 74.5, GoalWeightKG: &goal},
		StartDate:   start,
		CurrentDate: day(2026, 1, 16),
		EndDate:     day(2026, 1, 31),
		Weights:     weights,
		Checkins:    checkins(all...),
	})

	assert.Equal(t, 15, r.DaysElapsed)
	assert.Equal(t, 30, r.TotalDays)
	assert.Equal(t, 15, r.DaysRemaining)
	assert.InDelta(t, 50.0, r.ProgressPercent, 1e-9)
	assert.Equal(t, "on_track", r.WeightProgress.Status)
	assert.Equal(t, "excellent", r.Adherence.Status)
	assert.Equal(t, "no_data", r.Nutrition.Status)
	assert.Equal(t, "excellent", r.OverallStatus)
	assert.Len(t, r.WeightTrajectory, 15)
	assert.InDelta(t, 74.5, weights[0].Weight, 1e-9, "input order is preserved")

	t.Run("no weights falls back to the profile", func(t *testing.T) {
		r := comprehensiveAnalysis(analysisInput{
			Profile:     userProfile{WeightKG: 80, GoalWeightKG: &goal},
			StartDate:   start,
			CurrentDate: day(2026, 1, 16),
			EndDate:     day(2026, 1, 31),
		})
		assert.Equal(t, "behind", r.WeightProgress.Status)
		assert.Equal(t, "no_data", r.Adherence.Status)
		assert.Equal(t, "needs_improvement", r.OverallStatus)
		assert.Empty(t, r.WeightTrajectory)
	})
}
