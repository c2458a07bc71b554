package main

import (
	"fmt"
	"math"
	"sort"
	"time"
)

/* ─── Weight progress ────────────────────────────────────────────────── */

// weightProgress compares the actual weight against the time-proportional
// expected weight. Optional fields are nil for the short-circuit statuses.
type weightProgress struct {
	Status           string   `json:"status"`
	Message          string   `json:"message"`
	ProgressPercent  *float64 `json:"progress_percent,omitempty"`
	ExpectedWeight   *float64 `json:"expected_weight,omitempty"`
	WeightDifference *float64 `json:"weight_difference,omitempty"`
	ETAMessage       string   `json:"eta_message,omitempty"`
	DaysElapsed      *int     `json:"days_elapsed,omitempty"`
	DaysRemaining    *int     `json:"days_remaining,omitempty"`
}

// Within this many kg of the expected weight counts as on track.
const weightTolerance = 1.0

func analyzeWeightProgress(start, current, goal float64, daysElapsed, totalDays int) weightProgress {
	if totalDays <= 0 || daysElapsed < 0 {
		return weightProgress{Status: "invalid", Message: "Invalid time parameters"}
	}
	if daysElapsed < 3 {
		return weightProgress{Status: "early", Message: "Not enough data for analysis yet", ProgressPercent: floatPtr(0)}
	}

	totalChange := goal - start
	if math.Abs(totalChange) < 0.1 {
		drift := math.Abs(current - start)
		if drift <= weightTolerance {
			return weightProgress{Status: "on_track", Message: "Maintaining weight successfully", ProgressPercent: floatPtr(100)}
		}
		return weightProgress{
			Status:          "off_track",
			Message:         fmt.Sprintf("Weight has changed by %.1f kg when goal is to maintain", drift),
			ProgressPercent: floatPtr(0),
		}
	}

	expected := start + totalChange*(float64(daysElapsed)/float64(totalDays))
	actualChange := current - start
	progress := math.Min(100, math.Max(0, actualChange/totalChange*100))

	var onTrack bool
	if totalChange > 0 {
		onTrack = current >= expected
	} else {
		onTrack = current <= expected
	}
	diff := math.Abs(current - expected)

	wp := weightProgress{
		ProgressPercent:  floatPtr(progress),
		ExpectedWeight:   floatPtr(expected),
		WeightDifference: floatPtr(diff),
		DaysElapsed:      intPtr(daysElapsed),
		DaysRemaining:    intPtr(totalDays - daysElapsed),
	}
	switch {
	case onTrack && diff <= weightTolerance:
		wp.Status, wp.Message = "on_track", "Progress is on track"
	case onTrack:
		wp.Status, wp.Message = "ahead", fmt.Sprintf("Progress is ahead of schedule by %.1f kg", diff)
	default:
		wp.Status, wp.Message = "behind", fmt.Sprintf("Progress is behind schedule by %.1f kg", diff)
	}

	wp.ETAMessage = "Not enough data to estimate completion date"
	if daysElapsed > 0 && actualChange != 0 {
		rate := actualChange / float64(daysElapsed)
		estimatedTotal := float64(daysElapsed) + (totalChange-actualChange)/rate
		gap := math.Abs(estimatedTotal - float64(totalDays))
		switch {
		case gap <= 7:
			wp.ETAMessage = "Current pace is aligned with the goal timeline"
		case estimatedTotal < float64(totalDays):
			wp.ETAMessage = fmt.Sprintf("At current rate, goal will be achieved %.0f days ahead of schedule", gap)
		default:
			wp.ETAMessage = fmt.Sprintf("At current rate, goal will be achieved %.0f days behind schedule", gap)
		}
	}
	return wp
}

/* ─── Adherence ──────────────────────────────────────────────────────── */

type adherenceReport struct {
	Status                   string  `json:"status"`
	Message                  string  `json:"message"`
	AdherencePercent         float64 `json:"adherence_percent"`
	FoodAdherencePercent     float64 `json:"food_adherence_percent"`
	ActivityAdherencePercent float64 `json:"activity_adherence_percent"`
	CompletedDays            int     `json:"completed_days"`
	TotalDays                int     `json:"total_days"`
	Insight                  *string `json:"insight"`
	Trend                    string  `json:"trend,omitempty"`
	TrendMessage             string  `json:"trend_message,omitempty"`
}

// analyzeAdherence expects check-ins in chronological order; the trend
// compares the last seven against the whole list.
func analyzeAdherence(checkins []dailyCheckin) adherenceReport {
	if len(checkins) == 0 {
		return adherenceReport{Status: "no_data", Message: "No checkin data available"}
	}

	total := len(checkins)
	var completed, food, activity int
	for _, c := range checkins {
		if c.completed() {
			completed++
		}
		if c.FoodCompleted {
			food++
		}
		if c.ActivityCompleted {
			activity++
		}
	}

	r := adherenceReport{
		AdherencePercent:         percent(completed, total),
		FoodAdherencePercent:     percent(food, total),
		ActivityAdherencePercent: percent(activity, total),
		CompletedDays:            completed,
		TotalDays:                total,
	}

	switch {
	case r.AdherencePercent >= 80:
		r.Status, r.Message = "excellent", "Excellent adherence to the plan"
	case r.AdherencePercent >= 60:
		r.Status, r.Message = "good", "Good adherence to the plan"
	case r.AdherencePercent >= 40:
		r.Status, r.Message = "moderate", "Moderate adherence to the plan"
	default:
		r.Status, r.Message = "poor", "Poor adherence to the plan"
	}

	switch {
	case r.FoodAdherencePercent > r.ActivityAdherencePercent+20:
		r.Insight = stringPtr("Diet adherence is stronger than exercise adherence")
	case r.ActivityAdherencePercent > r.FoodAdherencePercent+20:
		r.Insight = stringPtr("Exercise adherence is stronger than diet adherence")
	}

	if total < 10 {
		r.Trend, r.TrendMessage = "insufficient_data", "Not enough data to analyze trends"
		return r
	}
	recentDone := 0
	last := checkins[total-7:]
	for _, c := range last {
		if c.completed() {
			recentDone++
		}
	}
	recentRate := percent(recentDone, len(last))
	switch {
	case recentRate > r.AdherencePercent+10:
		r.Trend, r.TrendMessage = "improving", "Recent adherence has improved compared to overall"
	case recentRate < r.AdherencePercent-10:
		r.Trend, r.TrendMessage = "declining", "Recent adherence has declined compared to overall"
	default:
		r.Trend, r.TrendMessage = "stable", "Adherence has been consistent recently"
	}
	return r
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

/* ─── Trajectory ─────────────────────────────────────────────────────── */

// weightPoint is a dated weight, measured or predicted.
type weightPoint struct {
	Date   DateOnly `json:"date"`
	Weight float64  `json:"weight"`
}

// predictWeightTrajectory fits weight against days since the first point by
// ordinary least squares and extrapolates one point per day after the last.
// Fewer than three points yield an empty result.
func predictWeightTrajectory(history []weightPoint, daysToPredict int) []weightPoint {
	if len(history) < 3 || daysToPredict <= 0 {
		return []weightPoint{}
	}

	first := dateOf(history[0].Date.Time)
	n := float64(len(history))
	xs := make([]float64, len(history))
	var sumX, sumY float64
	for i, p := range history {
		xs[i] = float64(daysBetween(first, p.Date.Time))
		sumX += xs[i]
		sumY += p.Weight
	}
	meanX, meanY := sumX/n, sumY/n

	var sxy, sxx float64
	for i, p := range history {
		dx := xs[i] - meanX
		sxy += dx * (p.Weight - meanY)
		sxx += dx * dx
	}
	slope := 0.0
	if sxx != 0 {
		slope = sxy / sxx
	}
	intercept := meanY - slope*meanX

	lastDay := int(xs[len(xs)-1])
	out := make([]weightPoint, 0, daysToPredict)
	for d := lastDay + 1; d <= lastDay+daysToPredict; d++ {
		out = append(out, weightPoint{
			Date:   DateOnly{first.AddDate(0, 0, d)},
			Weight: intercept + slope*float64(d),
		})
	}
	return out
}

/* ─── Calorie adjustment ─────────────────────────────────────────────── */

type calorieAdjustment struct {
	NewCalories float64 `json:"new_calories"`
	Adjustment  float64 `json:"adjustment"`
	Message     string  `json:"message"`
}

const minHealthyCalories = 1200.0

func calculateCaloriesAdjustment(currentWeight, targetWeight, currentCalories float64, daysRemaining int, adherencePercent float64) calorieAdjustment {
	diff := targetWeight - currentWeight
	if math.Abs(diff) < 0.2 {
		return calorieAdjustment{NewCalories: currentCalories, Message: "Weight on target, maintain current caloric intake"}
	}
	if daysRemaining <= 0 {
		return calorieAdjustment{NewCalories: currentCalories, Message: "No days remaining in plan"}
	}

	// Low adherence makes the per-day adjustment more aggressive.
	factor := math.Max(0.5, adherencePercent/100)
	daily := diff * kcalPerKG / (float64(daysRemaining) * factor)

	limit := 300.0
	if diff < 0 {
		limit = 500
	}
	daily = math.Max(math.Min(daily, limit), -limit)

	newCalories := math.Max(currentCalories+daily, minHealthyCalories)
	adjustment := newCalories - currentCalories

	var msg string
	switch {
	case math.Abs(adjustment) < 50:
		msg = "Minor adjustment recommended to stay on track"
	case adjustment > 0:
		msg = "Increase caloric intake to meet weight gain goals"
	default:
		msg = "Reduce caloric intake to meet weight loss goals"
	}
	return calorieAdjustment{
		NewCalories: math.RoundToEven(newCalories),
		Adjustment:  math.RoundToEven(adjustment),
		Message:     msg,
	}
}

/* ─── Nutrition ──────────────────────────────────────────────────────── */

// mealDay is one day of eaten meals as read back from recommendations.
type mealDay struct {
	Date          DateOnly
	Breakfast     foodItem
	Lunch         foodItem
	Dinner        foodItem
	TotalCalories float64
}

func mealDayFromRecommendation(r dailyRecommendation) mealDay {
	return mealDay{Date: r.Date, Breakfast: r.Breakfast, Lunch: r.Lunch, Dinner: r.Dinner, TotalCalories: r.TotalCalories}
}

type nutritionReport struct {
	Status            string   `json:"status"`
	Message           string   `json:"message,omitempty"`
	AvgProteinPercent float64  `json:"avg_protein_percent,omitempty"`
	AvgCarbPercent    float64  `json:"avg_carb_percent,omitempty"`
	AvgFatPercent     float64  `json:"avg_fat_percent,omitempty"`
	ProteinStatus     string   `json:"protein_status,omitempty"`
	CarbStatus        string   `json:"carb_status,omitempty"`
	FatStatus         string   `json:"fat_status,omitempty"`
	Recommendations   []string `json:"recommendations,omitempty"`
}

func bandStatus(v, lo, hi float64) string {
	switch {
	case v < lo:
		return "low"
	case v > hi:
		return "high"
	}
	return "optimal"
}

func analyzeNutritionalBalance(days []mealDay) nutritionReport {
	if len(days) == 0 {
		return nutritionReport{Status: "no_data", Message: "No meal data available"}
	}

	var sumP, sumC, sumF float64
	counted := 0
	for _, d := range days {
		var cal, protein, carbs, fat float64
		for _, m := range []foodItem{d.Breakfast, d.Lunch, d.Dinner} {
			cal += m.Calories
			protein += m.Protein
			carbs += m.Carbs
			fat += m.Fat
		}
		if cal <= 0 {
			continue
		}
		sumP += protein * 4 / cal * 100
		sumC += carbs * 4 / cal * 100
		sumF += fat * 9 / cal * 100
		counted++
	}
	if counted == 0 {
		return nutritionReport{Status: "insufficient_data", Message: "Could not calculate macronutrient distribution"}
	}

	avgP, avgC, avgF := sumP/float64(counted), sumC/float64(counted), sumF/float64(counted)
	r := nutritionReport{
		Status:            "analyzed",
		AvgProteinPercent: round1(avgP),
		AvgCarbPercent:    round1(avgC),
		AvgFatPercent:     round1(avgF),
		ProteinStatus:     bandStatus(avgP, 15, 35),
		CarbStatus:        bandStatus(avgC, 45, 65),
		FatStatus:         bandStatus(avgF, 20, 35),
		Recommendations:   []string{},
	}

	switch r.ProteinStatus {
	case "low":
		r.Recommendations = append(r.Recommendations, "Consider increasing protein intake (lean meat, fish, legumes)")
	case "high":
		r.Recommendations = append(r.Recommendations, "Consider moderating protein intake")
	}
	switch r.CarbStatus {
	case "low":
		r.Recommendations = append(r.Recommendations, "Consider increasing complex carbohydrates (whole grains, fruits)")
	case "high":
		r.Recommendations = append(r.Recommendations, "Consider reducing simple carbohydrates (sugars, refined grains)")
	}
	switch r.FatStatus {
	case "low":
		r.Recommendations = append(r.Recommendations, "Consider increasing healthy fats (avocados, nuts, olive oil)")
	case "high":
		r.Recommendations = append(r.Recommendations, "Consider reducing fat intake, especially saturated fats")
	}
	return r
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

/* ─── Comprehensive analysis ─────────────────────────────────────────── */

type analysisInput struct {
	Profile     userProfile
	StartDate   time.Time
	CurrentDate time.Time
	EndDate     time.Time
	Weights     []weightPoint
	Meals       []mealDay
	Checkins    []dailyCheckin
}

type comprehensiveReport struct {
	OverallStatus     string            `json:"overall_status"`
	OverallMessage    string            `json:"overall_message"`
	WeightProgress    weightProgress    `json:"weight_progress"`
	Adherence         adherenceReport   `json:"adherence"`
	Nutrition         nutritionReport   `json:"nutrition"`
	CaloricAdjustment calorieAdjustment `json:"caloric_adjustment"`
	WeightTrajectory  []weightPoint     `json:"weight_trajectory"`
	DaysElapsed       int               `json:"days_elapsed"`
	DaysRemaining     int               `json:"days_remaining"`
	TotalDays         int               `json:"total_days"`
	ProgressPercent   float64           `json:"progress_percent"`
	GeneratedAt       time.Time         `json:"generated_at"`
}

// comprehensiveAnalysis combines every analyzer into one report. The input
// slices are not modified.
func comprehensiveAnalysis(in analysisInput) comprehensiveReport {
	daysElapsed := daysBetween(in.StartDate, in.CurrentDate)
	totalDays := daysBetween(in.StartDate, in.EndDate)
	daysRemaining := daysBetween(in.CurrentDate, in.EndDate)

	weights := append([]weightPoint(nil), in.Weights...)
	sort.SliceStable(weights, func(i, j int) bool { return weights[i].Date.Before(weights[j].Date.Time) })

	startWeight, currentWeight := in.Profile.WeightKG, in.Profile.WeightKG
	if len(weights) > 0 {
		currentWeight = weights[len(weights)-1].Weight
		closest := weights[0]
		for _, w := range weights[1:] {
			if absDays(w.Date.Time, in.StartDate) < absDays(closest.Date.Time, in.StartDate) {
				closest = w
			}
		}
		startWeight = closest.Weight
	}
	goal := startWeight
	if in.Profile.GoalWeightKG != nil {
		goal = *in.Profile.GoalWeightKG
	}

	weightStatus := analyzeWeightProgress(startWeight, currentWeight, goal, daysElapsed, totalDays)
	adherence := analyzeAdherence(in.Checkins)
	nutrition := analyzeNutritionalBalance(in.Meals)
	trajectory := predictWeightTrajectory(weights, min(30, daysRemaining))

	currentCalories := 0.0
	if n := len(in.Meals); n > 0 {
		recentMeals := in.Meals[n-min(7, n):]
		for _, m := range recentMeals {
			currentCalories += m.TotalCalories
		}
		currentCalories /= float64(len(recentMeals))
	}

	r := comprehensiveReport{
		WeightProgress:    weightStatus,
		Adherence:         adherence,
		Nutrition:         nutrition,
		CaloricAdjustment: calculateCaloriesAdjustment(currentWeight, goal, currentCalories, daysRemaining, adherence.AdherencePercent),
		WeightTrajectory:  trajectory,
		DaysElapsed:       daysElapsed,
		DaysRemaining:     daysRemaining,
		TotalDays:         totalDays,
		GeneratedAt:       time.Now().UTC(),
	}
	if totalDays > 0 {
		r.ProgressPercent = float64(daysElapsed) / float64(totalDays) * 100
	}

	progressing := weightStatus.Status == "on_track" || weightStatus.Status == "ahead"
	adherent := adherence.AdherencePercent >= 70
	switch {
	case progressing && adherent:
		r.OverallStatus, r.OverallMessage = "excellent", "Excellent progress, keep up the good work!"
	case progressing:
		r.OverallStatus, r.OverallMessage = "good", "Good progress overall, but try to improve plan adherence"
	case adherent:
		r.OverallStatus, r.OverallMessage = "mixed", "Good adherence, but progress is behind schedule"
	default:
		r.OverallStatus, r.OverallMessage = "needs_improvement", "Both progress and adherence need improvement"
	}
	return r
}

func absDays(a, b time.Time) int {
	d := daysBetween(a, b)
	if d < 0 {
		return -d
	}
	return d
}

func intPtr(v int) *int          { return &v }
func stringPtr(v string) *string { return &v }
