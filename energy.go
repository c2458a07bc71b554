package main

import (
	"math"
	"strings"
	"time"
)

// Domain constants. The plan length is the default; PLAN_LENGTH_DAYS overrides it.
const (
	kcalPerKG          = 7700.0
	defaultPlanLength  = 30
	maleCalorieFloor   = 1500.0
	femaleCalorieFloor = 1200.0
	defaultMultiplier  = 1.55
)

// activityMultipliers maps activity level strings to their TDEE multiplier.
// It is also the list of valid activity levels checked by the profile handlers.
var activityMultipliers = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

func isMale(gender string) bool {
	return strings.EqualFold(strings.TrimSpace(gender), "male")
}

// calorieFloor is the minimum daily intake ever recommended for the gender.
func calorieFloor(gender string) float64 {
	if isMale(gender) {
		return maleCalorieFloor
	}
	return femaleCalorieFloor
}

// calculateBMR computes basal metabolic rate via Mifflin-St Jeor.
// Weight in kg, height in cm, age in years.
func calculateBMR(weightKG, heightCM float64, age int, gender string) float64 {
	bmr := 10*weightKG + 6.25*heightCM - 5*float64(age)
	if isMale(gender) {
		return bmr + 5
	}
	return bmr - 161
}

// calculateTDEE scales BMR by the activity multiplier. Unknown levels fall back
// to the moderate multiplier rather than failing.
func calculateTDEE(bmr float64, activityLevel string) float64 {
	mult, ok := activityMultipliers[activityLevel]
	if !ok {
		mult = defaultMultiplier
	}
	return bmr * mult
}

// calculateTargetCalories returns the daily intake that moves currentKG toward
// goalKG over timeframeDays without exceeding the safe daily change
// (≈1%/week for loss, ≈0.5%/week for gain). Never below the gender floor.
func calculateTargetCalories(currentKG, goalKG, tdee float64, timeframeDays int, gender string) float64 {
	if timeframeDays <= 0 {
		timeframeDays = defaultPlanLength
	}
	diff := goalKG - currentKG

	var maxDaily float64
	if diff < 0 {
		maxDaily = math.Min(0.14, currentKG*0.001)
	} else {
		maxDaily = math.Min(0.07, currentKG*0.0005)
	}

	daily := diff / float64(timeframeDays)
	daily = math.Max(math.Min(daily, maxDaily), -maxDaily)

	return math.Max(tdee+daily*kcalPerKG, calorieFloor(gender))
}

// adjustForMissedDays redistributes the calorie progress lost on unsuccessful
// days over the remaining days of the plan. The result is clamped to a 30% deficit
// (and the gender floor) when losing, or a 20% surplus otherwise.
func adjustForMissedDays(originalTarget, currentKG, goalKG float64, daysPassed, successfulDays, remainingDays int, tdee float64, gender string) float64 {
	if daysPassed == 0 || remainingDays == 0 {
		return originalTarget
	}

	dailyAdjustment := originalTarget - tdee
	expected := float64(daysPassed) * dailyAdjustment
	actual := float64(successfulDays) * dailyAdjustment
	dailyRecovery := (expected - actual) / float64(remainingDays)

	target := originalTarget - dailyRecovery

	if goalKG-currentKG < 0 {
		target = math.Max(target, tdee-tdee*0.3)
		target = math.Max(target, calorieFloor(gender))
	} else {
		target = math.Min(target, tdee+tdee*0.2)
	}
	return target
}

// energyStats is the unrounded BMR / TDEE / base target triple for a profile.
type energyStats struct {
	BMR            float64
	TDEE           float64
	TargetCalories float64
}

// profileEnergy computes BMR, TDEE and the base (unadjusted) target for p.
func profileEnergy(p userProfile, planLength int) energyStats {
	bmr := calculateBMR(p.WeightKG, p.HeightCM, p.Age, p.Gender)
	tdee := calculateTDEE(bmr, p.ActivityLevel)
	return energyStats{
		BMR:            bmr,
		TDEE:           tdee,
		TargetCalories: calculateTargetCalories(p.WeightKG, p.goalWeight(), tdee, planLength, p.Gender),
	}
}

// caloriesToBurn is the activity target for a day: the gap between expenditure
// and intake, nudged up to 200 kcal when the gap is under 100.
func caloriesToBurn(tdee, target float64) float64 {
	burn := math.Max(0, tdee-target)
	if burn < 100 {
		burn = 200
	}
	return burn
}

// mondayOf returns the Monday of t's week at midnight UTC.
// AddDate handles month and year boundaries.
func mondayOf(t time.Time) time.Time {
	now := t.UTC()
	weekday := int(now.Weekday()) // 0=Sun
	if weekday == 0 {
		weekday = 7 // treat Sunday as day 7 so Mon=1..Sun=7
	}
	daysBack := weekday - 1
	return now.AddDate(0, 0, -daysBack).Truncate(24 * time.Hour)
}
