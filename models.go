package main

import (
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const dateLayout = "2006-01-02"

// DateOnly wraps time.Time to serialize as "YYYY-MM-DD" in JSON.
type DateOnly struct{ time.Time }

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

func (d *DateOnly) UnmarshalJSON(b []byte) error {
	t, err := time.Parse(`"2006-01-02"`, string(b))
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// ScanDate implements pgtype.DateScanner so pgx can scan PostgreSQL date
// columns (OID 1082) into DateOnly. NULL values zero the time and return nil
// so that *DateOnly pointer fields can be set to nil by pgx's NULL handling.
func (d *DateOnly) ScanDate(v pgtype.Date) error {
	if !v.Valid {
		d.Time = time.Time{}
		return nil
	}
	d.Time = v.Time
	return nil
}

// String returns the YYYY-MM-DD form used in query args.
func (d DateOnly) String() string { return d.Time.Format(dateLayout) }

// dateOf truncates t to its calendar day in UTC.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b time.Time) int {
	return int(dateOf(b).Sub(dateOf(a)).Hours() / 24)
}

/* ─── Accounts and profiles ──────────────────────────────────────────── */

// user maps to the users table. Password is hidden from JSON responses.
type user struct {
	ID        int        `json:"id" db:"id"`
	Username  string     `json:"username" db:"username"`
	Email     string     `json:"email" db:"email"`
	Password  string     `json:"-" db:"password"`
	CreatedAt *time.Time `json:"created_at" db:"created_at"`
}

// userProfile maps to user_profiles. One row per user; CreatedAt marks the
// start of the user's program.
type userProfile struct {
	UserID              int        `json:"user_id"              db:"user_id"`
	WeightKG            float64    `json:"weight"               db:"weight_kg"`
	HeightCM            float64    `json:"height"               db:"height_cm"`
	Age                 int        `json:"age"                  db:"age"`
	Gender              string     `json:"gender"               db:"gender"`
	ActivityLevel       string     `json:"activity_level"       db:"activity_level"`
	GoalWeightKG        *float64   `json:"goal_weight"          db:"goal_weight_kg"`
	DietaryRestrictions []string   `json:"dietary_restrictions" db:"dietary_restrictions"`
	CreatedAt           time.Time  `json:"created_at"           db:"created_at"`
	UpdatedAt           *time.Time `json:"updated_at"           db:"updated_at"`
}

// goalWeight defaults to the current weight when no goal is set.
func (p userProfile) goalWeight() float64 {
	if p.GoalWeightKG == nil {
		return p.WeightKG
	}
	return *p.GoalWeightKG
}

// restrictions returns the dietary restriction tokens lowercased, in order,
// without blanks.
func (p userProfile) restrictions() []string {
	return normalizeTokens(p.DietaryRestrictions)
}

func normalizeTokens(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}

/* ─── Catalog and recommendations ────────────────────────────────────── */

// foodItem is a catalog food or a frozen snapshot of one inside a recommendation.
type foodItem struct {
	Name      string   `json:"name"                 yaml:"name"`
	Category  string   `json:"category,omitempty"   yaml:"category"`
	Calories  float64  `json:"calories"             yaml:"calories"`
	Protein   float64  `json:"protein"              yaml:"protein"`
	Carbs     float64  `json:"carbs"                yaml:"carbs"`
	Fat       float64  `json:"fat"                  yaml:"fat"`
	Fiber     float64  `json:"fiber,omitempty"      yaml:"fiber"`
	Sugar     float64  `json:"sugar,omitempty"      yaml:"sugar"`
	Sodium    float64  `json:"sodium,omitempty"     yaml:"sodium"`
	MealType  string   `json:"meal_type,omitempty"  yaml:"meal_type"`
	MealTypes []string `json:"meal_types,omitempty" yaml:"-"`
}

// activityDefinition is one entry of the static activity list.
type activityDefinition struct {
	Name            string  `json:"name"              yaml:"name"`
	CaloriesPerHour float64 `json:"calories_per_hour" yaml:"calories_per_hour"`
	Intensity       string  `json:"intensity"         yaml:"intensity"`
	MET             float64 `json:"met"               yaml:"met"`
}

// activityRecommendation is an activity sized to a day's calories-to-burn.
type activityRecommendation struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	CaloriesBurned  int    `json:"calories_burned"`
	Intensity       string `json:"intensity"`
}

// dailyRecommendation is one user's plan for one date. Meals are frozen
// snapshots so later catalog edits never rewrite history.
type dailyRecommendation struct {
	ID             int                      `json:"id"`
	UserID         int                      `json:"user_id"`
	Date           DateOnly                 `json:"date"`
	Breakfast      foodItem                 `json:"breakfast"`
	Lunch          foodItem                 `json:"lunch"`
	Dinner         foodItem                 `json:"dinner"`
	Activities     []activityRecommendation `json:"activities"`
	TotalCalories  float64                  `json:"total_calories"`
	TargetCalories int                      `json:"target_calories"`
	IsCompleted    bool                     `json:"is_completed"`
	CreatedAt      *time.Time               `json:"created_at"`
}

// recomputeTotal keeps TotalCalories equal to the sum of the three meals.
func (r *dailyRecommendation) recomputeTotal() {
	r.TotalCalories = r.Breakfast.Calories + r.Lunch.Calories + r.Dinner.Calories
}

// meal returns a pointer to the named meal slot, or nil for unknown names.
func (r *dailyRecommendation) meal(mealType string) *foodItem {
	switch mealType {
	case "breakfast":
		return &r.Breakfast
	case "lunch":
		return &r.Lunch
	case "dinner":
		return &r.Dinner
	}
	return nil
}

// dailyCheckin maps to daily_checkins. Unique per (user, recommendation).
type dailyCheckin struct {
	ID                int        `json:"id"                 db:"id"`
	UserID            int        `json:"user_id"            db:"user_id"`
	RecommendationID  int        `json:"recommendation_id"  db:"recommendation_id"`
	Date              DateOnly   `json:"date"               db:"date"`
	FoodCompleted     bool       `json:"food_completed"     db:"food_completed"`
	ActivityCompleted bool       `json:"activity_completed" db:"activity_completed"`
	Notes             *string    `json:"notes"              db:"notes"`
	CreatedAt         *time.Time `json:"created_at"         db:"created_at"`
}

// completed reports whether both the diet and the activity goal were met.
func (c dailyCheckin) completed() bool {
	return c.FoodCompleted && c.ActivityCompleted
}

// checkedInDay pairs a recommendation with the check-in recorded against it.
type checkedInDay struct {
	Recommendation dailyRecommendation
	Checkin        dailyCheckin
}

// weightEntry maps to weight_log. Unique per (user, date).
type weightEntry struct {
	ID       int      `json:"id"        db:"id"`
	UserID   int      `json:"user_id"   db:"user_id"`
	Date     DateOnly `json:"date"      db:"date"`
	WeightKG float64  `json:"weight_kg" db:"weight_kg"`
}

/* ─── Request bodies ─────────────────────────────────────────────────── */

// profileSetupRequest is the request body for POST /api/profile/setup.
type profileSetupRequest struct {
	Weight              *float64 `json:"weight"`
	Height              *float64 `json:"height"`
	Age                 *int     `json:"age"`
	Gender              *string  `json:"gender"`
	ActivityLevel       *string  `json:"activity_level"`
	GoalWeight          *float64 `json:"goal_weight"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
}

// patchProfileRequest is the request body for PATCH /api/profile.
// All fields are pointers; only non-nil fields get written to the database.
type patchProfileRequest struct {
	Weight              *float64  `json:"weight"`
	Height              *float64  `json:"height"`
	Age                 *int      `json:"age"`
	Gender              *string   `json:"gender"`
	ActivityLevel       *string   `json:"activity_level"`
	GoalWeight          *float64  `json:"goal_weight"`
	DietaryRestrictions *[]string `json:"dietary_restrictions"`
}

// checkinRequest is the request body for POST /api/recommendations/checkin.
type checkinRequest struct {
	FoodCompleted     *bool   `json:"food_completed"`
	ActivityCompleted *bool   `json:"activity_completed"`
	Notes             *string `json:"notes"`
}
