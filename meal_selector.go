package main

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"strings"
)

// Share of the daily target assigned to each main meal.
var mealShares = []struct {
	MealType string
	Share    float64
}{
	{"breakfast", 0.25},
	{"lunch", 0.35},
	{"dinner", 0.40},
}

// mealShare returns the fraction of the daily target for mealType (0 if unknown).
func mealShare(mealType string) float64 {
	for _, s := range mealShares {
		if s.MealType == mealType {
			return s.Share
		}
	}
	return 0
}

const (
	catalogQueryLimit = 100
	shuffleWindow     = 10
	mealOptionCount   = 5

	// Shown by clients in place of a real dish; never a valid exclusion.
	regenerateSentinel = "Rekomendasikan makanan lain"
)

// mealRequest describes one meal-slot lookup. MinCalories / MaxCalories, when
// set, replace the strict calorie band.
type mealRequest struct {
	MealType       string
	TargetCalories float64
	Count          int
	Restrictions   []string
	Preferred      []string
	Excluded       []string
	MinCalories    *float64
	MaxCalories    *float64
}

// relaxationTier is one step of the catalog search. Tiers run in order until
// one reports satisfied; the last tier is terminal.
type relaxationTier struct {
	name      string
	query     func(r mealRequest) catalogQuery
	satisfied func(found int, r mealRequest) bool
}

func bandQuery(r mealRequest, lo, hi float64, withMealType bool) catalogQuery {
	q := catalogQuery{
		MinCalories:   floatPtr(r.TargetCalories * lo),
		MaxCalories:   floatPtr(r.TargetCalories * hi),
		Restrictions:  r.Restrictions,
		ExcludedNames: r.Excluded,
		Limit:         catalogQueryLimit,
	}
	if withMealType {
		q.MealType = r.MealType
	}
	return q
}

var relaxationTiers = []relaxationTier{
	{
		name: "strict",
		query: func(r mealRequest) catalogQuery {
			q := bandQuery(r, 0.75, 1.25, true)
			if r.MinCalories != nil {
				q.MinCalories = r.MinCalories
			}
			if r.MaxCalories != nil {
				q.MaxCalories = r.MaxCalories
			}
			return q
		},
		satisfied: func(found int, r mealRequest) bool { return found >= r.Count },
	},
	{
		name:      "widened",
		query:     func(r mealRequest) catalogQuery { return bandQuery(r, 0.6, 1.4, true) },
		satisfied: func(found int, r mealRequest) bool { return float64(found) >= float64(r.Count)/2 },
	},
	{
		name:      "any_meal_type",
		query:     func(r mealRequest) catalogQuery { return bandQuery(r, 0.6, 1.4, false) },
		satisfied: func(found int, _ mealRequest) bool { return found >= 2 },
	},
	{
		name: "meal_type_only",
		query: func(r mealRequest) catalogQuery {
			return catalogQuery{
				MealType:      r.MealType,
				Restrictions:  r.Restrictions,
				ExcludedNames: r.Excluded,
				Limit:         catalogQueryLimit,
			}
		},
		satisfied: func(int, mealRequest) bool { return true },
	},
}

// mealSelector picks catalog foods for meal slots. Not safe for concurrent
// use: it owns its random source.
type mealSelector struct {
	catalog   foodCatalog
	rng       *rand.Rand
	fallbacks map[string][]foodItem
}

func newMealSelector(catalog foodCatalog, fallbacks map[string][]foodItem, rng *rand.Rand) *mealSelector {
	return &mealSelector{catalog: catalog, rng: rng, fallbacks: fallbacks}
}

// foodsForMeal walks the relaxation tiers and returns up to r.Count ranked
// foods along with the name of the tier that produced them.
func (s *mealSelector) foodsForMeal(ctx context.Context, r mealRequest) ([]foodItem, string, error) {
	if r.Count <= 0 {
		r.Count = mealOptionCount
	}

	var foods []foodItem
	var tier string
	for _, t := range relaxationTiers {
		found, err := s.catalog.Query(ctx, t.query(r))
		if err != nil {
			return nil, t.name, err
		}
		foods, tier = found, t.name
		if t.satisfied(len(found), r) {
			break
		}
	}

	s.rank(foods, r.TargetCalories, r.Preferred)

	// Shuffle the closest few so repeated calls vary.
	if window := min(shuffleWindow, len(foods)); window > 3 {
		s.rng.Shuffle(window, func(i, j int) { foods[i], foods[j] = foods[j], foods[i] })
	}

	if len(foods) > r.Count {
		foods = foods[:r.Count]
	}
	return foods, tier, nil
}

// rank orders foods preferred-first, then by distance to target.
func (s *mealSelector) rank(foods []foodItem, target float64, preferred []string) {
	pref := make(map[string]bool, len(preferred))
	for _, p := range preferred {
		pref[strings.ToLower(p)] = true
	}
	sort.SliceStable(foods, func(i, j int) bool {
		pi, pj := pref[strings.ToLower(foods[i].Name)], pref[strings.ToLower(foods[j].Name)]
		if pi != pj {
			return pi
		}
		return math.Abs(foods[i].Calories-target) < math.Abs(foods[j].Calories-target)
	})
}

// mealPlan is the three-meal selection for one day.
type mealPlan struct {
	Breakfast      foodItem `json:"breakfast"`
	Lunch          foodItem `json:"lunch"`
	Dinner         foodItem `json:"dinner"`
	TotalCalories  float64  `json:"total_calories"`
	TargetCalories int      `json:"target_calories"`
}

// names lists the three chosen dishes.
func (p mealPlan) names() []string {
	return []string{p.Breakfast.Name, p.Lunch.Name, p.Dinner.Name}
}

// recommendMeals splits target across breakfast, lunch and dinner and picks
// one dish per slot. It never fails because the catalog is empty.
func (s *mealSelector) recommendMeals(ctx context.Context, target float64, restrictions, preferred, excluded []string) (mealPlan, error) {
	plan := mealPlan{TargetCalories: int(target)}

	for _, slot := range mealShares {
		mealTarget := target * slot.Share
		options, _, err := s.foodsForMeal(ctx, mealRequest{
			MealType:       slot.MealType,
			TargetCalories: mealTarget,
			Count:          mealOptionCount,
			Restrictions:   restrictions,
			Preferred:      preferred,
			Excluded:       excluded,
		})
		if err != nil {
			return mealPlan{}, err
		}
		if len(options) == 0 {
			options, _, err = s.foodsForMeal(ctx, mealRequest{
				MealType:       slot.MealType,
				TargetCalories: mealTarget,
				Count:          mealOptionCount,
				Excluded:       excluded,
				MinCalories:    floatPtr(mealTarget * 0.6),
				MaxCalories:    floatPtr(mealTarget * 1.4),
			})
			if err != nil {
				return mealPlan{}, err
			}
		}

		var chosen foodItem
		if len(options) == 0 {
			chosen = s.fallbackMeal(slot.MealType)
		} else {
			sort.SliceStable(options, func(i, j int) bool {
				return math.Abs(options[i].Calories-mealTarget) < math.Abs(options[j].Calories-mealTarget)
			})
			chosen = options[s.rng.Intn(min(3, len(options)))]
		}
		chosen.MealType = slot.MealType

		switch slot.MealType {
		case "breakfast":
			plan.Breakfast = chosen
		case "lunch":
			plan.Lunch = chosen
		case "dinner":
			plan.Dinner = chosen
		}
	}

	plan.TotalCalories = plan.Breakfast.Calories + plan.Lunch.Calories + plan.Dinner.Calories
	return plan, nil
}

// regenerateMeal picks a replacement for one meal slot, avoiding the dish
// currently shown. Restrictions are dropped before the calorie fit is.
func (s *mealSelector) regenerateMeal(ctx context.Context, mealType string, target float64, restrictions []string, excludePrevious string) (foodItem, error) {
	if mealType != "breakfast" && mealType != "lunch" && mealType != "dinner" {
		return foodItem{}, invalidArgument("invalid meal type %q: must be breakfast, lunch or dinner", mealType)
	}

	var excluded []string
	if excludePrevious != "" && excludePrevious != regenerateSentinel {
		excluded = []string{excludePrevious}
	}

	attempts := []mealRequest{
		{Restrictions: restrictions},
		{Restrictions: restrictions, MinCalories: floatPtr(target * 0.6), MaxCalories: floatPtr(target * 1.4)},
		{MinCalories: floatPtr(target * 0.6), MaxCalories: floatPtr(target * 1.4)},
	}
	for _, a := range attempts {
		a.MealType = mealType
		a.TargetCalories = target
		a.Count = mealOptionCount
		a.Excluded = excluded

		options, _, err := s.foodsForMeal(ctx, a)
		if err != nil {
			return foodItem{}, err
		}
		if len(options) == 0 {
			continue
		}
		chosen := options[0]
		if len(options) >= 3 {
			chosen = options[s.rng.Intn(3)]
		}
		chosen.MealType = mealType
		return chosen, nil
	}

	return s.fallbackMeal(mealType), nil
}

// fallbackMeal returns a static dish for mealType, or a default one.
func (s *mealSelector) fallbackMeal(mealType string) foodItem {
	dishes := s.fallbacks[mealType]
	if len(dishes) == 0 {
		dishes = s.fallbacks["default"]
	}
	if len(dishes) == 0 {
		return foodItem{Name: "Nasi Putih dengan Lauk", Calories: 400, Protein: 15, Carbs: 60, Fat: 10, MealType: mealType}
	}
	dish := dishes[s.rng.Intn(len(dishes))]
	dish.MealType = mealType
	return dish
}
