package main

import (
	"context"
	"strings"
)

// Meal types served by the catalog. Only the first three can be regenerated.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
	"snack":     true,
}

// catalogQuery filters catalog foods. Zero values mean "no constraint":
// an empty MealType searches every food, nil bounds leave calories open.
type catalogQuery struct {
	MealType      string
	MinCalories   *float64
	MaxCalories   *float64
	Restrictions  []string
	ExcludedNames []string
	Limit         int
	RandomOrder   bool
}

// foodCatalog is the read-only query surface the recommendation core uses.
//
// Restrictions are substrings matched case-insensitively against food names:
// a food is dropped when ANY restriction occurs in its name. ExcludedNames
// are exact name matches.
type foodCatalog interface {
	Query(ctx context.Context, q catalogQuery) ([]foodItem, error)
	RandomSample(ctx context.Context, mealType string, count int, restrictions, excluded []string) ([]foodItem, error)
	Count(ctx context.Context, mealType string) (int, error)
}

// matchesRestriction reports whether name contains any of the restriction tokens.
func matchesRestriction(name string, restrictions []string) bool {
	lower := strings.ToLower(name)
	for _, r := range restrictions {
		r = strings.ToLower(strings.TrimSpace(r))
		if r != "" && strings.Contains(lower, r) {
			return true
		}
	}
	return false
}

func floatPtr(v float64) *float64 { return &v }
