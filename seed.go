package main

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed seed/catalog.yaml
var embeddedSeed []byte

// seedData is the canonical reference dataset: catalog foods, the static
// activity list and the per-meal-type fallback dishes.
type seedData struct {
	CategoryMealTypes map[string][]string   `yaml:"category_meal_types"`
	Foods             []seedFood            `yaml:"foods"`
	Activities        []activityDefinition  `yaml:"activities"`
	FallbackMeals     map[string][]foodItem `yaml:"fallback_meals"`
}

type seedFood struct {
	Name     string  `yaml:"name"`
	Category string  `yaml:"category"`
	Calories float64 `yaml:"calories"`
	Protein  float64 `yaml:"protein"`
	Carbs    float64 `yaml:"carbs"`
	Fat      float64 `yaml:"fat"`
	Fiber    float64 `yaml:"fiber"`
	Sugar    float64 `yaml:"sugar"`
	Sodium   float64 `yaml:"sodium"`
	// MealTypes overrides the category mapping when set.
	MealTypes []string `yaml:"meal_types"`
}

// mealTypesFor resolves which meal types a seed food serves.
func (s *seedData) mealTypesFor(f seedFood) []string {
	if len(f.MealTypes) > 0 {
		return f.MealTypes
	}
	if mts, ok := s.CategoryMealTypes[f.Category]; ok {
		return mts
	}
	return []string{"breakfast"}
}

func parseSeed(raw []byte) (*seedData, error) {
	var s seedData
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	if len(s.Activities) == 0 {
		return nil, fmt.Errorf("parse seed: no activities defined")
	}
	for _, a := range s.Activities {
		if a.CaloriesPerHour <= 0 {
			return nil, fmt.Errorf("parse seed: activity %q has non-positive calories_per_hour", a.Name)
		}
	}
	if len(s.FallbackMeals["default"]) == 0 {
		return nil, fmt.Errorf("parse seed: missing default fallback meals")
	}
	return &s, nil
}

// loadSeed parses the embedded dataset, or the file at path when given.
func loadSeed(path string) (*seedData, error) {
	if path == "" {
		return parseSeed(embeddedSeed)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	return parseSeed(raw)
}
