package main

import (
	"math"
	"math/rand"
	"strings"
)

const (
	minActivityMinutes = 15.0
	maxActivityMinutes = 120.0
	maxActivities      = 5
	// Below this many picks the list is topped up from non-preferred activities.
	minActivityPicks = 3
)

// activitySelector sizes activities from the static list to a calorie target.
type activitySelector struct {
	defs []activityDefinition
	rng  *rand.Rand
}

func newActivitySelector(defs []activityDefinition, rng *rand.Rand) *activitySelector {
	return &activitySelector{defs: defs, rng: rng}
}

// activities returns a copy of the static activity list.
func (s *activitySelector) activities() []activityDefinition {
	out := make([]activityDefinition, len(s.defs))
	copy(out, s.defs)
	return out
}

// sized converts an activity into a recommendation burning caloriesToBurn.
// ok is false when the implied duration is outside the allowed window.
func sized(a activityDefinition, caloriesToBurn float64) (activityRecommendation, bool) {
	minutes := caloriesToBurn / a.CaloriesPerHour * 60
	if minutes < minActivityMinutes || minutes > maxActivityMinutes {
		return activityRecommendation{}, false
	}
	return activityRecommendation{
		Name:            a.Name,
		DurationMinutes: int(math.Round(minutes)),
		CaloriesBurned:  int(math.Round(caloriesToBurn)),
		Intensity:       a.Intensity,
	}, true
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return set
}

// recommendActivities returns up to five activities that each burn
// caloriesToBurn in 15 to 120 minutes. Preferred activities come first.
func (s *activitySelector) recommendActivities(caloriesToBurn float64, preferred, excluded []string) []activityRecommendation {
	skip := nameSet(excluded)
	pref := nameSet(preferred)

	var available []activityDefinition
	for _, a := range s.defs {
		if !skip[strings.ToLower(a.Name)] {
			available = append(available, a)
		}
	}

	picked := []activityRecommendation{}
	var rest []activityDefinition
	for _, a := range available {
		if len(pref) > 0 && pref[strings.ToLower(a.Name)] {
			if rec, ok := sized(a, caloriesToBurn); ok && len(picked) < maxActivities {
				picked = append(picked, rec)
			}
			continue
		}
		rest = append(rest, a)
	}

	if len(picked) < minActivityPicks {
		s.rng.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, a := range rest {
			if len(picked) >= maxActivities {
				break
			}
			if rec, ok := sized(a, caloriesToBurn); ok {
				picked = append(picked, rec)
			}
		}
	}
	return picked
}

// regenerateActivities draws a fresh set, skipping the excluded names.
func (s *activitySelector) regenerateActivities(caloriesToBurn float64, excluded []string) []activityRecommendation {
	return s.recommendActivities(caloriesToBurn, nil, excluded)
}
