package main

import (
	"math"
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
)

const maxWeightKG = 500

// statsFor is the rounded energy summary returned alongside a profile.
func (h *Handler) statsFor(p userProfile) userStats {
	e := profileEnergy(p, h.cfg.PlanLengthDays)
	return userStats{
		BMR:            int(math.Round(e.BMR)),
		TDEE:           int(math.Round(e.TDEE)),
		TargetCalories: int(math.Round(e.TargetCalories)),
		CaloriesToBurn: int(math.Round(caloriesToBurn(e.TDEE, e.TargetCalories))),
	}
}

func activityLevelNames() string {
	names := make([]string, 0, len(activityMultipliers))
	for k := range activityMultipliers {
		names = append(names, k)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

// validateBiometrics checks whichever fields are set. Setup passes all of them.
func validateBiometrics(weight, height, goal *float64, age *int, gender, activityLevel *string) error {
	if weight != nil && (*weight <= 0 || *weight > maxWeightKG) {
		return invalidArgument("weight must be between 0 and %d kg", maxWeightKG)
	}
	if goal != nil && (*goal <= 0 || *goal > maxWeightKG) {
		return invalidArgument("goal_weight must be between 0 and %d kg", maxWeightKG)
	}
	if height != nil && *height <= 0 {
		return invalidArgument("height must be positive")
	}
	if age != nil && *age <= 0 {
		return invalidArgument("age must be positive")
	}
	if gender != nil {
		switch strings.ToLower(*gender) {
		case "male", "female":
		default:
			return invalidArgument("gender must be one of: female, male")
		}
	}
	if activityLevel != nil {
		// An unknown level would silently fall back to the default multiplier.
		if _, ok := activityMultipliers[*activityLevel]; !ok {
			return invalidArgument("activity_level must be one of: %s", activityLevelNames())
		}
	}
	return nil
}

// setupProfile creates or replaces the profile, restarting the program.
// POST /api/profile/setup.
func (h *Handler) setupProfile(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body profileSetupRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	required := []struct {
		name    string
		present bool
	}{
		{"weight", body.Weight != nil},
		{"height", body.Height != nil},
		{"age", body.Age != nil},
		{"gender", body.Gender != nil},
		{"activity_level", body.ActivityLevel != nil},
	}
	for _, f := range required {
		if !f.present {
			apiError(c, http.StatusBadRequest, "missing required field: "+f.name)
			return
		}
	}
	if err := validateBiometrics(body.Weight, body.Height, body.GoalWeight, body.Age, body.Gender, body.ActivityLevel); err != nil {
		h.writeError(c, err, "invalid profile")
		return
	}

	p, err := h.store.ReplaceProfile(c, userProfile{
		UserID:              userID,
		WeightKG:            *body.Weight,
		HeightCM:            *body.Height,
		Age:                 *body.Age,
		Gender:              strings.ToLower(*body.Gender),
		ActivityLevel:       *body.ActivityLevel,
		GoalWeightKG:        body.GoalWeight,
		DietaryRestrictions: normalizeTokens(body.DietaryRestrictions),
	})
	if err != nil {
		h.writeError(c, err, "failed to save profile")
		return
	}
	if err := h.history.Forget(c, userID); err != nil {
		h.log.Warnw("[setupProfile] history reset failed", "user_id", userID, "error", err)
	}

	c.JSON(http.StatusCreated, gin.H{"profile": p, "stats": h.statsFor(p)})
}

// getProfile returns the profile with its derived energy stats.
// GET /api/profile.
func (h *Handler) getProfile(c *gin.Context) {
	p, err := h.store.Profile(c, c.GetInt("user_id"))
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p, "stats": h.statsFor(p)})
}

// patchProfile updates only the provided profile fields.
// PATCH /api/profile.
func (h *Handler) patchProfile(c *gin.Context) {
	var body patchProfileRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateBiometrics(body.Weight, body.Height, body.GoalWeight, body.Age, body.Gender, body.ActivityLevel); err != nil {
		h.writeError(c, err, "invalid profile")
		return
	}
	if body.Gender != nil {
		g := strings.ToLower(*body.Gender)
		body.Gender = &g
	}

	p, err := h.store.UpdateProfile(c, c.GetInt("user_id"), body)
	if err != nil {
		h.writeError(c, err, "failed to update profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": p, "stats": h.statsFor(p)})
}

// deleteProfile resets the program: profile, plans, check-ins and weights.
// DELETE /api/profile.
func (h *Handler) deleteProfile(c *gin.Context) {
	userID := c.GetInt("user_id")
	if err := h.store.ResetProfile(c, userID); err != nil {
		h.writeError(c, err, "failed to reset profile")
		return
	}
	if err := h.history.Forget(c, userID); err != nil {
		h.log.Warnw("[deleteProfile] history reset failed", "user_id", userID, "error", err)
	}
	c.Status(http.StatusNoContent)
}
