package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Days before today whose plans are compared with their check-ins.
const adherenceWindow = 7

// checkin records today's outcome. A day that was not fully followed
// recomputes tomorrow's plan with a target adjusted for the missed days.
// POST /api/recommendations/checkin.
func (h *Handler) checkin(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	var body checkinRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.FoodCompleted == nil || body.ActivityCompleted == nil {
		apiError(c, http.StatusBadRequest, "missing food_completed or activity_completed")
		return
	}

	rec, err := h.store.RecommendationByDate(c, userID, today)
	if err != nil {
		h.writeError(c, err, "failed to fetch today's recommendation")
		return
	}

	saved, err := h.store.InsertCheckin(c, dailyCheckin{
		UserID:            userID,
		RecommendationID:  rec.ID,
		Date:              DateOnly{today},
		FoodCompleted:     *body.FoodCompleted,
		ActivityCompleted: *body.ActivityCompleted,
		Notes:             body.Notes,
	})
	if errorKindOf(err) == kindAlreadyExists {
		existing, lookupErr := h.store.CheckinForRecommendation(c, userID, rec.ID)
		if lookupErr != nil {
			h.writeError(c, lookupErr, "failed to fetch check-in")
			return
		}
		c.JSON(http.StatusConflict, gin.H{"error": "already checked in today", "checkin": existing})
		return
	}
	if err != nil {
		h.writeError(c, err, "failed to save check-in")
		return
	}

	completed := saved.completed()
	rec.IsCompleted = completed
	if err := h.history.RecordOutcome(c, userID, rec, completed); err != nil {
		h.log.Warnw("[checkin] history update failed", "user_id", userID, "error", err)
	}

	tomorrow := today.AddDate(0, 0, 1)
	next, err := h.store.RecommendationByDate(c, userID, tomorrow)
	hasNext := err == nil
	if err != nil && errorKindOf(err) != kindNotFound {
		h.writeError(c, err, "failed to fetch tomorrow's recommendation")
		return
	}

	if !completed {
		adjusted, ok, err := h.replanTomorrow(c, userID, today)
		if err != nil {
			h.writeError(c, err, "failed to update tomorrow's recommendation")
			return
		}
		if ok {
			next, hasNext = adjusted, true
		}
	}

	var nextDay any = gin.H{}
	if hasNext {
		nextDay = next
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":                  "Check-in successful",
		"checkin":                  saved,
		"recommendation_updated":   completed,
		"next_day_recommendation":  nextDay,
		"next_date":                DateOnly{tomorrow},
		"will_regenerate_tomorrow": !completed,
	})
}

// replanTomorrow regenerates tomorrow's plan when any day of the adherence
// window was missed. ok is false when no change was needed.
func (h *Handler) replanTomorrow(ctx context.Context, userID int, today time.Time) (dailyRecommendation, bool, error) {
	p, err := h.store.Profile(ctx, userID)
	if err != nil {
		return dailyRecommendation{}, false, err
	}

	windowStart := today.AddDate(0, 0, -adherenceWindow)
	recs, err := h.store.RecommendationsBetween(ctx, userID, windowStart, today)
	if err != nil {
		return dailyRecommendation{}, false, err
	}
	cks, err := h.store.CheckinsBetween(ctx, userID, windowStart, today)
	if err != nil {
		return dailyRecommendation{}, false, err
	}

	done := make(map[int]bool, len(cks))
	for _, ck := range cks {
		done[ck.RecommendationID] = ck.completed()
	}
	daysPassed, successful := len(recs), 0
	previous := make([]dayPlan, 0, len(recs))
	for _, r := range recs {
		if done[r.ID] {
			successful++
		}
		previous = append(previous, dayPlanFromRecommendation(r))
	}
	if daysPassed == 0 || successful >= daysPassed {
		return dailyRecommendation{}, false, nil
	}

	planLength := h.cfg.PlanLengthDays
	elapsed := daysBetween(p.CreatedAt, today)
	remaining := max(1, planLength-elapsed)

	stats := profileEnergy(p, planLength)
	target := adjustForMissedDays(stats.TargetCalories, p.WeightKG, p.goalWeight(),
		daysPassed, successful, remaining, stats.TDEE, p.Gender)

	day, err := h.newCoach().recommendDay(ctx, p, dayOptions{
		UserID:         userID,
		DayInPlan:      elapsed + 1,
		PlanLength:     planLength,
		PreviousDays:   previous,
		TargetOverride: &target,
	})
	if err != nil {
		return dailyRecommendation{}, false, err
	}

	h.log.Infow("[replanTomorrow] adjusted target",
		"user_id", userID, "days_passed", daysPassed, "successful", successful, "target", target)

	saved, err := h.store.UpsertRecommendation(ctx, recommendationFromPlan(userID, today.AddDate(0, 0, 1), day))
	if err != nil {
		return dailyRecommendation{}, false, err
	}
	return saved, true, nil
}
