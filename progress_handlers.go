package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const (
	defaultAnalysisDays     = 30
	adjustmentWindowDays    = 7
	defaultAdherence        = 50.0
	adjustmentDaysRemaining = 30
)

type analysisPeriod struct {
	StartDate DateOnly `json:"start_date"`
	EndDate   DateOnly `json:"end_date"`
	Days      int      `json:"days"`
}

// daysParam reads ?days=N, defaulting to defaultAnalysisDays.
func daysParam(c *gin.Context) (int, error) {
	raw := c.Query("days")
	if raw == "" {
		return defaultAnalysisDays, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, invalidArgument("days must be a positive integer")
	}
	return n, nil
}

func mealDays(recs []dailyRecommendation) []mealDay {
	out := make([]mealDay, 0, len(recs))
	for _, r := range recs {
		out = append(out, mealDayFromRecommendation(r))
	}
	return out
}

// getAnalysis builds the comprehensive progress report over [start, end].
// GET /api/progress/analysis?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD.
// Defaults: 30 days ago through 30 days from now.
func (h *Handler) getAnalysis(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	start, end := today.AddDate(0, 0, -defaultAnalysisDays), today.AddDate(0, 0, defaultAnalysisDays)
	var err error
	if s := c.Query("start_date"); s != "" {
		if start, err = parseDate(s); err != nil {
			h.writeError(c, err, "invalid start_date")
			return
		}
	}
	if s := c.Query("end_date"); s != "" {
		if end, err = parseDate(s); err != nil {
			h.writeError(c, err, "invalid end_date")
			return
		}
	}

	var (
		profile  userProfile
		recs     []dailyRecommendation
		checkins []dailyCheckin
		weights  []weightEntry
	)
	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() (err error) {
		profile, err = h.store.Profile(ctx, userID)
		return err
	})
	g.Go(func() (err error) {
		recs, err = h.store.RecommendationsBetween(ctx, userID, start, today)
		return err
	})
	g.Go(func() (err error) {
		checkins, err = h.store.CheckinsBetween(ctx, userID, start, today)
		return err
	})
	g.Go(func() (err error) {
		weights, err = h.store.WeightsBetween(ctx, userID, start, today)
		return err
	})
	if err := g.Wait(); err != nil {
		h.writeError(c, err, "failed to load progress data")
		return
	}

	points := make([]weightPoint, 0, len(weights)+1)
	for _, w := range weights {
		points = append(points, weightPoint{Date: w.Date, Weight: w.WeightKG})
	}
	if len(points) == 0 {
		points = append(points, weightPoint{Date: DateOnly{today}, Weight: profile.WeightKG})
	}

	report := comprehensiveAnalysis(analysisInput{
		Profile:     profile,
		StartDate:   start,
		CurrentDate: today,
		EndDate:     end,
		Weights:     points,
		Meals:       mealDays(recs),
		Checkins:    checkins,
	})
	c.JSON(http.StatusOK, gin.H{"status": "success", "analysis": report})
}

// getNutritionalBalance analyzes the macros of the last N days of plans.
// GET /api/progress/nutritional-balance?days=30.
func (h *Handler) getNutritionalBalance(c *gin.Context) {
	days, err := daysParam(c)
	if err != nil {
		h.writeError(c, err, "invalid days")
		return
	}
	end := h.today()
	start := end.AddDate(0, 0, -days)

	recs, err := h.store.RecommendationsBetween(c, c.GetInt("user_id"), start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch recommendations")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"period":   analysisPeriod{StartDate: DateOnly{start}, EndDate: DateOnly{end}, Days: days},
		"analysis": analyzeNutritionalBalance(mealDays(recs)),
	})
}

// getAdherence analyzes the last N days of check-ins.
// GET /api/progress/adherence?days=30.
func (h *Handler) getAdherence(c *gin.Context) {
	days, err := daysParam(c)
	if err != nil {
		h.writeError(c, err, "invalid days")
		return
	}
	end := h.today()
	start := end.AddDate(0, 0, -days)

	cks, err := h.store.CheckinsBetween(c, c.GetInt("user_id"), start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch check-ins")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"period":   analysisPeriod{StartDate: DateOnly{start}, EndDate: DateOnly{end}, Days: days},
		"analysis": analyzeAdherence(cks),
	})
}

// getCalorieAdjustment suggests a new intake from the last week's plans and
// check-ins.
// GET /api/progress/calorie-adjustment.
func (h *Handler) getCalorieAdjustment(c *gin.Context) {
	userID := c.GetInt("user_id")
	end := h.today()
	start := end.AddDate(0, 0, -adjustmentWindowDays)

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}

	recs, err := h.store.RecommendationsBetween(c, userID, start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch recommendations")
		return
	}
	var currentCalories float64
	if len(recs) > 0 {
		for _, r := range recs {
			currentCalories += r.TotalCalories
		}
		currentCalories /= float64(len(recs))
	} else {
		latest, err := h.store.LatestRecommendations(c, userID, 1)
		if err != nil {
			h.writeError(c, err, "failed to fetch recommendations")
			return
		}
		if len(latest) == 0 {
			apiError(c, http.StatusNotFound, "no recommendation history found")
			return
		}
		currentCalories = float64(latest[0].TargetCalories)
	}

	cks, err := h.store.CheckinsBetween(c, userID, start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch check-ins")
		return
	}
	adherence := defaultAdherence
	if len(cks) > 0 {
		completed := 0
		for _, ck := range cks {
			if ck.completed() {
				completed++
			}
		}
		adherence = float64(completed) / float64(len(cks)) * 100
	}

	goal := p.goalWeight()
	c.JSON(http.StatusOK, gin.H{
		"status":            "success",
		"current_weight":    p.WeightKG,
		"goal_weight":       goal,
		"current_calories":  currentCalories,
		"adherence_percent": adherence,
		"adjustment":        calculateCaloriesAdjustment(p.WeightKG, goal, currentCalories, adjustmentDaysRemaining, adherence),
	})
}

// getUserStats summarizes program days and weight change.
// GET /api/user/stats.
func (h *Handler) getUserStats(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	completed, err := h.store.CountCompletedCheckins(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to count check-ins")
		return
	}

	startDate := dateOf(p.CreatedAt)
	weights, err := h.store.WeightsBetween(c, userID, startDate, today)
	if err != nil {
		h.writeError(c, err, "failed to fetch weight log")
		return
	}
	startWeight := p.WeightKG
	if len(weights) > 0 {
		startWeight = weights[0].WeightKG
	}

	planLength := h.cfg.PlanLengthDays
	elapsed := min(planLength, max(0, daysBetween(startDate, today)))
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"stats": gin.H{
			"progress": gin.H{
				"days_completed":   completed,
				"days_elapsed":     elapsed,
				"days_remaining":   planLength - elapsed,
				"progress_percent": percent(elapsed, planLength),
				"start_date":       DateOnly{startDate},
				"end_date":         DateOnly{startDate.AddDate(0, 0, planLength)},
			},
			"weight": gin.H{
				"start":   startWeight,
				"current": p.WeightKG,
				"goal":    p.goalWeight(),
				"change":  round1(p.WeightKG - startWeight),
			},
		},
	})
}
