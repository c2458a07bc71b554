package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Days kept generated ahead of today, today included.
const daysAhead = 30

// recommendationWithCheckin is a recommendation row plus its check-in, if any.
type recommendationWithCheckin struct {
	dailyRecommendation
	Checkin *dailyCheckin `json:"checkin"`
}

// attachCheckins pairs each recommendation with its check-in.
func attachCheckins(recs []dailyRecommendation, checkins []dailyCheckin) []recommendationWithCheckin {
	byRec := make(map[int]dailyCheckin, len(checkins))
	for _, ck := range checkins {
		byRec[ck.RecommendationID] = ck
	}
	out := make([]recommendationWithCheckin, 0, len(recs))
	for _, r := range recs {
		item := recommendationWithCheckin{dailyRecommendation: r}
		if ck, ok := byRec[r.ID]; ok {
			item.Checkin = &ck
		}
		out = append(out, item)
	}
	return out
}

// parseDate parses a YYYY-MM-DD string into a UTC date.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, invalidArgument("invalid date format, use YYYY-MM-DD")
	}
	return t, nil
}

// ensureDays makes sure a recommendation exists for each of the n days from
// start. Missing days are generated in date order; every stored or generated
// day becomes anti-repetition context for the next. Returns the dates created.
func (h *Handler) ensureDays(ctx context.Context, userID int, p userProfile, start time.Time, n int) ([]DateOnly, error) {
	start = dateOf(start)
	end := start.AddDate(0, 0, n-1)

	existing, err := h.store.RecommendationsBetween(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}
	byDate := make(map[string]dailyRecommendation, len(existing))
	for _, r := range existing {
		byDate[r.Date.String()] = r
	}

	before, err := h.store.RecommendationsBetween(ctx, userID, start.AddDate(0, 0, -mealRepeatWindow), start.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}
	previous := make([]dayPlan, 0, len(before)+n)
	for _, r := range before {
		previous = append(previous, dayPlanFromRecommendation(r))
	}

	c := h.newCoach()
	created := []DateOnly{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if r, ok := byDate[d.Format(dateLayout)]; ok {
			previous = append(previous, dayPlanFromRecommendation(r))
			continue
		}

		day, err := c.recommendDay(ctx, p, dayOptions{
			UserID:       userID,
			PlanLength:   h.cfg.PlanLengthDays,
			PreviousDays: previous,
		})
		if err != nil {
			return created, fmt.Errorf("generate %s: %w", d.Format(dateLayout), err)
		}

		saved, err := h.store.InsertRecommendation(ctx, recommendationFromPlan(userID, d, day))
		switch {
		case errorKindOf(err) == kindAlreadyExists:
			// A concurrent request created it first.
			if saved, err = h.store.RecommendationByDate(ctx, userID, d); err != nil {
				return created, err
			}
		case err != nil:
			return created, err
		default:
			created = append(created, saved.Date)
		}
		previous = append(previous, dayPlanFromRecommendation(saved))
	}
	return created, nil
}

type programProgress struct {
	DayInProgram  int `json:"day_in_program"`
	DietDuration  int `json:"diet_duration"`
	DaysRemaining int `json:"days_remaining"`
}

type checkinStats struct {
	TotalCompleted int `json:"total_completed"`
	Streak         int `json:"streak"`
	LastWeek       int `json:"last_week"`
}

// computeCheckinStats counts completed check-ins: in total, in the run of
// consecutive days ending yesterday, and in the seven days before today.
func (h *Handler) computeCheckinStats(ctx context.Context, userID int, since, today time.Time) (checkinStats, error) {
	var s checkinStats
	total, err := h.store.CountCompletedCheckins(ctx, userID)
	if err != nil {
		return s, err
	}
	s.TotalCompleted = total

	yesterday := today.AddDate(0, 0, -1)
	if since.After(yesterday) {
		return s, nil
	}
	cks, err := h.store.CheckinsBetween(ctx, userID, since, yesterday)
	if err != nil {
		return s, err
	}
	completedOn := make(map[string]bool, len(cks))
	weekStart := today.AddDate(0, 0, -7)
	for _, ck := range cks {
		if !ck.completed() {
			continue
		}
		completedOn[ck.Date.String()] = true
		if !ck.Date.Before(weekStart) {
			s.LastWeek++
		}
	}
	for d := yesterday; completedOn[d.Format(dateLayout)]; d = d.AddDate(0, 0, -1) {
		s.Streak++
	}
	return s, nil
}

// getToday returns today's plan, generating the coming month when fewer
// than daysAhead plans exist from today on.
// GET /api/recommendations/today.
func (h *Handler) getToday(c *gin.Context) {
	userID := c.GetInt("user_id")
	today := h.today()

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}

	upcoming, err := h.store.RecommendationsBetween(c, userID, today, today.AddDate(0, 0, daysAhead))
	if err != nil {
		h.writeError(c, err, "failed to fetch recommendations")
		return
	}

	isNew := false
	if len(upcoming) < daysAhead {
		created, err := h.ensureDays(c, userID, p, today, daysAhead+1)
		if err != nil {
			h.log.Warnw("[getToday] could not generate upcoming days", "user_id", userID, "error", err)
		}
		for _, d := range created {
			if d.Equal(today) {
				isNew = true
			}
		}
	}

	rec, err := h.store.RecommendationByDate(c, userID, today)
	if err != nil {
		h.writeError(c, err, "failed to fetch today's recommendation")
		return
	}

	alreadyCheckedIn := false
	if _, err := h.store.CheckinForRecommendation(c, userID, rec.ID); err == nil {
		alreadyCheckedIn = true
	} else if errorKindOf(err) != kindNotFound {
		h.writeError(c, err, "failed to fetch check-in")
		return
	}

	stats, err := h.computeCheckinStats(c, userID, dateOf(p.CreatedAt), today)
	if err != nil {
		h.log.Errorw("[getToday] check-in stats failed", "user_id", userID, "error", err)
	}

	dayInProgram := daysBetween(p.CreatedAt, today) + 1
	status := http.StatusOK
	if isNew {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{
		"recommendations":    rec,
		"user_stats":         h.statsFor(p),
		"is_new":             isNew,
		"already_checked_in": alreadyCheckedIn,
		"program_progress": programProgress{
			DayInProgram:  dayInProgram,
			DietDuration:  h.cfg.PlanLengthDays,
			DaysRemaining: max(0, h.cfg.PlanLengthDays-dayInProgram+1),
		},
		"checkin_stats": stats,
	})
}

// regenerate replaces one meal or the activity list of today's plan.
// POST /api/recommendations/regenerate/:target.
func (h *Handler) regenerate(c *gin.Context) {
	userID := c.GetInt("user_id")
	target := c.Param("target")

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	rec, err := h.store.RecommendationByDate(c, userID, h.today())
	if err != nil {
		h.writeError(c, err, "failed to fetch today's recommendation")
		return
	}

	engine := h.newCoach()
	if slot := rec.meal(target); slot != nil {
		share := float64(rec.TargetCalories) * mealShare(target)
		meal, err := engine.meals.regenerateMeal(c, target, share, p.restrictions(), slot.Name)
		if err != nil {
			h.writeError(c, err, "failed to regenerate meal")
			return
		}
		*slot = meal
		rec.recomputeTotal()
	} else if target == "activities" {
		current := make([]string, 0, len(rec.Activities))
		for _, a := range rec.Activities {
			current = append(current, a.Name)
		}
		e := profileEnergy(p, h.cfg.PlanLengthDays)
		burn := caloriesToBurn(e.TDEE, float64(rec.TargetCalories))
		rec.Activities = engine.activities.regenerateActivities(burn, current)
	} else {
		apiError(c, http.StatusBadRequest, "invalid meal_type, use: breakfast, lunch, dinner, or activities")
		return
	}

	updated, err := h.store.UpdateRecommendation(c, rec)
	if err != nil {
		h.writeError(c, err, "failed to save recommendation")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"recommendations": updated,
		"message":         strings.ToUpper(target[:1]) + target[1:] + " regenerated successfully",
	})
}

// getHistory returns the last seven plans up to today with their check-ins.
// GET /api/recommendations/history.
func (h *Handler) getHistory(c *gin.Context) {
	userID := c.GetInt("user_id")

	recs, err := h.store.LatestRecommendations(c, userID, 7)
	if err != nil {
		h.writeError(c, err, "failed to fetch history")
		return
	}
	var cks []dailyCheckin
	if len(recs) > 0 {
		// Newest first, so the range is last..first.
		cks, err = h.store.CheckinsBetween(c, userID, recs[len(recs)-1].Date.Time, recs[0].Date.Time)
		if err != nil {
			h.writeError(c, err, "failed to fetch history")
			return
		}
	}
	history := attachCheckins(recs, cks)
	c.JSON(http.StatusOK, gin.H{"history": history, "total_days": len(history)})
}

// getMonth returns every plan in a calendar month with its check-in.
// GET /api/recommendations/month/:year/:month.
func (h *Handler) getMonth(c *gin.Context) {
	userID := c.GetInt("user_id")

	year, yerr := strconv.Atoi(c.Param("year"))
	month, merr := strconv.Atoi(c.Param("month"))
	if yerr != nil || merr != nil || year < 2020 || year > 2050 || month < 1 || month > 12 {
		apiError(c, http.StatusBadRequest, "invalid year or month")
		return
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)

	recs, err := h.store.RecommendationsBetween(c, userID, start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch recommendations")
		return
	}
	cks, err := h.store.CheckinsBetween(c, userID, start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch check-ins")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "recommendations": attachCheckins(recs, cks)})
}

// getDay returns the plan for one date and its check-in flags.
// GET /api/recommendations/day/:date.
func (h *Handler) getDay(c *gin.Context) {
	userID := c.GetInt("user_id")

	date, err := parseDate(c.Param("date"))
	if err != nil {
		h.writeError(c, err, "invalid date")
		return
	}
	rec, err := h.store.RecommendationByDate(c, userID, date)
	if err != nil {
		h.writeError(c, err, "failed to fetch recommendation")
		return
	}

	flags := gin.H{"food_completed": false, "activity_completed": false}
	ck, err := h.store.CheckinForRecommendation(c, userID, rec.ID)
	switch {
	case err == nil:
		flags = gin.H{"food_completed": ck.FoodCompleted, "activity_completed": ck.ActivityCompleted}
	case errorKindOf(err) != kindNotFound:
		h.writeError(c, err, "failed to fetch check-in")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "recommendation": rec, "checkin": flags})
}

// generateForDate returns the plan for a date, creating it when missing.
// POST /api/recommendations/generate. Body: { "date": "YYYY-MM-DD" }.
func (h *Handler) generateForDate(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Date string `json:"date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Date == "" {
		apiError(c, http.StatusBadRequest, "date is required")
		return
	}
	date, err := parseDate(body.Date)
	if err != nil {
		h.writeError(c, err, "invalid date")
		return
	}

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	created, err := h.ensureDays(c, userID, p, date, 1)
	if err != nil {
		h.writeError(c, err, "failed to generate recommendation")
		return
	}
	rec, err := h.store.RecommendationByDate(c, userID, date)
	if err != nil {
		h.writeError(c, err, "failed to fetch recommendation")
		return
	}

	if len(created) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"status":         "exists",
			"recommendation": rec,
			"message":        "Recommendation for " + body.Date + " already exists",
		})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":         "created",
		"recommendation": rec,
		"message":        "Created new recommendation for " + body.Date,
	})
}

// generateMonthAhead fills tomorrow and the daysAhead days after it.
// POST /api/recommendations/generate-month-ahead.
func (h *Handler) generateMonthAhead(c *gin.Context) {
	userID := c.GetInt("user_id")

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	n := daysAhead + 1
	created, err := h.ensureDays(c, userID, p, h.today().AddDate(0, 0, 1), n)
	if err != nil {
		h.writeError(c, err, "failed to generate recommendations")
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"status":          "success",
		"created":         len(created),
		"already_existed": n - len(created),
		"created_dates":   created,
		"message":         fmt.Sprintf("Successfully generated recommendations for the next %d days", daysAhead),
	})
}

// weekPreviewDay is one unsaved preview day with its calendar date.
type weekPreviewDay struct {
	Date DateOnly `json:"date"`
	dayPlan
}

// getWeekPreview folds a seven-day plan without saving it.
// GET /api/plans/week?start=YYYY-MM-DD (default: this week's Monday).
func (h *Handler) getWeekPreview(c *gin.Context) {
	h.previewPlan(c, mondayOf(h.now()), (*coach).weeklyPlan)
}

// getMonthPreview folds a thirty-day plan without saving it.
// GET /api/plans/month?start=YYYY-MM-DD (default: today).
func (h *Handler) getMonthPreview(c *gin.Context) {
	h.previewPlan(c, h.today(), (*coach).monthlyPlan)
}

type planBuilder func(c *coach, ctx context.Context, p userProfile, userID, planLength int) ([]dayPlan, error)

func (h *Handler) previewPlan(c *gin.Context, start time.Time, build planBuilder) {
	userID := c.GetInt("user_id")

	if s := c.Query("start"); s != "" {
		var err error
		if start, err = parseDate(s); err != nil {
			h.writeError(c, err, "invalid start date")
			return
		}
	}

	p, err := h.store.Profile(c, userID)
	if err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	plan, err := build(h.newCoach(), c, p, userID, h.cfg.PlanLengthDays)
	if err != nil {
		h.writeError(c, err, "failed to build plan")
		return
	}

	days := make([]weekPreviewDay, 0, len(plan))
	for i, d := range plan {
		days = append(days, weekPreviewDay{Date: DateOnly{start.AddDate(0, 0, i)}, dayPlan: d})
	}
	c.JSON(http.StatusOK, gin.H{"start_date": DateOnly{start}, "days": days})
}
