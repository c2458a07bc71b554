package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

func validWeight(kg float64) bool { return kg > 0 && kg <= maxWeightKG }

// getWeightLog returns weight entries for the authenticated user within [start, end].
// GET /api/weight-log?start=YYYY-MM-DD&end=YYYY-MM-DD. Both params required.
// Returns an empty array (not null) if no entries exist in the range.
func (h *Handler) getWeightLog(c *gin.Context) {
	userID := c.GetInt("user_id")

	if c.Query("start") == "" || c.Query("end") == "" {
		apiError(c, http.StatusBadRequest, "start and end query params are required")
		return
	}
	start, err := time.Parse(dateLayout, c.Query("start"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid start, expected YYYY-MM-DD")
		return
	}
	end, err := time.Parse(dateLayout, c.Query("end"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid end, expected YYYY-MM-DD")
		return
	}
	if start.After(end) {
		apiError(c, http.StatusBadRequest, "start must not be after end")
		return
	}

	entries, err := h.store.WeightsBetween(c, userID, start, end)
	if err != nil {
		h.writeError(c, err, "failed to fetch weight log")
		return
	}
	if entries == nil {
		entries = []weightEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

// logWeight records a measurement and makes it the profile's current weight.
// POST /api/progress/weight. Body: { "weight": 72.5, "date"?: "YYYY-MM-DD" }.
// The UNIQUE(user_id, date) constraint means posting the same date updates in place.
func (h *Handler) logWeight(c *gin.Context) {
	userID := c.GetInt("user_id")

	var body struct {
		Weight *float64 `json:"weight"`
		Date   *string  `json:"date"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if body.Weight == nil {
		apiError(c, http.StatusBadRequest, "weight is required")
		return
	}
	if !validWeight(*body.Weight) {
		apiError(c, http.StatusBadRequest, "invalid weight value")
		return
	}
	date := h.today()
	if body.Date != nil {
		var err error
		if date, err = parseDate(*body.Date); err != nil {
			h.writeError(c, err, "invalid date")
			return
		}
	}

	if _, err := h.store.Profile(c, userID); err != nil {
		h.writeError(c, err, "failed to fetch profile")
		return
	}
	entry, err := h.store.UpsertWeight(c, userID, date, *body.Weight)
	if err != nil {
		h.writeError(c, err, "failed to record weight")
		return
	}
	if err := h.store.SetProfileWeight(c, userID, *body.Weight); err != nil {
		h.writeError(c, err, "failed to update profile weight")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":  "success",
		"message": "Weight recorded: " + strconv.FormatFloat(*body.Weight, 'f', -1, 64) + " kg on " + entry.Date.String(),
		"entry":   entry,
	})
}

// updateWeightEntry partially updates an existing weight entry.
// PUT /api/weight-log/:id. Body: { "date"?, "weight_kg"? }.
func (h *Handler) updateWeightEntry(c *gin.Context) {
	userID := c.GetInt("user_id")
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}

	var body struct {
		Date     *string  `json:"date"`
		WeightKG *float64 `json:"weight_kg"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		apiError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	var date *time.Time
	if body.Date != nil {
		d, err := time.Parse(dateLayout, *body.Date)
		if err != nil {
			apiError(c, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
			return
		}
		date = &d
	}
	if body.WeightKG != nil && !validWeight(*body.WeightKG) {
		apiError(c, http.StatusBadRequest, "weight_kg must be between 0 and 500")
		return
	}

	entry, err := h.store.UpdateWeight(c, userID, id, date, body.WeightKG)
	if err != nil {
		h.writeError(c, err, "failed to update weight entry")
		return
	}
	c.JSON(http.StatusOK, entry)
}

// deleteWeightEntry removes a weight log entry by ID.
// DELETE /api/weight-log/:id. Returns 204 on success, 404 if not found.
func (h *Handler) deleteWeightEntry(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		apiError(c, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.store.DeleteWeight(c, c.GetInt("user_id"), id); err != nil {
		h.writeError(c, err, "failed to delete weight entry")
		return
	}
	c.Status(http.StatusNoContent)
}
