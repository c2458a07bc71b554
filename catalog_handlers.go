package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// listActivities returns the static activity list.
// GET /api/activities.
func (h *Handler) listActivities(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"activities": h.seed.Activities})
}

// listFoods browses the catalog in random order.
// GET /api/foods?meal_type=&limit=.
func (h *Handler) listFoods(c *gin.Context) {
	mealType := c.Query("meal_type")
	if mealType != "" && !validMealTypes[mealType] {
		apiError(c, http.StatusBadRequest, "meal_type must be one of: breakfast, lunch, dinner, snack")
		return
	}
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > catalogQueryLimit {
			apiError(c, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	foods, err := h.catalog.Query(c, catalogQuery{MealType: mealType, Limit: limit, RandomOrder: true})
	if err != nil {
		h.writeError(c, err, "failed to query foods")
		return
	}
	if foods == nil {
		foods = []foodItem{}
	}
	c.JSON(http.StatusOK, gin.H{"foods": foods, "count": len(foods)})
}

// countFoods returns the catalog size, optionally for one meal type.
// GET /api/foods/count?meal_type=.
func (h *Handler) countFoods(c *gin.Context) {
	mealType := c.Query("meal_type")
	n, err := h.catalog.Count(c, mealType)
	if err != nil {
		h.writeError(c, err, "failed to count foods")
		return
	}
	c.JSON(http.StatusOK, gin.H{"meal_type": mealType, "count": n})
}
