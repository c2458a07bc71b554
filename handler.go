package main

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

// Handler holds shared dependencies (store, catalog, caches, config) for all
// route handlers. Per-request state lives in a coach built by newCoach.
type Handler struct {
	store   coachStore
	catalog foodCatalog
	seed    *seedData
	history *historyService
	log     *zap.SugaredLogger
	cfg     config

	// Overridable for tests.
	newRNG func() *rand.Rand
	now    func() time.Time
}

func newHandler(store coachStore, catalog foodCatalog, seed *seedData, history *historyService, log *zap.SugaredLogger, cfg config) *Handler {
	if cfg.PlanLengthDays <= 0 {
		cfg.PlanLengthDays = defaultPlanLength
	}
	return &Handler{
		store:   store,
		catalog: catalog,
		seed:    seed,
		history: history,
		log:     log,
		cfg:     cfg,
		newRNG:  func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) },
		now:     time.Now,
	}
}

// newCoach returns a fresh recommendation engine for one request.
func (h *Handler) newCoach() *coach {
	return newCoach(h.catalog, h.seed, h.history, h.newRNG())
}

// today is the current calendar day in UTC.
func (h *Handler) today() time.Time { return dateOf(h.now()) }

// apiError returns a consistent JSON error response: {"error": "message"}.
func apiError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

/* ─── Server setup ────────────────────────────────────────────────────── */

// newRouter builds the engine with logging, CORS and (optionally) tracing.
func (h *Handler) newRouter(tracing bool) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(h.log))
	router.SetTrustedProxies(nil)
	router.Use(cors.New(cors.Config{
		AllowOrigins:     h.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if tracing {
		router.Use(otelgin.Middleware(h.cfg.ServiceName))
	}
	h.registerRoutes(router)
	return router
}

// registerRoutes registers all API routes on the router.
func (h *Handler) registerRoutes(router *gin.Engine) {
	// Public routes
	router.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	router.POST("/api/auth/signup", h.signup)
	router.POST("/api/auth/login", h.login)

	// Authenticated routes
	api := router.Group("/api", h.authMiddleware())
	api.GET("/auth/me", h.me)

	api.POST("/profile/setup", h.setupProfile)
	api.GET("/profile", h.getProfile)
	api.PATCH("/profile", h.patchProfile)
	api.DELETE("/profile", h.deleteProfile)

	api.GET("/recommendations/today", h.getToday)
	api.POST("/recommendations/regenerate/:target", h.regenerate)
	api.POST("/recommendations/checkin", h.checkin)
	api.GET("/recommendations/history", h.getHistory)
	api.GET("/recommendations/month/:year/:month", h.getMonth)
	api.GET("/recommendations/day/:date", h.getDay)
	api.POST("/recommendations/generate", h.generateForDate)
	api.POST("/recommendations/generate-month-ahead", h.generateMonthAhead)
	api.GET("/plans/week", h.getWeekPreview)
	api.GET("/plans/month", h.getMonthPreview)

	api.GET("/progress/analysis", h.getAnalysis)
	api.GET("/progress/nutritional-balance", h.getNutritionalBalance)
	api.GET("/progress/adherence", h.getAdherence)
	api.GET("/progress/calorie-adjustment", h.getCalorieAdjustment)
	api.POST("/progress/weight", h.logWeight)

	api.GET("/weight-log", h.getWeightLog)
	api.PUT("/weight-log/:id", h.updateWeightEntry)
	api.DELETE("/weight-log/:id", h.deleteWeightEntry)

	api.GET("/activities", h.listActivities)
	api.GET("/foods", h.listFoods)
	api.GET("/foods/count", h.countFoods)
	api.GET("/user/stats", h.getUserStats)
}
