package main

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var _ coachStore = (*memStore)(nil)

// testEnv wires a Handler to an in-memory store, the seeded SQLite catalog
// and a controllable clock. Tuesday 2026-03-10 09:00 UTC unless moved.
type testEnv struct {
	h      *Handler
	store  *memStore
	router *gin.Engine
	clock  time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{clock: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	now := func() time.Time { return env.clock }
	env.store = newMemStore(now)

	cat, seed := newTestCatalog(t)
	cache, err := newLRUHistoryStore(16)
	require.NoError(t, err)

	cfg := config{
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		PlanLengthDays: 30,
		CORSOrigins:    []string{"http://localhost:5173"},
		ServiceName:    "diet-coach-test",
	}
	env.h = newHandler(env.store, cat, seed, newHistoryService(cache, env.store), zap.NewNop().Sugar(), cfg)
	env.h.now = now
	var rngSeed int64
	env.h.newRNG = func() *rand.Rand {
		rngSeed++
		return rand.New(rand.NewSource(rngSeed))
	}
	env.router = env.h.newRouter(false)
	return env
}

func (env *testEnv) today() time.Time { return dateOf(env.clock) }

// do sends a request with an optional bearer token and JSON body.
func (env *testEnv) do(method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

// newUser creates an account directly in the store and returns its token.
func (env *testEnv) newUser(t *testing.T, name string) (int, string) {
	t.Helper()
	u, err := env.store.CreateUser(context.Background(), name, name+"@example.com", "unused")
	require.NoError(t, err)
	token, err := env.h.issueToken(u.ID)
	require.NoError(t, err)
	return u.ID, token
}

// userWithProfile is newUser plus the test profile.
func (env *testEnv) userWithProfile(t *testing.T) (int, string) {
	t.Helper()
	id, token := env.newUser(t, "rina")
	p := testProfile()
	p.UserID = id
	_, err := env.store.ReplaceProfile(context.Background(), p)
	require.NoError(t, err)
	return id, token
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type errorBody struct {
	Error string `json:"error"`
}

type todayBody struct {
	Recommendations  dailyRecommendation `json:"recommendations"`
	UserStats        userStats           `json:"user_stats"`
	IsNew            bool                `json:"is_new"`
	AlreadyCheckedIn bool                `json:"already_checked_in"`
	ProgramProgress  programProgress     `json:"program_progress"`
	CheckinStats     checkinStats        `json:"checkin_stats"`
}

/* ─── Auth ───────────────────────────────────────────────────────────── */

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuth_SignupLoginMe(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/api/auth/signup", "", `{"username":"budi","email":" Budi@Example.com ","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decodeBody[user](t, w)
	assert.Equal(t, "budi@example.com", created.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = env.do("POST", "/api/auth/signup", "", `{"username":"budi","email":"budi@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do("POST", "/api/auth/login", "", `{"email":"BUDI@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeBody[struct {
		AccessToken string `json:"access_token"`
		User        user   `json:"user"`
		HasProfile  bool   `json:"has_profile"`
	}](t, w)
	assert.NotEmpty(t, login.AccessToken)
	assert.False(t, login.HasProfile)
	assert.Equal(t, created.ID, login.User.ID)

	w = env.do("GET", "/api/auth/me", login.AccessToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "budi", decodeBody[user](t, w).Username)
}

func TestAuth_SignupValidation(t *testing.T) {
	env := newTestEnv(t)
	cases := []struct {
		name string
		body string
	}{
		{"not json", `{`},
		{"missing username", `{"email":"a@b.c","password":"secret1"}`},
		{"bad email", `{"username":"a","email":"nope","password":"secret1"}`},
		{"short password", `{"username":"a","email":"a@b.c","password":"123"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do("POST", "/api/auth/signup", "", tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestAuth_LoginFailures(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("POST", "/api/auth/signup", "", `{"username":"sari","email":"sari@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	cases := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email":"sari@example.com","password":"wrong!!"}`},
		{"unknown email", `{"email":"nobody@example.com","password":"secret1"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do("POST", "/api/auth/login", "", tc.body)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, "invalid credentials", decodeBody[errorBody](t, w).Error)
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.newUser(t, "tono")

	t.Run("missing header", func(t *testing.T) {
		w := env.do("GET", "/api/auth/me", "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w := env.do("GET", "/api/auth/me", "not-a-jwt", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "invalid token", decodeBody[errorBody](t, w).Error)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := *env.h
		other.cfg.JWTSecret = "another-secret"
		forged, err := other.issueToken(id)
		require.NoError(t, err)
		w := env.do("GET", "/api/auth/me", forged, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w := env.do("GET", "/api/auth/me", token, "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		env.clock = env.clock.Add(2 * time.Hour)
		w := env.do("GET", "/api/auth/me", token, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "token expired", decodeBody[errorBody](t, w).Error)
	})
}

/* ─── Profile ────────────────────────────────────────────────────────── */

func TestProfile_SetupValidation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "dewi")

	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing height", `{"weight":70,"age":30,"gender":"male","activity_level":"moderate"}`, "missing required field: height"},
		{"bad gender", `{"weight":70,"height":170,"age":30,"gender":"x","activity_level":"moderate"}`, "gender must be one of: female, male"},
		{"bad activity level", `{"weight":70,"height":170,"age":30,"gender":"male","activity_level":"lazy"}`, ""},
		{"weight too high", `{"weight":600,"height":170,"age":30,"gender":"male","activity_level":"moderate"}`, ""},
		{"zero age", `{"weight":70,"height":170,"age":0,"gender":"male","activity_level":"moderate"}`, "age must be positive"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do("POST", "/api/profile/setup", token, tc.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			if tc.wantMsg != "" {
				assert.Equal(t, tc.wantMsg, decodeBody[errorBody](t, w).Error)
			}
		})
	}
}

func TestProfile_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "dewi")

	w := env.do("GET", "/api/profile", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do("POST", "/api/profile/setup", token,
		`{"weight":80,"height":180,"age":35,"gender":"Male","activity_level":"sedentary","goal_weight":75,"dietary_restrictions":[" Ayam ",""]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	setup := decodeBody[struct {
		Profile userProfile `json:"profile"`
		Stats   userStats   `json:"stats"`
	}](t, w)
	assert.Equal(t, "male", setup.Profile.Gender)
	assert.Equal(t, []string{"ayam"}, setup.Profile.DietaryRestrictions)
	assert.Equal(t, 1755, setup.Stats.BMR)
	assert.Equal(t, 2106, setup.Stats.TDEE)
	assert.Equal(t, int(maleCalorieFloor), setup.Stats.TargetCalories)

	w = env.do("GET", "/api/profile", token, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do("PATCH", "/api/profile", token, `{"weight":600}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PATCH", "/api/profile", token, `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do("PATCH", "/api/profile", token, `{"weight":78.5,"gender":"MALE"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decodeBody[struct {
		Profile userProfile `json:"profile"`
	}](t, w)
	assert.InDelta(t, 78.5, patched.Profile.WeightKG, 1e-9)
	assert.Equal(t, "male", patched.Profile.Gender)
	assert.NotNil(t, patched.Profile.UpdatedAt)

	w = env.do("DELETE", "/api/profile", token, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = env.do("GET", "/api/profile", token, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

/* ─── Today ──────────────────────────────────────────────────────────── */

func TestToday(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.userWithProfile(t)

	t.Run("requires a profile", func(t *testing.T) {
		_, other := env.newUser(t, "noprofile")
		w := env.do("GET", "/api/recommendations/today", other, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w := env.do("GET", "/api/recommendations/today", token, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decodeBody[todayBody](t, w)
	assert.True(t, first.IsNew)
	assert.False(t, first.AlreadyCheckedIn)
	assert.True(t, first.Recommendations.Date.Equal(env.today()))
	assert.Equal(t, programProgress{DayInProgram: 1, DietDuration: 30, DaysRemaining: 30}, first.ProgramProgress)
	assert.Equal(t, checkinStats{}, first.CheckinStats)
	assert.InDelta(t,
		first.Recommendations.Breakfast.Calories+first.Recommendations.Lunch.Calories+first.Recommendations.Dinner.Calories,
		first.Recommendations.TotalCalories, 1e-6)

	ahead, err := env.store.RecommendationsBetween(context.Background(), id, env.today(), env.today().AddDate(0, 0, daysAhead))
	require.NoError(t, err)
	assert.Len(t, ahead, daysAhead+1)

	w = env.do("GET", "/api/recommendations/today", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	second := decodeBody[todayBody](t, w)
	assert.False(t, second.IsNew)
	assert.Equal(t, first.Recommendations.ID, second.Recommendations.ID)
}

func TestComputeCheckinStats(t *testing.T) {
	env := newTestEnv(t)
	id, _ := env.userWithProfile(t)
	ctx := context.Background()
	today := env.today()

	// Completed on the 5 days before today except 3 days ago.
	for offset := 1; offset <= 5; offset++ {
		d := today.AddDate(0, 0, -offset)
		rec, err := env.store.InsertRecommendation(ctx, dailyRecommendation{UserID: id, Date: DateOnly{d}})
		require.NoError(t, err)
		done := offset != 3
		_, err = env.store.InsertCheckin(ctx, dailyCheckin{
			UserID: id, RecommendationID: rec.ID, Date: DateOnly{d}, FoodCompleted: done, ActivityCompleted: done,
		})
		require.NoError(t, err)
	}

	stats, err := env.h.computeCheckinStats(ctx, id, today.AddDate(0, 0, -10), today)
	require.NoError(t, err)
	assert.Equal(t, checkinStats{TotalCompleted: 4, Streak: 2, LastWeek: 4}, stats)

	t.Run("program starting today", func(t *testing.T) {
		stats, err := env.h.computeCheckinStats(ctx, id, today, today)
		require.NoError(t, err)
		assert.Equal(t, checkinStats{TotalCompleted: 4}, stats)
	})
}

/* ─── Check-in ───────────────────────────────────────────────────────── */

type checkinBody struct {
	Checkin               dailyCheckin    `json:"checkin"`
	RecommendationUpdated bool            `json:"recommendation_updated"`
	NextDay               json.RawMessage `json:"next_day_recommendation"`
	NextDate              DateOnly        `json:"next_date"`
	WillRegenerate        bool            `json:"will_regenerate_tomorrow"`
}

func TestCheckin_Validation(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userWithProfile(t)

	w := env.do("POST", "/api/recommendations/checkin", token, `{"food_completed":true,"activity_completed":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code, "no plan for today yet")

	require.Equal(t, http.StatusCreated, env.do("GET", "/api/recommendations/today", token, "").Code)

	w = env.do("POST", "/api/recommendations/checkin", token, `{"food_completed":true}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "missing food_completed or activity_completed", decodeBody[errorBody](t, w).Error)
}

func TestCheckin_CompletedThenDuplicate(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.userWithProfile(t)
	require.Equal(t, http.StatusCreated, env.do("GET", "/api/recommendations/today", token, "").Code)

	w := env.do("POST", "/api/recommendations/checkin", token, `{"food_completed":true,"activity_completed":true,"notes":"felt good"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody[checkinBody](t, w)
	assert.True(t, body.RecommendationUpdated)
	assert.False(t, body.WillRegenerate)
	assert.True(t, body.NextDate.Equal(env.today().AddDate(0, 0, 1)))
	require.NotNil(t, body.Checkin.Notes)
	assert.Equal(t, "felt good", *body.Checkin.Notes)

	rec, err := env.store.RecommendationByDate(context.Background(), id, env.today())
	require.NoError(t, err)
	assert.True(t, rec.IsCompleted)

	w = env.do("POST", "/api/recommendations/checkin", token, `{"food_completed":false,"activity_completed":false}`)
	require.Equal(t, http.StatusConflict, w.Code)
	dup := decodeBody[struct {
		Checkin dailyCheckin `json:"checkin"`
	}](t, w)
	assert.True(t, dup.Checkin.FoodCompleted, "first check-in is returned unchanged")

	stored, err := env.store.CheckinForRecommendation(context.Background(), id, rec.ID)
	require.NoError(t, err)
	assert.True(t, stored.completed())

	w = env.do("GET", "/api/recommendations/today", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decodeBody[todayBody](t, w).AlreadyCheckedIn)
}

func TestCheckin_MissedDayReplansTomorrow(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.userWithProfile(t)
	require.Equal(t, http.StatusCreated, env.do("GET", "/api/recommendations/today", token, "").Code)

	ctx := context.Background()
	tomorrow := env.today().AddDate(0, 0, 1)
	before, err := env.store.RecommendationByDate(ctx, id, tomorrow)
	require.NoError(t, err)

	w := env.do("POST", "/api/recommendations/checkin", token, `{"food_completed":false,"activity_completed":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decodeBody[checkinBody](t, w)
	assert.False(t, body.RecommendationUpdated)
	assert.True(t, body.WillRegenerate)

	var next dailyRecommendation
	require.NoError(t, json.Unmarshal(body.NextDay, &next))
	assert.True(t, next.Date.Equal(tomorrow))

	// One day in the window, none successful, 30 days left in the program.
	p := testProfile()
	stats := profileEnergy(p, 30)
	want := adjustForMissedDays(stats.TargetCalories, p.WeightKG, p.goalWeight(), 1, 0, 30, stats.TDEE, p.Gender)

	after, err := env.store.RecommendationByDate(ctx, id, tomorrow)
	require.NoError(t, err)
	assert.Equal(t, before.ID, after.ID, "tomorrow is replaced in place")
	assert.Equal(t, int(want), after.TargetCalories)
	assert.NotEqual(t, before.TargetCalories, after.TargetCalories)
}

/* ─── Regenerate ─────────────────────────────────────────────────────── */

func TestRegenerate(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.userWithProfile(t)
	w := env.do("GET", "/api/recommendations/today", token, "")
	require.Equal(t, http.StatusCreated, w.Code)
	original := decodeBody[todayBody](t, w).Recommendations

	t.Run("invalid target", func(t *testing.T) {
		w := env.do("POST", "/api/recommendations/regenerate/snack", token, "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid meal_type, use: breakfast, lunch, dinner, or activities", decodeBody[errorBody](t, w).Error)
	})

	t.Run("lunch", func(t *testing.T) {
		w := env.do("POST", "/api/recommendations/regenerate/lunch", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody[struct {
			Recommendations dailyRecommendation `json:"recommendations"`
			Message         string              `json:"message"`
		}](t, w)
		got := body.Recommendations
		assert.Equal(t, "Lunch regenerated successfully", body.Message)
		assert.NotEqual(t, original.Lunch.Name, got.Lunch.Name)
		assert.Equal(t, original.Breakfast.Name, got.Breakfast.Name)
		assert.Equal(t, original.Dinner.Name, got.Dinner.Name)
		assert.InDelta(t, got.Breakfast.Calories+got.Lunch.Calories+got.Dinner.Calories, got.TotalCalories, 1e-6)
	})

	t.Run("activities", func(t *testing.T) {
		w := env.do("POST", "/api/recommendations/regenerate/activities", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		got := decodeBody[struct {
			Recommendations dailyRecommendation `json:"recommendations"`
		}](t, w).Recommendations
		for _, a := range got.Activities {
			for _, prev := range original.Activities {
				assert.NotEqual(t, prev.Name, a.Name)
			}
		}
	})

	t.Run("no plan today", func(t *testing.T) {
		env.clock = env.clock.AddDate(0, 2, 0)
		defer func() { env.clock = env.clock.AddDate(0, -2, 0) }()
		fresh, err := env.h.issueToken(id)
		require.NoError(t, err)
		w := env.do("POST", "/api/recommendations/regenerate/lunch", fresh, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

/* ─── Browsing plans ─────────────────────────────────────────────────── */

func TestRecommendationQueries(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userWithProfile(t)
	require.Equal(t, http.StatusCreated, env.do("GET", "/api/recommendations/today", token, "").Code)

	t.Run("history stops at today", func(t *testing.T) {
		w := env.do("GET", "/api/recommendations/history", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			History   []recommendationWithCheckin `json:"history"`
			TotalDays int                         `json:"total_days"`
		}](t, w)
		assert.Equal(t, 1, body.TotalDays)
		assert.Nil(t, body.History[0].Checkin)
	})

	t.Run("month", func(t *testing.T) {
		w := env.do("GET", "/api/recommendations/month/2026/3", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			Recommendations []recommendationWithCheckin `json:"recommendations"`
		}](t, w)
		assert.Len(t, body.Recommendations, 22, "March 10 through 31")

		for _, path := range []string{"/api/recommendations/month/2019/3", "/api/recommendations/month/2026/13", "/api/recommendations/month/x/1"} {
			assert.Equal(t, http.StatusBadRequest, env.do("GET", path, token, "").Code, path)
		}
	})

	t.Run("day", func(t *testing.T) {
		w := env.do("GET", "/api/recommendations/day/2026-03-12", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			Checkin map[string]bool `json:"checkin"`
		}](t, w)
		assert.Equal(t, map[string]bool{"food_completed": false, "activity_completed": false}, body.Checkin)

		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/recommendations/day/2026-13-01", token, "").Code)
		assert.Equal(t, http.StatusNotFound, env.do("GET", "/api/recommendations/day/2027-01-01", token, "").Code)
	})

	t.Run("generate for a date", func(t *testing.T) {
		w := env.do("POST", "/api/recommendations/generate", token, `{"date":"2026-03-10"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "exists", decodeBody[map[string]any](t, w)["status"])

		w = env.do("POST", "/api/recommendations/generate", token, `{"date":"2026-06-01"}`)
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, "created", decodeBody[map[string]any](t, w)["status"])

		assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/recommendations/generate", token, `{}`).Code)
		assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/recommendations/generate", token, `{"date":"03/10/2026"}`).Code)
	})

	t.Run("generate month ahead", func(t *testing.T) {
		w := env.do("POST", "/api/recommendations/generate-month-ahead", token, "")
		require.Equal(t, http.StatusCreated, w.Code)
		body := decodeBody[struct {
			Created        int        `json:"created"`
			AlreadyExisted int        `json:"already_existed"`
			CreatedDates   []DateOnly `json:"created_dates"`
		}](t, w)
		// Today's call already covered March 11 through April 9.
		assert.Equal(t, 1, body.Created)
		assert.Equal(t, daysAhead, body.AlreadyExisted)
		require.Len(t, body.CreatedDates, 1)
		assert.Equal(t, "2026-04-10", body.CreatedDates[0].String())
	})

	t.Run("week preview", func(t *testing.T) {
		w := env.do("GET", "/api/plans/week", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			StartDate DateOnly `json:"start_date"`
			Days      []struct {
				Date DateOnly `json:"date"`
				Day  int      `json:"day"`
			} `json:"days"`
		}](t, w)
		assert.Equal(t, "2026-03-09", body.StartDate.String())
		require.Len(t, body.Days, 7)
		assert.Equal(t, "2026-03-15", body.Days[6].Date.String())
		assert.Equal(t, 7, body.Days[6].Day)

		w = env.do("GET", "/api/plans/week?start=2026-04-01", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2026-04-01", decodeBody[struct {
			StartDate DateOnly `json:"start_date"`
		}](t, w).StartDate.String())
	})

	t.Run("month preview", func(t *testing.T) {
		w := env.do("GET", "/api/plans/month", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			StartDate DateOnly `json:"start_date"`
			Days      []struct {
				Date DateOnly `json:"date"`
			} `json:"days"`
		}](t, w)
		assert.Equal(t, "2026-03-10", body.StartDate.String())
		require.Len(t, body.Days, 30)
		assert.Equal(t, "2026-04-08", body.Days[29].Date.String())

		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/plans/month?start=soon", token, "").Code)
	})
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

func TestWeightLog(t *testing.T) {
	env := newTestEnv(t)
	id, token := env.userWithProfile(t)

	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/progress/weight", token, `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do("POST", "/api/progress/weight", token, `{"weight":-2}`).Code)

	w := env.do("POST", "/api/progress/weight", token, `{"weight":64.2}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decodeBody[struct {
		Entry weightEntry `json:"entry"`
	}](t, w).Entry
	assert.Equal(t, "2026-03-10", entry.Date.String())

	p, err := env.store.Profile(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 64.2, p.WeightKG, 1e-9)

	w = env.do("POST", "/api/progress/weight", token, `{"weight":64.0,"date":"2026-03-10"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("list", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/weight-log", token, "").Code)
		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/weight-log?start=2026-03-31&end=2026-03-01", token, "").Code)

		w := env.do("GET", "/api/weight-log?start=2026-03-01&end=2026-03-31", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		entries := decodeBody[[]weightEntry](t, w)
		require.Len(t, entries, 1, "same date updates in place")
		assert.InDelta(t, 64.0, entries[0].WeightKG, 1e-9)

		w = env.do("GET", "/api/weight-log?start=2025-01-01&end=2025-01-31", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})

	path := "/api/weight-log/" + strconv.Itoa(entry.ID)

	t.Run("update", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do("PUT", path, token, `{"weight_kg":700}`).Code)
		assert.Equal(t, http.StatusBadRequest, env.do("PUT", "/api/weight-log/abc", token, `{"weight_kg":63}`).Code)
		assert.Equal(t, http.StatusNotFound, env.do("PUT", "/api/weight-log/9999", token, `{"weight_kg":63}`).Code)

		w := env.do("PUT", path, token, `{"weight_kg":63.5}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.InDelta(t, 63.5, decodeBody[weightEntry](t, w).WeightKG, 1e-9)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, env.do("DELETE", path, token, "").Code)
		assert.Equal(t, http.StatusNotFound, env.do("DELETE", path, token, "").Code)
	})
}

/* ─── Catalog ────────────────────────────────────────────────────────── */

func TestCatalogEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.newUser(t, "ani")

	w := env.do("GET", "/api/activities", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	acts := decodeBody[struct {
		Activities []activityDefinition `json:"activities"`
	}](t, w).Activities
	assert.Len(t, acts, len(env.h.seed.Activities))

	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/foods?meal_type=brunch", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/foods?limit=0", token, "").Code)
	assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/foods?limit=101", token, "").Code)

	w = env.do("GET", "/api/foods?meal_type=snack&limit=5", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	foods := decodeBody[struct {
		Foods []foodItem `json:"foods"`
		Count int        `json:"count"`
	}](t, w)
	assert.Equal(t, 5, foods.Count)
	for _, f := range foods.Foods {
		assert.Contains(t, f.MealTypes, "snack")
	}

	w = env.do("GET", "/api/foods/count?meal_type=breakfast", token, "")
	require.Equal(t, http.StatusOK, w.Code)
	want, err := env.h.catalog.Count(context.Background(), "breakfast")
	require.NoError(t, err)
	assert.Equal(t, want, decodeBody[struct {
		Count int `json:"count"`
	}](t, w).Count)
}

/* ─── Progress ───────────────────────────────────────────────────────── */

func TestProgressEndpoints(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.userWithProfile(t)

	t.Run("calorie adjustment needs history", func(t *testing.T) {
		w := env.do("GET", "/api/progress/calorie-adjustment", token, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "no recommendation history found", decodeBody[errorBody](t, w).Error)
	})

	t.Run("adherence without check-ins", func(t *testing.T) {
		w := env.do("GET", "/api/progress/adherence?days=14", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			Period   analysisPeriod  `json:"period"`
			Analysis adherenceReport `json:"analysis"`
		}](t, w)
		assert.Equal(t, "no_data", body.Analysis.Status)
		assert.Equal(t, 14, body.Period.Days)
		assert.Equal(t, "2026-02-24", body.Period.StartDate.String())

		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/progress/adherence?days=abc", token, "").Code)
		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/progress/adherence?days=0", token, "").Code)
	})

	require.Equal(t, http.StatusCreated, env.do("GET", "/api/recommendations/today", token, "").Code)
	require.Equal(t, http.StatusCreated,
		env.do("POST", "/api/recommendations/checkin", token, `{"food_completed":true,"activity_completed":true}`).Code)

	t.Run("calorie adjustment", func(t *testing.T) {
		w := env.do("GET", "/api/progress/calorie-adjustment", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody[struct {
			CurrentWeight    float64           `json:"current_weight"`
			GoalWeight       float64           `json:"goal_weight"`
			AdherencePercent float64           `json:"adherence_percent"`
			Adjustment       calorieAdjustment `json:"adjustment"`
		}](t, w)
		assert.InDelta(t, 65.0, body.CurrentWeight, 1e-9)
		assert.InDelta(t, 60.0, body.GoalWeight, 1e-9)
		assert.InDelta(t, 100.0, body.AdherencePercent, 1e-9)
		assert.NotEmpty(t, body.Adjustment.Message)
	})

	t.Run("nutritional balance", func(t *testing.T) {
		w := env.do("GET", "/api/progress/nutritional-balance", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			Analysis nutritionReport `json:"analysis"`
		}](t, w)
		assert.Equal(t, "analyzed", body.Analysis.Status)
	})

	t.Run("analysis", func(t *testing.T) {
		w := env.do("GET", "/api/progress/analysis?start_date=2026-03-01&end_date=2026-03-31", token, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		body := decodeBody[struct {
			Analysis struct {
				DaysElapsed int             `json:"days_elapsed"`
				TotalDays   int             `json:"total_days"`
				Adherence   adherenceReport `json:"adherence"`
			} `json:"analysis"`
		}](t, w)
		assert.Equal(t, 9, body.Analysis.DaysElapsed)
		assert.Equal(t, 30, body.Analysis.TotalDays)
		assert.Equal(t, 1, body.Analysis.Adherence.CompletedDays)

		assert.Equal(t, http.StatusBadRequest, env.do("GET", "/api/progress/analysis?start_date=bad", token, "").Code)
	})

	t.Run("user stats", func(t *testing.T) {
		w := env.do("GET", "/api/user/stats", token, "")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody[struct {
			Stats map[string]map[string]any `json:"stats"`
		}](t, w)
		assert.EqualValues(t, 1, body.Stats["progress"]["days_completed"])
		assert.EqualValues(t, 0, body.Stats["progress"]["days_elapsed"])
		assert.EqualValues(t, 30, body.Stats["progress"]["days_remaining"])
		assert.EqualValues(t, 65, body.Stats["weight"]["current"])
	})
}
