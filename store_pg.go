package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// pgStore implements coachStore on PostgreSQL.
type pgStore struct {
	db  *pgxpool.Pool
	log *zap.SugaredLogger
}

// newPGStore creates a connection pool. A pool (not a single conn) survives
// providers that close idle connections after a few minutes.
func newPGStore(ctx context.Context, dbURL string, log *zap.SugaredLogger) (*pgStore, error) {
	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("parse DB URL: %w", err)
	}
	// Simple protocol avoids "cached plan must not change result type" errors
	// from server-side prepared statement caches after schema changes.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Infow("DB pool ready")
	return &pgStore{db: pool, log: log}, nil
}

func (s *pgStore) Close() { s.db.Close() }

/* ─── Query helpers ──────────────────────────────────────────────────── */

// queryOne runs a query and scans the first row into T using RowToStructByName.
// Logs query and scan errors (e.g. struct/column mismatches); a missing row is
// returned as pgx.ErrNoRows without logging.
func queryOne[T any](ctx context.Context, s *pgStore, sql string, args pgx.NamedArgs) (T, error) {
	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		s.log.Errorw("[queryOne] query failed", "error", err)
		var zero T
		return zero, err
	}
	result, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		s.log.Errorw("[queryOne] scan failed", "error", err)
	}
	return result, err
}

// queryMany runs a query and scans all rows into []T. Never returns a nil
// slice on success.
func queryMany[T any](ctx context.Context, s *pgStore, sql string, args pgx.NamedArgs) ([]T, error) {
	rows, err := s.db.Query(ctx, sql, args)
	if err != nil {
		s.log.Errorw("[queryMany] query failed", "error", err)
		return nil, err
	}
	results, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		s.log.Errorw("[queryMany] scan failed", "error", err)
		return nil, err
	}
	if results == nil {
		results = []T{}
	}
	return results, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// notFoundOr maps pgx.ErrNoRows to a kindNotFound error and wraps anything else.
func notFoundOr(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("%s not found", what)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func isoDate(t time.Time) string { return t.Format(dateLayout) }

/* ─── Users ──────────────────────────────────────────────────────────── */

const userColumns = `id, username, email, password, created_at`

func (s *pgStore) CreateUser(ctx context.Context, username, email, passwordHash string) (user, error) {
	u, err := queryOne[user](ctx, s,
		`INSERT INTO users (username, email, password)
		 VALUES (@username, @email, @password)
		 RETURNING `+userColumns,
		pgx.NamedArgs{"username": username, "email": email, "password": passwordHash})
	if isUniqueViolation(err) {
		return user{}, alreadyExists("email already registered")
	}
	if err != nil {
		return user{}, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func (s *pgStore) UserByEmail(ctx context.Context, email string) (user, error) {
	u, err := queryOne[user](ctx, s,
		"SELECT "+userColumns+" FROM users WHERE LOWER(email) = LOWER(@email)",
		pgx.NamedArgs{"email": email})
	if err != nil {
		return user{}, notFoundOr(err, "user")
	}
	return u, nil
}

func (s *pgStore) UserByID(ctx context.Context, id int) (user, error) {
	u, err := queryOne[user](ctx, s,
		"SELECT "+userColumns+" FROM users WHERE id = @id",
		pgx.NamedArgs{"id": id})
	if err != nil {
		return user{}, notFoundOr(err, "user")
	}
	return u, nil
}

/* ─── Profiles ───────────────────────────────────────────────────────── */

const profileColumns = `user_id, weight_kg::float8 AS weight_kg, height_cm::float8 AS height_cm, age, gender,
	activity_level::text AS activity_level, goal_weight_kg::float8 AS goal_weight_kg, dietary_restrictions,
	created_at, updated_at`

func (s *pgStore) Profile(ctx context.Context, userID int) (userProfile, error) {
	p, err := queryOne[userProfile](ctx, s,
		"SELECT "+profileColumns+" FROM user_profiles WHERE user_id = @userID",
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return userProfile{}, notFoundOr(err, "profile")
	}
	return p, nil
}

// ReplaceProfile writes p as the user's profile. Replacing restarts the
// program, so created_at is reset.
func (s *pgStore) ReplaceProfile(ctx context.Context, p userProfile) (userProfile, error) {
	restrictions := p.DietaryRestrictions
	if restrictions == nil {
		restrictions = []string{}
	}
	out, err := queryOne[userProfile](ctx, s,
		`INSERT INTO user_profiles (user_id, weight_kg, height_cm, age, gender, activity_level, goal_weight_kg, dietary_restrictions)
		 VALUES (@userID, @weight, @height, @age, @gender, @activityLevel, @goalWeight, @restrictions)
		 ON CONFLICT (user_id) DO UPDATE SET
			weight_kg            = EXCLUDED.weight_kg,
			height_cm            = EXCLUDED.height_cm,
			age                  = EXCLUDED.age,
			gender               = EXCLUDED.gender,
			activity_level       = EXCLUDED.activity_level,
			goal_weight_kg       = EXCLUDED.goal_weight_kg,
			dietary_restrictions = EXCLUDED.dietary_restrictions,
			created_at           = NOW(),
			updated_at           = NULL
		 RETURNING `+profileColumns,
		pgx.NamedArgs{
			"userID":        p.UserID,
			"weight":        p.WeightKG,
			"height":        p.HeightCM,
			"age":           p.Age,
			"gender":        p.Gender,
			"activityLevel": p.ActivityLevel,
			"goalWeight":    p.GoalWeightKG,
			"restrictions":  restrictions,
		})
	if err != nil {
		return userProfile{}, fmt.Errorf("replace profile: %w", err)
	}
	return out, nil
}

// UpdateProfile writes only the non-nil fields of patch.
func (s *pgStore) UpdateProfile(ctx context.Context, userID int, patch patchProfileRequest) (userProfile, error) {
	setClauses := []string{}
	args := pgx.NamedArgs{"userID": userID}

	if patch.Weight != nil {
		setClauses = append(setClauses, "weight_kg = @weight")
		args["weight"] = *patch.Weight
	}
	if patch.Height != nil {
		setClauses = append(setClauses, "height_cm = @height")
		args["height"] = *patch.Height
	}
	if patch.Age != nil {
		setClauses = append(setClauses, "age = @age")
		args["age"] = *patch.Age
	}
	if patch.Gender != nil {
		setClauses = append(setClauses, "gender = @gender")
		args["gender"] = *patch.Gender
	}
	if patch.ActivityLevel != nil {
		setClauses = append(setClauses, "activity_level = @activityLevel")
		args["activityLevel"] = *patch.ActivityLevel
	}
	if patch.GoalWeight != nil {
		setClauses = append(setClauses, "goal_weight_kg = @goalWeight")
		args["goalWeight"] = *patch.GoalWeight
	}
	if patch.DietaryRestrictions != nil {
		setClauses = append(setClauses, "dietary_restrictions = @restrictions")
		args["restrictions"] = normalizeTokens(*patch.DietaryRestrictions)
	}

	if len(setClauses) == 0 {
		return userProfile{}, invalidArgument("no fields to update")
	}
	setClauses = append(setClauses, "updated_at = NOW()")

	query := "UPDATE user_profiles SET " +
		strings.Join(setClauses, ", ") +
		" WHERE user_id = @userID RETURNING " + profileColumns

	p, err := queryOne[userProfile](ctx, s, query, args)
	if err != nil {
		return userProfile{}, notFoundOr(err, "profile")
	}
	return p, nil
}

func (s *pgStore) SetProfileWeight(ctx context.Context, userID int, weightKG float64) error {
	_, err := s.db.Exec(ctx,
		"UPDATE user_profiles SET weight_kg = @weight, updated_at = NOW() WHERE user_id = @userID",
		pgx.NamedArgs{"weight": weightKG, "userID": userID})
	if err != nil {
		return fmt.Errorf("set profile weight: %w", err)
	}
	return nil
}

// ResetProfile removes the profile and everything generated from it.
func (s *pgStore) ResetProfile(ctx context.Context, userID int) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback(ctx)

	args := pgx.NamedArgs{"userID": userID}
	for _, table := range []string{"daily_checkins", "daily_recommendations", "weight_log", "user_profiles"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table+" WHERE user_id = @userID", args); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return tx.Commit(ctx)
}

/* ─── Recommendations ────────────────────────────────────────────────── */

// recommendationRow is the raw table shape; meal columns are decoded
// separately so one malformed row cannot fail a whole listing.
type recommendationRow struct {
	ID             int        `db:"id"`
	UserID         int        `db:"user_id"`
	Date           DateOnly   `db:"date"`
	Breakfast      string     `db:"breakfast"`
	Lunch          string     `db:"lunch"`
	Dinner         string     `db:"dinner"`
	Activities     string     `db:"activities"`
	TotalCalories  float64    `db:"total_calories"`
	TargetCalories int        `db:"target_calories"`
	IsCompleted    bool       `db:"is_completed"`
	CreatedAt      *time.Time `db:"created_at"`
}

const recommendationColumns = `r.id, r.user_id, r.date, r.breakfast::text AS breakfast, r.lunch::text AS lunch,
	r.dinner::text AS dinner, r.activities::text AS activities, r.total_calories::float8 AS total_calories,
	r.target_calories, r.is_completed, r.created_at`

func (row recommendationRow) decode() (dailyRecommendation, error) {
	rec := dailyRecommendation{
		ID:             row.ID,
		UserID:         row.UserID,
		Date:           row.Date,
		TotalCalories:  row.TotalCalories,
		TargetCalories: row.TargetCalories,
		IsCompleted:    row.IsCompleted,
		CreatedAt:      row.CreatedAt,
	}
	for _, f := range []struct {
		raw string
		dst any
	}{
		{row.Breakfast, &rec.Breakfast},
		{row.Lunch, &rec.Lunch},
		{row.Dinner, &rec.Dinner},
		{row.Activities, &rec.Activities},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dst); err != nil {
			return dailyRecommendation{}, fmt.Errorf("decode recommendation %d: %w", row.ID, err)
		}
	}
	if rec.Activities == nil {
		rec.Activities = []activityRecommendation{}
	}
	return rec, nil
}

// encodeRecommendation returns the named args for the JSON meal columns.
// JSON is passed as text: under the simple protocol []byte would be sent as bytea.
func encodeRecommendation(rec dailyRecommendation) (pgx.NamedArgs, error) {
	args := pgx.NamedArgs{
		"userID": rec.UserID,
		"date":   rec.Date.String(),
		"total":  rec.TotalCalories,
		"target": rec.TargetCalories,
	}
	activities := rec.Activities
	if activities == nil {
		activities = []activityRecommendation{}
	}
	for name, v := range map[string]any{
		"breakfast":  rec.Breakfast,
		"lunch":      rec.Lunch,
		"dinner":     rec.Dinner,
		"activities": activities,
	} {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", name, err)
		}
		args[name] = string(raw)
	}
	return args, nil
}

func (s *pgStore) oneRecommendation(ctx context.Context, sql string, args pgx.NamedArgs, what string) (dailyRecommendation, error) {
	row, err := queryOne[recommendationRow](ctx, s, sql, args)
	if err != nil {
		return dailyRecommendation{}, notFoundOr(err, what)
	}
	return row.decode()
}

// manyRecommendations decodes rows, skipping (and logging) malformed ones.
func (s *pgStore) manyRecommendations(ctx context.Context, sql string, args pgx.NamedArgs) ([]dailyRecommendation, error) {
	rows, err := queryMany[recommendationRow](ctx, s, sql, args)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	recs := make([]dailyRecommendation, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			s.log.Warnw("[manyRecommendations] skipping malformed recommendation", "id", row.ID, "error", err)
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (s *pgStore) RecommendationByDate(ctx context.Context, userID int, date time.Time) (dailyRecommendation, error) {
	return s.oneRecommendation(ctx,
		"SELECT "+recommendationColumns+" FROM daily_recommendations r WHERE r.user_id = @userID AND r.date = @date",
		pgx.NamedArgs{"userID": userID, "date": isoDate(date)}, "recommendation")
}

func (s *pgStore) RecommendationsBetween(ctx context.Context, userID int, start, end time.Time) ([]dailyRecommendation, error) {
	return s.manyRecommendations(ctx,
		`SELECT `+recommendationColumns+` FROM daily_recommendations r
		 WHERE r.user_id = @userID AND r.date >= @start AND r.date <= @end
		 ORDER BY r.date ASC`,
		pgx.NamedArgs{"userID": userID, "start": isoDate(start), "end": isoDate(end)})
}

// LatestRecommendations returns the most recent recommendations, newest first.
func (s *pgStore) LatestRecommendations(ctx context.Context, userID, limit int) ([]dailyRecommendation, error) {
	return s.manyRecommendations(ctx,
		`SELECT `+recommendationColumns+` FROM daily_recommendations r
		 WHERE r.user_id = @userID AND r.date <= CURRENT_DATE
		 ORDER BY r.date DESC LIMIT @limit`,
		pgx.NamedArgs{"userID": userID, "limit": limit})
}

func (s *pgStore) InsertRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error) {
	args, err := encodeRecommendation(rec)
	if err != nil {
		return dailyRecommendation{}, err
	}
	row, err := queryOne[recommendationRow](ctx, s,
		`INSERT INTO daily_recommendations AS r (user_id, date, breakfast, lunch, dinner, activities, total_calories, target_calories)
		 VALUES (@userID, @date, @breakfast, @lunch, @dinner, @activities, @total, @target)
		 RETURNING `+recommendationColumns, args)
	if isUniqueViolation(err) {
		return dailyRecommendation{}, alreadyExists("recommendation for %s already exists", rec.Date)
	}
	if err != nil {
		return dailyRecommendation{}, fmt.Errorf("insert recommendation: %w", err)
	}
	return row.decode()
}

// UpsertRecommendation replaces the plan for (user, date), keeping its id
// and completion flag when it already exists.
func (s *pgStore) UpsertRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error) {
	args, err := encodeRecommendation(rec)
	if err != nil {
		return dailyRecommendation{}, err
	}
	row, err := queryOne[recommendationRow](ctx, s,
		`INSERT INTO daily_recommendations AS r (user_id, date, breakfast, lunch, dinner, activities, total_calories, target_calories)
		 VALUES (@userID, @date, @breakfast, @lunch, @dinner, @activities, @total, @target)
		 ON CONFLICT (user_id, date) DO UPDATE SET
			breakfast       = EXCLUDED.breakfast,
			lunch           = EXCLUDED.lunch,
			dinner          = EXCLUDED.dinner,
			activities      = EXCLUDED.activities,
			total_calories  = EXCLUDED.total_calories,
			target_calories = EXCLUDED.target_calories
		 RETURNING `+recommendationColumns, args)
	if err != nil {
		return dailyRecommendation{}, fmt.Errorf("upsert recommendation: %w", err)
	}
	return row.decode()
}

// UpdateRecommendation persists regenerated meals or activities.
func (s *pgStore) UpdateRecommendation(ctx context.Context, rec dailyRecommendation) (dailyRecommendation, error) {
	args, err := encodeRecommendation(rec)
	if err != nil {
		return dailyRecommendation{}, err
	}
	args["id"] = rec.ID
	row, err := queryOne[recommendationRow](ctx, s,
		`UPDATE daily_recommendations AS r SET
			breakfast      = @breakfast,
			lunch          = @lunch,
			dinner         = @dinner,
			activities     = @activities,
			total_calories = @total
		 WHERE r.id = @id AND r.user_id = @userID
		 RETURNING `+recommendationColumns, args)
	if err != nil {
		return dailyRecommendation{}, notFoundOr(err, "recommendation")
	}
	return row.decode()
}

/* ─── Check-ins ──────────────────────────────────────────────────────── */

const checkinColumns = `id, user_id, recommendation_id, date, food_completed, activity_completed, notes, created_at`

func (s *pgStore) CheckinForRecommendation(ctx context.Context, userID, recommendationID int) (dailyCheckin, error) {
	ck, err := queryOne[dailyCheckin](ctx, s,
		"SELECT "+checkinColumns+" FROM daily_checkins WHERE user_id = @userID AND recommendation_id = @recID",
		pgx.NamedArgs{"userID": userID, "recID": recommendationID})
	if err != nil {
		return dailyCheckin{}, notFoundOr(err, "check-in")
	}
	return ck, nil
}

// InsertCheckin records a check-in and marks the recommendation completed
// when both goals were met. An existing check-in is never overwritten.
func (s *pgStore) InsertCheckin(ctx context.Context, c dailyCheckin) (dailyCheckin, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return dailyCheckin{}, fmt.Errorf("begin check-in: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`INSERT INTO daily_checkins (user_id, recommendation_id, date, food_completed, activity_completed, notes)
		 VALUES (@userID, @recID, @date, @food, @activity, @notes)
		 ON CONFLICT (user_id, recommendation_id) DO NOTHING
		 RETURNING `+checkinColumns,
		pgx.NamedArgs{
			"userID":   c.UserID,
			"recID":    c.RecommendationID,
			"date":     c.Date.String(),
			"food":     c.FoodCompleted,
			"activity": c.ActivityCompleted,
			"notes":    c.Notes,
		})
	if err != nil {
		return dailyCheckin{}, fmt.Errorf("insert check-in: %w", err)
	}
	saved, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[dailyCheckin])
	if errors.Is(err, pgx.ErrNoRows) {
		return dailyCheckin{}, alreadyExists("already checked in for this recommendation")
	}
	if err != nil {
		return dailyCheckin{}, fmt.Errorf("scan check-in: %w", err)
	}

	if _, err := tx.Exec(ctx,
		"UPDATE daily_recommendations SET is_completed = @completed WHERE id = @recID AND user_id = @userID",
		pgx.NamedArgs{"completed": saved.completed(), "recID": saved.RecommendationID, "userID": saved.UserID}); err != nil {
		return dailyCheckin{}, fmt.Errorf("mark recommendation: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return dailyCheckin{}, fmt.Errorf("commit check-in: %w", err)
	}
	return saved, nil
}

func (s *pgStore) CheckinsBetween(ctx context.Context, userID int, start, end time.Time) ([]dailyCheckin, error) {
	cks, err := queryMany[dailyCheckin](ctx, s,
		`SELECT `+checkinColumns+` FROM daily_checkins
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": isoDate(start), "end": isoDate(end)})
	if err != nil {
		return nil, fmt.Errorf("list check-ins: %w", err)
	}
	return cks, nil
}

func (s *pgStore) CountCompletedCheckins(ctx context.Context, userID int) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM daily_checkins WHERE user_id = @userID AND food_completed AND activity_completed",
		pgx.NamedArgs{"userID": userID}).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count check-ins: %w", err)
	}
	return n, nil
}

type checkedInRow struct {
	recommendationRow
	CheckinID         int        `db:"checkin_id"`
	CheckinDate       DateOnly   `db:"checkin_date"`
	FoodCompleted     bool       `db:"food_completed"`
	ActivityCompleted bool       `db:"activity_completed"`
	Notes             *string    `db:"notes"`
	CheckinCreatedAt  *time.Time `db:"checkin_created_at"`
}

// CheckedInDays returns every recommendation that has a check-in, oldest first.
func (s *pgStore) CheckedInDays(ctx context.Context, userID int) ([]checkedInDay, error) {
	rows, err := queryMany[checkedInRow](ctx, s,
		`SELECT `+recommendationColumns+`,
			c.id AS checkin_id, c.date AS checkin_date, c.food_completed, c.activity_completed,
			c.notes, c.created_at AS checkin_created_at
		 FROM daily_recommendations r
		 JOIN daily_checkins c ON c.recommendation_id = r.id AND c.user_id = r.user_id
		 WHERE r.user_id = @userID
		 ORDER BY r.date ASC`,
		pgx.NamedArgs{"userID": userID})
	if err != nil {
		return nil, fmt.Errorf("list checked-in days: %w", err)
	}

	days := make([]checkedInDay, 0, len(rows))
	for _, row := range rows {
		rec, err := row.decode()
		if err != nil {
			s.log.Warnw("[CheckedInDays] skipping malformed recommendation", "id", row.ID, "error", err)
			continue
		}
		days = append(days, checkedInDay{
			Recommendation: rec,
			Checkin: dailyCheckin{
				ID:                row.CheckinID,
				UserID:            row.UserID,
				RecommendationID:  row.ID,
				Date:              row.CheckinDate,
				FoodCompleted:     row.FoodCompleted,
				ActivityCompleted: row.ActivityCompleted,
				Notes:             row.Notes,
				CreatedAt:         row.CheckinCreatedAt,
			},
		})
	}
	return days, nil
}

/* ─── Weight log ─────────────────────────────────────────────────────── */

const weightColumns = `id, user_id, date, weight_kg::float8 AS weight_kg`

// UpsertWeight writes the entry for (user, date); posting the same date updates in place.
func (s *pgStore) UpsertWeight(ctx context.Context, userID int, date time.Time, weightKG float64) (weightEntry, error) {
	e, err := queryOne[weightEntry](ctx, s,
		`INSERT INTO weight_log (user_id, date, weight_kg)
		 VALUES (@userID, @date, @weight)
		 ON CONFLICT (user_id, date) DO UPDATE SET weight_kg = EXCLUDED.weight_kg
		 RETURNING `+weightColumns,
		pgx.NamedArgs{"userID": userID, "date": isoDate(date), "weight": weightKG})
	if err != nil {
		return weightEntry{}, fmt.Errorf("upsert weight: %w", err)
	}
	return e, nil
}

func (s *pgStore) WeightsBetween(ctx context.Context, userID int, start, end time.Time) ([]weightEntry, error) {
	entries, err := queryMany[weightEntry](ctx, s,
		`SELECT `+weightColumns+` FROM weight_log
		 WHERE user_id = @userID AND date >= @start AND date <= @end
		 ORDER BY date ASC`,
		pgx.NamedArgs{"userID": userID, "start": isoDate(start), "end": isoDate(end)})
	if err != nil {
		return nil, fmt.Errorf("list weights: %w", err)
	}
	return entries, nil
}

// UpdateWeight uses COALESCE so omitted fields keep their current values.
func (s *pgStore) UpdateWeight(ctx context.Context, userID, id int, date *time.Time, weightKG *float64) (weightEntry, error) {
	var dateArg *string
	if date != nil {
		d := isoDate(*date)
		dateArg = &d
	}
	e, err := queryOne[weightEntry](ctx, s,
		`UPDATE weight_log SET
			date      = COALESCE(@date::date, date),
			weight_kg = COALESCE(@weight::numeric, weight_kg)
		 WHERE id = @id AND user_id = @userID
		 RETURNING `+weightColumns,
		pgx.NamedArgs{"id": id, "userID": userID, "date": dateArg, "weight": weightKG})
	if isUniqueViolation(err) {
		return weightEntry{}, alreadyExists("a weight entry already exists for that date")
	}
	if err != nil {
		return weightEntry{}, notFoundOr(err, "weight entry")
	}
	return e, nil
}

// DeleteWeight enforces ownership by matching both id and user_id.
func (s *pgStore) DeleteWeight(ctx context.Context, userID, id int) error {
	result, err := s.db.Exec(ctx,
		"DELETE FROM weight_log WHERE id = @id AND user_id = @userID",
		pgx.NamedArgs{"id": id, "userID": userID})
	if err != nil {
		return fmt.Errorf("delete weight: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("weight entry not found")
	}
	return nil
}
