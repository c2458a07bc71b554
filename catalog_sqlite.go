package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteCatalog serves the food catalog from an embedded SQLite database.
type sqliteCatalog struct {
	db *sql.DB
}

type catalogMigration struct {
	version int
	name    string
	sql     string
}

var catalogMigrations = []catalogMigration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS foods (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  calories REAL NOT NULL CHECK(calories >= 0),
  protein REAL NOT NULL DEFAULT 0,
  carbs REAL NOT NULL DEFAULT 0,
  fat REAL NOT NULL DEFAULT 0,
  fiber REAL NOT NULL DEFAULT 0,
  sugar REAL NOT NULL DEFAULT 0,
  sodium REAL NOT NULL DEFAULT 0,
  serving_size REAL,
  serving_unit TEXT,
  data_source TEXT NOT NULL DEFAULT 'seed',
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meal_types (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS food_meal_types (
  food_id INTEGER NOT NULL REFERENCES foods(id) ON DELETE CASCADE,
  meal_type_id INTEGER NOT NULL REFERENCES meal_types(id) ON DELETE CASCADE,
  PRIMARY KEY (food_id, meal_type_id)
);

CREATE INDEX IF NOT EXISTS idx_foods_calories ON foods(calories);
CREATE INDEX IF NOT EXISTS idx_foods_name ON foods(name);
`,
	},
}

// openCatalog opens (creating if needed) the catalog at path and applies
// pending schema migrations. ":memory:" gives a private in-memory catalog.
func openCatalog(ctx context.Context, path string) (*sqliteCatalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := migrateCatalog(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &sqliteCatalog{db: db}, nil
}

func migrateCatalog(ctx context.Context, db *sql.DB) error {
	applied := map[int]bool{}
	rows, err := db.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err == nil {
		for rows.Next() {
			var v int
			if err := rows.Scan(&v); err != nil {
				rows.Close()
				return fmt.Errorf("scan migration version: %w", err)
			}
			applied[v] = true
		}
		rows.Close()
	}

	for _, m := range catalogMigrations {
		if applied[m.version] {
			continue
		}
		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %d: %w", m.version, err)
		}
		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.version, err)
		}
	}
	return nil
}

func (c *sqliteCatalog) Close() error { return c.db.Close() }

// Seed loads s into an empty catalog and returns the number of foods inserted.
// A catalog that already holds foods is left untouched.
func (c *sqliteCatalog) Seed(ctx context.Context, s *seedData) (int, error) {
	existing, err := c.Count(ctx, "")
	if err != nil {
		return 0, err
	}
	if existing > 0 {
		return 0, nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback()

	for mt := range validMealTypes {
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO meal_types(name) VALUES(?)`, mt); err != nil {
			return 0, fmt.Errorf("insert meal type %s: %w", mt, err)
		}
	}

	inserted := 0
	for _, f := range s.Foods {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO foods(name, category, calories, protein, carbs, fat, fiber, sugar, sodium, data_source)
			 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, 'seed')`,
			f.Name, f.Category, f.Calories, f.Protein, f.Carbs, f.Fat, f.Fiber, f.Sugar, f.Sodium)
		if err != nil {
			return 0, fmt.Errorf("insert food %q: %w", f.Name, err)
		}
		foodID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("food id for %q: %w", f.Name, err)
		}
		for _, mt := range s.mealTypesFor(f) {
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO food_meal_types(food_id, meal_type_id)
				 SELECT ?, id FROM meal_types WHERE name = ?`, foodID, mt); err != nil {
				return 0, fmt.Errorf("map food %q to %s: %w", f.Name, mt, err)
			}
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return inserted, nil
}

const foodColumns = `f.name, f.category, f.calories, f.protein, f.carbs, f.fat, f.fiber, f.sugar, f.sodium,
	(SELECT GROUP_CONCAT(mt.name) FROM food_meal_types x JOIN meal_types mt ON mt.id = x.meal_type_id
	 WHERE x.food_id = f.id) AS meal_types`

// Query runs q against the catalog. Results are ordered by id unless
// RandomOrder is set.
func (c *sqliteCatalog) Query(ctx context.Context, q catalogQuery) ([]foodItem, error) {
	where := []string{"1 = 1"}
	args := []any{}

	if q.MealType != "" {
		where = append(where, `EXISTS (SELECT 1 FROM food_meal_types fmt JOIN meal_types mt ON mt.id = fmt.meal_type_id
			WHERE fmt.food_id = f.id AND mt.name = ?)`)
		args = append(args, q.MealType)
	}
	if q.MinCalories != nil {
		where = append(where, "f.calories >= ?")
		args = append(args, *q.MinCalories)
	}
	if q.MaxCalories != nil {
		where = append(where, "f.calories <= ?")
		args = append(args, *q.MaxCalories)
	}
	for _, r := range normalizeTokens(q.Restrictions) {
		where = append(where, `LOWER(f.name) NOT LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(r)+"%")
	}
	excluded := []string{}
	for _, name := range q.ExcludedNames {
		if name != "" {
			excluded = append(excluded, name)
		}
	}
	if len(excluded) > 0 {
		where = append(where, "f.name NOT IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(excluded)), ", ")+")")
		for _, name := range excluded {
			args = append(args, name)
		}
	}

	order := "f.id"
	if q.RandomOrder {
		order = "RANDOM()"
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)

	query := "SELECT " + foodColumns + " FROM foods f WHERE " + strings.Join(where, " AND ") +
		" ORDER BY " + order + " LIMIT ?"

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	foods := []foodItem{}
	for rows.Next() {
		var f foodItem
		var mealTypes sql.NullString
		if err := rows.Scan(&f.Name, &f.Category, &f.Calories, &f.Protein, &f.Carbs, &f.Fat,
			&f.Fiber, &f.Sugar, &f.Sodium, &mealTypes); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		// SQLite LOWER only folds ASCII.
		if matchesRestriction(f.Name, q.Restrictions) {
			continue
		}
		if mealTypes.Valid && mealTypes.String != "" {
			f.MealTypes = strings.Split(mealTypes.String, ",")
		}
		foods = append(foods, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return foods, nil
}

// RandomSample returns up to count random foods for mealType.
func (c *sqliteCatalog) RandomSample(ctx context.Context, mealType string, count int, restrictions, excluded []string) ([]foodItem, error) {
	return c.Query(ctx, catalogQuery{
		MealType:      mealType,
		Restrictions:  restrictions,
		ExcludedNames: excluded,
		Limit:         count,
		RandomOrder:   true,
	})
}

// Count returns the number of foods serving mealType, or all foods when empty.
func (c *sqliteCatalog) Count(ctx context.Context, mealType string) (int, error) {
	var n int
	var err error
	if mealType == "" {
		err = c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM foods`).Scan(&n)
	} else {
		err = c.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM food_meal_types fmt JOIN meal_types mt ON mt.id = fmt.meal_type_id
			 WHERE mt.name = ?`, mealType).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count foods: %w", err)
	}
	return n, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
