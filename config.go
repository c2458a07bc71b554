package main

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// config is read once at startup from the environment (and .env when present).
type config struct {
	DBURL            string
	Addr             string
	LogMode          string
	CatalogPath      string
	SeedPath         string
	JWTSecret        string
	JWTTTL           time.Duration
	RedisAddr        string
	HistoryTTL       time.Duration
	HistoryCacheSize int
	PlanLengthDays   int
	CORSOrigins      []string
	ServiceName      string
}

func loadConfig() config {
	return config{
		DBURL:            envString("DB_URL", ""),
		Addr:             envString("ADDR", "localhost:3000"),
		LogMode:          envString("LOG_MODE", "dev"),
		CatalogPath:      envString("CATALOG_PATH", "catalog.db"),
		SeedPath:         envString("SEED_PATH", ""),
		JWTSecret:        envString("JWT_SECRET", ""),
		JWTTTL:           envDuration("JWT_TTL", 72*time.Hour),
		RedisAddr:        envString("REDIS_ADDR", ""),
		HistoryTTL:       envDuration("HISTORY_TTL", 24*time.Hour),
		HistoryCacheSize: envInt("HISTORY_CACHE_SIZE", 1024),
		PlanLengthDays:   envInt("PLAN_LENGTH_DAYS", defaultPlanLength),
		CORSOrigins:      envList("CORS_ORIGINS", []string{"http://localhost:5173"}),
		ServiceName:      envString("OTEL_SERVICE_NAME", "diet-coach-api"),
	}
}

func envString(name, def string) string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	return v
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func envDuration(name string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// envList splits a comma-separated variable, dropping blanks.
func envList(name string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	out := []string{}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
