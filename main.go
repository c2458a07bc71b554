package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "diet-coach",
	Short: "diet-coach serves daily meal and activity plans",
	Long:  "diet-coach is the API server for 30-day diet programs, plus catalog and planning tools.",
	RunE:  runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (default)",
	RunE:  runServe,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the food catalog",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the seed dataset into an empty catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		return withCatalog(cmd.Context(), func(cat *sqliteCatalog, _ *seedData) error {
			seed, err := loadSeed(file)
			if err != nil {
				return err
			}
			n, err := cat.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Catalog already seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d foods\n", n)
			return nil
		})
	},
}

var catalogStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show food counts per meal type",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCatalog(cmd.Context(), func(cat *sqliteCatalog, _ *seedData) error {
			fmt.Fprintln(cmd.OutOrStdout(), "MEAL_TYPE\tFOODS")
			for _, mt := range []string{"", "breakfast", "lunch", "dinner", "snack"} {
				n, err := cat.Count(cmd.Context(), mt)
				if err != nil {
					return err
				}
				label := mt
				if label == "" {
					label = "all"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", label, n)
			}
			return nil
		})
	},
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print a multi-day plan for the given body stats as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		weight, _ := f.GetFloat64("weight")
		height, _ := f.GetFloat64("height")
		age, _ := f.GetInt("age")
		gender, _ := f.GetString("gender")
		activity, _ := f.GetString("activity")
		goal, _ := f.GetFloat64("goal")
		days, _ := f.GetInt("days")
		seedValue, _ := f.GetInt64("seed")
		restrictions, _ := f.GetStringSlice("restrict")

		if err := validateBiometrics(&weight, &height, nil, &age, &gender, &activity); err != nil {
			return err
		}
		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		p := userProfile{
			WeightKG:            weight,
			HeightCM:            height,
			Age:                 age,
			Gender:              gender,
			ActivityLevel:       activity,
			DietaryRestrictions: normalizeTokens(restrictions),
		}
		if goal > 0 {
			p.GoalWeightKG = &goal
		}
		if seedValue == 0 {
			seedValue = time.Now().UnixNano()
		}

		return withCatalog(cmd.Context(), func(cat *sqliteCatalog, seed *seedData) error {
			c := newCoach(cat, seed, nil, rand.New(rand.NewSource(seedValue)))
			plan, err := c.planDays(cmd.Context(), p, planOptions{
				Days:       days,
				StartDay:   1,
				PlanLength: loadConfig().PlanLengthDays,
			})
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plan)
		})
	},
}

func init() {
	catalogSeedCmd.Flags().String("file", "", "YAML seed file (default: embedded dataset)")
	catalogCmd.AddCommand(catalogSeedCmd, catalogStatsCmd)

	planCmd.Flags().Float64("weight", 0, "Weight in kg")
	planCmd.Flags().Float64("height", 0, "Height in cm")
	planCmd.Flags().Int("age", 0, "Age in years")
	planCmd.Flags().String("gender", "female", "male or female")
	planCmd.Flags().String("activity", "moderate", "Activity level")
	planCmd.Flags().Float64("goal", 0, "Goal weight in kg (default: current weight)")
	planCmd.Flags().Int("days", 7, "Number of days to plan")
	planCmd.Flags().Int64("seed", 0, "Random seed (default: time-based)")
	planCmd.Flags().StringSlice("restrict", nil, "Dietary restriction tokens")

	rootCmd.AddCommand(serveCmd, catalogCmd, planCmd)
}

// withCatalog opens the configured catalog, seeds it when empty, and runs fn.
func withCatalog(ctx context.Context, fn func(*sqliteCatalog, *seedData) error) error {
	cfg := loadConfig()
	seed, err := loadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}
	cat, err := openCatalog(ctx, cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()
	return fn(cat, seed)
}

// runServe wires config, logging, tracing, storage and caches, then serves HTTP.
func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := loadConfig()

	log, err := newLogger(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	shutdownTracing := initTracing(ctx, log, cfg.ServiceName)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warnw("tracer shutdown failed", "error", err)
		}
	}()

	seed, err := loadSeed(cfg.SeedPath)
	if err != nil {
		return err
	}
	cat, err := openCatalog(ctx, cfg.CatalogPath)
	if err != nil {
		return err
	}
	defer cat.Close()
	if n, err := cat.Seed(ctx, seed); err != nil {
		return err
	} else if n > 0 {
		log.Infow("catalog seeded", "foods", n, "path", cfg.CatalogPath)
	}

	store, err := newPGStore(ctx, cfg.DBURL, log)
	if err != nil {
		return err
	}
	defer store.Close()

	cache, closeCache, err := newHistoryCache(cfg, log)
	if err != nil {
		return err
	}
	defer closeCache()

	if cfg.LogMode == "prod" || cfg.LogMode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := newHandler(store, cat, seed, newHistoryService(cache, store), log, cfg)
	router := h.newRouter(envBool("OTEL_ENABLED"))

	log.Infow("starting server", "addr", cfg.Addr)
	return router.Run(cfg.Addr)
}

// newHistoryCache uses Redis when REDIS_ADDR is set and an in-process LRU otherwise.
func newHistoryCache(cfg config, log *zap.SugaredLogger) (historyStore, func(), error) {
	if cfg.RedisAddr != "" {
		rs, err := newRedisHistoryStore(cfg.RedisAddr, cfg.HistoryTTL)
		if err != nil {
			return nil, nil, err
		}
		log.Infow("history cache: redis", "addr", cfg.RedisAddr, "ttl", cfg.HistoryTTL)
		return rs, func() { rs.Close() }, nil
	}
	ls, err := newLRUHistoryStore(cfg.HistoryCacheSize)
	if err != nil {
		return nil, nil, err
	}
	log.Infow("history cache: in-process LRU", "size", cfg.HistoryCacheSize)
	return ls, func() {}, nil
}

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
