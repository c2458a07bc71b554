// CLI tool to run pending database migrations from db/ (or MIGRATIONS_DIR).
// Each migration and its record insert share one transaction.
// Usage: go run ./cmd/migrate [status] [--dir db] (from the repository root)
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, false)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "List applied and pending migrations without running them",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd, true)
	},
}

func init() {
	dir := os.Getenv("MIGRATIONS_DIR")
	if dir == "" {
		dir = "db"
	}
	rootCmd.PersistentFlags().String("dir", dir, "directory holding *.sql migrations")
	rootCmd.AddCommand(statusCmd)
}

func main() {
	// A missing .env is fine when DB_URL comes from the environment.
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, statusOnly bool) error {
	ctx := cmd.Context()
	dir, _ := cmd.Flags().GetString("dir")

	files, err := listMigrations(os.DirFS(dir))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migration files found in %s", dir)
	}

	dbURL := os.Getenv("DB_URL")
	if dbURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	conn, err := pgx.Connect(ctx, dbURL)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pending := pendingMigrations(files, applied)
	for _, name := range files {
		if applied[name] {
			fmt.Fprintf(out, "  skip: %s\n", name)
		}
	}
	if statusOnly {
		for _, name := range pending {
			fmt.Fprintf(out, "  pending: %s\n", name)
		}
		report(out, len(pending), "pending")
		return nil
	}

	for _, name := range pending {
		body, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := applyMigration(ctx, conn, name, string(body)); err != nil {
			return err
		}
		fmt.Fprintf(out, "  applied: %s\n", name)
	}
	report(out, len(pending), "applied")
	return nil
}

func report(out io.Writer, n int, verb string) {
	if n == 0 {
		fmt.Fprintln(out, "No pending migrations.")
		return
	}
	fmt.Fprintf(out, "\n%d migration(s) %s.\n", n, verb)
}

// appliedMigrations reads the migrations table. Before the first migration
// has created it the query fails, which means nothing is applied yet.
func appliedMigrations(ctx context.Context, conn *pgx.Conn) (map[string]bool, error) {
	applied := make(map[string]bool)
	rows, err := conn.Query(ctx, "SELECT migration FROM migrations")
	if err != nil {
		return applied, nil
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("read migrations table: %w", err)
	}
	for _, n := range names {
		applied[n] = true
	}
	return applied, nil
}

func applyMigration(ctx context.Context, conn *pgx.Conn, name, body string) error {
	return pgx.BeginFunc(ctx, conn, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, body); err != nil {
			return fmt.Errorf("run %s: %w", name, err)
		}
		_, err := tx.Exec(ctx,
			"INSERT INTO migrations (migration, description) VALUES (@migration, @description)",
			pgx.NamedArgs{"migration": name, "description": descriptionFromFilename(name)})
		if err != nil {
			return fmt.Errorf("record %s: %w", name, err)
		}
		return nil
	})
}
