// Command seed replaces the rows of the canned_responses table with the
// tables from CANNED_RESPONSES_FILE when set, or the built-in tables.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"govassist-backend/internal/config"
	"govassist-backend/internal/database"
	"govassist-backend/internal/repository"
	"govassist-backend/internal/services"
)

func main() {
	if err := run(); err != nil {
		log.Printf("✗ %v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	fallback := services.DefaultFallback()
	if cfg.CannedResponsesFile != "" {
		f, err := services.LoadFallbackFile(cfg.CannedResponsesFile)
		if err != nil {
			return err
		}
		fallback = f
	}

	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("PostgreSQL connection failed: %w", err)
	}
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := database.RunMigrations(ctx, pool); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	records := fallback.Records()
	if err := repository.NewCannedResponseRepo(pool).Replace(ctx, records); err != nil {
		return fmt.Errorf("replace canned responses: %w", err)
	}
	log.Printf("✓ Seeded %d canned responses", len(records))
	return nil
}
