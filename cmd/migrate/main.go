// ABOUTME: Migration utility that copies hotel records from a SQLite file into another backend.
// ABOUTME: Provides dry-run and backup capabilities, and skips or overwrites records that already exist.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/innkeep/cli"
	"github.com/harperreed/innkeep/collection"
	"github.com/harperreed/innkeep/config"
	"github.com/harperreed/innkeep/db"
	"github.com/harperreed/innkeep/logging"
	"github.com/harperreed/innkeep/models"
)

func main() {
	dbPath := flag.String("db", "", "Path to the source SQLite database (required)")
	configPath := flag.String("config", config.Path(), "Config file naming the target backend")
	target := flag.String("to", "", "Target backend override (postgres or charm)")
	dryRun := flag.Bool("dry-run", false, "Show what would happen without making changes")
	backup := flag.Bool("backup", true, "Create backup of the source before migration")
	force := flag.Bool("force", false, "Overwrite records that already exist in the target")
	flag.Parse()

	logger := logging.New(os.Stderr, logging.Config{Level: "info"})

	if *dbPath == "" {
		logger.Fatal("Error: -db flag is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := migrate(ctx, logger, *dbPath, *configPath, *target, *dryRun, *backup, *force); err != nil {
		logger.Fatal("Migration failed", "err", err)
	}

	logger.Info("Migration completed successfully")
}

func migrate(ctx context.Context, logger *log.Logger, dbPath, configPath, target string, dryRun, createBackup, force bool) error {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("database file does not exist: %s", dbPath)
	}

	if createBackup && !dryRun {
		backupPath := fmt.Sprintf("%s.backup.%s", dbPath, time.Now().Format("20060102-150405"))
		logger.Info("Creating backup", "path", backupPath)

		input, err := os.ReadFile(dbPath)
		if err != nil {
			return fmt.Errorf("failed to read database: %w", err)
		}

		if err := os.WriteFile(backupPath, input, 0600); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
		logger.Info("Backup created successfully")
	}

	database, err := db.OpenDatabase(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	source := db.NewRecordStore(database, db.SQLite)
	defer func() { _ = source.Close() }()

	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return err
	}
	if target != "" {
		cfg.Backend = target
	}
	switch cfg.Backend {
	case config.BackendPostgres, config.BackendCharm:
	default:
		return fmt.Errorf("target backend must be postgres or charm, got %q", cfg.Backend)
	}

	backend, err := cli.OpenBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open target: %w", err)
	}
	defer func() { _ = backend.Close() }()

	stats, err := copyRecords(ctx, logger, source, backend.Store, models.Collections, dryRun, force)
	logger.Info("Records processed", "copied", stats.copied, "overwritten", stats.overwritten, "skipped", stats.skipped)
	return err
}

type copyStats struct {
	copied      int
	overwritten int
	skipped     int
}

// copyRecords copies every record of the named collections from src to dst.
// Records already in dst are skipped unless force is set.
func copyRecords(ctx context.Context, logger *log.Logger, src, dst collection.Store, names []string, dryRun, force bool) (copyStats, error) {
	var stats copyStats
	for _, name := range names {
		res, err := src.GetAll(ctx, name, models.ListOptions{})
		if err != nil {
			return stats, fmt.Errorf("failed to read %s: %w", name, err)
		}
		if len(res.Items) == 0 {
			continue
		}

		if dryRun {
			logger.Info("[DRY RUN] Would copy collection", "collection", name, "records", len(res.Items))
			continue
		}

		for _, rec := range res.Items {
			_, err := dst.Create(ctx, name, rec)
			switch {
			case err == nil:
				stats.copied++
			case errors.Is(err, collection.ErrDuplicateID) && force:
				if _, err := dst.Update(ctx, name, rec); err != nil {
					return stats, fmt.Errorf("failed to overwrite %s/%s: %w", name, rec.ID, err)
				}
				stats.overwritten++
			case errors.Is(err, collection.ErrDuplicateID):
				stats.skipped++
			default:
				return stats, fmt.Errorf("failed to copy %s/%s: %w", name, rec.ID, err)
			}
		}
		logger.Info("Copied collection", "collection", name, "records", len(res.Items))
	}
	return stats, nil
}
