package main

import (
	"context"
	"fmt"
	"os"

	"digitaldome/config"
	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
	"digitaldome/internal/services"
)

func main() {
	log := logger.New("maintenance")
	log = log.Function("main")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	config, err := config.New()
	if err != nil {
		log.Er("failed to initialize config", err)
		os.Exit(1)
	}

	db, err := database.New(config)
	if err != nil {
		log.Er("failed to create database", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Er("failed to close database", err)
		}
	}()

	service, err := services.New(db, config, nil)
	if err != nil {
		log.Er("failed to initialize services", err)
		os.Exit(1)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "prune-tracking":
		err = pruneTracking(ctx, service, os.Args[2:], log)
	case "cleanup-files":
		err = cleanupFiles(ctx, service, log)
	case "recalc-stats":
		err = service.Maintenance.RecalculateAllStats(ctx)
	case "lookup":
		err = lookupMetadata(ctx, service, os.Args[2:], log)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Er("maintenance command failed", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: maintenance <command>

commands:
  prune-tracking [--dry-run]   delete tracking records whose entity is gone
  cleanup-files                delete stored files no entity references
  recalc-stats                 rebuild every user's aggregate counters
  lookup <type> <name>         run a metadata lookup and print the result`)
}

func pruneTracking(
	ctx context.Context,
	service services.Service,
	args []string,
	log logger.Logger,
) error {
	log = log.Function("pruneTracking")

	dryRun := len(args) > 0 && args[0] == "--dry-run"
	if dryRun {
		count, err := service.Maintenance.CountOrphanedTracking(ctx)
		if err != nil {
			return err
		}
		log.Info("Dry run: orphaned tracking records found", "count", count)
		return nil
	}

	count, err := service.Maintenance.PruneOrphanedTracking(ctx)
	if err != nil {
		return err
	}
	log.Info("Pruned orphaned tracking records", "count", count)
	return nil
}

func cleanupFiles(ctx context.Context, service services.Service, log logger.Logger) error {
	log = log.Function("cleanupFiles")

	removed, err := service.FileCleanup.SweepOrphanedImages(ctx)
	if err != nil {
		return err
	}
	log.Info("Removed orphaned media files", "count", removed)
	return nil
}

// lookupMetadata runs the enrichment pipeline against a throwaway entity
// and prints what the provider returned, without writing anything.
func lookupMetadata(
	ctx context.Context,
	service services.Service,
	args []string,
	log logger.Logger,
) error {
	log = log.Function("lookupMetadata")

	if len(args) < 2 {
		return fmt.Errorf("usage: maintenance lookup <type> <name>")
	}

	kind, err := models.ParseEntityKind(args[0])
	if err != nil {
		return err
	}

	entity := &models.Entity{Kind: kind, Name: args[1]}
	warnings := service.Enrichment.Enrich(ctx, entity)
	for _, warning := range warnings {
		log.Warn("lookup warning", "warning", warning)
	}

	fmt.Printf("Name: %s\nKind: %s\nDescription: %s\n", entity.Name, entity.Kind, entity.Description)
	if len(entity.Metadata) > 0 {
		fmt.Printf("Provider payload:\n%s\n", string(entity.Metadata))
	}
	return nil
}
