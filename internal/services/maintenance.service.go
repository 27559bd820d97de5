package services

import (
	"context"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
	"digitaldome/internal/repositories"

	"github.com/google/uuid"
)

// MaintenanceService holds the periodic repair work: pruning tracking
// records whose entity disappeared and rebuilding drifted stats.
type MaintenanceService struct {
	db           database.DB
	trackingRepo repositories.TrackingRepository
	statsRepo    repositories.UserStatsRepository
	log          logger.Logger
}

func NewMaintenanceService(
	db database.DB,
	trackingRepo repositories.TrackingRepository,
	statsRepo repositories.UserStatsRepository,
) *MaintenanceService {
	return &MaintenanceService{
		db:           db,
		trackingRepo: trackingRepo,
		statsRepo:    statsRepo,
		log:          logger.New("MaintenanceService"),
	}
}

// PruneOrphanedTracking sweeps tracking records pointing at deleted
// entities.
func (s *MaintenanceService) PruneOrphanedTracking(ctx context.Context) (int64, error) {
	return s.trackingRepo.DeleteOrphaned(ctx)
}

// CountOrphanedTracking reports how many records a prune would remove
// without touching them. Backs the CLI dry run.
func (s *MaintenanceService) CountOrphanedTracking(ctx context.Context) (int64, error) {
	log := s.log.Function("CountOrphanedTracking")

	var count int64
	err := s.db.SQLWithContext(ctx).
		Model(&models.TrackingObject{}).
		Where("entity_id NOT IN (?)",
			s.db.SQLWithContext(ctx).Model(&models.Entity{}).Select("id"),
		).
		Count(&count).Error
	if err != nil {
		return 0, log.Err("failed to count orphaned tracking records", err)
	}

	return count, nil
}

// RecalculateAllStats rebuilds every user's aggregate from the tracking
// table.
func (s *MaintenanceService) RecalculateAllStats(ctx context.Context) error {
	log := s.log.Function("RecalculateAllStats")

	var userIDs []string
	err := s.db.SQLWithContext(ctx).
		Model(&models.User{}).
		Where("is_active = ?", true).
		Pluck("id", &userIDs).Error
	if err != nil {
		return log.Err("failed to list users for recalculation", err)
	}

	failures := 0
	for _, userID := range userIDs {
		id, err := uuid.Parse(userID)
		if err != nil {
			failures++
			continue
		}
		if _, err := s.statsRepo.Recalculate(ctx, id); err != nil {
			log.Warn("failed to recalculate stats", "userID", userID, "error", err)
			failures++
		}
	}

	log.Info("Stats recalculation completed", "users", len(userIDs), "failures", failures)
	return nil
}
