package jobs

import (
	"digitaldome/config"
	"digitaldome/internal/repositories"
	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"
)

// Import schedule constants
const (
	Hourly  = services.Hourly
	Daily   = services.Daily
	Nightly = services.Nightly
)

func RegisterAllJobs(
	schedulerService *services.SchedulerService,
	config config.Config,
	services services.Service,
	repos repositories.Repository,
) error {
	log := logger.New("jobs").Function("RegisterAllJobs")
	log.Info("Registering jobs")

	trackingPruneJob := NewTrackingPruneJob(services.Maintenance, Daily)
	if err := schedulerService.AddJob(trackingPruneJob); err != nil {
		return log.Err("failed to register tracking prune job", err)
	}

	statsJob := NewStatsRecalculationJob(services.Maintenance, Nightly)
	if err := schedulerService.AddJob(statsJob); err != nil {
		return log.Err("failed to register stats recalculation job", err)
	}

	fileCleanupJob := NewFileCleanupJob(services.FileCleanup, Daily)
	if err := schedulerService.AddJob(fileCleanupJob); err != nil {
		return log.Err("failed to register file cleanup job", err)
	}

	return nil
}
