package jobs

import (
	"context"

	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"
)

type TrackingPruneJob struct {
	maintenance *services.MaintenanceService
	log         logger.Logger
	schedule    services.Schedule
}

func NewTrackingPruneJob(
	maintenance *services.MaintenanceService,
	schedule services.Schedule,
) *TrackingPruneJob {
	log := logger.New("trackingPruneJob")
	log.Info("Creating new tracking prune job", "schedule", schedule)

	return &TrackingPruneJob{
		maintenance: maintenance,
		log:         log,
		schedule:    schedule,
	}
}

func (j *TrackingPruneJob) Name() string {
	return "OrphanedTrackingPrune"
}

func (j *TrackingPruneJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	pruned, err := j.maintenance.PruneOrphanedTracking(ctx)
	if err != nil {
		return log.Err("tracking prune failed", err)
	}

	log.Info("Tracking prune completed", "pruned", pruned)
	return nil
}

func (j *TrackingPruneJob) Schedule() services.Schedule {
	return j.schedule
}
