package jobs

import (
	"context"

	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"
)

// StatsRecalculationJob rebuilds user aggregates nightly, after the prune
// job has removed orphaned tracking rows.
type StatsRecalculationJob struct {
	maintenance *services.MaintenanceService
	log         logger.Logger
	schedule    services.Schedule
}

func NewStatsRecalculationJob(
	maintenance *services.MaintenanceService,
	schedule services.Schedule,
) *StatsRecalculationJob {
	log := logger.New("statsRecalculationJob")
	log.Info("Creating new stats recalculation job", "schedule", schedule)

	return &StatsRecalculationJob{
		maintenance: maintenance,
		log:         log,
		schedule:    schedule,
	}
}

func (j *StatsRecalculationJob) Name() string {
	return "NightlyStatsRecalculation"
}

func (j *StatsRecalculationJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	if err := j.maintenance.RecalculateAllStats(ctx); err != nil {
		return log.Err("stats recalculation failed", err)
	}

	return nil
}

func (j *StatsRecalculationJob) Schedule() services.Schedule {
	return j.schedule
}
