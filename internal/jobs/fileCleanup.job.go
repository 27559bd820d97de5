package jobs

import (
	"context"

	"digitaldome/internal/services"

	logger "digitaldome/internal/logger"
)

type FileCleanupJob struct {
	fileCleanup *services.FileCleanupService
	log         logger.Logger
	schedule    services.Schedule
}

func NewFileCleanupJob(
	fileCleanup *services.FileCleanupService,
	schedule services.Schedule,
) *FileCleanupJob {
	log := logger.New("fileCleanupJob")
	log.Info("Creating new file cleanup job", "schedule", schedule)

	return &FileCleanupJob{
		fileCleanup: fileCleanup,
		log:         log,
		schedule:    schedule,
	}
}

func (j *FileCleanupJob) Name() string {
	return "OrphanedImageCleanup"
}

func (j *FileCleanupJob) Execute(ctx context.Context) error {
	log := j.log.Function("Execute")

	removed, err := j.fileCleanup.SweepOrphanedImages(ctx)
	if err != nil {
		return log.Err("image cleanup failed", err)
	}

	log.Info("Image cleanup completed", "removed", removed)
	return nil
}

func (j *FileCleanupJob) Schedule() services.Schedule {
	return j.schedule
}
