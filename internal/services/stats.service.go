package services

import (
	"context"

	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"

	"github.com/google/uuid"
)

// StatsService keeps the per-user aggregate in step with tracking writes.
// Adjustments happen only when a record crosses the Completed boundary in
// either direction, inside the same transaction as the tracking write.
type StatsService struct {
	statsRepo repositories.UserStatsRepository
	log       logger.Logger
}

func NewStatsService(statsRepo repositories.UserStatsRepository) *StatsService {
	return &StatsService{
		statsRepo: statsRepo,
		log:       logger.New("StatsService"),
	}
}

// MovieMinutesDelta computes the signed counter adjustments for a status
// transition. A nil previous status means the record is new; a nil next
// status means it is being deleted. Entities without a known length
// contribute zero minutes.
func MovieMinutesDelta(
	entity *Entity,
	previous, next *TrackingStatus,
) (deltaMinutes int64, deltaCompleted int64) {
	if entity == nil || entity.Kind != KindMovie {
		return 0, 0
	}

	wasCompleted := previous != nil && *previous == StatusCompleted
	isCompleted := next != nil && *next == StatusCompleted
	if wasCompleted == isCompleted {
		return 0, 0
	}

	var minutes int64
	if entity.LengthMinutes != nil {
		minutes = int64(*entity.LengthMinutes)
	}

	if isCompleted {
		return minutes, 1
	}
	return -minutes, -1
}

// ApplyStatusChange records a transition against the user's aggregate.
// Callers must invoke this inside the transaction that writes the
// tracking record so the counters cannot drift from the source rows.
func (s *StatsService) ApplyStatusChange(
	ctx context.Context,
	userID uuid.UUID,
	entity *Entity,
	previous, next *TrackingStatus,
) error {
	deltaMinutes, deltaCompleted := MovieMinutesDelta(entity, previous, next)
	if deltaMinutes == 0 && deltaCompleted == 0 {
		return nil
	}

	return s.statsRepo.AdjustMovieMinutes(ctx, userID, deltaMinutes, deltaCompleted)
}

func (s *StatsService) GetForUser(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	return s.statsRepo.GetForUser(ctx, userID)
}

// Recalculate rebuilds the aggregate from scratch, used by the nightly
// repair job.
func (s *StatsService) Recalculate(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	return s.statsRepo.Recalculate(ctx, userID)
}
