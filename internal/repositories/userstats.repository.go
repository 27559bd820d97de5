package repositories

import (
	"context"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

type UserStatsRepository interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*UserStats, error)
	AdjustMovieMinutes(ctx context.Context, userID uuid.UUID, deltaMinutes int64, deltaCompleted int64) error
	Recalculate(ctx context.Context, userID uuid.UUID) (*UserStats, error)
}

type userStatsRepository struct {
	db  database.DB
	log logger.Logger
}

func NewUserStatsRepository(db database.DB) UserStatsRepository {
	return &userStatsRepository{
		db:  db,
		log: logger.New("userStatsRepository"),
	}
}

func (r *userStatsRepository) GetForUser(
	ctx context.Context,
	userID uuid.UUID,
) (*UserStats, error) {
	log := r.log.Function("GetForUser")

	stats := &UserStats{UserID: userID}
	err := r.db.SQLWithContext(ctx).
		Where("user_id = ?", userID).
		FirstOrCreate(stats).Error
	if err != nil {
		return nil, log.Err("failed to get user stats", err, "userID", userID)
	}

	return stats, nil
}

// AdjustMovieMinutes applies an incremental delta under a row lock so two
// concurrent status updates cannot lose a counter change. Must run inside
// the same transaction as the tracking write that caused it. Counters never
// drop below zero.
func (r *userStatsRepository) AdjustMovieMinutes(
	ctx context.Context,
	userID uuid.UUID,
	deltaMinutes int64,
	deltaCompleted int64,
) error {
	log := r.log.Function("AdjustMovieMinutes")

	if deltaMinutes == 0 && deltaCompleted == 0 {
		return nil
	}

	stats := &UserStats{UserID: userID}
	err := r.db.SQLWithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		FirstOrCreate(stats).Error
	if err != nil {
		return log.Err("failed to lock user stats row", err, "userID", userID)
	}

	stats.MoviesMinutesWatched += deltaMinutes
	if stats.MoviesMinutesWatched < 0 {
		stats.MoviesMinutesWatched = 0
	}
	stats.MoviesCompleted += deltaCompleted
	if stats.MoviesCompleted < 0 {
		stats.MoviesCompleted = 0
	}

	if err := r.db.SQLWithContext(ctx).
		Model(stats).
		Updates(map[string]interface{}{
			"movies_minutes_watched": stats.MoviesMinutesWatched,
			"movies_completed":       stats.MoviesCompleted,
		}).Error; err != nil {
		return log.Err("failed to adjust user stats", err, "userID", userID)
	}

	return nil
}

// Recalculate rebuilds the aggregate from the tracking table. The nightly
// maintenance job uses this to repair any drift from missed adjustments.
func (r *userStatsRepository) Recalculate(
	ctx context.Context,
	userID uuid.UUID,
) (*UserStats, error) {
	log := r.log.Function("Recalculate")

	var row struct {
		Minutes   int64
		Completed int64
	}
	err := r.db.SQLWithContext(ctx).
		Model(&TrackingObject{}).
		Select("COALESCE(SUM(entities.length_minutes), 0) AS minutes, COUNT(*) AS completed").
		Joins("JOIN entities ON entities.id = tracking_objects.entity_id").
		Where(
			"tracking_objects.user_id = ? AND tracking_objects.status = ? AND tracking_objects.entity_kind = ?",
			userID, StatusCompleted, KindMovie,
		).
		Scan(&row).Error
	if err != nil {
		return nil, log.Err("failed to recalculate user stats", err, "userID", userID)
	}

	stats, err := r.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats.MoviesMinutesWatched = row.Minutes
	stats.MoviesCompleted = row.Completed
	if err := r.db.SQLWithContext(ctx).
		Model(stats).
		Updates(map[string]interface{}{
			"movies_minutes_watched": stats.MoviesMinutesWatched,
			"movies_completed":       stats.MoviesCompleted,
		}).Error; err != nil {
		return nil, log.Err("failed to store recalculated stats", err, "userID", userID)
	}

	return stats, nil
}
