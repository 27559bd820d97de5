package repositories

import (
	"context"
	"errors"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const exportBatchSize = 1000

// RatingSummary aggregates user ratings for one entity.
type RatingSummary struct {
	Average decimal.Decimal `json:"average"`
	Count   int64           `json:"count"`
}

type TrackingRepository interface {
	Get(ctx context.Context, kind EntityKind, entityID, userID uuid.UUID) (*TrackingObject, error)
	GetByID(ctx context.Context, id uuid.UUID) (*TrackingObject, error)
	ListForUser(
		ctx context.Context,
		userID uuid.UUID,
		kind *EntityKind,
		status *TrackingStatus,
	) ([]*TrackingObject, error)
	Create(ctx context.Context, tracking *TrackingObject) (*TrackingObject, error)
	Update(ctx context.Context, tracking *TrackingObject) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteForEntity(ctx context.Context, entityID uuid.UUID) (int64, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
	ForEachUserBatch(
		ctx context.Context,
		userID uuid.UUID,
		fn func(batch []*TrackingObject) error,
	) error
	RatingSummary(ctx context.Context, entityID uuid.UUID) (*RatingSummary, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[TrackingStatus]int64, error)
}

type trackingRepository struct {
	db  database.DB
	log logger.Logger
}

func NewTrackingRepository(db database.DB) TrackingRepository {
	return &trackingRepository{
		db:  db,
		log: logger.New("trackingRepository"),
	}
}

// Get looks a record up by the full (kind, entity, user) reference. A kind
// mismatch is treated the same as a missing record.
func (r *trackingRepository) Get(
	ctx context.Context,
	kind EntityKind,
	entityID, userID uuid.UUID,
) (*TrackingObject, error) {
	log := r.log.Function("Get")

	var tracking TrackingObject
	err := r.db.SQLWithContext(ctx).
		First(
			&tracking,
			"entity_id = ? AND entity_kind = ? AND user_id = ?",
			entityID, kind, userID,
		).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to get tracking record", err, "entityID", entityID)
	}

	return &tracking, nil
}

func (r *trackingRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*TrackingObject, error) {
	log := r.log.Function("GetByID")

	var tracking TrackingObject
	err := r.db.SQLWithContext(ctx).
		Preload("Entity").
		First(&tracking, "id = ?", id).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to get tracking record by id", err, "id", id)
	}

	return &tracking, nil
}

func (r *trackingRepository) ListForUser(
	ctx context.Context,
	userID uuid.UUID,
	kind *EntityKind,
	status *TrackingStatus,
) ([]*TrackingObject, error) {
	log := r.log.Function("ListForUser")

	query := r.db.SQLWithContext(ctx).
		Preload("Entity").
		Where("user_id = ?", userID)
	if kind != nil {
		query = query.Where("entity_kind = ?", *kind)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var records []*TrackingObject
	if err := query.Order("updated_at DESC").Find(&records).Error; err != nil {
		return nil, log.Err("failed to list tracking records", err, "userID", userID)
	}

	return records, nil
}

func (r *trackingRepository) Create(
	ctx context.Context,
	tracking *TrackingObject,
) (*TrackingObject, error) {
	log := r.log.Function("Create")

	if err := r.db.SQLWithContext(ctx).Create(tracking).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		if errors.Is(err, gorm.ErrInvalidValue) {
			return nil, ErrValidation
		}
		return nil, log.Err(
			"failed to create tracking record",
			err,
			"entityID", tracking.EntityID,
			"userID", tracking.UserID,
		)
	}

	return tracking, nil
}

func (r *trackingRepository) Update(ctx context.Context, tracking *TrackingObject) error {
	log := r.log.Function("Update")

	if err := r.db.SQLWithContext(ctx).Save(tracking).Error; err != nil {
		if errors.Is(err, gorm.ErrInvalidValue) {
			return ErrValidation
		}
		return log.Err("failed to update tracking record", err, "id", tracking.ID)
	}

	return nil
}

func (r *trackingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.Function("Delete")

	result := r.db.SQLWithContext(ctx).Delete(&TrackingObject{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete tracking record", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteForEntity removes every user's record for an entity. Runs as a
// post-commit cascade when the entity itself is deleted.
func (r *trackingRepository) DeleteForEntity(
	ctx context.Context,
	entityID uuid.UUID,
) (int64, error) {
	log := r.log.Function("DeleteForEntity")

	result := r.db.SQLWithContext(ctx).Delete(&TrackingObject{}, "entity_id = ?", entityID)
	if result.Error != nil {
		return 0, log.Err("failed to delete tracking for entity", result.Error, "entityID", entityID)
	}

	return result.RowsAffected, nil
}

// DeleteOrphaned removes records whose entity no longer exists among live
// rows. The scheduled prune job calls this to sweep anything a missed
// cascade left behind.
func (r *trackingRepository) DeleteOrphaned(ctx context.Context) (int64, error) {
	log := r.log.Function("DeleteOrphaned")

	result := r.db.SQLWithContext(ctx).
		Where("entity_id NOT IN (?)",
			r.db.SQLWithContext(ctx).Model(&Entity{}).Select("id"),
		).
		Delete(&TrackingObject{})
	if result.Error != nil {
		return 0, log.Err("failed to delete orphaned tracking records", result.Error)
	}

	if result.RowsAffected > 0 {
		log.Info("Pruned orphaned tracking records", "count", result.RowsAffected)
	}
	return result.RowsAffected, nil
}

// ForEachUserBatch streams a user's records in batches so the export path
// never loads the full set into memory.
func (r *trackingRepository) ForEachUserBatch(
	ctx context.Context,
	userID uuid.UUID,
	fn func(batch []*TrackingObject) error,
) error {
	log := r.log.Function("ForEachUserBatch")

	var batch []*TrackingObject
	result := r.db.SQLWithContext(ctx).
		Preload("Entity").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		FindInBatches(&batch, exportBatchSize, func(tx *gorm.DB, _ int) error {
			return fn(batch)
		})
	if result.Error != nil {
		return log.Err("failed to iterate tracking records", result.Error, "userID", userID)
	}

	return nil
}

func (r *trackingRepository) RatingSummary(
	ctx context.Context,
	entityID uuid.UUID,
) (*RatingSummary, error) {
	log := r.log.Function("RatingSummary")

	var row struct {
		Average decimal.NullDecimal
		Count   int64
	}
	err := r.db.SQLWithContext(ctx).
		Model(&TrackingObject{}).
		Select("AVG(rating) AS average, COUNT(rating) AS count").
		Where("entity_id = ? AND rating IS NOT NULL", entityID).
		Scan(&row).Error
	if err != nil {
		return nil, log.Err("failed to aggregate ratings", err, "entityID", entityID)
	}

	summary := &RatingSummary{Count: row.Count}
	if row.Average.Valid {
		summary.Average = row.Average.Decimal.Round(2)
	}
	return summary, nil
}

func (r *trackingRepository) CountByStatus(
	ctx context.Context,
	userID uuid.UUID,
) (map[TrackingStatus]int64, error) {
	log := r.log.Function("CountByStatus")

	var rows []struct {
		Status TrackingStatus
		Count  int64
	}
	err := r.db.SQLWithContext(ctx).
		Model(&TrackingObject{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, log.Err("failed to count tracking by status", err, "userID", userID)
	}

	counts := make(map[TrackingStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
