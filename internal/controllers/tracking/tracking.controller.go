package trackingController

import (
	"context"
	"errors"

	"digitaldome/config"
	appContext "digitaldome/internal/context"
	"digitaldome/internal/database"
	"digitaldome/internal/events"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"
	"digitaldome/internal/services"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackingController struct {
	trackingRepo       repositories.TrackingRepository
	entityRepo         repositories.EntityRepository
	transactionService *services.TransactionService
	statsService       *services.StatsService
	eventBus           *events.EventBus
	db                 database.DB
	Config             config.Config
}

type UpsertTrackingRequest struct {
	Type     string    `json:"type"`
	EntityID uuid.UUID `json:"entityId"`
	Status   string    `json:"status"`
	Rating   *int      `json:"rating,omitempty"`
	Notes    *string   `json:"notes,omitempty"`
}

type ListTrackingRequest struct {
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`
}

type UserStatsResponse struct {
	Stats        *UserStats               `json:"stats"`
	StatusCounts map[TrackingStatus]int64 `json:"statusCounts"`
}

type TrackingControllerInterface interface {
	Upsert(ctx context.Context, user *User, request *UpsertTrackingRequest) (*TrackingObject, error)
	Get(ctx context.Context, user *User, typeLabel string, entityID uuid.UUID) (*TrackingObject, error)
	List(ctx context.Context, user *User, request *ListTrackingRequest) ([]*TrackingObject, error)
	Delete(ctx context.Context, user *User, trackingID uuid.UUID) error
	Stats(ctx context.Context, user *User) (*UserStatsResponse, error)
	RatingSummary(ctx context.Context, viewer *User, entityID uuid.UUID) (*repositories.RatingSummary, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) TrackingControllerInterface {
	return &TrackingController{
		trackingRepo:       repos.Tracking,
		entityRepo:         repos.Entity,
		transactionService: services.Transaction,
		statsService:       services.Stats,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

// Upsert creates the user's tracking record for an entity or updates the
// existing one. The stats adjustment runs in the same transaction as the
// tracking write.
func (c *TrackingController) Upsert(
	ctx context.Context,
	user *User,
	request *UpsertTrackingRequest,
) (*TrackingObject, error) {
	log := logger.NewWithContext(ctx, "trackingController").Function("Upsert")

	kind, err := ParseEntityKind(request.Type)
	if err != nil {
		return nil, err
	}
	if request.EntityID == uuid.Nil {
		return nil, ErrValidation
	}

	status := TrackingStatus(request.Status)
	if request.Status == "" {
		status = StatusPlanned
	}
	if !status.Valid() {
		return nil, ErrValidation
	}
	if request.Rating != nil && (*request.Rating < MinRating || *request.Rating > MaxRating) {
		return nil, ErrValidation
	}

	// The entity reference carries no database-level kind constraint, so
	// existence is checked here before any write.
	exists, err := c.entityRepo.Exists(ctx, kind, request.EntityID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	entity, err := c.entityRepo.GetByID(ctx, request.EntityID, user)
	if err != nil {
		return nil, err
	}

	var tracking *TrackingObject
	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		existing, err := c.trackingRepo.Get(txCtx, kind, request.EntityID, user.ID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		var previous *TrackingStatus
		if existing != nil {
			previousStatus := existing.Status
			previous = &previousStatus

			existing.Status = status
			if request.Rating != nil {
				existing.Rating = request.Rating
			}
			if request.Notes != nil {
				existing.Notes = *request.Notes
			}
			if err := c.trackingRepo.Update(txCtx, existing); err != nil {
				return err
			}
			tracking = existing
		} else {
			tracking = &TrackingObject{
				EntityID:   request.EntityID,
				EntityKind: kind,
				UserID:     user.ID,
				Status:     status,
				Rating:     request.Rating,
			}
			if request.Notes != nil {
				tracking.Notes = *request.Notes
			}
			created, err := c.trackingRepo.Create(txCtx, tracking)
			if err != nil {
				return err
			}
			tracking = created
		}

		if err := c.statsService.ApplyStatusChange(txCtx, user.ID, entity, previous, &status); err != nil {
			return err
		}

		appContext.OnCommit(txCtx, func() {
			_ = c.eventBus.PublishToUser(user.ID, events.TRACKING_UPDATED, map[string]any{
				"entityId": request.EntityID.String(),
				"status":   string(status),
			})
		})

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info(
		"Tracking record upserted",
		"userID", user.ID,
		"entityID", request.EntityID,
		"status", status,
	)
	return tracking, nil
}

// Get returns the user's record for one entity, or nil when absent. An
// absent record is an expected state, not an error.
func (c *TrackingController) Get(
	ctx context.Context,
	user *User,
	typeLabel string,
	entityID uuid.UUID,
) (*TrackingObject, error) {
	kind, err := ParseEntityKind(typeLabel)
	if err != nil {
		return nil, err
	}

	tracking, err := c.trackingRepo.Get(ctx, kind, entityID, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return tracking, nil
}

func (c *TrackingController) List(
	ctx context.Context,
	user *User,
	request *ListTrackingRequest,
) ([]*TrackingObject, error) {
	var kind *EntityKind
	if request.Type != "" {
		parsed, err := ParseEntityKind(request.Type)
		if err != nil {
			return nil, err
		}
		kind = &parsed
	}

	var status *TrackingStatus
	if request.Status != "" {
		parsed := TrackingStatus(request.Status)
		if !parsed.Valid() {
			return nil, ErrValidation
		}
		status = &parsed
	}

	return c.trackingRepo.ListForUser(ctx, user.ID, kind, status)
}

func (c *TrackingController) Delete(
	ctx context.Context,
	user *User,
	trackingID uuid.UUID,
) error {
	log := logger.NewWithContext(ctx, "trackingController").Function("Delete")

	tracking, err := c.trackingRepo.GetByID(ctx, trackingID)
	if err != nil {
		return err
	}
	if tracking.UserID != user.ID {
		return ErrNotFound
	}

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if err := c.trackingRepo.Delete(txCtx, trackingID); err != nil {
			return err
		}

		previous := tracking.Status
		return c.statsService.ApplyStatusChange(txCtx, user.ID, tracking.Entity, &previous, nil)
	})
	if err != nil {
		return err
	}

	log.Info("Tracking record deleted", "userID", user.ID, "trackingID", trackingID)
	return nil
}

func (c *TrackingController) Stats(ctx context.Context, user *User) (*UserStatsResponse, error) {
	stats, err := c.statsService.GetForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	counts, err := c.trackingRepo.CountByStatus(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &UserStatsResponse{Stats: stats, StatusCounts: counts}, nil
}

// RatingSummary aggregates everyone's ratings for an entity the viewer
// can see.
func (c *TrackingController) RatingSummary(
	ctx context.Context,
	viewer *User,
	entityID uuid.UUID,
) (*repositories.RatingSummary, error) {
	if _, err := c.entityRepo.GetByID(ctx, entityID, viewer); err != nil {
		return nil, err
	}
	return c.trackingRepo.RatingSummary(ctx, entityID)
}
