package entityController

import (
	"context"
	"errors"
	"time"

	"digitaldome/config"
	appContext "digitaldome/internal/context"
	"digitaldome/internal/database"
	"digitaldome/internal/events"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"
	"digitaldome/internal/repositories"
	"digitaldome/internal/services"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type EntityController struct {
	entityRepo         repositories.EntityRepository
	tagRepo            repositories.TagRepository
	platformRepo       repositories.PlatformRepository
	trackingRepo       repositories.TrackingRepository
	transactionService *services.TransactionService
	enrichment         *services.EnrichmentService
	storage            *services.StorageService
	eventBus           *events.EventBus
	db                 database.DB
	Config             config.Config
}

type EntityDetailsRequest struct {
	ReleaseDate   *string  `json:"releaseDate,omitempty"`
	LengthMinutes *int     `json:"lengthMinutes,omitempty"`
	Director      []string `json:"director,omitempty"`
	Cast          []string `json:"cast,omitempty"`
	IMDBURL       *string  `json:"imdbUrl,omitempty"`
	Creator       []string `json:"creator,omitempty"`
	Stars         []string `json:"stars,omitempty"`
	Developer     *string  `json:"developer,omitempty"`
	Publisher     *string  `json:"publisher,omitempty"`
	Platforms     []string `json:"platforms,omitempty"`
	Author        []string `json:"author,omitempty"`
	PublishDate   *string  `json:"publishDate,omitempty"`
	GoodreadsURL  *string  `json:"goodreadsUrl,omitempty"`
}

type CreateEntityRequest struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	WikipediaURL *string  `json:"wikipediaUrl,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
	Tags         []string `json:"tags,omitempty"`
	Enrich       bool     `json:"enrich,omitempty"`

	Details EntityDetailsRequest `json:"details"`
}

type UpdateEntityRequest struct {
	Name         *string  `json:"name,omitempty"`
	Description  *string  `json:"description,omitempty"`
	WikipediaURL *string  `json:"wikipediaUrl,omitempty"`
	Aliases      []string `json:"aliases,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	Details EntityDetailsRequest `json:"details"`
}

type CreateEntityResponse struct {
	Entity   *Entity  `json:"entity"`
	Warnings []string `json:"warnings,omitempty"`
}

type ListEntitiesRequest struct {
	Type   string `json:"type,omitempty"`
	Tag    string `json:"tag,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

type SearchEntitiesRequest struct {
	Query    string `json:"query"`
	Type     string `json:"type,omitempty"`
	Strategy string `json:"strategy,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type EntityControllerInterface interface {
	Create(ctx context.Context, user *User, request *CreateEntityRequest) (*CreateEntityResponse, error)
	Update(ctx context.Context, user *User, id uuid.UUID, request *UpdateEntityRequest) (*Entity, error)
	GetByID(ctx context.Context, viewer *User, id uuid.UUID) (*Entity, error)
	GetBySlug(ctx context.Context, viewer *User, slug string) (*Entity, error)
	List(ctx context.Context, viewer *User, request *ListEntitiesRequest) ([]*Entity, error)
	Search(ctx context.Context, viewer *User, request *SearchEntitiesRequest) ([]*Entity, error)
	Delete(ctx context.Context, user *User, id uuid.UUID) error
	Approve(ctx context.Context, moderator *User, id uuid.UUID) (*Entity, error)
	PendingApproval(ctx context.Context, moderator *User) ([]*Entity, error)
	Drafts(ctx context.Context, user *User) ([]*Entity, error)
	ListTags(ctx context.Context, typeLabel string) ([]*Tag, error)
	ListPlatforms(ctx context.Context) ([]*Platform, error)
}

func New(
	repos repositories.Repository,
	services services.Service,
	eventBus *events.EventBus,
	config config.Config,
	db database.DB,
) EntityControllerInterface {
	return &EntityController{
		entityRepo:         repos.Entity,
		tagRepo:            repos.Tag,
		platformRepo:       repos.Platform,
		trackingRepo:       repos.Tracking,
		transactionService: services.Transaction,
		enrichment:         services.Enrichment,
		storage:            services.Storage,
		eventBus:           eventBus,
		db:                 db,
		Config:             config,
	}
}

func (c *EntityController) Create(
	ctx context.Context,
	user *User,
	request *CreateEntityRequest,
) (*CreateEntityResponse, error) {
	log := logger.NewWithContext(ctx, "entityController").Function("Create")

	kind, err := ParseEntityKind(request.Type)
	if err != nil {
		return nil, err
	}
	if request.Name == "" {
		return nil, ErrValidation
	}

	entity := &Entity{
		Kind:         kind,
		Name:         request.Name,
		Description:  request.Description,
		WikipediaURL: request.WikipediaURL,
		Aliases:      pq.StringArray(request.Aliases),
		CreatedByID:  &user.ID,
	}
	if err := applyDetails(entity, &request.Details); err != nil {
		return nil, err
	}

	// Enrichment runs before the save so provider data lands in the same
	// insert. Provider trouble degrades to warnings, never an error.
	var warnings []string
	if request.Enrich {
		warnings = c.enrichment.Enrich(ctx, entity)
	}

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		tags, err := c.tagRepo.ResolveBatch(txCtx, kind, request.Tags)
		if err != nil {
			return err
		}

		if kind == KindGame && len(request.Details.Platforms) > 0 {
			platforms, err := c.platformRepo.ResolveBatch(txCtx, request.Details.Platforms)
			if err != nil {
				return err
			}
			entity.Platforms = platforms
		}

		if len(tags) > 0 {
			entity.Tags = tags
		}

		if _, err := c.entityRepo.Create(txCtx, entity); err != nil {
			return err
		}

		if entity.RequiresApproval() {
			entityID := entity.ID
			appContext.OnCommit(txCtx, func() {
				_ = c.eventBus.Publish(events.BROADCAST_CHANNEL, events.Event{
					Type: events.ENTITY_PENDING,
					Data: map[string]any{"entityId": entityID.String()},
				})
			})
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("Entity created", "kind", kind, "entityID", entity.ID, "draft", entity.Draft)
	return &CreateEntityResponse{Entity: entity, Warnings: warnings}, nil
}

func (c *EntityController) Update(
	ctx context.Context,
	user *User,
	id uuid.UUID,
	request *UpdateEntityRequest,
) (*Entity, error) {
	log := logger.NewWithContext(ctx, "entityController").Function("Update")

	entity, err := c.entityRepo.GetByID(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if !canEdit(entity, user) {
		return nil, ErrNotFound
	}

	if request.Name != nil && *request.Name != "" {
		entity.Name = *request.Name
	}
	if request.Description != nil {
		entity.Description = *request.Description
	}
	if request.WikipediaURL != nil {
		entity.WikipediaURL = request.WikipediaURL
	}
	if request.Aliases != nil {
		entity.Aliases = pq.StringArray(request.Aliases)
	}
	if err := applyDetails(entity, &request.Details); err != nil {
		return nil, err
	}

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if request.Tags != nil {
			tags, err := c.tagRepo.ResolveBatch(txCtx, entity.Kind, request.Tags)
			if err != nil {
				return err
			}
			if err := c.entityRepo.ReplaceTags(txCtx, entity, tags); err != nil {
				return err
			}
			entity.Tags = tags
		}

		if entity.Kind == KindGame && request.Details.Platforms != nil {
			platforms, err := c.platformRepo.ResolveBatch(txCtx, request.Details.Platforms)
			if err != nil {
				return err
			}
			if err := c.entityRepo.ReplacePlatforms(txCtx, entity, platforms); err != nil {
				return err
			}
			entity.Platforms = platforms
		}

		return c.entityRepo.Update(txCtx, entity)
	})
	if err != nil {
		return nil, err
	}

	log.Info("Entity updated", "entityID", entity.ID, "draft", entity.Draft)
	return entity, nil
}

func (c *EntityController) GetByID(
	ctx context.Context,
	viewer *User,
	id uuid.UUID,
) (*Entity, error) {
	return c.entityRepo.GetByID(ctx, id, viewer)
}

func (c *EntityController) GetBySlug(
	ctx context.Context,
	viewer *User,
	slug string,
) (*Entity, error) {
	return c.entityRepo.GetBySlug(ctx, slug, viewer)
}

func (c *EntityController) List(
	ctx context.Context,
	viewer *User,
	request *ListEntitiesRequest,
) ([]*Entity, error) {
	filter := repositories.EntityFilter{
		Tag:    request.Tag,
		Limit:  request.Limit,
		Offset: request.Offset,
	}

	if request.Type != "" {
		kind, err := ParseEntityKind(request.Type)
		if err != nil {
			return nil, err
		}
		filter.Kind = &kind
	}

	return c.entityRepo.List(ctx, filter, viewer)
}

// Search runs a single-kind query when a type filter is given, otherwise
// the cross-kind union ranked by relevance.
func (c *EntityController) Search(
	ctx context.Context,
	viewer *User,
	request *SearchEntitiesRequest,
) ([]*Entity, error) {
	strategy := searchStrategy(request.Strategy)

	if request.Type != "" {
		kind, err := ParseEntityKind(request.Type)
		if err != nil {
			return nil, err
		}
		return c.entityRepo.Search(ctx, kind, request.Query, strategy, viewer, request.Limit)
	}

	return c.entityRepo.SearchAll(ctx, request.Query, strategy, viewer, request.Limit)
}

// Delete removes an entity and, after commit, its tracking records and
// stored image. Moderators can delete anything; creators only their own
// not-yet-approved records.
func (c *EntityController) Delete(ctx context.Context, user *User, id uuid.UUID) error {
	log := logger.NewWithContext(ctx, "entityController").Function("Delete")

	entity, err := c.entityRepo.GetByID(ctx, id, user)
	if err != nil {
		return err
	}
	if !canEdit(entity, user) {
		return ErrNotFound
	}

	err = c.transactionService.Execute(ctx, func(txCtx context.Context, _ *gorm.DB) error {
		if err := c.entityRepo.Delete(txCtx, id); err != nil {
			return err
		}

		imagePath := entity.ImagePath
		appContext.OnCommit(txCtx, func() {
			// Tracking rows reference the entity without a database-level
			// cascade; clean them up now that the delete is durable. The
			// nightly prune catches anything this misses.
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := c.trackingRepo.DeleteForEntity(cleanupCtx, id); err != nil {
				log.Warn("failed to cascade tracking delete", "entityID", id, "error", err)
			}
			if imagePath != nil {
				if err := c.storage.Delete(*imagePath); err != nil {
					log.Warn("failed to delete entity image", "path", *imagePath, "error", err)
				}
			}
		})

		return nil
	})
	if err != nil {
		return err
	}

	log.Info("Entity deleted", "entityID", id)
	return nil
}

func (c *EntityController) Approve(
	ctx context.Context,
	moderator *User,
	id uuid.UUID,
) (*Entity, error) {
	log := logger.NewWithContext(ctx, "entityController").Function("Approve")

	if !moderator.IsModerator {
		return nil, ErrValidation
	}

	entity, err := c.entityRepo.Approve(ctx, id)
	if err != nil {
		return nil, err
	}

	if entity.CreatedByID != nil {
		_ = c.eventBus.PublishToUser(*entity.CreatedByID, events.ENTITY_APPROVED, map[string]any{
			"entityId": entity.ID.String(),
			"name":     entity.Name,
		})
	}

	log.Info("Entity approved", "entityID", id, "moderatorID", moderator.ID)
	return entity, nil
}

func (c *EntityController) PendingApproval(
	ctx context.Context,
	moderator *User,
) ([]*Entity, error) {
	if !moderator.IsModerator {
		return nil, ErrValidation
	}
	return c.entityRepo.PendingApproval(ctx, 0)
}

func (c *EntityController) Drafts(ctx context.Context, user *User) ([]*Entity, error) {
	return c.entityRepo.DraftsByUser(ctx, user.ID)
}

func (c *EntityController) ListTags(ctx context.Context, typeLabel string) ([]*Tag, error) {
	kind, err := ParseEntityKind(typeLabel)
	if err != nil {
		return nil, err
	}
	return c.tagRepo.GetAll(ctx, kind)
}

func (c *EntityController) ListPlatforms(ctx context.Context) ([]*Platform, error) {
	return c.platformRepo.GetAll(ctx)
}

func canEdit(entity *Entity, user *User) bool {
	if user == nil {
		return false
	}
	if user.IsModerator {
		return true
	}
	if entity.Approved {
		return false
	}
	return entity.CreatedByID != nil && *entity.CreatedByID == user.ID
}

func searchStrategy(name string) repositories.SearchStrategy {
	if name == "similarity" {
		return repositories.SimilaritySearch{}
	}
	return repositories.SubstringSearch{}
}

// applyDetails copies provided kind detail fields onto the entity. Dates
// arrive as YYYY-MM-DD strings.
func applyDetails(entity *Entity, details *EntityDetailsRequest) error {
	if details.ReleaseDate != nil {
		date, err := parseDate(*details.ReleaseDate)
		if err != nil {
			return err
		}
		entity.ReleaseDate = date
	}
	if details.LengthMinutes != nil {
		if *details.LengthMinutes <= 0 {
			return ErrValidation
		}
		entity.LengthMinutes = details.LengthMinutes
	}
	if details.Director != nil {
		entity.Director = pq.StringArray(details.Director)
	}
	if details.Cast != nil {
		entity.Cast = pq.StringArray(details.Cast)
	}
	if details.IMDBURL != nil {
		entity.IMDBURL = details.IMDBURL
	}
	if details.Creator != nil {
		entity.Creator = pq.StringArray(details.Creator)
	}
	if details.Stars != nil {
		entity.Stars = pq.StringArray(details.Stars)
	}
	if details.Developer != nil {
		entity.Developer = details.Developer
	}
	if details.Publisher != nil {
		entity.Publisher = details.Publisher
	}
	if details.Author != nil {
		entity.Author = pq.StringArray(details.Author)
	}
	if details.PublishDate != nil {
		date, err := parseDate(*details.PublishDate)
		if err != nil {
			return err
		}
		entity.PublishDate = date
	}
	if details.GoodreadsURL != nil {
		entity.GoodreadsURL = details.GoodreadsURL
	}
	return nil
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, errors.Join(ErrValidation, err)
	}
	return &date, nil
}
