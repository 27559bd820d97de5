package repositories

import (
	"context"
	"errors"
	"sort"
	"strings"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DefaultSearchLimit = 25

// SearchStrategy narrows an entity query to rows matching a free-text term.
// Strategies are stateless and safe for concurrent use.
type SearchStrategy interface {
	Name() string
	Apply(query *gorm.DB, term string) *gorm.DB
}

// SubstringSearch matches names or aliases containing the term,
// case-insensitively.
type SubstringSearch struct{}

func (SubstringSearch) Name() string { return "substring" }

func (SubstringSearch) Apply(query *gorm.DB, term string) *gorm.DB {
	pattern := "%" + escapeLike(term) + "%"
	return query.
		Where(
			"name ILIKE ? OR EXISTS (SELECT 1 FROM unnest(aliases) AS alias WHERE alias ILIKE ?)",
			pattern, pattern,
		).
		Order("lower(name) ASC")
}

// SimilaritySearch ranks names by pg_trgm trigram similarity. Rows below
// the threshold are dropped entirely rather than ranked last.
type SimilaritySearch struct {
	Threshold float64
}

func (SimilaritySearch) Name() string { return "similarity" }

func (s SimilaritySearch) Apply(query *gorm.DB, term string) *gorm.DB {
	threshold := s.Threshold
	if threshold <= 0 {
		threshold = 0.3
	}
	return query.
		Where("similarity(name, ?) > ?", term, threshold).
		Order(clause.Expr{SQL: "similarity(name, ?) DESC", Vars: []interface{}{term}})
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}

// EntityFilter selects a slice of the catalog for list endpoints.
type EntityFilter struct {
	Kind   *EntityKind
	Tag    string
	Limit  int
	Offset int
}

// searchHit carries the trigram relevance selected alongside each row so
// cross-kind results can merge into one ranked list.
type searchHit struct {
	Entity
	SearchRank float64 `gorm:"column:search_rank" json:"-"`
}

type EntityRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, viewer *User) (*Entity, error)
	GetBySlug(ctx context.Context, slug string, viewer *User) (*Entity, error)
	GetByName(ctx context.Context, kind EntityKind, name string) (*Entity, error)
	List(ctx context.Context, filter EntityFilter, viewer *User) ([]*Entity, error)
	Search(
		ctx context.Context,
		kind EntityKind,
		term string,
		strategy SearchStrategy,
		viewer *User,
		limit int,
	) ([]*Entity, error)
	SearchAll(
		ctx context.Context,
		term string,
		strategy SearchStrategy,
		viewer *User,
		limit int,
	) ([]*Entity, error)
	Create(ctx context.Context, entity *Entity) (*Entity, error)
	Update(ctx context.Context, entity *Entity) error
	Delete(ctx context.Context, id uuid.UUID) error
	Approve(ctx context.Context, id uuid.UUID) (*Entity, error)
	PendingApproval(ctx context.Context, limit int) ([]*Entity, error)
	DraftsByUser(ctx context.Context, userID uuid.UUID) ([]*Entity, error)
	Exists(ctx context.Context, kind EntityKind, id uuid.UUID) (bool, error)
	ReplaceTags(ctx context.Context, entity *Entity, tags []Tag) error
	ReplacePlatforms(ctx context.Context, entity *Entity, platforms []Platform) error
}

type entityRepository struct {
	db  database.DB
	log logger.Logger
}

func NewEntityRepository(db database.DB) EntityRepository {
	return &entityRepository{
		db:  db,
		log: logger.New("entityRepository"),
	}
}

// visibleTo scopes a query to records the viewer may see. Approved records
// are public; drafts and pending records show only to their creator and to
// moderators.
func visibleTo(viewer *User) func(*gorm.DB) *gorm.DB {
	return func(query *gorm.DB) *gorm.DB {
		if viewer != nil && viewer.IsModerator {
			return query
		}
		if viewer != nil {
			return query.Where("approved = ? OR created_by_id = ?", true, viewer.ID)
		}
		return query.Where("approved = ?", true)
	}
}

func (r *entityRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
	viewer *User,
) (*Entity, error) {
	log := r.log.Function("GetByID")

	var entity Entity
	err := r.db.SQLWithContext(ctx).
		Scopes(visibleTo(viewer)).
		Preload("Tags").
		Preload("Platforms").
		First(&entity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to get entity by id", err, "id", id)
	}

	return &entity, nil
}

func (r *entityRepository) GetBySlug(
	ctx context.Context,
	slug string,
	viewer *User,
) (*Entity, error) {
	log := r.log.Function("GetBySlug")

	var entity Entity
	err := r.db.SQLWithContext(ctx).
		Scopes(visibleTo(viewer)).
		Preload("Tags").
		Preload("Platforms").
		First(&entity, "slug = ?", slug).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to get entity by slug", err, "slug", slug)
	}

	return &entity, nil
}

// GetByName matches case-insensitively within a kind, the same comparison
// the uniqueness index enforces.
func (r *entityRepository) GetByName(
	ctx context.Context,
	kind EntityKind,
	name string,
) (*Entity, error) {
	log := r.log.Function("GetByName")

	var entity Entity
	err := r.db.SQLWithContext(ctx).
		First(&entity, "kind = ? AND lower(name) = lower(?)", kind, name).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to get entity by name", err, "kind", kind, "name", name)
	}

	return &entity, nil
}

func (r *entityRepository) List(
	ctx context.Context,
	filter EntityFilter,
	viewer *User,
) ([]*Entity, error) {
	log := r.log.Function("List")

	query := r.db.SQLWithContext(ctx).Scopes(visibleTo(viewer))
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Tag != "" {
		query = query.
			Joins("JOIN entity_tags ON entity_tags.entity_id = entities.id").
			Joins("JOIN tags ON tags.id = entity_tags.tag_id").
			Where("tags.name_lower = ?", strings.ToLower(filter.Tag))
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var entities []*Entity
	if err := query.Order("lower(entities.name) ASC").Find(&entities).Error; err != nil {
		return nil, log.Err("failed to list entities", err)
	}

	return entities, nil
}

func (r *entityRepository) Search(
	ctx context.Context,
	kind EntityKind,
	term string,
	strategy SearchStrategy,
	viewer *User,
	limit int,
) ([]*Entity, error) {
	log := r.log.Function("Search")

	if strings.TrimSpace(term) == "" {
		return nil, ErrValidation
	}
	if strategy == nil {
		strategy = SubstringSearch{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	query := r.db.SQLWithContext(ctx).
		Model(&Entity{}).
		Scopes(visibleTo(viewer)).
		Where("kind = ?", kind)
	query = strategy.Apply(query, term).Limit(limit)

	var entities []*Entity
	if err := query.Find(&entities).Error; err != nil {
		return nil, log.Err(
			"failed to search entities",
			err,
			"kind", kind,
			"strategy", strategy.Name(),
		)
	}

	return entities, nil
}

// SearchAll runs the per-kind search once for each kind, each query
// filtered and ranked on its own, then merges the hits into one list
// ordered by trigram relevance and truncated to limit.
func (r *entityRepository) SearchAll(
	ctx context.Context,
	term string,
	strategy SearchStrategy,
	viewer *User,
	limit int,
) ([]*Entity, error) {
	log := r.log.Function("SearchAll")

	if strings.TrimSpace(term) == "" {
		return nil, ErrValidation
	}
	if strategy == nil {
		strategy = SimilaritySearch{}
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	var merged []searchHit
	for _, kind := range AllEntityKinds() {
		query := r.db.SQLWithContext(ctx).
			Model(&Entity{}).
			Select("entities.*, similarity(name, ?) AS search_rank", term).
			Scopes(visibleTo(viewer)).
			Where("kind = ?", kind)
		query = strategy.Apply(query, term).Limit(limit)

		var hits []searchHit
		if err := query.Find(&hits).Error; err != nil {
			return nil, log.Err(
				"failed to search entities",
				err,
				"kind", kind,
				"strategy", strategy.Name(),
			)
		}
		merged = append(merged, hits...)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].SearchRank > merged[j].SearchRank
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}

	entities := make([]*Entity, len(merged))
	for i := range merged {
		entities[i] = &merged[i].Entity
	}

	return entities, nil
}

func (r *entityRepository) Create(ctx context.Context, entity *Entity) (*Entity, error) {
	log := r.log.Function("Create")

	if _, err := r.GetByName(ctx, entity.Kind, entity.Name); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if err := r.db.SQLWithContext(ctx).Create(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrConflict
		}
		if errors.Is(err, gorm.ErrInvalidValue) {
			return nil, ErrValidation
		}
		return nil, log.Err("failed to create entity", err, "kind", entity.Kind, "name", entity.Name)
	}

	return entity, nil
}

func (r *entityRepository) Update(ctx context.Context, entity *Entity) error {
	log := r.log.Function("Update")

	if existing, err := r.GetByName(ctx, entity.Kind, entity.Name); err == nil {
		if existing.ID != entity.ID {
			return ErrConflict
		}
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	if err := r.db.SQLWithContext(ctx).Save(entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		if errors.Is(err, gorm.ErrInvalidValue) {
			return ErrValidation
		}
		return log.Err("failed to update entity", err, "id", entity.ID)
	}

	return nil
}

func (r *entityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	log := r.log.Function("Delete")

	result := r.db.SQLWithContext(ctx).Delete(&Entity{}, "id = ?", id)
	if result.Error != nil {
		return log.Err("failed to delete entity", result.Error, "id", id)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *entityRepository) Approve(ctx context.Context, id uuid.UUID) (*Entity, error) {
	log := r.log.Function("Approve")

	var entity Entity
	err := r.db.SQLWithContext(ctx).First(&entity, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, log.Err("failed to load entity for approval", err, "id", id)
	}

	// Drafts cannot be approved until their detail fields are filled in.
	if entity.Draft {
		return nil, ErrValidation
	}
	if entity.Approved {
		return &entity, nil
	}

	entity.Approved = true
	if err := r.db.SQLWithContext(ctx).
		Model(&entity).
		Update("approved", true).Error; err != nil {
		return nil, log.Err("failed to approve entity", err, "id", id)
	}

	return &entity, nil
}

func (r *entityRepository) PendingApproval(ctx context.Context, limit int) ([]*Entity, error) {
	log := r.log.Function("PendingApproval")

	query := r.db.SQLWithContext(ctx).
		Where("draft = ? AND approved = ?", false, false).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var entities []*Entity
	if err := query.Find(&entities).Error; err != nil {
		return nil, log.Err("failed to list pending entities", err)
	}

	return entities, nil
}

func (r *entityRepository) DraftsByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*Entity, error) {
	log := r.log.Function("DraftsByUser")

	var entities []*Entity
	err := r.db.SQLWithContext(ctx).
		Where("draft = ? AND created_by_id = ?", true, userID).
		Order("updated_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, log.Err("failed to list drafts", err, "userID", userID)
	}

	return entities, nil
}

// Exists reports whether a live entity with the given kind and id exists.
// Tracking records check this before insert since the reference is not a
// database-level foreign key on kind.
func (r *entityRepository) Exists(
	ctx context.Context,
	kind EntityKind,
	id uuid.UUID,
) (bool, error) {
	log := r.log.Function("Exists")

	var count int64
	err := r.db.SQLWithContext(ctx).
		Model(&Entity{}).
		Where("id = ? AND kind = ?", id, kind).
		Count(&count).Error
	if err != nil {
		return false, log.Err("failed to check entity existence", err, "id", id, "kind", kind)
	}

	return count > 0, nil
}

func (r *entityRepository) ReplaceTags(
	ctx context.Context,
	entity *Entity,
	tags []Tag,
) error {
	log := r.log.Function("ReplaceTags")

	if err := r.db.SQLWithContext(ctx).
		Model(entity).
		Association("Tags").
		Replace(tags); err != nil {
		return log.Err("failed to replace entity tags", err, "id", entity.ID)
	}

	return nil
}

func (r *entityRepository) ReplacePlatforms(
	ctx context.Context,
	entity *Entity,
	platforms []Platform,
) error {
	log := r.log.Function("ReplacePlatforms")

	if err := r.db.SQLWithContext(ctx).
		Model(entity).
		Association("Platforms").
		Replace(platforms); err != nil {
		return log.Err("failed to replace entity platforms", err, "id", entity.ID)
	}

	return nil
}
