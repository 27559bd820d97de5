package repositories

import (
	"context"
	"errors"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm/clause"
)

type PlatformRepository interface {
	GetAll(ctx context.Context) ([]*Platform, error)
	GetByName(ctx context.Context, name string) (*Platform, error)
	FindByLabel(ctx context.Context, label string) (*Platform, error)
	FindOrCreate(ctx context.Context, label string) (*Platform, error)
	ResolveBatch(ctx context.Context, labels []string) ([]Platform, error)
	AddAlias(ctx context.Context, platform *Platform, alias string) error
}

type platformRepository struct {
	db  database.DB
	log logger.Logger
}

func NewPlatformRepository(db database.DB) PlatformRepository {
	return &platformRepository{
		db:  db,
		log: logger.New("platformRepository"),
	}
}

func (r *platformRepository) GetAll(ctx context.Context) ([]*Platform, error) {
	log := r.log.Function("GetAll")

	var platforms []*Platform
	if err := r.db.SQLWithContext(ctx).Order("name ASC").Find(&platforms).Error; err != nil {
		return nil, log.Err("failed to get platforms", err)
	}

	return platforms, nil
}

func (r *platformRepository) GetByName(ctx context.Context, name string) (*Platform, error) {
	log := r.log.Function("GetByName")

	var platform Platform
	if err := r.db.SQLWithContext(ctx).First(&platform, "name = ?", name).Error; err != nil {
		return nil, log.Err("failed to get platform by name", err, "name", name)
	}

	return &platform, nil
}

// FindByLabel matches the canonical name or any alias, exactly. Platform
// names come from a controlled vocabulary so no case folding applies.
func (r *platformRepository) FindByLabel(ctx context.Context, label string) (*Platform, error) {
	log := r.log.Function("FindByLabel")

	label, err := validateLabel(label)
	if err != nil {
		return nil, err
	}

	var platform Platform
	err = r.db.SQLWithContext(ctx).
		Where("name = ? OR ? = ANY(aliases)", label, label).
		First(&platform).Error
	if err == nil {
		return &platform, nil
	}
	if isNotFound(err) {
		return nil, ErrNotFound
	}

	return nil, log.Err("failed to find platform by label", err, "label", label)
}

func (r *platformRepository) FindOrCreate(ctx context.Context, label string) (*Platform, error) {
	log := r.log.Function("FindOrCreate")

	label, err := validateLabel(label)
	if err != nil {
		return nil, err
	}

	platform, err := r.FindByLabel(ctx, label)
	if err == nil {
		return platform, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newPlatform := &Platform{Name: label}
	if err := r.db.SQLWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(newPlatform).Error; err != nil {
		return nil, log.Err("failed to create platform", err, "label", label)
	}

	if newPlatform.ID == uuid.Nil {
		return r.GetByName(ctx, label)
	}

	log.Info("Created new platform", "name", label)
	return newPlatform, nil
}

// ResolveBatch mirrors the tag batch contract: validate everything up
// front, then resolve all labels with a flat number of queries. Platform
// labels match exactly, no case folding.
func (r *platformRepository) ResolveBatch(
	ctx context.Context,
	labels []string,
) ([]Platform, error) {
	log := r.log.Function("ResolveBatch")

	cleaned := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		label, err := validateLabel(label)
		if err != nil {
			return nil, err
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		cleaned = append(cleaned, label)
	}
	if len(cleaned) == 0 {
		return []Platform{}, nil
	}

	var existing []Platform
	err := r.db.SQLWithContext(ctx).
		Where("name IN ? OR aliases && ?", cleaned, pq.StringArray(cleaned)).
		Find(&existing).Error
	if err != nil {
		return nil, log.Err("failed to look up platform labels", err)
	}

	resolved := make(map[string]*Platform, len(cleaned))
	for i := range existing {
		platform := &existing[i]
		for _, label := range cleaned {
			if platform.MatchesLabel(label) {
				resolved[label] = platform
			}
		}
	}

	missing := make([]*Platform, 0, len(cleaned))
	missingNames := make([]string, 0, len(cleaned))
	for _, label := range cleaned {
		if _, ok := resolved[label]; ok {
			continue
		}
		missing = append(missing, &Platform{Name: label})
		missingNames = append(missingNames, label)
	}

	if len(missing) > 0 {
		if err := r.db.SQLWithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(missing, resolveBatchSize).Error; err != nil {
			return nil, log.Err("failed to create platforms", err)
		}

		var created []Platform
		err := r.db.SQLWithContext(ctx).
			Where("name IN ?", missingNames).
			Find(&created).Error
		if err != nil {
			return nil, log.Err("failed to load created platforms", err)
		}
		for i := range created {
			resolved[created[i].Name] = &created[i]
		}
		log.Info("Created new platforms", "count", len(created))
	}

	platforms := make([]Platform, 0, len(cleaned))
	for _, label := range cleaned {
		if platform, ok := resolved[label]; ok {
			platforms = append(platforms, *platform)
		}
	}

	return platforms, nil
}

func (r *platformRepository) AddAlias(
	ctx context.Context,
	platform *Platform,
	alias string,
) error {
	log := r.log.Function("AddAlias")

	alias, err := validateLabel(alias)
	if err != nil {
		return err
	}
	if platform.MatchesLabel(alias) {
		return nil
	}

	platform.Aliases = append(platform.Aliases, alias)
	if err := r.db.SQLWithContext(ctx).
		Model(platform).
		Update("aliases", pq.StringArray(platform.Aliases)).Error; err != nil {
		return log.Err("failed to add platform alias", err, "platform", platform.Name, "alias", alias)
	}

	return nil
}
