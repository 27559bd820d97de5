package repositories

import (
	"context"
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm/clause"
)

const (
	maxLabelBytes    = 255
	resolveBatchSize = 500
)

// validateLabel rejects labels that cannot be stored or matched: empty or
// whitespace-only strings, control characters, invalid UTF-8, and oversized
// values. Returns the trimmed label.
func validateLabel(label string) (string, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		return "", ErrValidation
	}
	if len(label) > maxLabelBytes || !utf8.ValidString(label) {
		return "", ErrValidation
	}
	for _, r := range label {
		if unicode.IsControl(r) {
			return "", ErrValidation
		}
	}
	return label, nil
}

type TagRepository interface {
	GetAll(ctx context.Context, kind EntityKind) ([]*Tag, error)
	GetByName(ctx context.Context, kind EntityKind, name string) (*Tag, error)
	FindByLabel(ctx context.Context, kind EntityKind, label string) (*Tag, error)
	FindOrCreate(ctx context.Context, kind EntityKind, label string) (*Tag, error)
	ResolveBatch(ctx context.Context, kind EntityKind, labels []string) ([]Tag, error)
	AddAlias(ctx context.Context, tag *Tag, alias string) error
	Delete(ctx context.Context, kind EntityKind, name string) error
}

type tagRepository struct {
	db  database.DB
	log logger.Logger
}

func NewTagRepository(db database.DB) TagRepository {
	return &tagRepository{
		db:  db,
		log: logger.New("tagRepository"),
	}
}

func (r *tagRepository) GetAll(ctx context.Context, kind EntityKind) ([]*Tag, error) {
	log := r.log.Function("GetAll")

	var tags []*Tag
	err := r.db.SQLWithContext(ctx).
		Where("kind = ?", kind).
		Order("name_lower ASC").
		Find(&tags).Error
	if err != nil {
		return nil, log.Err("failed to get tags", err, "kind", kind)
	}

	return tags, nil
}

func (r *tagRepository) GetByName(
	ctx context.Context,
	kind EntityKind,
	name string,
) (*Tag, error) {
	log := r.log.Function("GetByName")

	var tag Tag
	err := r.db.SQLWithContext(ctx).
		First(&tag, "kind = ? AND name_lower = ?", kind, strings.ToLower(name)).Error
	if err != nil {
		return nil, log.Err("failed to get tag by name", err, "kind", kind, "name", name)
	}

	return &tag, nil
}

// FindByLabel resolves a label to its canonical tag, matching the name
// first and falling back to the alias list. Returns ErrNotFound when no
// tag claims the label.
func (r *tagRepository) FindByLabel(
	ctx context.Context,
	kind EntityKind,
	label string,
) (*Tag, error) {
	log := r.log.Function("FindByLabel")

	label, err := validateLabel(label)
	if err != nil {
		return nil, err
	}

	var tag Tag
	err = r.db.SQLWithContext(ctx).
		Where("kind = ?", kind).
		Where("name_lower = ? OR ? = ANY(aliases)", strings.ToLower(label), label).
		First(&tag).Error
	if err == nil {
		return &tag, nil
	}
	if isNotFound(err) {
		return nil, ErrNotFound
	}

	return nil, log.Err("failed to find tag by label", err, "kind", kind, "label", label)
}

func (r *tagRepository) FindOrCreate(
	ctx context.Context,
	kind EntityKind,
	label string,
) (*Tag, error) {
	log := r.log.Function("FindOrCreate")

	label, err := validateLabel(label)
	if err != nil {
		return nil, err
	}

	tag, err := r.FindByLabel(ctx, kind, label)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	newTag := &Tag{Kind: kind, Name: label}
	if err := r.db.SQLWithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(newTag).Error; err != nil {
		return nil, log.Err("failed to create tag", err, "kind", kind, "label", label)
	}

	// A concurrent insert may have won the conflict; re-read the canonical row.
	if newTag.ID == uuid.Nil {
		return r.GetByName(ctx, kind, label)
	}

	log.Info("Created new tag", "kind", kind, "name", label)
	return newTag, nil
}

// ResolveBatch maps a list of labels to canonical tags, creating any that
// do not exist yet. All labels are validated before the first write so a
// bad label fails the batch without partial inserts. The query count stays
// flat no matter how many labels arrive: one alias-aware fetch, one bulk
// insert of the missing set ignoring conflicts, one fetch of the inserted
// names.
func (r *tagRepository) ResolveBatch(
	ctx context.Context,
	kind EntityKind,
	labels []string,
) ([]Tag, error) {
	log := r.log.Function("ResolveBatch")

	cleaned := make([]string, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		label, err := validateLabel(label)
		if err != nil {
			return nil, err
		}
		if seen[strings.ToLower(label)] {
			continue
		}
		seen[strings.ToLower(label)] = true
		cleaned = append(cleaned, label)
	}
	if len(cleaned) == 0 {
		return []Tag{}, nil
	}

	lowered := make([]string, len(cleaned))
	for i, label := range cleaned {
		lowered[i] = strings.ToLower(label)
	}

	var existing []Tag
	err := r.db.SQLWithContext(ctx).
		Where("kind = ?", kind).
		Where("name_lower IN ? OR aliases && ?", lowered, pq.StringArray(cleaned)).
		Find(&existing).Error
	if err != nil {
		return nil, log.Err("failed to look up tag labels", err, "kind", kind)
	}

	resolved := make(map[string]*Tag, len(cleaned))
	for i := range existing {
		tag := &existing[i]
		for _, label := range cleaned {
			if tag.NameLower == strings.ToLower(label) || tag.MatchesLabel(label) {
				resolved[strings.ToLower(label)] = tag
			}
		}
	}

	missing := make([]*Tag, 0, len(cleaned))
	missingLower := make([]string, 0, len(cleaned))
	for _, label := range cleaned {
		if _, ok := resolved[strings.ToLower(label)]; ok {
			continue
		}
		missing = append(missing, &Tag{Kind: kind, Name: label})
		missingLower = append(missingLower, strings.ToLower(label))
	}

	if len(missing) > 0 {
		// Concurrent imports may race on the same names; the conflict
		// losers are reconciled by the follow-up read.
		if err := r.db.SQLWithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			CreateInBatches(missing, resolveBatchSize).Error; err != nil {
			return nil, log.Err("failed to create tags", err, "kind", kind)
		}

		var created []Tag
		err := r.db.SQLWithContext(ctx).
			Where("kind = ? AND name_lower IN ?", kind, missingLower).
			Find(&created).Error
		if err != nil {
			return nil, log.Err("failed to load created tags", err, "kind", kind)
		}
		for i := range created {
			resolved[created[i].NameLower] = &created[i]
		}
		log.Info("Created new tags", "kind", kind, "count", len(created))
	}

	tags := make([]Tag, 0, len(cleaned))
	for _, label := range cleaned {
		if tag, ok := resolved[strings.ToLower(label)]; ok {
			tags = append(tags, *tag)
		}
	}

	return tags, nil
}

func (r *tagRepository) AddAlias(ctx context.Context, tag *Tag, alias string) error {
	log := r.log.Function("AddAlias")

	alias, err := validateLabel(alias)
	if err != nil {
		return err
	}
	if tag.MatchesLabel(alias) {
		return nil
	}

	tag.Aliases = append(tag.Aliases, alias)
	if err := r.db.SQLWithContext(ctx).
		Model(tag).
		Update("aliases", pq.StringArray(tag.Aliases)).Error; err != nil {
		return log.Err("failed to add tag alias", err, "tag", tag.Name, "alias", alias)
	}

	return nil
}

func (r *tagRepository) Delete(ctx context.Context, kind EntityKind, name string) error {
	log := r.log.Function("Delete")

	result := r.db.SQLWithContext(ctx).
		Where("kind = ? AND name_lower = ?", kind, strings.ToLower(name)).
		Delete(&Tag{})
	if result.Error != nil {
		return log.Err("failed to delete tag", result.Error, "kind", kind, "name", name)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
