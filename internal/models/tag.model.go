package models

import (
	"strings"
	"unicode/utf8"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Tag is a canonical label scoped to an entity kind (each kind has its own
// tag namespace). Aliases are alternate strings accepted as synonyms when
// matching external-API vocabulary.
type Tag struct {
	BaseUUIDModel
	Kind      EntityKind     `gorm:"type:text;not null;uniqueIndex:idx_tags_kind_name,priority:1" json:"kind"`
	Name      string         `gorm:"type:text;not null;uniqueIndex:idx_tags_kind_name,priority:2" json:"name"`
	NameLower string         `gorm:"type:text;not null;index:idx_tags_name_lower"                 json:"nameLower"`
	Aliases   pq.StringArray `gorm:"type:text[]"                                                  json:"aliases,omitempty"`
	Entities  []Entity       `gorm:"many2many:entity_tags"                                        json:"entities,omitempty"`
}

func (t *Tag) BeforeSave(tx *gorm.DB) error {
	if t.Name == "" || !t.Kind.Valid() {
		return gorm.ErrInvalidValue
	}
	if !utf8.ValidString(t.Name) || strings.Contains(t.Name, "\x00") {
		t.Name = strings.ToValidUTF8(strings.ReplaceAll(t.Name, "\x00", ""), "")
	}
	t.NameLower = strings.ToLower(t.Name)
	return nil
}

// MatchesLabel reports whether the label matches the tag name exactly or
// any of its aliases.
func (t *Tag) MatchesLabel(label string) bool {
	if t.Name == label {
		return true
	}
	for _, alias := range t.Aliases {
		if alias == label {
			return true
		}
	}
	return false
}

// Platform is the canonical registry of game platforms, shared across
// entities rather than namespaced per kind.
type Platform struct {
	BaseUUIDModel
	Name     string         `gorm:"type:text;not null;uniqueIndex:idx_platforms_name" json:"name"`
	Aliases  pq.StringArray `gorm:"type:text[]"                                       json:"aliases,omitempty"`
	Entities []Entity       `gorm:"many2many:entity_platforms"                        json:"entities,omitempty"`
}

func (p *Platform) BeforeSave(tx *gorm.DB) error {
	if p.Name == "" {
		return gorm.ErrInvalidValue
	}
	if !utf8.ValidString(p.Name) || strings.Contains(p.Name, "\x00") {
		p.Name = strings.ToValidUTF8(strings.ReplaceAll(p.Name, "\x00", ""), "")
	}
	return nil
}

func (p *Platform) MatchesLabel(label string) bool {
	if p.Name == label {
		return true
	}
	for _, alias := range p.Aliases {
		if alias == label {
			return true
		}
	}
	return false
}
