package models

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MaxEntityNameLength        = 128
	MaxEntityDescriptionLength = 500
)

// Entity is a trackable media record. All four kinds share one table,
// discriminated by Kind; kind-specific detail columns are nullable and
// only meaningful for their kind.
type Entity struct {
	BaseUUIDModel
	Kind         EntityKind     `gorm:"type:text;not null;index:idx_entities_kind"         json:"kind"`
	Name         string         `gorm:"type:varchar(128);not null;index:idx_entities_name" json:"name" validate:"required"`
	Slug         string         `gorm:"type:text;not null;uniqueIndex:idx_entities_slug"   json:"slug"`
	Description  string         `gorm:"type:varchar(500)"                                  json:"description"`
	ImagePath    *string        `gorm:"type:text"                                          json:"imagePath,omitempty"`
	WikipediaURL *string        `gorm:"type:text"                                          json:"wikipediaUrl,omitempty"`
	Aliases      pq.StringArray `gorm:"type:text[]"                                        json:"aliases,omitempty"`

	// Incomplete record, visible to the creating user only.
	Draft bool `gorm:"type:bool;default:false;index:idx_entities_draft" json:"draft"`

	// Moderator sign-off; non-draft unapproved records wait in the approval queue.
	Approved bool `gorm:"type:bool;default:false;index:idx_entities_approved" json:"approved"`

	CreatedByID *uuid.UUID `gorm:"type:uuid;index:idx_entities_created_by" json:"createdById,omitempty"`
	CreatedBy   *User      `gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL" json:"createdBy,omitempty"`

	// Raw payload from the last external-metadata enrichment.
	Metadata datatypes.JSON `json:"metadata,omitempty"`

	// Movie
	ReleaseDate   *time.Time     `gorm:"type:date"   json:"releaseDate,omitempty"`
	LengthMinutes *int           `gorm:"type:int"    json:"lengthMinutes,omitempty"`
	Director      pq.StringArray `gorm:"type:text[]" json:"director,omitempty"`
	Cast          pq.StringArray `gorm:"type:text[]" json:"cast,omitempty"`
	IMDBURL       *string        `gorm:"type:text"   json:"imdbUrl,omitempty"`

	// Show
	Creator pq.StringArray `gorm:"type:text[]" json:"creator,omitempty"`
	Stars   pq.StringArray `gorm:"type:text[]" json:"stars,omitempty"`

	// Game
	Developer *string    `gorm:"type:text"                  json:"developer,omitempty"`
	Publisher *string    `gorm:"type:text"                  json:"publisher,omitempty"`
	Platforms []Platform `gorm:"many2many:entity_platforms" json:"platforms,omitempty"`

	// Book
	Author       pq.StringArray `gorm:"type:text[]" json:"author,omitempty"`
	PublishDate  *time.Time     `gorm:"type:date"   json:"publishDate,omitempty"`
	GoodreadsURL *string        `gorm:"type:text"   json:"goodreadsUrl,omitempty"`

	Tags []Tag `gorm:"many2many:entity_tags" json:"tags,omitempty"`
}

func (e *Entity) BeforeSave(tx *gorm.DB) error {
	if e.Name == "" || !e.Kind.Valid() {
		return gorm.ErrInvalidValue
	}
	if !utf8.ValidString(e.Name) || strings.Contains(e.Name, "\x00") {
		e.Name = strings.ToValidUTF8(strings.ReplaceAll(e.Name, "\x00", ""), "")
	}
	if utf8.RuneCountInString(e.Name) > MaxEntityNameLength {
		return gorm.ErrInvalidValue
	}
	if utf8.RuneCountInString(e.Description) > MaxEntityDescriptionLength {
		return gorm.ErrInvalidValue
	}
	if e.Slug == "" {
		e.Slug = slug.Make(string(e.Kind) + "-" + e.Name)
	}
	e.Draft = len(e.MissingDetailFields()) > 0
	return nil
}

// MissingDetailFields returns the names of the kind-specific detail fields
// that are still unset. An entity with any missing field stays a draft.
func (e *Entity) MissingDetailFields() []string {
	var missing []string

	switch e.Kind {
	case KindMovie:
		if e.ReleaseDate == nil {
			missing = append(missing, "release_date")
		}
		if e.LengthMinutes == nil {
			missing = append(missing, "length")
		}
		if len(e.Director) == 0 {
			missing = append(missing, "director")
		}
		if len(e.Cast) == 0 {
			missing = append(missing, "cast")
		}
	case KindShow:
		if e.ReleaseDate == nil {
			missing = append(missing, "release_date")
		}
		if len(e.Creator) == 0 {
			missing = append(missing, "creator")
		}
		if len(e.Stars) == 0 {
			missing = append(missing, "stars")
		}
	case KindGame:
		if e.ReleaseDate == nil {
			missing = append(missing, "release_date")
		}
		if e.Developer == nil {
			missing = append(missing, "developer")
		}
		if e.Publisher == nil {
			missing = append(missing, "publisher")
		}
		if len(e.Platforms) == 0 {
			missing = append(missing, "platforms")
		}
	case KindBook:
		if len(e.Author) == 0 {
			missing = append(missing, "author")
		}
		if e.PublishDate == nil {
			missing = append(missing, "publish_date")
		}
	}

	return missing
}

// RequiresApproval reports whether the entity sits in the moderator queue.
func (e *Entity) RequiresApproval() bool {
	return !e.Draft && !e.Approved
}

// VisibleTo implements the visibility predicate for a single loaded record.
// List queries apply the equivalent SQL scope instead.
func (e *Entity) VisibleTo(user *User) bool {
	if e.Approved {
		return true
	}
	if user == nil {
		return false
	}
	if user.IsModerator {
		return true
	}
	return e.CreatedByID != nil && *e.CreatedByID == user.ID
}
