package models

import (
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TrackingStatus string

const (
	StatusPlanned    TrackingStatus = "planned"
	StatusInProgress TrackingStatus = "in_progress"
	StatusCompleted  TrackingStatus = "completed"
	StatusDropped    TrackingStatus = "dropped"
	StatusOnHold     TrackingStatus = "on_hold"
)

const (
	MaxTrackingNotesLength = 150
	MinRating              = 1
	MaxRating              = 5
)

func (s TrackingStatus) Valid() bool {
	switch s {
	case StatusPlanned, StatusInProgress, StatusCompleted, StatusDropped, StatusOnHold:
		return true
	}
	return false
}

// Display returns the human-readable status label used in views and exports.
func (s TrackingStatus) Display() string {
	switch s {
	case StatusPlanned:
		return "Planned"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusDropped:
		return "Dropped"
	case StatusOnHold:
		return "On Hold"
	}
	return string(s)
}

var displayToStatus = map[string]TrackingStatus{
	"Planned":     StatusPlanned,
	"In Progress": StatusInProgress,
	"Completed":   StatusCompleted,
	"Dropped":     StatusDropped,
	"On Hold":     StatusOnHold,
}

// ParseTrackingStatusLabel resolves a display label back to a status,
// used by the import pipeline's round trip.
func ParseTrackingStatusLabel(label string) (TrackingStatus, bool) {
	status, ok := displayToStatus[label]
	return status, ok
}

// TrackingObject is a user's personal status/rating/notes for one entity.
// The (entity, user) pair is unique; the entity reference is a kind tag
// plus id, with existence enforced at the application level.
type TrackingObject struct {
	BaseUUIDModel
	EntityID   uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_entity_user,priority:1;index:idx_tracking_entity" json:"entityId"`
	EntityKind EntityKind `gorm:"type:text;not null"                                                                           json:"entityKind"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_tracking_entity_user,priority:2;index:idx_tracking_user_status,priority:1" json:"userId"`

	Status TrackingStatus `gorm:"type:text;not null;default:'planned';index:idx_tracking_user_status,priority:2" json:"status"`
	Rating *int           `gorm:"type:int"          json:"rating,omitempty"`
	Notes  string         `gorm:"type:varchar(150)" json:"notes"`

	Entity *Entity `gorm:"foreignKey:EntityID" json:"entity,omitempty"`
	User   *User   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
}

func (t *TrackingObject) BeforeSave(tx *gorm.DB) error {
	if t.EntityID == uuid.Nil || t.UserID == uuid.Nil || !t.EntityKind.Valid() {
		return gorm.ErrInvalidValue
	}
	if !t.Status.Valid() {
		return gorm.ErrInvalidValue
	}
	if t.Rating != nil && (*t.Rating < MinRating || *t.Rating > MaxRating) {
		return gorm.ErrInvalidValue
	}
	if utf8.RuneCountInString(t.Notes) > MaxTrackingNotesLength {
		return gorm.ErrInvalidValue
	}
	return nil
}
