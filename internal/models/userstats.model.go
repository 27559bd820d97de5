package models

import (
	"github.com/google/uuid"
)

// UserStats is a denormalized aggregate of a user's tracking activity,
// maintained incrementally on Completed-boundary transitions so read
// paths stay O(1). Counters are exact integer minutes.
type UserStats struct {
	BaseUUIDModel
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_stats_user" json:"userId"`
	User   *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"      json:"user,omitempty"`

	MoviesMinutesWatched int64 `gorm:"type:bigint;not null;default:0" json:"moviesMinutesWatched"`
	MoviesCompleted      int64 `gorm:"type:bigint;not null;default:0" json:"moviesCompleted"`
}
