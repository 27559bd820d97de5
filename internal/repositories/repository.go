package repositories

import (
	"errors"

	"digitaldome/internal/database"

	"gorm.io/gorm"
)

type Repository struct {
	User      UserRepository
	Entity    EntityRepository
	Tag       TagRepository
	Platform  PlatformRepository
	Tracking  TrackingRepository
	UserStats UserStatsRepository
}

func New(db database.DB) Repository {
	return Repository{
		User:      NewUserRepository(db), // User repo needs cache for caching
		Entity:    NewEntityRepository(db),
		Tag:       NewTagRepository(db),
		Platform:  NewPlatformRepository(db),
		Tracking:  NewTrackingRepository(db),
		UserStats: NewUserStatsRepository(db),
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
