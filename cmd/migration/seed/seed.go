package seed

import (
	"time"

	"digitaldome/config"
	"digitaldome/internal/logger"
	. "digitaldome/internal/models"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

func Seed(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("seed")
	log.Info("Seeding development data")

	users := []struct {
		displayName string
		email       string
		password    string
		isModerator bool
	}{
		{"Moderator", "moderator@example.com", "password", true},
		{"Test User", "test@example.com", "password", false},
		{"Ada Lovelace", "ada.lovelace@example.com", "password", false},
	}

	for _, u := range users {
		var existing User
		if err := db.First(&existing, "email = ?", u.email).Error; err == nil {
			log.Info("User already exists", "email", u.email)
			continue
		}

		user := User{
			DisplayName:   u.displayName,
			Email:         u.email,
			IsModerator:   u.isModerator,
			EmailVerified: true,
			IsActive:      true,
		}
		if err := user.SetPassword(u.password); err != nil {
			return log.Err("failed to hash seed password", err, "email", u.email)
		}

		log.Info("Seeding user", "email", u.email)
		if err := db.Create(&user).Error; err != nil {
			log.Er("failed to create user", err, "email", u.email)
		}
	}

	minutes := 142
	releaseDate := time.Date(1994, 9, 23, 0, 0, 0, 0, time.UTC)
	publishDate := time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC)
	entities := []Entity{
		{
			Kind:          KindMovie,
			Name:          "The Shawshank Redemption",
			Description:   "Two imprisoned men bond over a number of years.",
			ReleaseDate:   &releaseDate,
			LengthMinutes: &minutes,
			Director:      pq.StringArray{"Frank Darabont"},
			Cast:          pq.StringArray{"Tim Robbins", "Morgan Freeman"},
			Approved:      true,
		},
		{
			Kind:        KindBook,
			Name:        "The Left Hand of Darkness",
			Description: "An envoy to a planet whose inhabitants have no fixed sex.",
			Author:      pq.StringArray{"Ursula K. Le Guin"},
			PublishDate: &publishDate,
			Approved:    true,
		},
	}

	for _, entity := range entities {
		var existing Entity
		if err := db.First(&existing, "kind = ? AND lower(name) = lower(?)", entity.Kind, entity.Name).Error; err == nil {
			log.Info("Entity already exists", "name", entity.Name)
			continue
		}

		log.Info("Seeding entity", "kind", entity.Kind, "name", entity.Name)
		if err := db.Create(&entity).Error; err != nil {
			log.Er("failed to create entity", err, "name", entity.Name)
		}
	}

	return nil
}
