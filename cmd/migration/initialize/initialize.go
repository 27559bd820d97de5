package initialize

import (
	"digitaldome/config"
	. "digitaldome/internal/models"

	logger "digitaldome/internal/logger"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

func InitializeTables(db *gorm.DB, config config.Config, log logger.Logger) error {
	log = log.Function("InitializeTables")
	log.Info("Initializing essential production data")

	if err := initializePlatforms(db, log); err != nil {
		return log.Err("failed to initialize platforms", err)
	}

	log.Info("Table initialization complete")
	return nil
}

// initializePlatforms seeds the controlled platform vocabulary. Aliases
// cover the names external metadata providers use for the same platform.
func initializePlatforms(db *gorm.DB, log logger.Logger) error {
	log.Info("Initializing platform reference data")

	platforms := []Platform{
		{Name: "PC", Aliases: pq.StringArray{"PC (Microsoft Windows)", "Windows", "Linux", "Mac"}},
		{Name: "PlayStation 4", Aliases: pq.StringArray{"PS4"}},
		{Name: "PlayStation 5", Aliases: pq.StringArray{"PS5"}},
		{Name: "Xbox One", Aliases: pq.StringArray{}},
		{Name: "Xbox Series X/S", Aliases: pq.StringArray{"Xbox Series X|S", "Xbox Series"}},
		{Name: "Nintendo Switch", Aliases: pq.StringArray{"Switch"}},
		{Name: "Nintendo Switch 2", Aliases: pq.StringArray{"Switch 2"}},
		{Name: "Steam Deck", Aliases: pq.StringArray{}},
		{Name: "iOS", Aliases: pq.StringArray{"iPhone", "iPad"}},
		{Name: "Android", Aliases: pq.StringArray{}},
	}

	for _, platform := range platforms {
		var existing Platform
		if err := db.First(&existing, "name = ?", platform.Name).Error; err == nil {
			log.Debug("Platform already exists", "name", platform.Name)
			continue
		}
		log.Info("Initializing platform", "name", platform.Name)
		if err := db.Create(&platform).Error; err != nil {
			return log.Err("failed to create platform", err, "name", platform.Name)
		}
	}

	log.Info("Platform reference data initialized", "count", len(platforms))
	return nil
}
