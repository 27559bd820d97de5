package database

import (
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
)

// MigrateModels runs GORM AutoMigrate for all models
func (db *DB) MigrateModels() error {
	log := logger.New("database").Function("MigrateModels")
	log.Info("Starting database migration")

	modelsToMigrate := []interface{}{
		&models.User{},
		&models.Entity{},
		&models.Tag{},
		&models.Platform{},
		&models.TrackingObject{},
		&models.UserStats{},
	}

	for _, model := range modelsToMigrate {
		if err := db.SQL.AutoMigrate(model); err != nil {
			log.Error("Failed to migrate model", "model", model, "error", err)
			return err
		}
	}

	log.Info("Database migration completed successfully")
	return nil
}

// CreateIndexes creates additional indexes that GORM doesn't create automatically
func (db *DB) CreateIndexes() error {
	log := logger.New("database").Function("CreateIndexes")
	log.Info("Creating additional database indexes")

	// pg_trgm backs the similarity search strategy. Extension creation needs
	// superuser on some installs; a failure downgrades search to substring.
	if err := db.SQL.Exec("CREATE EXTENSION IF NOT EXISTS pg_trgm").Error; err != nil {
		log.Warn("Failed to create pg_trgm extension, similarity search unavailable", "error", err)
	}

	indexes := []string{
		// Names are unique per kind, case-insensitively, among live rows.
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_entities_kind_name_lower ON entities (kind, lower(name)) WHERE deleted_at IS NULL",
		"CREATE INDEX IF NOT EXISTS idx_entities_name_trgm ON entities USING gin (name gin_trgm_ops)",
		"CREATE INDEX IF NOT EXISTS idx_entities_kind_approved ON entities (kind, approved) WHERE deleted_at IS NULL",
	}

	for _, indexSQL := range indexes {
		if err := db.SQL.Exec(indexSQL).Error; err != nil {
			log.Warn("Failed to create index", "sql", indexSQL, "error", err)
			// Continue with other indexes even if one fails
		}
	}

	log.Info("Additional database indexes created")
	return nil
}
