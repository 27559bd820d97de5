package services

import (
	"context"
	"os"
	"path/filepath"

	"digitaldome/internal/database"
	"digitaldome/internal/logger"
	"digitaldome/internal/models"
)

// FileCleanupService removes media files no entity references anymore.
// Deletions of entities queue their image removal as a commit hook, so
// this sweep only catches files left behind by crashes or manual edits.
type FileCleanupService struct {
	db      database.DB
	storage *StorageService
	log     logger.Logger
}

func NewFileCleanupService(db database.DB, storage *StorageService) *FileCleanupService {
	return &FileCleanupService{
		db:      db,
		storage: storage,
		log:     logger.New("FileCleanupService"),
	}
}

// SweepOrphanedImages walks the poster directory and deletes any file not
// referenced by a live entity. Returns the number of files removed.
func (s *FileCleanupService) SweepOrphanedImages(ctx context.Context) (int, error) {
	log := s.log.Function("SweepOrphanedImages")

	var referenced []string
	err := s.db.SQLWithContext(ctx).
		Model(&models.Entity{}).
		Where("image_path IS NOT NULL").
		Pluck("image_path", &referenced).Error
	if err != nil {
		return 0, log.Err("failed to load referenced image paths", err)
	}

	inUse := make(map[string]bool, len(referenced))
	for _, path := range referenced {
		inUse[filepath.Clean(path)] = true
	}

	removed := 0
	root := filepath.Join(s.storage.root, "posters")
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.storage.root, path)
		if err != nil {
			return err
		}
		if inUse[filepath.Clean(relPath)] {
			return nil
		}

		if err := s.storage.Delete(relPath); err != nil {
			log.Warn("failed to delete orphaned file", "path", relPath, "error", err)
			return nil
		}
		removed++
		return nil
	})
	if err != nil {
		return removed, log.Err("failed to walk poster directory", err)
	}

	if removed > 0 {
		log.Info("Removed orphaned media files", "count", removed)
	}
	return removed, nil
}
