package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"digitaldome/config"
	"digitaldome/internal/logger"
)

// StorageService writes uploaded and downloaded media files to local disk
// under the configured media root. Paths stored on models are always
// relative to the root so the root can move between environments.
type StorageService struct {
	root    string
	baseURL string
	log     logger.Logger
}

func NewStorageService(config config.Config) (*StorageService, error) {
	log := logger.New("StorageService")

	root := config.MediaRoot
	if root == "" {
		root = "media"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, log.Err("failed to create media root", err, "root", root)
	}

	return &StorageService{
		root:    root,
		baseURL: strings.TrimRight(config.MediaBaseURL, "/"),
		log:     log,
	}, nil
}

// Save streams content to <root>/<dir>/<filename> and returns the relative
// path. Rejects names that would escape the media root.
func (s *StorageService) Save(dir, filename string, content io.Reader) (string, error) {
	log := s.log.Function("Save")

	relPath, err := s.cleanPath(filepath.Join(dir, filename))
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.root, relPath)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", log.Err("failed to create media directory", err, "path", fullPath)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return "", log.Err("failed to create media file", err, "path", fullPath)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			log.Warn("failed to close media file", "path", fullPath, "error", closeErr)
		}
	}()

	if _, err := io.Copy(file, content); err != nil {
		_ = os.Remove(fullPath)
		return "", log.Err("failed to write media file", err, "path", fullPath)
	}

	return relPath, nil
}

func (s *StorageService) Exists(relPath string) bool {
	relPath, err := s.cleanPath(relPath)
	if err != nil {
		return false
	}
	_, err = os.Stat(filepath.Join(s.root, relPath))
	return err == nil
}

func (s *StorageService) Delete(relPath string) error {
	log := s.log.Function("Delete")

	relPath, err := s.cleanPath(relPath)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.root, relPath)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return log.Err("failed to delete media file", err, "path", relPath)
	}

	return nil
}

// URL returns the public URL for a stored file.
func (s *StorageService) URL(relPath string) string {
	return s.baseURL + "/" + filepath.ToSlash(relPath)
}

// Open returns a reader for a stored file. Caller closes it.
func (s *StorageService) Open(relPath string) (io.ReadCloser, error) {
	relPath, err := s.cleanPath(relPath)
	if err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.root, relPath))
}

func (s *StorageService) cleanPath(relPath string) (string, error) {
	cleaned := filepath.Clean(relPath)
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid media path: %s", relPath)
	}
	return cleaned, nil
}
