package services

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"digitaldome/config"

	"github.com/stretchr/testify/assert"
)

func newTestStorageService(t *testing.T) *StorageService {
	service, err := NewStorageService(config.Config{
		MediaRoot:    t.TempDir(),
		MediaBaseURL: "http://localhost:8288/media/",
	})
	if err != nil {
		t.Fatalf("failed to create storage service: %v", err)
	}
	return service
}

func TestStorageService_SaveExistsDelete(t *testing.T) {
	service := newTestStorageService(t)

	relPath, err := service.Save("avatars", "user.png", strings.NewReader("png bytes"))
	assert.NoError(t, err)
	assert.Equal(t, filepath.Join("avatars", "user.png"), relPath)
	assert.True(t, service.Exists(relPath))

	reader, err := service.Open(relPath)
	assert.NoError(t, err)
	content, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.NoError(t, reader.Close())
	assert.Equal(t, "png bytes", string(content))

	assert.NoError(t, service.Delete(relPath))
	assert.False(t, service.Exists(relPath))

	// Deleting a missing file is not an error
	assert.NoError(t, service.Delete(relPath))
}

func TestStorageService_RejectsEscapingPaths(t *testing.T) {
	service := newTestStorageService(t)

	tests := []struct {
		name     string
		dir      string
		filename string
	}{
		{"parent traversal", "..", "secrets.txt"},
		{"nested traversal", "avatars", "../../etc/passwd"},
		{"absolute path", "/etc", "passwd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.Save(tt.dir, tt.filename, strings.NewReader("x"))
			assert.Error(t, err)
		})
	}

	assert.False(t, service.Exists("../outside"))
	assert.Error(t, service.Delete("../outside"))
}

func TestStorageService_URL(t *testing.T) {
	service := newTestStorageService(t)
	assert.Equal(
		t,
		"http://localhost:8288/media/avatars/user.png",
		service.URL(filepath.Join("avatars", "user.png")),
	)
}

func TestNewStorageService_DefaultsRoot(t *testing.T) {
	// Run from a temp dir so the default "media" root lands somewhere disposable
	wd, err := os.Getwd()
	assert.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
	assert.NoError(t, os.Chdir(t.TempDir()))

	service, err := NewStorageService(config.Config{})
	assert.NoError(t, err)
	assert.NotNil(t, service)
	assert.DirExists(t, "media")
}
