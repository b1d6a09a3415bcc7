package storage

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"personcam/internal/logger"
)

// ErrNotFound is returned when a requested artifact does not exist on disk.
var ErrNotFound = errors.New("artifact not found")

// ArtifactService owns the annotated-image artifacts referenced by detection
// events. Filenames are derived from the write time with microsecond
// precision so bursty ingestion never collides.
type ArtifactService struct {
	imagesDir string
	logger    *logger.Logger
}

// NewArtifactService creates the artifact store and ensures its directory exists.
func NewArtifactService(imagesDir string, log *logger.Logger) (*ArtifactService, error) {
	if err := os.MkdirAll(imagesDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}

	return &ArtifactService{
		imagesDir: imagesDir,
		logger:    log,
	}, nil
}

// Save writes an annotated image to disk and returns its generated filename.
func (s *ArtifactService) Save(data []byte) (string, error) {
	now := time.Now()
	filename := fmt.Sprintf("detection_%s_%06d.jpg",
		now.Format("20060102_150405"), now.Nanosecond()/1000)

	fullpath := filepath.Join(s.imagesDir, filename)
	if err := os.WriteFile(fullpath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save artifact %s: %w", filename, err)
	}

	return filename, nil
}

// Read returns the raw bytes of a stored artifact.
func (s *ArtifactService) Read(filename string) ([]byte, error) {
	path, err := s.safePath(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", filename, err)
	}

	return data, nil
}

// Remove deletes an artifact. A missing file is not an error: the row is the
// authoritative record and the artifact may already be gone.
func (s *ArtifactService) Remove(filename string) error {
	path, err := s.safePath(filename)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove artifact %s: %w", filename, err)
	}
	return nil
}

// ContentType guesses the mime type from the artifact's extension.
func (s *ArtifactService) ContentType(filename string) string {
	if ct := mime.TypeByExtension(filepath.Ext(filename)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

// Dir returns the artifact directory.
func (s *ArtifactService) Dir() string {
	return s.imagesDir
}

// safePath resolves a filename inside the artifact directory, rejecting
// anything that would escape it.
func (s *ArtifactService) safePath(filename string) (string, error) {
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "\\") ||
		filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return "", ErrNotFound
	}
	return filepath.Join(s.imagesDir, filename), nil
}
