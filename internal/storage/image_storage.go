package storage

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/bayerlab/internal/logging"
)

// ImageStorage handles storing and retrieving rendered images
type ImageStorage struct {
	basePath string
	baseURL  string
}

// StoredImage describes one file written by StoreImage
type StoredImage struct {
	Filename string
	Path     string
	URL      string
	Size     int
}

// NewImageStorage creates a new image storage instance
func NewImageStorage(basePath, baseURL string) *ImageStorage {
	return &ImageStorage{
		basePath: basePath,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// StoreImage writes PNG data for one variant of a render. Filenames start
// with the render ID so all variants of a render can be found together.
func (s *ImageStorage) StoreImage(imageData []byte, renderID uuid.UUID, variant string) (*StoredImage, error) {
	if err := os.MkdirAll(s.basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create image directory: %w", err)
	}
	if variant == "" || strings.ContainsAny(variant, `/\.`) {
		return nil, fmt.Errorf("invalid image variant %q", variant)
	}

	hash := sha256.Sum256(imageData)
	filename := fmt.Sprintf("%s_%s_%x.png", renderID, variant, hash[:8])
	fullPath := filepath.Join(s.basePath, filename)

	if err := os.WriteFile(fullPath, imageData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write image file: %w", err)
	}

	return &StoredImage{
		Filename: filename,
		Path:     fullPath,
		URL:      fmt.Sprintf("%s/%s", s.baseURL, filename),
		Size:     len(imageData),
	}, nil
}

// DeleteRender removes every stored variant of a render.
func (s *ImageStorage) DeleteRender(renderID uuid.UUID) (int, error) {
	matches, err := filepath.Glob(filepath.Join(s.basePath, renderID.String()+"_*.png"))
	if err != nil {
		return 0, fmt.Errorf("failed to list render images: %w", err)
	}
	removed := 0
	for _, path := range matches {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}

// CleanupOldImages removes images older than maxAge and returns how many were removed
func (s *ImageStorage) CleanupOldImages(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.basePath)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read image directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".png") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			fullPath := filepath.Join(s.basePath, entry.Name())
			if err := os.Remove(fullPath); err != nil {
				logging.WarnWithComponent(logging.ComponentStorage, "Failed to remove old image", "path", fullPath, "error", err)
				continue
			}
			removed++
		}
	}

	return removed, nil
}
