package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrPaletteExists is returned when creating a palette under a taken name
	ErrPaletteExists = errors.New("palette already exists")
)

// PaletteService handles saved palette operations
type PaletteService struct {
	db *gorm.DB
}

// NewPaletteService creates a new palette service
func NewPaletteService(db *gorm.DB) *PaletteService {
	return &PaletteService{db: db}
}

// normalizeName lower-cases and trims palette names so lookups are case-insensitive
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CreatePalette stores a palette. Colours must already be validated "#rrggbb" strings.
func (s *PaletteService) CreatePalette(name, description string, colors []string) (*SavedPalette, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, fmt.Errorf("palette name is required")
	}
	if len(colors) == 0 {
		return nil, fmt.Errorf("palette must have at least one colour")
	}

	var count int64
	if err := s.db.Model(&SavedPalette{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check palette name: %w", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: %s", ErrPaletteExists, name)
	}

	encoded, err := json.Marshal(colors)
	if err != nil {
		return nil, fmt.Errorf("failed to encode colours: %w", err)
	}

	palette := &SavedPalette{
		Name:        name,
		Description: description,
		Colors:      encoded,
	}
	if err := s.db.Create(palette).Error; err != nil {
		return nil, fmt.Errorf("failed to create palette: %w", err)
	}
	return palette, nil
}

// GetPaletteByName returns a saved palette
func (s *PaletteService) GetPaletteByName(name string) (*SavedPalette, error) {
	var palette SavedPalette
	err := s.db.Where("name = ?", normalizeName(name)).First(&palette).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: palette %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get palette: %w", err)
	}
	return &palette, nil
}

// ListPalettes returns all saved palettes ordered by name
func (s *PaletteService) ListPalettes() ([]SavedPalette, error) {
	var palettes []SavedPalette
	if err := s.db.Order("name ASC").Find(&palettes).Error; err != nil {
		return nil, fmt.Errorf("failed to list palettes: %w", err)
	}
	return palettes, nil
}

// DeletePalette removes a saved palette
func (s *PaletteService) DeletePalette(name string) error {
	result := s.db.Where("name = ?", normalizeName(name)).Delete(&SavedPalette{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete palette: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: palette %s", ErrNotFound, name)
	}
	return nil
}
