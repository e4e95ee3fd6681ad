package database

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SavedPalette is a user-defined palette stored by name
type SavedPalette struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string         `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string         `gorm:"size:255" json:"description"`
	Colors      datatypes.JSON `gorm:"not null" json:"colors"` // ["#rrggbb", ...] in palette order
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// BeforeCreate sets UUID if not already set
func (p *SavedPalette) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HexColors decodes the stored colour list
func (p *SavedPalette) HexColors() ([]string, error) {
	var colors []string
	if err := json.Unmarshal(p.Colors, &colors); err != nil {
		return nil, err
	}
	return colors, nil
}

// RenderRecord keeps the parameters and outputs of one render
type RenderRecord struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SourceName      string         `gorm:"size:255" json:"source_name"`
	PaletteName     string         `gorm:"size:64" json:"palette_name"`
	PaletteColors   datatypes.JSON `json:"palette_colors"`
	Width           int            `json:"width"`
	Height          int            `json:"height"`
	Depth           int            `json:"depth"`
	StrengthDivisor float64        `json:"strength_divisor"`
	PlainURL        string         `json:"plain_url"`
	DitheredURL     string         `json:"dithered_url"`
	ReferenceURL    string         `json:"reference_url,omitempty"`
	DurationMs      int            `json:"duration_ms"`
	CreatedAt       time.Time      `gorm:"index" json:"created_at"`
}

// BeforeCreate sets UUID if not already set
func (r *RenderRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// GetAllModels returns all models for auto-migration
func GetAllModels() []interface{} {
	return []interface{}{
		&SavedPalette{},
		&RenderRecord{},
	}
}
