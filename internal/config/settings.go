package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"
)

// maxDepth mirrors dither.MaxDepth; config does not import the engine.
const maxDepth = 8

// Settings is the resolved runtime configuration.
type Settings struct {
	// Dithering defaults, overridable per request
	DitherDepth     int
	StrengthDivisor float64 // 0 means "use the palette size"
	Workers         int
	DefaultPalette  string

	Port                string
	GinMode             string
	DataDir             string
	RenderedImagesPath  string
	RenderedImagesURL   string
	RenderRetention     time.Duration
	CleanupInterval     time.Duration
	MaxUploadMB         int
	RenderRatePerMinute int
}

// Load reads Settings from the environment.
func Load() *Settings {
	dataDir := Get("DATA_DIR", "./data")
	return &Settings{
		DitherDepth:         GetInt("DITHER_DEPTH", 2),
		StrengthDivisor:     GetFloat("DITHER_STRENGTH_DIVISOR", 0),
		Workers:             GetInt("DITHER_WORKERS", runtime.GOMAXPROCS(0)),
		DefaultPalette:      Get("DEFAULT_PALETTE", "bw"),
		Port:                Get("PORT", "8000"),
		GinMode:             Get("GIN_MODE", ""),
		DataDir:             dataDir,
		RenderedImagesPath:  Get("RENDERED_IMAGES_PATH", filepath.Join(dataDir, "rendered")),
		RenderedImagesURL:   Get("RENDERED_IMAGES_URL", "/static/rendered"),
		RenderRetention:     GetDuration("RENDER_RETENTION", 7*24*time.Hour),
		CleanupInterval:     GetDuration("CLEANUP_INTERVAL", time.Hour),
		MaxUploadMB:         GetInt("MAX_UPLOAD_MB", 20),
		RenderRatePerMinute: GetInt("RENDER_RATE_PER_MINUTE", 30),
	}
}

// Validate rejects settings the engine or server cannot run with.
func (s *Settings) Validate() error {
	if s.DitherDepth < 0 || s.DitherDepth > maxDepth {
		return fmt.Errorf("DITHER_DEPTH must be between 0 and %d, got %d", maxDepth, s.DitherDepth)
	}
	if s.StrengthDivisor < 0 {
		return fmt.Errorf("DITHER_STRENGTH_DIVISOR must not be negative, got %v", s.StrengthDivisor)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("DITHER_WORKERS must be positive, got %d", s.Workers)
	}
	if s.MaxUploadMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", s.MaxUploadMB)
	}
	if s.RenderRatePerMinute <= 0 {
		return fmt.Errorf("RENDER_RATE_PER_MINUTE must be positive, got %d", s.RenderRatePerMinute)
	}
	if s.CleanupInterval <= 0 {
		return fmt.Errorf("CLEANUP_INTERVAL must be positive, got %v", s.CleanupInterval)
	}
	return nil
}

// MaxUploadBytes returns the request size limit in bytes.
func (s *Settings) MaxUploadBytes() int64 {
	return int64(s.MaxUploadMB) << 20
}
