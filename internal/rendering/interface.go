package rendering

import (
	"errors"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/rmitchellscott/bayerlab/internal/dither"
	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/storage"
)

var (
	// ErrInvalidRequest marks caller mistakes that are not engine argument errors
	ErrInvalidRequest = errors.New("invalid render request")
	// ErrUnknownPalette is returned when a palette name matches nothing
	ErrUnknownPalette = errors.New("unknown palette")
)

// Request describes one render. One palette source is used, in order:
// Colors, ExtractColors, PaletteName, then the configured default. With
// Colors set, PaletteName only names the inline palette.
type Request struct {
	Image      image.Image
	SourceName string

	PaletteName   string
	Colors        []string
	ExtractColors int

	Depth           *int     // nil uses the configured depth
	StrengthDivisor *float64 // nil or zero uses the configured divisor, then the palette size

	Width  int
	Height int
	Resize imageprocessing.ResizeMode

	Reference bool // also render through the dither library for comparison
}

// Outcome is a finished render
type Outcome struct {
	ID          uuid.UUID
	PaletteName string
	Palette     dither.Palette
	Depth       int
	Divisor     float64
	Result      *dither.Result

	PlainPNG     []byte
	DitheredPNG  []byte
	ReferencePNG []byte

	// Nil when the service has no storage
	Plain     *storage.StoredImage
	Dithered  *storage.StoredImage
	Reference *storage.StoredImage

	Duration time.Duration
}
