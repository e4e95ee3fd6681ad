package rendering

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/dither"
	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
)

// PaletteStore looks up user palettes by name
type PaletteStore interface {
	GetPaletteByName(name string) (*database.SavedPalette, error)
}

// ResolvePalette picks the palette for req. src is the prepared image, used
// only for extraction.
func (s *Service) ResolvePalette(req Request, src image.Image) (string, dither.Palette, error) {
	name := strings.ToLower(strings.TrimSpace(req.PaletteName))

	switch {
	case len(req.Colors) > 0:
		if len(req.Colors) > imageprocessing.MaxExtractColors {
			return "", nil, fmt.Errorf("%w: palette has %d colours, at most %d are supported",
				ErrInvalidRequest, len(req.Colors), imageprocessing.MaxExtractColors)
		}
		p, err := imageprocessing.ParseHexColors(req.Colors)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		// PaletteName only labels inline colours
		if name == "" {
			name = "custom"
		}
		return name, p, nil

	case req.ExtractColors > 0:
		p, err := imageprocessing.ExtractPalette(src, req.ExtractColors)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return fmt.Sprintf("extracted-%d", len(p)), p, nil
	}

	if name == "" {
		name = s.settings.DefaultPalette
	}
	return s.LookupPalette(name)
}

// LookupPalette returns a builtin palette or, failing that, a stored one
func (s *Service) LookupPalette(name string) (string, dither.Palette, error) {
	if p, ok := imageprocessing.BuiltinPalette(name); ok {
		return name, p, nil
	}
	if s.palettes == nil {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownPalette, name)
	}

	saved, err := s.palettes.GetPaletteByName(name)
	if errors.Is(err, database.ErrNotFound) {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownPalette, name)
	}
	if err != nil {
		return "", nil, err
	}

	colors, err := saved.HexColors()
	if err != nil {
		return "", nil, fmt.Errorf("stored palette %s is corrupt: %w", name, err)
	}
	p, err := imageprocessing.ParseHexColors(colors)
	if err != nil {
		return "", nil, fmt.Errorf("stored palette %s is corrupt: %w", name, err)
	}
	return saved.Name, p, nil
}
