package imageprocessing

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/soniakeys/quant/median"
	"gopkg.in/yaml.v3"

	"github.com/rmitchellscott/bayerlab/internal/dither"
)

// MaxExtractColors bounds palette extraction; indexed PNG output cannot hold more.
const MaxExtractColors = 256

var builtinPalettes = map[string]color.Palette{
	"bw":     GrayscalePalette(1),
	"gray4":  GrayscalePalette(2),
	"gray16": GrayscalePalette(4),
	// Seven-colour ACeP panels
	"eink7": {
		color.RGBA{0, 0, 0, 255},       // Black
		color.RGBA{255, 255, 255, 255}, // White
		color.RGBA{0, 0, 255, 255},     // Blue
		color.RGBA{0, 255, 0, 255},     // Green
		color.RGBA{255, 0, 0, 255},     // Red
		color.RGBA{255, 255, 0, 255},   // Yellow
		color.RGBA{255, 165, 0, 255},   // Orange
	},
	// What the same panel actually shows for each state
	"eink7-measured": {
		color.RGBA{49, 40, 56, 255},
		color.RGBA{174, 173, 168, 255},
		color.RGBA{57, 63, 104, 255},
		color.RGBA{48, 101, 68, 255},
		color.RGBA{146, 61, 62, 255},
		color.RGBA{173, 160, 73, 255},
		color.RGBA{160, 83, 65, 255},
	},
	"spectra6": {
		color.RGBA{0, 0, 0, 255},
		color.RGBA{255, 255, 255, 255},
		color.RGBA{255, 255, 0, 255},
		color.RGBA{255, 0, 0, 255},
		color.RGBA{0, 0, 255, 255},
		color.RGBA{0, 255, 0, 255},
	},
	"cga": {
		color.RGBA{0, 0, 0, 255},
		color.RGBA{85, 255, 255, 255},
		color.RGBA{255, 85, 255, 255},
		color.RGBA{255, 255, 255, 255},
	},
}

// GetColorLevels returns the number of grey levels for a given bit depth
func GetColorLevels(bitDepth int) int {
	switch bitDepth {
	case 1:
		return 2
	case 2:
		return 4
	case 4:
		return 16
	default:
		return 256
	}
}

// GrayscalePalette creates evenly spaced grey levels for the bit depth
func GrayscalePalette(bitDepth int) color.Palette {
	levels := GetColorLevels(bitDepth)
	palette := make(color.Palette, levels)
	for i := 0; i < levels; i++ {
		value := uint8((i * 255) / (levels - 1))
		palette[i] = color.Gray{Y: value}
	}
	return palette
}

// BuiltinPaletteNames returns the names of the built-in palettes, sorted.
func BuiltinPaletteNames() []string {
	names := make([]string, 0, len(builtinPalettes))
	for name := range builtinPalettes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuiltinPalette returns a copy of a named built-in palette.
func BuiltinPalette(name string) (dither.Palette, bool) {
	p, ok := builtinPalettes[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return FromColorPalette(p), true
}

// ParseHexColor parses "#rrggbb", "rrggbb" or "#rgb".
func ParseHexColor(s string) (color.RGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// FormatHexColor renders an engine pixel as "#rrggbb".
func FormatHexColor(p dither.Pixel) string {
	c := ToRGBA(p)
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHexPalette parses a comma or whitespace separated list of hex colours.
func ParseHexPalette(s string) (dither.Palette, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t' || r == ';'
	})
	return ParseHexColors(fields)
}

// ParseHexColors parses each entry with ParseHexColor, keeping order.
func ParseHexColors(colors []string) (dither.Palette, error) {
	if len(colors) == 0 {
		return nil, fmt.Errorf("palette has no colours")
	}
	p := make(color.Palette, 0, len(colors))
	for _, s := range colors {
		c, err := ParseHexColor(s)
		if err != nil {
			return nil, err
		}
		p = append(p, c)
	}
	return FromColorPalette(p), nil
}

// FormatHexPalette renders a palette as a list of "#rrggbb" strings.
func FormatHexPalette(p dither.Palette) []string {
	out := make([]string, len(p))
	for i, px := range p {
		out[i] = FormatHexColor(px)
	}
	return out
}

// PaletteFile is the YAML layout of a palette file.
type PaletteFile struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Colors      []string `yaml:"colors"`
}

// LoadPaletteFile reads a YAML palette file.
func LoadPaletteFile(path string) (string, dither.Palette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read palette file: %w", err)
	}
	return ParsePaletteYAML(data)
}

// ParsePaletteYAML decodes a palette from YAML.
func ParsePaletteYAML(data []byte) (string, dither.Palette, error) {
	var pf PaletteFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return "", nil, fmt.Errorf("failed to parse palette file: %w", err)
	}
	p, err := ParseHexColors(pf.Colors)
	if err != nil {
		return "", nil, err
	}
	return pf.Name, p, nil
}

// MarshalPaletteYAML encodes a palette in the palette file layout.
func MarshalPaletteYAML(name string, p dither.Palette) ([]byte, error) {
	return yaml.Marshal(PaletteFile{Name: name, Colors: FormatHexPalette(p)})
}

// ExtractPalette derives up to n representative colours from img with
// median cut. The result may contain fewer colours for flat images.
func ExtractPalette(img image.Image, n int) (dither.Palette, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if n < 1 || n > MaxExtractColors {
		return nil, fmt.Errorf("colour count must be between 1 and %d, got %d", MaxExtractColors, n)
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("source image is empty")
	}

	p := median.Quantizer(n).Quantize(make(color.Palette, 0, n), img)
	if len(p) == 0 {
		return nil, fmt.Errorf("no colours extracted")
	}
	return FromColorPalette(p), nil
}
