package imageprocessing

import (
	"fmt"
	"image"

	"github.com/makeworld-the-better-one/dither/v2"

	bayer "github.com/rmitchellscott/bayerlab/internal/dither"
)

// OrderedMatrix converts a Bayer matrix into the dither library's ordered
// matrix type.
func OrderedMatrix(m bayer.Matrix) dither.OrderedDitherMatrix {
	rows := make([][]uint, len(m))
	for r, row := range m {
		rows[r] = make([]uint, len(row))
		for c, v := range row {
			rows[r][c] = uint(v)
		}
	}
	return dither.OrderedDitherMatrix{
		Matrix: rows,
		Max:    uint(m.Max()),
	}
}

// ReferenceDither runs the same Bayer matrix through the dither library's
// ordered ditherer. The library works in linear RGB with per-channel
// thresholds, so its output is a comparison image, not a byte-for-byte match
// of the engine's dithered result.
func ReferenceDither(img image.Image, palette bayer.Palette, depth int, strength float64) (*image.Paletted, error) {
	if img == nil {
		return nil, fmt.Errorf("input image is nil")
	}
	if err := palette.Validate(); err != nil {
		return nil, err
	}
	if len(palette) > 256 {
		return nil, fmt.Errorf("palette has %d colours, at most 256 can be used", len(palette))
	}

	matrix, err := bayer.BuildBayer(depth)
	if err != nil {
		return nil, err
	}

	ditherer := dither.NewDitherer(ToColorPalette(palette))
	if ditherer == nil {
		return nil, fmt.Errorf("dither library rejected palette of %d colours", len(palette))
	}
	ditherer.Mapper = dither.PixelMapperFromMatrix(OrderedMatrix(matrix), float32(strength))

	return ditherer.DitherPaletted(img), nil
}
