package imageprocessing

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/rmitchellscott/bayerlab/internal/dither"
)

const maxChannel = 0xffff

// ToImage converts any image into the engine's normalized representation.
// Channels are un-premultiplied and scaled to [0,1]; alpha is dropped.
func ToImage(img image.Image) *dither.Image {
	if img == nil {
		return nil
	}

	bounds := img.Bounds()
	out := dither.NewImage(bounds.Dx(), bounds.Dy())

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(y-bounds.Min.Y, x-bounds.Min.X, toPixel(img.At(x, y)))
		}
	}

	return out
}

func toPixel(c color.Color) dither.Pixel {
	n := color.NRGBA64Model.Convert(c).(color.NRGBA64)
	return dither.Pixel{
		R: float64(n.R) / maxChannel,
		G: float64(n.G) / maxChannel,
		B: float64(n.B) / maxChannel,
	}
}

// FromColorPalette converts a standard library palette into an engine palette.
func FromColorPalette(p color.Palette) dither.Palette {
	out := make(dither.Palette, len(p))
	for i, c := range p {
		out[i] = toPixel(c)
	}
	return out
}

// ToColorPalette converts an engine palette back to 8-bit opaque colours.
func ToColorPalette(p dither.Palette) color.Palette {
	out := make(color.Palette, len(p))
	for i, px := range p {
		out[i] = ToRGBA(px)
	}
	return out
}

// ToRGBA converts a pixel to an opaque 8-bit colour, clamping to [0,1].
func ToRGBA(p dither.Pixel) color.RGBA {
	return color.RGBA{R: to8(p.R), G: to8(p.G), B: to8(p.B), A: 0xff}
}

func to8(v float64) uint8 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	if v >= 1 {
		return 0xff
	}
	return uint8(math.Round(v * 0xff))
}

// ToPaletted converts a quantized grid into an image.Paletted for encoding.
// Palettes larger than 256 entries cannot be represented.
func ToPaletted(q *dither.QuantizedImage) (*image.Paletted, error) {
	if q == nil {
		return nil, fmt.Errorf("quantized image is nil")
	}
	if len(q.Palette) > 256 {
		return nil, fmt.Errorf("palette has %d colours, at most 256 can be encoded", len(q.Palette))
	}

	paletted := image.NewPaletted(image.Rect(0, 0, q.Width, q.Height), ToColorPalette(q.Palette))
	for row := 0; row < q.Height; row++ {
		for col := 0; col < q.Width; col++ {
			paletted.SetColorIndex(col, row, uint8(q.IndexAt(row, col)))
		}
	}

	return paletted, nil
}
