package dither

import "math"

// Pixel holds real-valued RGB channels. Source pixels are in [0,1]; offset
// pixels may leave that range.
type Pixel struct {
	R, G, B float64
}

// Add returns p with v added to every channel.
func (p Pixel) Add(v float64) Pixel {
	return Pixel{R: p.R + v, G: p.G + v, B: p.B + v}
}

// Palette is an ordered set of target colours. Order only matters for
// breaking ties in NearestIndex.
type Palette []Pixel

// Validate reports whether the palette can be used for quantization.
func (p Palette) Validate() error {
	if len(p) == 0 {
		return invalid(ComponentQuantizer, "palette must not be empty")
	}
	return nil
}

// Contains reports whether q is a member of the palette by value.
func (p Palette) Contains(q Pixel) bool {
	for _, c := range p {
		if c == q {
			return true
		}
	}
	return false
}

// Distance is the Euclidean distance between two pixels in RGB space.
func Distance(a, b Pixel) float64 {
	return math.Sqrt(squaredDistance(a, b))
}

func squaredDistance(a, b Pixel) float64 {
	dr := a.R - b.R
	dg := a.G - b.G
	db := a.B - b.B
	return dr*dr + dg*dg + db*db
}

// NearestIndex returns the index of the palette entry closest to q. When
// several entries share the minimum distance the lowest index wins.
func NearestIndex(q Pixel, palette Palette) (int, error) {
	if err := palette.Validate(); err != nil {
		return 0, err
	}
	return nearestIndex(q, palette), nil
}

// Nearest returns the palette entry closest to q.
func Nearest(q Pixel, palette Palette) (Pixel, error) {
	i, err := NearestIndex(q, palette)
	if err != nil {
		return Pixel{}, err
	}
	return palette[i], nil
}

// nearestIndex assumes a non-empty palette. Strict < keeps the first minimum.
func nearestIndex(q Pixel, palette Palette) int {
	best := 0
	bestDist := Distance(q, palette[0])
	for i := 1; i < len(palette); i++ {
		if d := Distance(q, palette[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
