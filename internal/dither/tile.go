package dither

// Tile repeats a square threshold matrix with period M in both axes to cover
// height×width cells. This is periodic tiling, not resampling.
func Tile(t Thresholds, height, width int) (Thresholds, error) {
	m := len(t)
	if m == 0 {
		return nil, invalid(ComponentTiler, "matrix must have at least one cell")
	}
	for r, row := range t {
		if len(row) != m {
			return nil, invalid(ComponentTiler, "matrix must be square, row %d has %d cells, want %d", r, len(row), m)
		}
	}
	if height < 0 || width < 0 {
		return nil, invalid(ComponentTiler, "dimensions must be non-negative, got %dx%d", width, height)
	}
	if height == 0 || width == 0 {
		return Thresholds{}, nil
	}

	out := make(Thresholds, height)
	for r := 0; r < height; r++ {
		src := t[r%m]
		row := make([]float64, width)
		for c := 0; c < width; c++ {
			row[c] = src[c%m]
		}
		out[r] = row
	}
	return out, nil
}

// Center returns a new grid with 0.5 subtracted from every cell, moving
// normalized thresholds from [0,1) to [-0.5,0.5).
func Center(t Thresholds) Thresholds {
	out := make(Thresholds, len(t))
	for r, row := range t {
		out[r] = make([]float64, len(row))
		for c, v := range row {
			out[r][c] = v - 0.5
		}
	}
	return out
}

// NewDitherMap builds the centered per-pixel threshold grid for an image of
// the given size.
func NewDitherMap(depth, height, width int) (Thresholds, error) {
	matrix, err := BuildBayer(depth)
	if err != nil {
		return nil, err
	}
	if height <= 0 || width <= 0 {
		return nil, invalid(ComponentTiler, "image dimensions must be positive, got %dx%d", width, height)
	}
	tiled, err := Tile(matrix.Normalize(), height, width)
	if err != nil {
		return nil, err
	}
	return Center(tiled), nil
}
