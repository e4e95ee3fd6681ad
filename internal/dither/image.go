package dither

// Image is a row-major grid of pixels. It is treated as immutable once built.
type Image struct {
	Width  int
	Height int
	Pix    []Pixel
}

// NewImage allocates a black width×height image.
func NewImage(width, height int) *Image {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]Pixel, width*height),
	}
}

// At returns the pixel at (row, col).
func (img *Image) At(row, col int) Pixel {
	return img.Pix[row*img.Width+col]
}

// Set stores p at (row, col). Only used while an image is being built.
func (img *Image) Set(row, col int, p Pixel) {
	img.Pix[row*img.Width+col] = p
}

// Validate checks the image has a positive size and a matching pixel slice.
func (img *Image) Validate() error {
	if img == nil {
		return invalid(ComponentPipeline, "image is nil")
	}
	if img.Width <= 0 || img.Height <= 0 {
		return invalid(ComponentPipeline, "image dimensions must be positive, got %dx%d", img.Width, img.Height)
	}
	if len(img.Pix) != img.Width*img.Height {
		return invalid(ComponentPipeline, "image has %d pixels, want %d for %dx%d", len(img.Pix), img.Width*img.Height, img.Width, img.Height)
	}
	return nil
}

// QuantizedImage stores one palette index per cell, so every pixel is a
// member of Palette by construction.
type QuantizedImage struct {
	Width   int
	Height  int
	Palette Palette
	Indices []int
}

func newQuantizedImage(width, height int, palette Palette) *QuantizedImage {
	return &QuantizedImage{
		Width:   width,
		Height:  height,
		Palette: palette,
		Indices: make([]int, width*height),
	}
}

// IndexAt returns the palette index at (row, col).
func (q *QuantizedImage) IndexAt(row, col int) int {
	return q.Indices[row*q.Width+col]
}

// At returns the palette colour at (row, col).
func (q *QuantizedImage) At(row, col int) Pixel {
	return q.Palette[q.IndexAt(row, col)]
}
