package dither

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Options controls a render.
type Options struct {
	// Depth is the Bayer builder depth; the matrix side is 2^Depth.
	Depth int
	// StrengthDivisor scales the threshold offset by 1/StrengthDivisor.
	// Conventionally the palette size.
	StrengthDivisor float64
	// Workers bounds the number of rows processed concurrently.
	// Zero or negative means GOMAXPROCS.
	Workers int
}

// Result holds both quantizations plus the dither map used to produce the
// dithered one.
type Result struct {
	Plain     *QuantizedImage
	Dithered  *QuantizedImage
	DitherMap Thresholds
	Strength  float64
}

// Validate checks the options independently of any image.
func (o Options) Validate() error {
	if o.Depth < 0 {
		return invalid(ComponentBayer, "depth must be non-negative, got %d", o.Depth)
	}
	if math.IsNaN(o.StrengthDivisor) || math.IsInf(o.StrengthDivisor, 0) || o.StrengthDivisor <= 0 {
		return invalid(ComponentPipeline, "strength divisor must be a positive finite number, got %v", o.StrengthDivisor)
	}
	return nil
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Render quantizes img against palette twice: once as-is and once after
// adding the scaled Bayer threshold to every channel. All inputs are
// validated before any work starts, and no partial result is returned.
func Render(ctx context.Context, img *Image, palette Palette, opts Options) (*Result, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := palette.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	ditherMap, err := NewDitherMap(opts.Depth, img.Height, img.Width)
	if err != nil {
		return nil, err
	}
	strength := 1 / opts.StrengthDivisor

	plain, err := Quantize(ctx, img, palette, opts.workers())
	if err != nil {
		return nil, err
	}

	offset, err := Offset(img, ditherMap, strength)
	if err != nil {
		return nil, err
	}
	dithered, err := Quantize(ctx, offset, palette, opts.workers())
	if err != nil {
		return nil, err
	}

	return &Result{
		Plain:     plain,
		Dithered:  dithered,
		DitherMap: ditherMap,
		Strength:  strength,
	}, nil
}

// Offset returns a new image where every channel of pixel (r, c) has
// strength*ditherMap[r][c] added. The same scalar is applied to R, G and B,
// and values are not clamped.
func Offset(img *Image, ditherMap Thresholds, strength float64) (*Image, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if len(ditherMap) != img.Height {
		return nil, invalid(ComponentPipeline, "dither map has %d rows, image has %d", len(ditherMap), img.Height)
	}

	out := NewImage(img.Width, img.Height)
	for r := 0; r < img.Height; r++ {
		row := ditherMap[r]
		if len(row) != img.Width {
			return nil, invalid(ComponentPipeline, "dither map row %d has %d cells, image has %d", r, len(row), img.Width)
		}
		for c := 0; c < img.Width; c++ {
			out.Set(r, c, img.At(r, c).Add(strength*row[c]))
		}
	}
	return out, nil
}

// Quantize maps every pixel to its nearest palette entry, processing rows
// concurrently with at most workers goroutines. Each row is written by
// exactly one goroutine; the palette and image are only read.
func Quantize(ctx context.Context, img *Image, palette Palette, workers int) (*QuantizedImage, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := palette.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := newQuantizedImage(img.Width, img.Height, palette)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for r := 0; r < img.Height; r++ {
		if gctx.Err() != nil {
			break
		}
		r := r
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			base := r * img.Width
			for c := 0; c < img.Width; c++ {
				out.Indices[base+c] = nearestIndex(img.Pix[base+c], palette)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Cancellation between rows leaves Wait with nothing to report.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
