package rendering

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/rmitchellscott/bayerlab/internal/config"
	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/dither"
	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/logging"
	"github.com/rmitchellscott/bayerlab/internal/storage"
)

// RecordStore persists render history
type RecordStore interface {
	CreateRecord(record *database.RenderRecord) error
}

// ServiceOptions wires optional collaborators. Any of them may be nil.
type ServiceOptions struct {
	Storage       *storage.ImageStorage
	Palettes      PaletteStore
	Records       RecordStore
	MaxConcurrent int // renders allowed at once, default 2
}

// Service runs renders end to end
type Service struct {
	settings *config.Settings
	storage  *storage.ImageStorage
	palettes PaletteStore
	records  RecordStore
	slots    *semaphore.Weighted
	stats    *Stats
}

// NewService creates a render service
func NewService(settings *config.Settings, opts ServiceOptions) *Service {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	return &Service{
		settings: settings,
		storage:  opts.Storage,
		palettes: opts.Palettes,
		records:  opts.Records,
		slots:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		stats:    newStats(opts.MaxConcurrent),
	}
}

// Stats returns the live render counters
func (s *Service) Stats() *Stats {
	return s.stats
}

// Render prepares the image, dithers it and stores the outputs
func (s *Service) Render(ctx context.Context, req Request) (*Outcome, error) {
	if req.Image == nil {
		return nil, fmt.Errorf("%w: no image", ErrInvalidRequest)
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.slots.Release(1)

	start := time.Now()
	s.stats.begin()
	outcome, err := s.render(ctx, req)
	s.stats.end(time.Since(start), err)
	if err != nil {
		logging.WarnWithComponent(logging.ComponentRender, "Render failed", "source", req.SourceName, "error", err)
		return nil, err
	}

	outcome.Duration = time.Since(start)
	logging.InfoWithComponent(logging.ComponentRender, "Rendered image",
		"render_id", outcome.ID,
		"palette", outcome.PaletteName,
		"width", outcome.Result.Plain.Width,
		"height", outcome.Result.Plain.Height,
		"depth", outcome.Depth,
		"divisor", outcome.Divisor,
		"duration_ms", outcome.Duration.Milliseconds())

	s.record(req, outcome)
	return outcome, nil
}

func (s *Service) render(ctx context.Context, req Request) (*Outcome, error) {
	depth := s.settings.DitherDepth
	if req.Depth != nil {
		depth = *req.Depth
	}
	if depth < 0 || depth > dither.MaxDepth {
		return nil, fmt.Errorf("%w: depth must be between 0 and %d, got %d", ErrInvalidRequest, dither.MaxDepth, depth)
	}

	src, err := imageprocessing.Prepare(req.Image, imageprocessing.ProcessingOptions{
		Width:  req.Width,
		Height: req.Height,
		Resize: req.Resize,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	paletteName, palette, err := s.ResolvePalette(req, src)
	if err != nil {
		return nil, err
	}

	divisor := s.settings.StrengthDivisor
	if req.StrengthDivisor != nil && *req.StrengthDivisor != 0 {
		divisor = *req.StrengthDivisor
	}
	if divisor == 0 {
		divisor = float64(len(palette))
	}

	result, err := dither.Render(ctx, imageprocessing.ToImage(src), palette, dither.Options{
		Depth:           depth,
		StrengthDivisor: divisor,
		Workers:         s.settings.Workers,
	})
	if err != nil {
		return nil, err
	}

	outcome := &Outcome{
		ID:          uuid.New(),
		PaletteName: paletteName,
		Palette:     palette,
		Depth:       depth,
		Divisor:     divisor,
		Result:      result,
	}

	if outcome.PlainPNG, err = encodeQuantized(result.Plain); err != nil {
		return nil, err
	}
	if outcome.DitheredPNG, err = encodeQuantized(result.Dithered); err != nil {
		return nil, err
	}
	if req.Reference {
		ref, err := imageprocessing.ReferenceDither(src, palette, depth, result.Strength)
		if err != nil {
			return nil, fmt.Errorf("reference dither failed: %w", err)
		}
		if outcome.ReferencePNG, err = imageprocessing.EncodeIndexedPNG(ref); err != nil {
			return nil, err
		}
	}

	if err := s.store(outcome); err != nil {
		return nil, err
	}
	return outcome, nil
}

func encodeQuantized(q *dither.QuantizedImage) ([]byte, error) {
	paletted, err := imageprocessing.ToPaletted(q)
	if err != nil {
		return nil, err
	}
	return imageprocessing.EncodeIndexedPNG(paletted)
}

func (s *Service) store(o *Outcome) error {
	if s.storage == nil {
		return nil
	}

	var err error
	if o.Plain, err = s.storage.StoreImage(o.PlainPNG, o.ID, "plain"); err != nil {
		return err
	}
	if o.Dithered, err = s.storage.StoreImage(o.DitheredPNG, o.ID, "dithered"); err != nil {
		return err
	}
	if o.ReferencePNG != nil {
		if o.Reference, err = s.storage.StoreImage(o.ReferencePNG, o.ID, "reference"); err != nil {
			return err
		}
	}
	return nil
}

// record writes render history. Failures are logged, the render still succeeds.
func (s *Service) record(req Request, o *Outcome) {
	if s.records == nil {
		return
	}

	colors, err := json.Marshal(imageprocessing.FormatHexPalette(o.Palette))
	if err != nil {
		logging.WarnWithComponent(logging.ComponentDatabase, "Failed to encode render palette", "render_id", o.ID, "error", err)
		return
	}

	rec := &database.RenderRecord{
		ID:              o.ID,
		SourceName:      req.SourceName,
		PaletteName:     o.PaletteName,
		PaletteColors:   colors,
		Width:           o.Result.Plain.Width,
		Height:          o.Result.Plain.Height,
		Depth:           o.Depth,
		StrengthDivisor: o.Divisor,
		DurationMs:      int(o.Duration.Milliseconds()),
	}
	if o.Plain != nil {
		rec.PlainURL = o.Plain.URL
		rec.DitheredURL = o.Dithered.URL
	}
	if o.Reference != nil {
		rec.ReferenceURL = o.Reference.URL
	}

	if err := s.records.CreateRecord(rec); err != nil {
		logging.WarnWithComponent(logging.ComponentDatabase, "Failed to record render", "render_id", o.ID, "error", err)
	}
}
