package cli

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
	"github.com/rmitchellscott/bayerlab/internal/rendering"
)

type renderOptions struct {
	palette     string
	paletteFile string
	colors      string
	extract     int
	depth       int
	divisor     float64
	width       int
	height      int
	resize      string
	plainOut    string
	ditheredOut string
	refOut      string
	timeout     time.Duration
}

func newRenderCommand(root *rootOptions) *cobra.Command {
	o := &renderOptions{}

	cmd := &cobra.Command{
		Use:   "render IMAGE",
		Short: "Dither an image file, URL or - for stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.plainOut == "" && o.ditheredOut == "" && o.refOut == "" {
				return fmt.Errorf("at least one of --plain, --dithered or --reference is required")
			}

			var fileColors []string
			var fileName string
			if o.paletteFile != "" {
				name, p, err := imageprocessing.LoadPaletteFile(o.paletteFile)
				if err != nil {
					return err
				}
				if len(p) > imageprocessing.MaxExtractColors {
					return fmt.Errorf("palette file %s has %d colours, at most %d are supported",
						o.paletteFile, len(p), imageprocessing.MaxExtractColors)
				}
				fileName, fileColors = name, imageprocessing.FormatHexPalette(p)
			}

			img, err := loadInput(cmd, args[0])
			if err != nil {
				return err
			}

			resize, err := imageprocessing.ParseResizeMode(o.resize)
			if err != nil {
				return err
			}

			req := rendering.Request{
				Image:         img,
				SourceName:    args[0],
				PaletteName:   o.palette,
				Colors:        splitList(o.colors),
				ExtractColors: o.extract,
				Width:         o.width,
				Height:        o.height,
				Resize:        resize,
				Reference:     o.refOut != "",
			}
			if cmd.Flags().Changed("depth") {
				req.Depth = &o.depth
			}
			if cmd.Flags().Changed("divisor") {
				req.StrengthDivisor = &o.divisor
			}
			if fileColors != nil {
				req.Colors = fileColors
				req.PaletteName = fileName
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			svc := rendering.NewService(root.settings, rendering.ServiceOptions{})
			outcome, err := svc.Render(ctx, req)
			if err != nil {
				return err
			}

			for _, f := range []struct {
				path string
				data []byte
			}{
				{o.plainOut, outcome.PlainPNG},
				{o.ditheredOut, outcome.DitheredPNG},
				{o.refOut, outcome.ReferencePNG},
			} {
				if f.path == "" {
					continue
				}
				if err := os.WriteFile(f.path, f.data, 0644); err != nil {
					return fmt.Errorf("failed to write %s: %w", f.path, err)
				}
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%dx%d palette=%s colors=%d depth=%d divisor=%g strength=%g in %s\n",
				outcome.Result.Plain.Width, outcome.Result.Plain.Height, outcome.PaletteName, len(outcome.Palette),
				outcome.Depth, outcome.Divisor, outcome.Result.Strength, outcome.Duration.Round(time.Millisecond))
			return err
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.palette, "palette", "p", "", "Builtin palette name (default from DEFAULT_PALETTE)")
	f.StringVar(&o.paletteFile, "palette-file", "", "YAML palette file")
	f.StringVar(&o.colors, "colors", "", "Inline palette as comma separated hex colours")
	f.IntVar(&o.extract, "extract", 0, "Extract an N colour palette from the image")
	f.IntVarP(&o.depth, "depth", "d", 0, "Bayer depth; the matrix side is 2^depth")
	f.Float64Var(&o.divisor, "divisor", 0, "Strength divisor (default: palette size)")
	f.IntVar(&o.width, "width", 0, "Target width")
	f.IntVar(&o.height, "height", 0, "Target height")
	f.StringVar(&o.resize, "resize", "fit", "Resize mode: none, fit or fill")
	f.StringVar(&o.plainOut, "plain", "", "Write the undithered quantization here")
	f.StringVar(&o.ditheredOut, "dithered", "", "Write the dithered result here")
	f.StringVar(&o.refOut, "reference", "", "Write the dither library's ordered dither here")
	f.DurationVar(&o.timeout, "timeout", 5*time.Minute, "Give up after this long")
	cmd.MarkFlagsMutuallyExclusive("palette", "palette-file", "colors", "extract")
	return cmd
}

// loadInput reads a file path, an http(s) URL, or - for stdin
func loadInput(cmd *cobra.Command, src string) (image.Image, error) {
	switch {
	case src == "-":
		img, _, err := imageprocessing.DecodeImage(cmd.InOrStdin())
		return img, err
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		img, _, err := imageprocessing.LoadImageFromURL(cmd.Context(), src, imageprocessing.DefaultProcessingOptions().Timeout, imageprocessing.URLPolicy{})
		return img, err
	default:
		return imageprocessing.LoadImage(src)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
