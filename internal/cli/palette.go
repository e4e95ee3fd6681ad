package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmitchellscott/bayerlab/internal/imageprocessing"
)

func newPaletteCommand() *cobra.Command {
	var (
		colors int
		asYAML bool
		name   string
	)

	cmd := &cobra.Command{
		Use:   "palette IMAGE",
		Short: "Extract a palette from an image with median cut",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := loadInput(cmd, args[0])
			if err != nil {
				return err
			}

			palette, err := imageprocessing.ExtractPalette(img, colors)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asYAML {
				if name == "" {
					name = "extracted"
				}
				data, err := imageprocessing.MarshalPaletteYAML(name, palette)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}

			_, err = fmt.Fprintln(out, strings.Join(imageprocessing.FormatHexPalette(palette), ","))
			return err
		},
	}

	cmd.Flags().IntVarP(&colors, "colors", "n", 8, "Number of colours to extract")
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "Print a palette file instead of a colour list")
	cmd.Flags().StringVar(&name, "name", "", "Palette name for --yaml output")
	return cmd
}

func newPalettesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "palettes",
		Short: "List the builtin palettes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			for _, name := range imageprocessing.BuiltinPaletteNames() {
				p, _ := imageprocessing.BuiltinPalette(name)
				if _, err := fmt.Fprintf(out, "%-16s %s\n", name, strings.Join(imageprocessing.FormatHexPalette(p), ",")); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
