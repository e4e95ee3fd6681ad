package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmitchellscott/bayerlab/internal/dither"
)

func newBayerCommand() *cobra.Command {
	var normalized bool

	cmd := &cobra.Command{
		Use:   "bayer DEPTH",
		Short: "Print the Bayer matrix for a depth",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			depth, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("depth must be an integer, got %q", args[0])
			}
			if depth > dither.MaxDepth {
				return fmt.Errorf("depth must be at most %d, got %d", dither.MaxDepth, depth)
			}

			matrix, err := dither.BuildBayer(depth)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if normalized {
				for _, row := range matrix.Normalize() {
					cells := make([]string, len(row))
					for i, v := range row {
						cells[i] = strconv.FormatFloat(v, 'f', -1, 64)
					}
					if _, err := fmt.Fprintln(out, strings.Join(cells, " ")); err != nil {
						return err
					}
				}
				return nil
			}

			width := len(strconv.Itoa(matrix.Max() - 1))
			for _, row := range matrix {
				cells := make([]string, len(row))
				for i, v := range row {
					cells[i] = fmt.Sprintf("%*d", width, v)
				}
				if _, err := fmt.Fprintln(out, strings.Join(cells, " ")); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&normalized, "normalized", "n", false, "Print thresholds in [0,1) instead of ranks")
	return cmd
}
