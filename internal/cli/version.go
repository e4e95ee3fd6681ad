package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmitchellscott/bayerlab/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.Get()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "bayerlab %s (commit %s, built %s, %s)\n",
				version.String(), info["gitCommit"], info["buildTime"], info["goVersion"])
			return err
		},
	}
}
