package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmitchellscott/bayerlab/internal/config"
	"github.com/rmitchellscott/bayerlab/internal/logging"
)

type rootOptions struct {
	logLevel  string
	logFormat string
	settings  *config.Settings
}

// NewRootCommand builds the bayerlab command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "bayerlab",
		Short:         "Ordered Bayer dithering engine and service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			logging.Configure(cmd.ErrOrStderr(), logging.ParseLevel(opts.logLevel), opts.logFormat)

			opts.settings = config.Load()
			return opts.settings.Validate()
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.logLevel, "level", "l", config.Get("LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", config.Get("LOG_FORMAT", "text"), "Log format (text or json)")

	cmd.AddCommand(
		newServeCommand(opts),
		newRenderCommand(opts),
		newBayerCommand(),
		newPaletteCommand(),
		newPalettesCommand(),
		newBackupCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// Execute runs the CLI with os.Args. SIGINT and SIGTERM cancel the command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand()
	cmd.SetArgs(os.Args[1:])
	err := cmd.ExecuteContext(ctx)
	if err != nil {
		logging.ErrorWithComponent(logging.ComponentCLI, "Command failed", "error", err)
	}
	return err
}
