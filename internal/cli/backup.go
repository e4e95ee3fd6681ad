package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/rmitchellscott/bayerlab/internal/database"
	"github.com/rmitchellscott/bayerlab/internal/export"
)

func newBackupCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or import saved palettes and render history",
	}
	cmd.AddCommand(newBackupExportCommand(root), newBackupImportCommand(root))
	return cmd
}

func newBackupExportCommand(root *rootOptions) *cobra.Command {
	var (
		noHistory bool
		noImages  bool
	)

	cmd := &cobra.Command{
		Use:   "export FILE",
		Short: "Write a tar.gz archive (use - for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openBackupDB()
			if err != nil {
				return err
			}
			defer closeDB()

			out := cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", args[0], err)
				}
				defer f.Close()
				out = f
			}

			meta, err := export.NewExporter(db, root.settings.RenderedImagesPath).Export(out, export.ExportOptions{
				IncludeHistory: !noHistory,
				IncludeImages:  !noHistory && !noImages,
			})
			if err != nil {
				return err
			}
			if args[0] != "-" {
				fmt.Fprintf(cmd.OutOrStdout(), "exported palettes=%d renders=%d images=%d to %s\n",
					meta.Palettes, meta.Renders, meta.Images, args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Export saved palettes only")
	cmd.Flags().BoolVar(&noImages, "no-images", false, "Skip rendered image files")
	return cmd
}

func newBackupImportCommand(root *rootOptions) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Restore a tar.gz archive (use - for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := openBackupDB()
			if err != nil {
				return err
			}
			defer closeDB()

			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}

			result, err := export.NewImporter(db, root.settings.RenderedImagesPath).Import(in, export.ImportOptions{Overwrite: overwrite})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported palettes=%d renders=%d images=%d (exported %s by v%s)\n",
				result.Palettes, result.Renders, result.Images,
				result.Metadata.ExportTimestamp.Format("2006-01-02T15:04:05Z07:00"), result.Metadata.BayerlabVersion)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace palettes, records and images that already exist")
	return cmd
}

func openBackupDB() (*gorm.DB, func(), error) {
	db, err := database.Open(database.GetDatabaseConfig())
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		return nil, nil, err
	}
	return db, func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}, nil
}
