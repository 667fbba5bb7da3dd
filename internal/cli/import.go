package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/wire"
)

// ImportCmd returns the import command
func ImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [folder]",
		Short: "Import scan CSV files from a folder",
		Long: `Import every scan CSV in a folder into the stats store.

Imports are idempotent: a file that was already imported (same content,
same capture date) is skipped, so re-running after a partial batch is
always safe.

Examples:
  warden import ./scans
  warden import /srv/warden/scans`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := wire.Cfg().ScansDir
			if len(args) == 1 {
				dir = args[0]
			}
			if dir == "" {
				return fmt.Errorf("no folder given and no scans_dir configured")
			}

			result, err := wire.ImportService().ImportFolder(context.Background(), dir, 0)
			if err != nil {
				return fmt.Errorf("failed to import folder: %w", err)
			}

			for _, fr := range result.PerFile {
				switch fr.Outcome {
				case models.FileOK:
					color.Green("✓ %s (%d governors)", fr.File, fr.Imported)
				case models.FileSkipped:
					color.Yellow("- %s (%s)", fr.File, fr.Message)
				case models.FileError:
					color.Red("✗ %s (%s)", fr.File, fr.Message)
				}
			}

			fmt.Printf("\n%d new, %d skipped, %d errors\n",
				result.NewImports, result.Skipped, result.Errors)
			if result.Errors > 0 {
				return fmt.Errorf("%d file(s) failed to import", result.Errors)
			}
			return nil
		},
	}

	return cmd
}
