package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/wire"
)

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	var kingdom int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the agent status for a kingdom",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := wire.ControlService().Status(context.Background(), kingdom)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			label := string(status.Activity)
			switch status.Activity {
			case models.ActivityOffline:
				label = color.RedString(label)
			case models.ActivityError:
				label = color.YellowString(label)
			default:
				label = color.GreenString(label)
			}

			fmt.Printf("Kingdom %d: %s\n", status.Kingdom, label)
			if status.Message != "" {
				fmt.Printf("  %s\n", status.Message)
			}
			if status.Total > 0 {
				fmt.Printf("  Progress: %d/%d\n", status.Progress, status.Total)
			}
			if !status.UpdatedAt.IsZero() {
				fmt.Printf("  Last heartbeat: %s\n", status.UpdatedAt.UTC().Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}
