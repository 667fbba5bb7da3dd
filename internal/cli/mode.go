package cli

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/warden/internal/wire"
)

// ModeCmd returns the mode command
func ModeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mode",
		Short: "Get or set the agent mode for a kingdom",
	}

	cmd.AddCommand(modeGetCmd())
	cmd.AddCommand(modeSetCmd())

	return cmd
}

func modeGetCmd() *cobra.Command {
	var kingdom int

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the intended agent mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := wire.ControlService().Mode(context.Background(), kingdom)
			if err != nil {
				return fmt.Errorf("failed to get mode: %w", err)
			}

			fmt.Printf("Kingdom %d: %s", state.Kingdom, state.Mode)
			if state.RequestedBy != "" {
				fmt.Printf(" (set by %s)", state.RequestedBy)
			}
			fmt.Println()
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}

func modeSetCmd() *cobra.Command {
	var (
		kingdom     int
		requestedBy string
	)

	cmd := &cobra.Command{
		Use:   "set [mode]",
		Short: "Set the intended agent mode",
		Long: `Set the intended mode for a kingdom's agent. The agent picks the
change up on its next poll; any mode may follow any other.

Modes: idle, title_serving, scan_preparing, paused`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			state, err := wire.ControlService().SetMode(context.Background(), kingdom, args[0], requestedBy)
			if err != nil {
				return fmt.Errorf("failed to set mode: %w", err)
			}

			color.Green("✓ Kingdom %d mode set to %s", state.Kingdom, state.Mode)
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	cmd.Flags().StringVar(&requestedBy, "by", "cli", "who requested the change")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}
