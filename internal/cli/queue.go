package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/warden/internal/models"
	"github.com/example/warden/internal/ports/secondary"
	"github.com/example/warden/internal/wire"
)

// QueueCmd returns the queue command
func QueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the title request queue",
	}

	cmd.AddCommand(queueListCmd())
	cmd.AddCommand(queueClearCmd())
	cmd.AddCommand(queueStatsCmd())

	return cmd
}

func queueListCmd() *cobra.Command {
	var (
		kingdom int
		status  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued title requests in assignment order",
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := secondary.TitleFilters{}
			if status != "" {
				filters.Status = models.TitleStatus(status)
			}

			requests, err := wire.TitleService().Queue(context.Background(), kingdom, filters)
			if err != nil {
				return fmt.Errorf("failed to list queue: %w", err)
			}

			if len(requests) == 0 {
				fmt.Println("Queue is empty.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGOVERNOR\tTITLE\tSTATUS\tPRIO\tREQUESTED")
			for _, req := range requests {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
					req.ID, req.GovernorName, req.Kind, req.Status, req.Priority,
					req.CreatedAt.UTC().Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	cmd.Flags().StringVar(&status, "status", "", "filter by status (default: pending+assigned)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}

func queueClearCmd() *cobra.Command {
	var (
		kingdom int
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Cancel queued title requests",
		Long: `Cancel pending title requests for a kingdom. With --all, assigned
requests are cancelled too. Completed requests are never touched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope := secondary.ClearPending
			if all {
				scope = secondary.ClearAll
			}

			n, err := wire.TitleService().Clear(context.Background(), kingdom, scope)
			if err != nil {
				return fmt.Errorf("failed to clear queue: %w", err)
			}

			color.Green("✓ Cancelled %d request(s)", n)
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	cmd.Flags().BoolVar(&all, "all", false, "also cancel assigned requests")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}

func queueStatsCmd() *cobra.Command {
	var kingdom int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show queue counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := wire.TitleService().Stats(context.Background(), kingdom)
			if err != nil {
				return fmt.Errorf("failed to get stats: %w", err)
			}

			fmt.Printf("Pending:          %d\n", stats.Pending)
			fmt.Printf("Assigned:         %d\n", stats.Assigned)
			fmt.Printf("Completed today:  %d\n", stats.CompletedToday)
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}
