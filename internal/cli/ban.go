package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/example/warden/internal/ports/primary"
	"github.com/example/warden/internal/wire"
)

// BanCmd returns the ban command
func BanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ban",
		Short: "Manage the title eligibility denylist",
		Long:  `Add, remove and list governor bans for a kingdom.`,
	}

	cmd.AddCommand(banAddCmd())
	cmd.AddCommand(banRemoveCmd())
	cmd.AddCommand(banListCmd())

	return cmd
}

func banAddCmd() *cobra.Command {
	var (
		kingdom     int
		name        string
		banType     string
		reason      string
		bannedBy    string
		expiresDays int
	)

	cmd := &cobra.Command{
		Use:   "add [governor-id]",
		Short: "Ban a governor",
		Long: `Ban a governor from requesting titles.

A ban added while the governor already has a pending request does not
remove the request immediately; it is auto-cancelled when the queue
reaches it.

Examples:
  warden ban add 12345678 --kingdom 3328 --reason "title trolling"
  warden ban add 12345678 --kingdom 3328 --type all --expires-days 7`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			governorID, err := strconv64(args[0])
			if err != nil {
				return fmt.Errorf("invalid governor id %q", args[0])
			}

			id, err := wire.BanService().Add(context.Background(), primary.AddBanRequest{
				Kingdom:      kingdom,
				GovernorID:   governorID,
				GovernorName: name,
				BanType:      banType,
				Reason:       reason,
				BannedBy:     bannedBy,
				ExpiresDays:  expiresDays,
			})
			if err != nil {
				return fmt.Errorf("failed to add ban: %w", err)
			}

			color.Green("✓ Banned governor %d (ban %d)", governorID, id)
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	cmd.Flags().StringVar(&name, "name", "", "governor name")
	cmd.Flags().StringVar(&banType, "type", "titles", "ban type (titles|all)")
	cmd.Flags().StringVar(&reason, "reason", "", "reason shown on listings")
	cmd.Flags().StringVar(&bannedBy, "by", "", "who imposed the ban")
	cmd.Flags().IntVar(&expiresDays, "expires-days", 0, "days until the ban lapses (0 = permanent)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}

func banRemoveCmd() *cobra.Command {
	var kingdom int

	cmd := &cobra.Command{
		Use:   "remove [ban-id]",
		Short: "Remove a ban",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv64(args[0])
			if err != nil {
				return fmt.Errorf("invalid ban id %q", args[0])
			}

			if err := wire.BanService().Remove(context.Background(), kingdom, id); err != nil {
				return fmt.Errorf("failed to remove ban: %w", err)
			}

			color.Green("✓ Removed ban %d", id)
			return nil
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}

func banListCmd() *cobra.Command {
	var kingdom int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active bans",
		RunE: func(cmd *cobra.Command, args []string) error {
			bans, err := wire.BanService().List(context.Background(), kingdom)
			if err != nil {
				return fmt.Errorf("failed to list bans: %w", err)
			}

			if len(bans) == 0 {
				fmt.Println("No active bans.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tGOVERNOR\tNAME\tTYPE\tREASON\tEXPIRES")
			for _, ban := range bans {
				expires := "never"
				if !ban.ExpiresAt.IsZero() {
					expires = ban.ExpiresAt.UTC().Format(time.DateOnly)
				}
				fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
					ban.ID, ban.GovernorID, ban.GovernorName, ban.Type, ban.Reason, expires)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&kingdom, "kingdom", "k", 0, "kingdom number (required)")
	_ = cmd.MarkFlagRequired("kingdom")

	return cmd
}
