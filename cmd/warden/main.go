package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/warden/internal/cli"
	"github.com/example/warden/internal/version"
	"github.com/example/warden/internal/wire"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:     "warden",
		Short:   "warden - control plane for the kingdom automation agent",
		Version: version.String(),
		Long: `warden is the control plane a remote kingdom automation agent polls
for work: mode changes, one-shot commands, and queued title requests.
It also ingests scan CSV exports into a per-governor stats store.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			wire.SetConfigPath(configPath)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.ImportCmd())
	rootCmd.AddCommand(cli.BanCmd())
	rootCmd.AddCommand(cli.QueueCmd())
	rootCmd.AddCommand(cli.ModeCmd())
	rootCmd.AddCommand(cli.StatusCmd())

	err := rootCmd.Execute()
	wire.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
