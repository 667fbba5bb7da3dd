package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/example/warden/internal/app"
	"github.com/example/warden/internal/server"
	"github.com/example/warden/internal/wire"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the control-plane HTTP server",
		Long: `Run the HTTP control plane the remote agent polls and the
dashboard drives. When a scans folder is configured, a watcher imports
CSV exports as the scanner drops them in.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := wire.Cfg()
			logger := wire.Logger()

			srv := server.New(
				wire.ControlService(),
				wire.TitleService(),
				wire.BanService(),
				wire.ImportService(),
				cfg.ScansDir,
				cfg.Auth.BotKey,
				cfg.Auth.OwnerKey,
				logger,
			)

			httpServer := &http.Server{
				Addr:         cfg.ListenAddr,
				Handler:      srv,
				ReadTimeout:  10 * time.Second,
				WriteTimeout: 30 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			g, ctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.Info("control plane listening", zap.String("addr", cfg.ListenAddr))
				if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			if cfg.ScansDir != "" {
				watcher := app.NewScanWatcher(wire.ImportService(), cfg.ScansDir, logger)
				g.Go(func() error {
					if err := watcher.Run(ctx); !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return httpServer.Shutdown(shutdownCtx)
			})

			err := g.Wait()
			logger.Info("control plane stopped")
			return err
		},
	}

	return cmd
}
