package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/frontdeskhq/frontdesk/adapter/api"
	"github.com/frontdeskhq/frontdesk/internal/app"
	"github.com/frontdeskhq/frontdesk/pkg/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sweep API server",
	Long: `Starts the HTTP trigger surface: POST /api/v1/sweeps to run a
sweep, GET /api/v1/sweeps/latest for the cached result, and
GET /api/v1/requests/overdue for the dashboard listing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		container, err := app.NewContainer(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer container.Close()

		handler := api.NewSweepHandler(api.SweepHandlerConfig{
			RunSweep:    container.RunSweep,
			LatestSweep: container.LatestSweep,
			ListOverdue: container.ListOverdue,
			SweepSecret: cfg.SweepSecret,
			Logger:      logger,
		})

		serverCfg := api.DefaultServerConfig()
		serverCfg.Addr = cfg.APIAddr
		server := api.NewServer(serverCfg, handler, logger)

		errChan := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errChan:
			return err
		case sig := <-stop:
			logger.Info("shutting down", "signal", sig.String())
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
