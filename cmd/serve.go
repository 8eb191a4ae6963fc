package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/metaboatrace/crawler/internal/api"
	"github.com/metaboatrace/crawler/internal/orchestrator"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the crawler service: cron jobs, task timers and the HTTP API.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := appFrom(cmd)
			if err != nil {
				return err
			}
			cfg := a.Config()
			logger := a.Logger()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			orch, err := orchestrator.New(orchestrator.Config{
				DiscoverySpec: cfg.Orchestrator.DiscoverySpec,
				ScheduleSpec:  cfg.Orchestrator.ScheduleSpec,
				BackfillSpec:  cfg.Orchestrator.BackfillSpec,
				Timezone:      cfg.Orchestrator.Timezone,
			}, a.Crawler(), a.Scheduler(), a.Backfiller(), a.Clock(), logger)
			if err != nil {
				return err
			}
			if err := orch.Start(ctx); err != nil {
				return err
			}
			defer orch.Stop()

			server := api.NewServer(a.Registry(), a.Ledger(), a.Scheduler(), a.Backfiller(), a.Clock(), logger)
			httpServer := &http.Server{
				Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
				Handler:           server.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("http server listening", zap.Int("port", cfg.Server.Port))
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case <-ctx.Done():
				logger.Info("shutting down")
			case err := <-errCh:
				return fmt.Errorf("http server: %w", err)
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
			return nil
		},
	}
}
