package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/karolinespohn/GenDevServer/internal/http"
	"github.com/karolinespohn/GenDevServer/internal/prober"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the offer API server",
		Long:  "Starts the HTTP API and, when a probe schedule is configured, the background prober.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			logger.Info().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Strs("providers", cfg.Providers).
				Str("probeSchedule", cfg.Probe.Schedule).
				Msg("starting offer server")

			agg, err := newAggregator(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating aggregator: %w", err)
			}

			// Wire Prometheus metrics to aggregator
			metrics := http.NewMetrics(prometheus.DefaultRegisterer)
			agg.SetPrometheusMetrics(metrics)

			// Create prober
			var p *prober.Prober
			if cfg.Probe.Schedule != "" {
				p, err = prober.New(agg, cfg.Probe.Schedule, cfg.ProbeRequest(), logger)
				if err != nil {
					return err
				}
			}

			// Create HTTP server
			httpServer := http.NewServer(http.Options{
				Addr:         cfg.HTTPAddr,
				CORSOrigins:  cfg.CORSOrigins,
				WriteTimeout: cfg.HTTPWriteTimeout(),
				ProbeRequest: cfg.ProbeRequest(),
				Aggregator:   agg,
				Prober:       p,
				Metrics:      metrics,
				Gatherer:     prometheus.DefaultGatherer,
			}, logger)

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start prober in goroutine
			if p != nil {
				go func() {
					if err := p.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
						logger.Error().Err(err).Msg("prober error")
						cancel()
					}
				}()
			}

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	return cmd
}
