// Package main provides the entry point for the internet offer server CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/karolinespohn/GenDevServer/internal/config"
)

var (
	// Version is set at build time.
	Version = "dev"
	// Commit is set at build time.
	Commit = "none"
	// BuildDate is set at build time.
	BuildDate = "unknown"
)

var cfg *config.Config

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg = config.DefaultConfig()
	cfg.LoadFromEnv()

	var configFile string

	rootCmd := &cobra.Command{
		Use:   "offerserver",
		Short: "Offer Server - compare internet offers across providers",
		Long: `Offer Server asks several internet providers for the offers available at an
address and returns them in one common format.

Features:
  - Five providers (ByteMe, PingPerfect, ServusSpeed, VerbynDich, WebWunder)
  - Concurrent fan-out with per-provider failure isolation
  - Optional scheduled probing of all providers
  - Prometheus metrics endpoint
  - Status endpoint for operational visibility`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if configFile != "" {
				if err := reloadWithFile(cmd, configFile); err != nil {
					return err
				}
			}
			return cfg.Validate()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format (json, console)")
	rootCmd.PersistentFlags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address")
	rootCmd.PersistentFlags().StringSliceVar(&cfg.Providers, "providers", cfg.Providers, "Comma-separated list of enabled providers")

	// Add subcommands
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// reloadWithFile rebuilds cfg from defaults, the file and the environment,
// then reapplies the flags that were set explicitly.
func reloadWithFile(cmd *cobra.Command, path string) error {
	fromFile := config.DefaultConfig()
	if err := fromFile.LoadFile(path); err != nil {
		return err
	}
	fromFile.LoadFromEnv()

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		fromFile.LogLevel = cfg.LogLevel
	}
	if flags.Changed("log-format") {
		fromFile.LogFormat = cfg.LogFormat
	}
	if flags.Changed("http-addr") {
		fromFile.HTTPAddr = cfg.HTTPAddr
	}
	if flags.Changed("providers") {
		fromFile.Providers = cfg.Providers
	}

	*cfg = *fromFile
	return nil
}

func setupLogger() zerolog.Logger {
	var logger zerolog.Logger

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Set log format
	if cfg.LogFormat == "console" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
			With().
			Timestamp().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Logger()
	}

	return logger
}
