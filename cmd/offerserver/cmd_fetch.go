package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

func fetchCmd() *cobra.Command {
	var (
		address        models.Address
		country        string
		provider       string
		wantsFiber     bool
		installation   bool
		connectionType string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Run a one-time offer search",
		Long:  "Asks the enabled providers for offers at the given address and prints the results as JSON. Useful for testing credentials.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			c, err := models.ParseCountry(country)
			if err != nil {
				return err
			}
			address.Country = c

			req := models.OfferRequest{
				Address:        address,
				WantsFiber:     wantsFiber,
				Installation:   installation,
				ConnectionType: models.ParseConnectionType(connectionType),
			}

			agg, err := newAggregator(cfg, logger)
			if err != nil {
				return fmt.Errorf("creating aggregator: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Str("city", address.City).
				Str("country", string(address.Country)).
				Str("provider", provider).
				Msg("running one-time offer search")

			var out any
			if provider != "" {
				company, err := models.ParseCompany(provider)
				if err != nil {
					return err
				}
				result, err := agg.Acquire(ctx, company, req)
				if err != nil {
					return fmt.Errorf("acquiring offers: %w", err)
				}
				out = result
			} else {
				out = map[string]any{"results": agg.AcquireAll(ctx, req)}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&address.Street, "street", "", "Street name (required)")
	cmd.Flags().StringVar(&address.Number, "number", "", "House number (required)")
	cmd.Flags().StringVar(&address.City, "city", "", "City (required)")
	cmd.Flags().StringVar(&address.Zip, "zip", "", "Postal code (required)")
	cmd.Flags().StringVar(&country, "country", "DE", "Country name or ISO code (DE, AT, CH)")
	cmd.Flags().StringVar(&provider, "provider", "", "Ask only this provider")
	cmd.Flags().BoolVar(&wantsFiber, "wants-fiber", false, "Ask PingPerfect for fiber offers only")
	cmd.Flags().BoolVar(&installation, "installation", false, "Ask WebWunder for offers with installation service")
	cmd.Flags().StringVar(&connectionType, "connection-type", "DSL", "Connection type sent to WebWunder (DSL, CABLE, FIBER, MOBILE)")
	for _, name := range []string{"street", "number", "city", "zip"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}
