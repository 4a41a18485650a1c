package main

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/aggregator"
	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/api/byteme"
	"github.com/karolinespohn/GenDevServer/internal/api/pingperfect"
	"github.com/karolinespohn/GenDevServer/internal/api/servusspeed"
	"github.com/karolinespohn/GenDevServer/internal/api/verbyndich"
	"github.com/karolinespohn/GenDevServer/internal/api/webwunder"
	"github.com/karolinespohn/GenDevServer/internal/config"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

// newAggregator registers every enabled provider on a shared HTTP client.
func newAggregator(cfg *config.Config, logger zerolog.Logger) (*aggregator.Aggregator, error) {
	companies, err := cfg.EnabledCompanies()
	if err != nil {
		return nil, err
	}

	client := api.NewHTTPClient(api.ClientOptions{
		ConnectTimeout: cfg.ConnectTimeout,
		ReadTimeout:    cfg.ReadTimeout,
	})

	agg := aggregator.New(logger)
	agg.SetProviderTimeout(cfg.ProviderTimeout)
	for _, company := range companies {
		provider, err := newProvider(company, client, cfg, logger)
		if err != nil {
			return nil, err
		}
		agg.RegisterProvider(provider)
	}
	return agg, nil
}

func newProvider(company models.Company, client *http.Client, cfg *config.Config, logger zerolog.Logger) (api.Provider, error) {
	switch company {
	case models.CompanyByteMe:
		return byteme.New(client, logger, byteme.Config{
			BaseURL: cfg.ByteMe.BaseURL,
			APIKey:  cfg.ByteMe.APIKey,
		}), nil
	case models.CompanyPingPerfect:
		return pingperfect.New(client, logger, pingperfect.Config{
			BaseURL:         cfg.PingPerfect.BaseURL,
			ClientID:        cfg.PingPerfect.ClientID,
			SignatureSecret: cfg.PingPerfect.SignatureSecret,
		}), nil
	case models.CompanyServusSpeed:
		return servusspeed.New(client, logger, servusspeed.Config{
			BaseURL:           cfg.ServusSpeed.BaseURL,
			Username:          cfg.ServusSpeed.Username,
			Password:          cfg.ServusSpeed.Password,
			DetailConcurrency: cfg.ServusSpeed.DetailConcurrency,
		}), nil
	case models.CompanyVerbynDich:
		return verbyndich.New(client, logger, verbyndich.Config{
			BaseURL:  cfg.VerbynDich.BaseURL,
			APIKey:   cfg.VerbynDich.APIKey,
			MaxPages: cfg.VerbynDich.MaxPages,
		}), nil
	case models.CompanyWebWunder:
		return webwunder.New(client, logger, webwunder.Config{
			BaseURL: cfg.WebWunder.BaseURL,
			APIKey:  cfg.WebWunder.APIKey,
		}), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", company)
	}
}
