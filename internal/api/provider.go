// Package api provides the interface and shared plumbing for internet offer providers.
package api

import (
	"context"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

// Provider defines the interface for internet offer providers.
type Provider interface {
	// Name returns the provider identifier.
	Name() models.Company

	// FetchOffers asks the provider for all offers available at the request address.
	//
	// Implementations isolate failures to the smallest unit they can: a broken
	// record is dropped and logged, never reported. A returned error describes
	// why the provider run failed or was cut short; any offers returned
	// alongside it are still valid.
	FetchOffers(ctx context.Context, req models.OfferRequest) ([]models.InternetOffer, error)
}
