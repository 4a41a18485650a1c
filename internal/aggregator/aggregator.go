// Package aggregator fans an offer search out to all registered providers.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
	"github.com/karolinespohn/GenDevServer/internal/normalize"
)

// ErrUnknownProvider is returned by Acquire for a provider that was never registered.
var ErrUnknownProvider = errors.New("unknown provider")

// Recorder receives the outcome of every provider run.
type Recorder interface {
	ObserveProviderRun(provider models.Company, status models.ResultStatus, duration time.Duration, offers int)
}

// Metrics holds operational metrics for a provider.
type Metrics struct {
	mu               sync.RWMutex
	TotalRequests    int64
	TotalErrors      int64
	LastRunAt        *time.Time
	LastStatus       models.ResultStatus
	LastResponseTime time.Duration
	LastOfferCount   int
	LastError        *string
}

// GetSnapshot returns a thread-safe snapshot of the metrics.
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return MetricsSnapshot{
		TotalRequests:    m.TotalRequests,
		TotalErrors:      m.TotalErrors,
		LastRunAt:        m.LastRunAt,
		LastStatus:       m.LastStatus,
		LastResponseTime: m.LastResponseTime,
		LastOfferCount:   m.LastOfferCount,
		LastError:        m.LastError,
	}
}

// MetricsSnapshot is a thread-safe copy of Metrics data.
type MetricsSnapshot struct {
	TotalRequests    int64
	TotalErrors      int64
	LastRunAt        *time.Time
	LastStatus       models.ResultStatus
	LastResponseTime time.Duration
	LastOfferCount   int
	LastError        *string
}

// Aggregator runs offer searches against the registered providers.
type Aggregator struct {
	providers       map[models.Company]api.Provider
	providerMetrics map[models.Company]*Metrics
	recorder        Recorder
	timeout         time.Duration
	logger          zerolog.Logger
	mu              sync.RWMutex
}

// New creates a new Aggregator.
func New(logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		providers:       make(map[models.Company]api.Provider),
		providerMetrics: make(map[models.Company]*Metrics),
		logger:          logger.With().Str("component", "aggregator").Logger(),
	}
}

// RegisterProvider registers a provider with the aggregator.
func (a *Aggregator) RegisterProvider(provider api.Provider) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.providers[provider.Name()] = provider
	a.providerMetrics[provider.Name()] = &Metrics{}
}

// SetPrometheusMetrics sets the recorder notified after every provider run.
func (a *Aggregator) SetPrometheusMetrics(r Recorder) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.recorder = r
}

// SetProviderTimeout bounds every provider run. Zero leaves runs bounded
// only by the HTTP client and the caller's context.
func (a *Aggregator) SetProviderTimeout(d time.Duration) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.timeout = d
}

// Providers returns all registered providers ordered by name.
func (a *Aggregator) Providers() []api.Provider {
	a.mu.RLock()
	defer a.mu.RUnlock()
	providers := make([]api.Provider, 0, len(a.providers))
	for _, p := range a.providers {
		providers = append(providers, p)
	}
	sort.Slice(providers, func(i, j int) bool {
		return providers[i].Name() < providers[j].Name()
	})
	return providers
}

// GetMetrics returns the metrics for a provider.
func (a *Aggregator) GetMetrics(company models.Company) *Metrics {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.providerMetrics[company]
}

// Acquire asks a single provider for offers. Provider failures are reported
// in the result; the error is reserved for an unregistered provider.
func (a *Aggregator) Acquire(ctx context.Context, company models.Company, req models.OfferRequest) (models.ProviderResult, error) {
	a.mu.RLock()
	provider, ok := a.providers[company]
	a.mu.RUnlock()

	if !ok {
		return models.ProviderResult{}, fmt.Errorf("%w: %s", ErrUnknownProvider, company)
	}
	return a.run(ctx, provider, req), nil
}

// AcquireAll asks every registered provider concurrently. Each provider
// completes independently; a failing provider never cancels the others.
func (a *Aggregator) AcquireAll(ctx context.Context, req models.OfferRequest) map[models.Company]models.ProviderResult {
	providers := a.Providers()

	results := make(map[models.Company]models.ProviderResult, len(providers))
	var mu sync.Mutex
	var g errgroup.Group
	for _, provider := range providers {
		g.Go(func() error {
			result := a.run(ctx, provider, req)
			mu.Lock()
			results[provider.Name()] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// run executes one provider call with panic recovery, normalization and bookkeeping.
func (a *Aggregator) run(ctx context.Context, provider api.Provider, req models.OfferRequest) models.ProviderResult {
	name := provider.Name()

	a.mu.RLock()
	metrics := a.providerMetrics[name]
	recorder := a.recorder
	timeout := a.timeout
	a.mu.RUnlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	a.logger.Debug().Str("provider", string(name)).Msg("acquiring offers")

	metrics.mu.Lock()
	metrics.TotalRequests++
	metrics.mu.Unlock()

	start := time.Now()
	offers, err := fetch(ctx, provider, req)
	duration := time.Since(start)

	presentable, dropped := normalize.Offers(offers)
	for _, dropErr := range dropped {
		a.logger.Warn().
			Err(dropErr).
			Str("provider", string(name)).
			Msg("dropping offer that failed normalization")
	}

	result := models.ProviderResult{
		Provider:   name,
		Status:     models.ResultOK,
		Offers:     presentable,
		DurationMs: duration.Milliseconds(),
	}
	if err != nil {
		result.Error = err.Error()
		result.Status = models.ResultFailed
		if len(presentable) > 0 {
			result.Status = models.ResultPartial
		}
	}

	now := time.Now()
	metrics.mu.Lock()
	metrics.LastRunAt = &now
	metrics.LastResponseTime = duration
	metrics.LastStatus = result.Status
	metrics.LastOfferCount = len(presentable)
	if err != nil {
		metrics.TotalErrors++
		errStr := err.Error()
		metrics.LastError = &errStr
	} else {
		metrics.LastError = nil
	}
	metrics.mu.Unlock()

	if recorder != nil {
		recorder.ObserveProviderRun(name, result.Status, duration, len(presentable))
	}

	if err != nil {
		a.logger.Error().
			Err(err).
			Str("provider", string(name)).
			Str("status", string(result.Status)).
			Int("count", len(presentable)).
			Dur("duration", duration).
			Msg("failed to acquire offers")
		return result
	}

	a.logger.Info().
		Str("provider", string(name)).
		Int("count", len(presentable)).
		Dur("duration", duration).
		Msg("acquired offers")

	return result
}

// fetch calls the provider and turns a panic into an error.
func fetch(ctx context.Context, provider api.Provider, req models.OfferRequest) (offers []models.InternetOffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			offers = nil
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return provider.FetchOffers(ctx, req)
}
