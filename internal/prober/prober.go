// Package prober periodically runs an offer search against a fixed address
// so that provider health shows up in /status and the metrics.
package prober

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

// Acquirer runs an offer search against all providers.
type Acquirer interface {
	AcquireAll(ctx context.Context, req models.OfferRequest) map[models.Company]models.ProviderResult
}

// Prober manages the probe schedule.
type Prober struct {
	acquirer Acquirer
	schedule cron.Schedule
	spec     string
	request  models.OfferRequest
	logger   zerolog.Logger
	now      func() time.Time

	mu          sync.RWMutex
	nextProbeAt time.Time
	lastProbeAt *time.Time
	lastResults map[models.Company]models.ProviderResult
	running     bool
}

// New creates a new Prober. spec is a standard five-field cron expression
// or a descriptor such as "@every 15m".
func New(acquirer Acquirer, spec string, request models.OfferRequest, logger zerolog.Logger) (*Prober, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parsing probe schedule %q: %w", spec, err)
	}
	return &Prober{
		acquirer: acquirer,
		schedule: schedule,
		spec:     spec,
		request:  request,
		logger:   logger.With().Str("component", "prober").Logger(),
		now:      time.Now,
	}, nil
}

// Start runs probes on schedule and blocks until the context is cancelled.
func (p *Prober) Start(ctx context.Context) error {
	p.mu.Lock()
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	p.logger.Info().Str("schedule", p.spec).Msg("starting prober")

	next := p.scheduleNext()
	timer := time.NewTimer(time.Until(next))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info().Msg("prober stopped")
			return ctx.Err()
		case <-timer.C:
			p.RunOnce(ctx)
			next = p.scheduleNext()
			timer.Reset(time.Until(next))
		}
	}
}

// scheduleNext computes and stores the next probe time.
func (p *Prober) scheduleNext() time.Time {
	next := p.schedule.Next(p.now())
	p.mu.Lock()
	p.nextProbeAt = next
	p.mu.Unlock()

	p.logger.Info().
		Time("nextProbe", next).
		Msg("next probe scheduled")
	return next
}

// RunOnce probes all providers immediately and returns the results.
func (p *Prober) RunOnce(ctx context.Context) map[models.Company]models.ProviderResult {
	p.logger.Info().Msg("running probe")

	now := p.now()
	results := p.acquirer.AcquireAll(ctx, p.request)

	p.mu.Lock()
	p.lastProbeAt = &now
	p.lastResults = results
	p.mu.Unlock()

	failed := 0
	for company, result := range results {
		if result.Status != models.ResultOK {
			failed++
			p.logger.Warn().
				Str("provider", string(company)).
				Str("status", string(result.Status)).
				Str("error", result.Error).
				Msg("provider probe unhealthy")
		}
	}

	p.logger.Info().
		Int("providers", len(results)).
		Int("unhealthy", failed).
		Msg("probe completed")

	return results
}

// NextProbeAt returns the time of the next scheduled probe.
func (p *Prober) NextProbeAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.nextProbeAt
}

// LastProbeAt returns the time of the last probe.
func (p *Prober) LastProbeAt() *time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastProbeAt
}

// LastResults returns the results of the last probe.
func (p *Prober) LastResults() map[models.Company]models.ProviderResult {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lastResults
}

// IsRunning returns whether the prober loop is currently running.
func (p *Prober) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}
