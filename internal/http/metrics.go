// Package http provides the HTTP front-end of the offer aggregator.
package http

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/karolinespohn/GenDevServer/internal/models"
)

// Metrics holds all Prometheus metrics for the server.
type Metrics struct {
	// Provider metrics
	ProviderRequestsTotal   *prometheus.CounterVec
	ProviderRequestDuration *prometheus.HistogramVec
	OffersReturned          *prometheus.GaugeVec
	LastSuccessTimestamp    *prometheus.GaugeVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ProviderRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerserver_provider_requests_total",
				Help: "Total number of provider requests by provider and result status",
			},
			[]string{"provider", "status"},
		),
		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offerserver_provider_request_duration_seconds",
				Help:    "Provider request duration in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 45},
			},
			[]string{"provider"},
		),
		OffersReturned: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offerserver_offers_returned",
				Help: "Number of offers returned by the last provider request",
			},
			[]string{"provider"},
		),
		LastSuccessTimestamp: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "offerserver_provider_last_success_timestamp",
				Help: "Timestamp of the last provider request without error",
			},
			[]string{"provider"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "offerserver_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "offerserver_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveProviderRun records the outcome of one provider request.
func (m *Metrics) ObserveProviderRun(provider models.Company, status models.ResultStatus, duration time.Duration, offers int) {
	name := string(provider)
	m.ProviderRequestsTotal.WithLabelValues(name, string(status)).Inc()
	m.ProviderRequestDuration.WithLabelValues(name).Observe(duration.Seconds())
	m.OffersReturned.WithLabelValues(name).Set(float64(offers))
	if status == models.ResultOK {
		m.LastSuccessTimestamp.WithLabelValues(name).SetToCurrentTime()
	}
}

// RecordHTTPRequest records a served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, route, code string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
