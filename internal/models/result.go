package models

import "time"

// ResultStatus classifies the outcome of one provider run.
type ResultStatus string

const (
	// ResultOK means the provider answered without error.
	ResultOK ResultStatus = "ok"
	// ResultPartial means some offers were collected before an error cut the run short.
	ResultPartial ResultStatus = "partial"
	// ResultFailed means the provider produced no offers and an error.
	ResultFailed ResultStatus = "failed"
)

// ProviderResult is the outcome of asking a single provider for offers.
type ProviderResult struct {
	Provider   Company            `json:"provider"`
	Status     ResultStatus       `json:"status"`
	Offers     []PresentableOffer `json:"offers"`
	Error      string             `json:"error,omitempty"`
	DurationMs int64              `json:"durationMs"`
}

// Failed reports whether the provider run produced nothing usable.
func (r ProviderResult) Failed() bool {
	return r.Status == ResultFailed
}

// ProviderStatus holds the operational status of a provider.
type ProviderStatus struct {
	Enabled            bool       `json:"enabled"`
	LastRunAt          *time.Time `json:"last_run_at"`
	LastRunStatus      string     `json:"last_run_status"`
	LastResponseTimeMs int64      `json:"last_response_time_ms"`
	LastOfferCount     int        `json:"last_offer_count"`
	LastError          *string    `json:"last_error"`
	TotalRequests      int64      `json:"total_requests"`
	TotalErrors        int64      `json:"total_errors"`
}

// StatusResponse is the response for the /status endpoint.
type StatusResponse struct {
	Status        string                     `json:"status"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	ProberRunning bool                       `json:"prober_running"`
	NextProbeAt   *time.Time                 `json:"next_probe_at,omitempty"`
	LastProbeAt   *time.Time                 `json:"last_probe_at,omitempty"`
	Providers     map[Company]ProviderStatus `json:"providers"`
}
