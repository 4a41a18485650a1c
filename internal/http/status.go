package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/karolinespohn/GenDevServer/internal/aggregator"
	"github.com/karolinespohn/GenDevServer/internal/models"
	"github.com/karolinespohn/GenDevServer/internal/prober"
)

// StatusHandler handles the /status endpoint.
type StatusHandler struct {
	aggregator *aggregator.Aggregator
	prober     *prober.Prober
	startTime  time.Time
}

// NewStatusHandler creates a new StatusHandler. p may be nil when probing is disabled.
func NewStatusHandler(agg *aggregator.Aggregator, p *prober.Prober) *StatusHandler {
	return &StatusHandler{
		aggregator: agg,
		prober:     p,
		startTime:  time.Now(),
	}
}

// Handle writes the current status.
func (h *StatusHandler) Handle(c *gin.Context) {
	c.JSON(http.StatusOK, h.status())
}

func (h *StatusHandler) status() models.StatusResponse {
	response := models.StatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Providers:     make(map[models.Company]models.ProviderStatus),
	}

	// Get prober status
	if h.prober != nil {
		response.ProberRunning = h.prober.IsRunning()
		response.LastProbeAt = h.prober.LastProbeAt()
		nextProbe := h.prober.NextProbeAt()
		if !nextProbe.IsZero() {
			response.NextProbeAt = &nextProbe
		}
	}

	// Get provider statuses
	degraded := false
	for _, provider := range h.aggregator.Providers() {
		metrics := h.aggregator.GetMetrics(provider.Name())
		if metrics == nil {
			continue
		}

		snapshot := metrics.GetSnapshot()
		if snapshot.LastStatus == models.ResultFailed {
			degraded = true
		}
		response.Providers[provider.Name()] = models.ProviderStatus{
			Enabled:            true,
			LastRunAt:          snapshot.LastRunAt,
			LastRunStatus:      string(snapshot.LastStatus),
			LastResponseTimeMs: snapshot.LastResponseTime.Milliseconds(),
			LastOfferCount:     snapshot.LastOfferCount,
			LastError:          snapshot.LastError,
			TotalRequests:      snapshot.TotalRequests,
			TotalErrors:        snapshot.TotalErrors,
		}
	}
	if degraded {
		response.Status = "degraded"
	}

	return response
}
