package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/karolinespohn/GenDevServer/internal/aggregator"
	"github.com/karolinespohn/GenDevServer/internal/models"
	"github.com/karolinespohn/GenDevServer/internal/prober"
)

type addressRequest struct {
	Street  string `json:"street" binding:"required"`
	Number  string `json:"number" binding:"required"`
	City    string `json:"city" binding:"required"`
	Zip     string `json:"zip" binding:"required"`
	Country string `json:"country" binding:"required,country"`
}

// offersRequest is the body of every offer search endpoint.
type offersRequest struct {
	Address        addressRequest `json:"address"`
	WantsFiber     bool           `json:"wantsFiber"`
	Installation   bool           `json:"installation"`
	ConnectionType string         `json:"connectionType"`
}

func (r offersRequest) toOfferRequest() (models.OfferRequest, error) {
	country, err := models.ParseCountry(r.Address.Country)
	if err != nil {
		return models.OfferRequest{}, err
	}
	connection := models.ConnectionDSL
	if r.ConnectionType != "" {
		connection = models.ParseConnectionType(r.ConnectionType)
	}
	return models.OfferRequest{
		Address: models.Address{
			Street:  strings.TrimSpace(r.Address.Street),
			Number:  strings.TrimSpace(r.Address.Number),
			City:    strings.TrimSpace(r.Address.City),
			Zip:     strings.TrimSpace(r.Address.Zip),
			Country: country,
		},
		WantsFiber:     r.WantsFiber,
		Installation:   r.Installation,
		ConnectionType: connection,
	}, nil
}

// retrieverReport is one row of the /test-retrievers response.
type retrieverReport struct {
	Status     models.ResultStatus `json:"status"`
	Offers     int                 `json:"offers"`
	DurationMs int64               `json:"durationMs"`
	Error      string              `json:"error,omitempty"`
}

// OfferHandler serves the offer search endpoints.
type OfferHandler struct {
	aggregator   *aggregator.Aggregator
	prober       *prober.Prober
	probeRequest models.OfferRequest
}

// NewOfferHandler creates a new OfferHandler. p may be nil.
func NewOfferHandler(agg *aggregator.Aggregator, p *prober.Prober, probeRequest models.OfferRequest) *OfferHandler {
	return &OfferHandler{
		aggregator:   agg,
		prober:       p,
		probeRequest: probeRequest,
	}
}

// Single returns a handler that asks one provider.
func (h *OfferHandler) Single(company models.Company) gin.HandlerFunc {
	return func(c *gin.Context) {
		req, ok := bindOfferRequest(c)
		if !ok {
			return
		}

		result, err := h.aggregator.Acquire(c.Request.Context(), company, req)
		if errors.Is(err, aggregator.ErrUnknownProvider) {
			c.JSON(http.StatusNotFound, gin.H{"error": "provider " + string(company) + " is not enabled"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// All asks every registered provider.
func (h *OfferHandler) All(c *gin.Context) {
	req, ok := bindOfferRequest(c)
	if !ok {
		return
	}
	results := h.aggregator.AcquireAll(c.Request.Context(), req)
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// TestRetrievers runs the probe address through every provider.
func (h *OfferHandler) TestRetrievers(c *gin.Context) {
	var results map[models.Company]models.ProviderResult
	if h.prober != nil {
		results = h.prober.RunOnce(c.Request.Context())
	} else {
		results = h.aggregator.AcquireAll(c.Request.Context(), h.probeRequest)
	}

	reports := make(map[models.Company]retrieverReport, len(results))
	for company, result := range results {
		reports[company] = retrieverReport{
			Status:     result.Status,
			Offers:     len(result.Offers),
			DurationMs: result.DurationMs,
			Error:      result.Error,
		}
	}
	c.JSON(http.StatusOK, gin.H{"results": reports})
}

func bindOfferRequest(c *gin.Context) (models.OfferRequest, bool) {
	var body offersRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.OfferRequest{}, false
	}
	req, err := body.toOfferRequest()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return models.OfferRequest{}, false
	}
	return req, true
}

func routeName(company models.Company) string {
	return strings.ToLower(string(company))
}
