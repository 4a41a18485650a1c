// Package pingperfect provides an API client for the PingPerfect offer service.
//
// Requests are signed with HMAC-SHA256 over "<unix-seconds>:<json-payload>".
package pingperfect

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = models.CompanyPingPerfect
	// DefaultBaseURL is the production endpoint for PingPerfect.
	DefaultBaseURL = "https://pingperfect.gendev7.check24.fun"
	// offersPath accepts the signed search payload.
	offersPath = "/internet/angebote/data"
)

// compareProductsRequest is the signed request payload.
// Field order is part of the signature and must not change.
type compareProductsRequest struct {
	Street      string `json:"street"`
	Plz         string `json:"plz"`
	HouseNumber string `json:"houseNumber"`
	City        string `json:"city"`
	WantsFiber  bool   `json:"wantsFiber"`
}

// Config holds the PingPerfect endpoint and credentials.
type Config struct {
	BaseURL         string
	ClientID        string
	SignatureSecret string
}

// Provider implements the API provider interface for PingPerfect.
type Provider struct {
	client   *http.Client
	logger   zerolog.Logger
	baseURL  string
	clientID string
	secret   string
	now      func() time.Time
}

// New creates a new PingPerfect provider.
func New(client *http.Client, logger zerolog.Logger, cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		client:   client,
		logger:   logger.With().Str("provider", string(ProviderName)).Logger(),
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: strings.TrimSpace(cfg.ClientID),
		secret:   cfg.SignatureSecret,
		now:      time.Now,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() models.Company {
	return ProviderName
}

// Sign returns the lowercase hex HMAC-SHA256 of "<timestamp>:<payload>".
func Sign(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strconv.FormatInt(timestamp, 10)))
	mac.Write([]byte{':'})
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// FetchOffers posts the signed search payload and decodes the offer list.
func (p *Provider) FetchOffers(ctx context.Context, req models.OfferRequest) ([]models.InternetOffer, error) {
	if p.clientID == "" || strings.TrimSpace(p.secret) == "" {
		return nil, fmt.Errorf("pingperfect client id or signature secret: %w", api.ErrMissingCredentials)
	}

	payload, err := json.Marshal(compareProductsRequest{
		Street:      req.Address.Street,
		Plz:         req.Address.Zip,
		HouseNumber: req.Address.Number,
		City:        req.Address.City,
		WantsFiber:  req.WantsFiber,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	timestamp := p.now().Unix()
	signature := Sign(p.secret, timestamp, payload)

	p.logger.Debug().
		Str("url", p.baseURL+offersPath).
		Int64("timestamp", timestamp).
		Bool("wantsFiber", req.WantsFiber).
		Msg("fetching offers from PingPerfect")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+offersPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Signature", signature)
	httpReq.Header.Set("X-Timestamp", strconv.FormatInt(timestamp, 10))
	httpReq.Header.Set("X-Client-Id", p.clientID)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body, err := api.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	var offers []models.PingPerfectOffer
	if err := json.Unmarshal(body, &offers); err != nil {
		return nil, fmt.Errorf("%w: parsing response JSON: %v", api.ErrDecode, err)
	}

	results := make([]models.InternetOffer, 0, len(offers))
	for _, offer := range offers {
		if offer.PricingDetails.MonthlyCostInCent < 0 {
			p.logger.Warn().
				Str("offer", offer.ProviderName).
				Int("monthlyCostInCent", offer.PricingDetails.MonthlyCostInCent).
				Msg("skipping PingPerfect offer with negative price")
			continue
		}
		offer.ProductInfo.ConnectionType = offer.ProductInfo.ConnectionType.OrUnknown()
		results = append(results, offer)
	}

	p.logger.Info().
		Int("count", len(results)).
		Msg("fetched offers from PingPerfect")

	return results, nil
}
