// Package servusspeed provides an API client for the ServusSpeed product API.
//
// The API works in two phases: an address lookup returns the ids of the
// available products, then each product's details are fetched separately.
package servusspeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = models.CompanyServusSpeed
	// DefaultBaseURL is the production endpoint for ServusSpeed.
	DefaultBaseURL = "https://servus-speed.gendev7.check24.fun"

	availableProductsPath = "/api/external/available-products"
	productDetailsPath    = "/api/external/product-details/"

	// defaultDetailConcurrency caps simultaneous detail requests per search.
	defaultDetailConcurrency = 16
)

type requestAddress struct {
	Strasse      string `json:"strasse"`
	Hausnummer   string `json:"hausnummer"`
	Postleitzahl string `json:"postleitzahl"`
	Stadt        string `json:"stadt"`
	Land         string `json:"land"`
}

type productRequest struct {
	Address requestAddress `json:"address"`
}

type availableProductsResponse struct {
	AvailableProducts []string `json:"availableProducts"`
}

type productDetailsResponse struct {
	ServusSpeedProduct *struct {
		ProviderName string `json:"providerName"`
		ProductInfo  struct {
			Speed                    int                   `json:"speed"`
			ContractDurationInMonths int                   `json:"contractDurationInMonths"`
			ConnectionType           models.ConnectionType `json:"connectionType"`
			TV                       *string               `json:"tv"`
			LimitFrom                *int                  `json:"limitFrom"`
			MaxAge                   *int                  `json:"maxAge"`
		} `json:"productInfo"`
		PricingDetails struct {
			MonthlyCostInCent   int  `json:"monthlyCostInCent"`
			InstallationService bool `json:"installationService"`
		} `json:"pricingDetails"`
		Discount int `json:"discount"`
	} `json:"servusSpeedProduct"`
}

// Config holds the ServusSpeed endpoint and basic auth credentials.
type Config struct {
	BaseURL  string
	Username string
	Password string
	// DetailConcurrency limits parallel detail requests. Zero uses the default.
	DetailConcurrency int
}

// Provider implements the API provider interface for ServusSpeed.
type Provider struct {
	client      *http.Client
	logger      zerolog.Logger
	baseURL     string
	username    string
	password    string
	concurrency int
}

// New creates a new ServusSpeed provider.
func New(client *http.Client, logger zerolog.Logger, cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	concurrency := cfg.DetailConcurrency
	if concurrency <= 0 {
		concurrency = defaultDetailConcurrency
	}
	return &Provider{
		client:      client,
		logger:      logger.With().Str("provider", string(ProviderName)).Logger(),
		baseURL:     strings.TrimRight(baseURL, "/"),
		username:    strings.TrimSpace(cfg.Username),
		password:    cfg.Password,
		concurrency: concurrency,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() models.Company {
	return ProviderName
}

// FetchOffers looks up the available products and fetches their details concurrently.
// A failing detail request drops that product only.
func (p *Provider) FetchOffers(ctx context.Context, req models.OfferRequest) ([]models.InternetOffer, error) {
	if p.username == "" || p.password == "" {
		return nil, fmt.Errorf("servusspeed username or password: %w", api.ErrMissingCredentials)
	}

	payload, err := json.Marshal(productRequest{Address: requestAddress{
		Strasse:      req.Address.Street,
		Hausnummer:   req.Address.Number,
		Postleitzahl: req.Address.Zip,
		Stadt:        req.Address.City,
		Land:         req.Address.Country.ISO(),
	}})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	productIDs, err := p.fetchAvailableProducts(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("fetching available products: %w", err)
	}
	if len(productIDs) == 0 {
		p.logger.Info().Msg("no ServusSpeed products available for address")
		return []models.InternetOffer{}, nil
	}

	p.logger.Debug().
		Int("products", len(productIDs)).
		Msg("fetching ServusSpeed product details")

	details := make([]*models.ServusSpeedOffer, len(productIDs))
	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, id := range productIDs {
		g.Go(func() error {
			offer, err := p.fetchProductDetails(ctx, id, payload)
			if err != nil {
				p.logger.Warn().
					Err(err).
					Str("productId", id).
					Msg("failed to fetch ServusSpeed product details")
				return nil
			}
			details[i] = offer
			return nil
		})
	}
	_ = g.Wait()

	results := make([]models.InternetOffer, 0, len(details))
	for _, d := range details {
		if d != nil {
			results = append(results, *d)
		}
	}

	p.logger.Info().
		Int("count", len(results)).
		Int("requested", len(productIDs)).
		Msg("fetched offers from ServusSpeed")

	return results, nil
}

func (p *Provider) fetchAvailableProducts(ctx context.Context, payload []byte) ([]string, error) {
	body, err := p.post(ctx, p.baseURL+availableProductsPath, payload)
	if err != nil {
		return nil, err
	}

	var data availableProductsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: parsing available products: %v", api.ErrDecode, err)
	}
	return data.AvailableProducts, nil
}

func (p *Provider) fetchProductDetails(ctx context.Context, productID string, payload []byte) (*models.ServusSpeedOffer, error) {
	body, err := p.post(ctx, p.baseURL+productDetailsPath+url.PathEscape(productID), payload)
	if err != nil {
		return nil, err
	}

	var data productDetailsResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("%w: parsing product details: %v", api.ErrDecode, err)
	}
	product := data.ServusSpeedProduct
	if product == nil {
		return nil, fmt.Errorf("%w: missing servusSpeedProduct", api.ErrDecode)
	}
	if product.PricingDetails.MonthlyCostInCent < 0 || product.Discount < 0 {
		return nil, fmt.Errorf("negative amount in product %s", productID)
	}

	return &models.ServusSpeedOffer{
		ProviderName:             product.ProviderName,
		Speed:                    product.ProductInfo.Speed,
		ContractDurationInMonths: product.ProductInfo.ContractDurationInMonths,
		ConnectionType:           product.ProductInfo.ConnectionType.OrUnknown(),
		TV:                       product.ProductInfo.TV,
		LimitFrom:                product.ProductInfo.LimitFrom,
		MaxAge:                   product.ProductInfo.MaxAge,
		MonthlyCostInCent:        product.PricingDetails.MonthlyCostInCent,
		InstallationService:      product.PricingDetails.InstallationService,
		Discount:                 float64(product.Discount) / 100,
	}, nil
}

func (p *Provider) post(ctx context.Context, apiURL string, payload []byte) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.SetBasicAuth(p.username, p.password)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return api.ReadBody(resp)
}
