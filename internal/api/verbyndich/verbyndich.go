// Package verbyndich provides an API client for the paginated VerbynDich offer service.
//
// Each page holds one offer described in German prose. Pages are requested
// one at a time until the service flags a page as the last one.
package verbyndich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = models.CompanyVerbynDich
	// DefaultBaseURL is the production endpoint for VerbynDich.
	DefaultBaseURL = "https://verbyndich.gendev7.check24.fun"
	// DefaultMaxPages bounds pagination when the service never reports a last page.
	DefaultMaxPages = 100

	dataPath = "/check24/data"
)

// page is a single paginated response.
type page struct {
	Product     string `json:"product"`
	Description string `json:"description"`
	Last        bool   `json:"last"`
	Valid       bool   `json:"valid"`
}

// Config holds the VerbynDich endpoint and API key.
type Config struct {
	BaseURL  string
	APIKey   string
	MaxPages int
}

// Provider implements the API provider interface for VerbynDich.
type Provider struct {
	client   *http.Client
	logger   zerolog.Logger
	baseURL  string
	apiKey   string
	maxPages int
}

// New creates a new VerbynDich provider.
func New(client *http.Client, logger zerolog.Logger, cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Provider{
		client:   client,
		logger:   logger.With().Str("provider", string(ProviderName)).Logger(),
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   strings.TrimSpace(cfg.APIKey),
		maxPages: maxPages,
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() models.Company {
	return ProviderName
}

// FetchOffers walks the pages sequentially and extracts an offer from every valid one.
//
// Any failure on the first page is returned as an error. On later pages an
// undecodable page ends pagination as if it were the last. A transport error,
// a non-2xx status or an empty body returns the offers gathered so far
// together with the error.
func (p *Provider) FetchOffers(ctx context.Context, req models.OfferRequest) ([]models.InternetOffer, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("verbyndich api key: %w", api.ErrMissingCredentials)
	}

	body := strings.Join([]string{
		req.Address.Street,
		req.Address.Number,
		req.Address.City,
		req.Address.Zip,
	}, ";")

	var results []models.InternetOffer
	discarded := 0
	for n := 0; ; n++ {
		if n >= p.maxPages {
			p.logger.Warn().
				Int("maxPages", p.maxPages).
				Msg("VerbynDich page limit reached, stopping pagination")
			break
		}

		pg, err := p.fetchPage(ctx, n, body)
		if err != nil {
			if n == 0 {
				return nil, fmt.Errorf("fetching page 0: %w", err)
			}
			if !isPageError(err) {
				return results, fmt.Errorf("fetching page %d: %w", n, err)
			}
			p.logger.Warn().
				Err(err).
				Int("page", n).
				Msg("dropping undecodable VerbynDich page, stopping pagination")
			break
		}

		if pg.Valid {
			offer, ok := extractOffer(pg.Product, pg.Description)
			if ok {
				results = append(results, offer)
			} else {
				discarded++
				p.logger.Warn().
					Int("page", n).
					Str("product", pg.Product).
					Msg("VerbynDich description lacks price, connection type or speed")
			}
		}

		if pg.Last {
			break
		}
	}

	p.logger.Info().
		Int("count", len(results)).
		Int("discarded", discarded).
		Msg("fetched offers from VerbynDich")

	if results == nil {
		results = []models.InternetOffer{}
	}
	return results, nil
}

// pageError marks a page that arrived but could not be decoded.
type pageError struct {
	err error
}

func (e *pageError) Error() string { return e.err.Error() }
func (e *pageError) Unwrap() error { return e.err }

func isPageError(err error) bool {
	var pe *pageError
	return errors.As(err, &pe)
}

func (p *Provider) fetchPage(ctx context.Context, n int, body string) (page, error) {
	query := url.Values{}
	query.Set("apiKey", p.apiKey)
	query.Set("page", strconv.Itoa(n))
	apiURL := p.baseURL + dataPath + "?" + query.Encode()

	p.logger.Debug().
		Int("page", n).
		Msg("fetching VerbynDich page")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, strings.NewReader(body))
	if err != nil {
		return page{}, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "text/plain; charset=utf-8")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return page{}, fmt.Errorf("executing request: %w", err)
	}

	data, err := api.ReadBody(resp)
	if err != nil {
		return page{}, err
	}

	var pg page
	if err := json.Unmarshal(data, &pg); err != nil {
		return page{}, &pageError{err: fmt.Errorf("%w: parsing page JSON: %v", api.ErrDecode, err)}
	}
	return pg, nil
}
