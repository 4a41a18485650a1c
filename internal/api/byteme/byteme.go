// Package byteme provides an API client for the ByteMe CSV offer feed.
package byteme

import (
	"context"
	"encoding/csv"
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
	ProviderName = models.CompanyByteMe
	// DefaultBaseURL is the production endpoint for ByteMe.
	DefaultBaseURL = "https://byteme.gendev7.check24.fun"
	// dataPath serves the CSV feed.
	dataPath = "/app/api/products/data"
	// fieldCount is the number of positional columns per row.
	fieldCount = 13
)

// Config holds the ByteMe endpoint and credentials.
type Config struct {
	BaseURL string
	APIKey  string
}

// Provider implements the API provider interface for ByteMe.
type Provider struct {
	client  *http.Client
	logger  zerolog.Logger
	baseURL string
	apiKey  string
}

// New creates a new ByteMe provider.
func New(client *http.Client, logger zerolog.Logger, cfg Config) *Provider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Provider{
		client:  client,
		logger:  logger.With().Str("provider", string(ProviderName)).Logger(),
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(cfg.APIKey),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() models.Company {
	return ProviderName
}

// FetchOffers downloads the CSV feed for the address and decodes its rows.
func (p *Provider) FetchOffers(ctx context.Context, req models.OfferRequest) ([]models.InternetOffer, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("byteme api key: %w", api.ErrMissingCredentials)
	}

	query := url.Values{}
	query.Set("street", req.Address.Street)
	query.Set("houseNumber", req.Address.Number)
	query.Set("city", req.Address.City)
	query.Set("plz", req.Address.Zip)
	apiURL := p.baseURL + dataPath + "?" + query.Encode()

	p.logger.Debug().
		Str("url", p.baseURL+dataPath).
		Str("zip", req.Address.Zip).
		Msg("fetching offers from ByteMe")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", p.apiKey)
	httpReq.Header.Set("Accept", "text/csv")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body, err := api.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	rows := dedupeRows(string(body))
	results := make([]models.InternetOffer, 0, len(rows))
	rejected := 0
	for i, row := range rows {
		offer, err := parseRow(row)
		if err != nil {
			if i == 0 && isHeader(row) {
				continue
			}
			rejected++
			p.logger.Warn().
				Err(err).
				Str("row", row).
				Msg("skipping invalid ByteMe row")
			continue
		}
		results = append(results, offer)
	}

	p.logger.Info().
		Int("count", len(results)).
		Int("rejected", rejected).
		Msg("fetched offers from ByteMe")

	return results, nil
}

// dedupeRows splits the feed into lines and drops blank and repeated lines.
// Deduplication compares raw text, before any field validation.
func dedupeRows(body string) []string {
	seen := make(map[string]struct{})
	var rows []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		rows = append(rows, line)
	}
	return rows
}

func isHeader(row string) bool {
	first, _, _ := strings.Cut(row, ",")
	return strings.EqualFold(strings.Trim(strings.TrimSpace(first), `"`), "productId")
}

// parseRow decodes one CSV line into a ByteMeOffer.
func parseRow(row string) (models.ByteMeOffer, error) {
	r := csv.NewReader(strings.NewReader(row))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	fields, err := r.Read()
	if err != nil {
		return models.ByteMeOffer{}, fmt.Errorf("reading csv: %w", err)
	}
	if len(fields) < fieldCount {
		return models.ByteMeOffer{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}

	productID, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.ByteMeOffer{}, errors.New("invalid product id")
	}
	speed, err := strconv.Atoi(fields[2])
	if err != nil {
		return models.ByteMeOffer{}, errors.New("invalid speed")
	}
	monthlyCostInCent, err := parseCents(fields[3])
	if err != nil {
		return models.ByteMeOffer{}, fmt.Errorf("invalid price: %w", err)
	}
	afterTwoYearsInCent, err := parseCents(fields[4])
	if err != nil {
		return models.ByteMeOffer{}, fmt.Errorf("invalid monthly cost after 2 years: %w", err)
	}
	duration, err := strconv.Atoi(fields[5])
	if err != nil {
		return models.ByteMeOffer{}, errors.New("invalid contract duration")
	}
	installation, err := parseStrictBool(fields[7])
	if err != nil {
		return models.ByteMeOffer{}, err
	}

	limitFrom, err := strconv.Atoi(fields[9])
	if err != nil {
		limitFrom = models.UnlimitedDataLimit
	}

	var maxAge *int
	if v, err := strconv.Atoi(fields[10]); err == nil {
		maxAge = &v
	}

	voucherType := fields[11]
	voucherValue, err := strconv.Atoi(fields[12])
	if err != nil {
		voucherValue = 0
		voucherType = ""
	}

	return models.ByteMeOffer{
		ProductID:                 productID,
		ProviderName:              fields[1],
		Speed:                     speed,
		MonthlyPrice:              float64(monthlyCostInCent) / 100,
		MonthlyPriceAfter24Months: float64(afterTwoYearsInCent) / 100,
		DurationInMonths:          duration,
		ConnectionType:            models.ParseConnectionType(fields[6]),
		InstallationService:       installation,
		TV:                        fields[8],
		LimitFrom:                 limitFrom,
		MaxAge:                    maxAge,
		VoucherType:               voucherType,
		VoucherValue:              voucherValue,
	}, nil
}

func parseCents(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, fmt.Errorf("negative amount %d", v)
	}
	return v, nil
}

// parseStrictBool accepts only the literals "true" and "false".
func parseStrictBool(s string) (bool, error) {
	switch s {
	case "true":
		return true, nil
	case "false":
		return false, nil
	default:
		return false, fmt.Errorf("invalid installation service value %q", s)
	}
}
