// Package webwunder provides an API client for the WebWunder SOAP offer service.
package webwunder

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

const (
	// ProviderName is the identifier for this provider.
	ProviderName = models.CompanyWebWunder
	// DefaultBaseURL is the production endpoint for WebWunder.
	DefaultBaseURL = "https://webwunder.gendev7.check24.fun"
	// offerNamespace is the target namespace of the offer service.
	offerNamespace = "http://webwunder.gendev7.check24.fun/offerservice"

	soapPath = "/endpunkte/soap/ws"
	// displayName is used as the offer name, the service does not send one.
	displayName = "WebWunder"
)

// ErrSOAPFault is returned when the service answers with a SOAP fault.
var ErrSOAPFault = errors.New("soap fault")

var productsBlock = regexp.MustCompile(`(?s)<(?:[\w.-]+:)?products(?:\s[^>]*)?>(.*?)</(?:[\w.-]+:)?products>`)

const envelopeTemplate = `<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:gs="%s">
  <soapenv:Header/>
  <soapenv:Body>
    <gs:legacyGetInternetOffers>
      <gs:input>
        <gs:installation>%t</gs:installation>
        <gs:connectionEnum>%s</gs:connectionEnum>
        <gs:address>
          <gs:street>%s</gs:street>
          <gs:houseNumber>%s</gs:houseNumber>
          <gs:city>%s</gs:city>
          <gs:plz>%s</gs:plz>
          <gs:countryCode>%s</gs:countryCode>
        </gs:address>
      </gs:input>
    </gs:legacyGetInternetOffers>
  </soapenv:Body>
</soapenv:Envelope>`

// Config holds the WebWunder endpoint and API key.
type Config struct {
	BaseURL string
	APIKey  string
}

// Provider implements the API provider interface for WebWunder.
type Provider struct {
	client  *http.Client
	logger  zerolog.Logger
	baseURL string
	apiKey  string
}

// New creates a new WebWunder provider.
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

// FetchOffers sends the SOAP search request and scans the product blocks of the response.
func (p *Provider) FetchOffers(ctx context.Context, req models.OfferRequest) ([]models.InternetOffer, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("webwunder api key: %w", api.ErrMissingCredentials)
	}

	envelope := buildEnvelope(req)

	p.logger.Debug().
		Str("url", p.baseURL+soapPath).
		Str("connectionType", string(req.ConnectionType)).
		Bool("installation", req.Installation).
		Msg("fetching offers from WebWunder")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+soapPath, strings.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("X-Api-Key", p.apiKey)
	httpReq.Header.Set("Content-Type", "text/xml; charset=utf-8")
	httpReq.Header.Set("SOAPAction", `""`)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}

	body, err := api.ReadBody(resp)
	if err != nil {
		return nil, err
	}

	if err := checkDocument(body); err != nil {
		return nil, err
	}

	blocks := productsBlock.FindAllSubmatch(body, -1)
	results := make([]models.InternetOffer, 0, len(blocks))
	for _, block := range blocks {
		offer, err := parseProduct(string(block[1]), req.Installation)
		if err != nil {
			p.logger.Warn().
				Err(err).
				Msg("skipping invalid WebWunder product")
			continue
		}
		results = append(results, offer)
	}

	p.logger.Info().
		Int("count", len(results)).
		Int("blocks", len(blocks)).
		Msg("fetched offers from WebWunder")

	return results, nil
}

// buildEnvelope renders the legacyGetInternetOffers request.
// UNKNOWN is not part of the service enum and is sent as DSL.
func buildEnvelope(req models.OfferRequest) string {
	connection := req.ConnectionType
	if connection == "" || connection == models.ConnectionUnknown {
		connection = models.ConnectionDSL
	}
	return fmt.Sprintf(envelopeTemplate,
		offerNamespace,
		req.Installation,
		escape(string(connection)),
		escape(req.Address.Street),
		escape(req.Address.Number),
		escape(req.Address.City),
		escape(req.Address.Zip),
		escape(req.Address.Country.ISO()),
	)
}

func escape(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

// checkDocument verifies the response is well-formed XML and not a SOAP fault.
// Documents declaring a non-UTF-8 encoding such as ISO-8859-1 are transcoded.
func checkDocument(body []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charset.NewReaderLabel
	var (
		inFault     bool
		inString    bool
		faultString strings.Builder
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: malformed XML: %v", api.ErrDecode, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "Fault":
				inFault = true
			case "faultstring", "Text":
				inString = inFault
			}
		case xml.EndElement:
			if t.Name.Local == "faultstring" || t.Name.Local == "Text" {
				inString = false
			}
		case xml.CharData:
			if inString {
				faultString.Write(t)
			}
		}
	}
	if inFault {
		return fmt.Errorf("%w: %s", ErrSOAPFault, strings.TrimSpace(faultString.String()))
	}
	return nil
}

var leafTags = []string{
	"productId",
	"speed",
	"monthlyCostInCent",
	"monthlyCostInCentFrom25thMonth",
	"contractDurationInMonths",
	"connectionType",
	"discountInCent",
}

// leafRules holds one prefix-tolerant matcher per product leaf tag.
var leafRules = func() map[string]*regexp.Regexp {
	rules := make(map[string]*regexp.Regexp, len(leafTags))
	for _, tag := range leafTags {
		name := regexp.QuoteMeta(tag)
		rules[tag] = regexp.MustCompile(`(?s)<(?:[\w.-]+:)?` + name + `(?:\s[^>]*)?>(.*?)</(?:[\w.-]+:)?` + name + `>`)
	}
	return rules
}()

// leafValue returns the text of the first tag element in block.
func leafValue(block, tag string) (string, bool) {
	m := leafRules[tag].FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[1]), true
}

func leafInt(block, tag string) (int, error) {
	v, ok := leafValue(block, tag)
	if !ok {
		return 0, fmt.Errorf("missing %s", tag)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", tag, v)
	}
	return n, nil
}

func parseProduct(block string, installation bool) (models.WebWunderOffer, error) {
	productID, err := leafInt(block, "productId")
	if err != nil {
		return models.WebWunderOffer{}, err
	}
	speed, err := leafInt(block, "speed")
	if err != nil {
		return models.WebWunderOffer{}, err
	}
	monthly, err := leafInt(block, "monthlyCostInCent")
	if err != nil {
		return models.WebWunderOffer{}, err
	}
	after24, err := leafInt(block, "monthlyCostInCentFrom25thMonth")
	if err != nil {
		return models.WebWunderOffer{}, err
	}
	duration, err := leafInt(block, "contractDurationInMonths")
	if err != nil {
		return models.WebWunderOffer{}, err
	}
	connection, ok := leafValue(block, "connectionType")
	if !ok {
		return models.WebWunderOffer{}, errors.New("missing connectionType")
	}

	discount, err := leafInt(block, "discountInCent")
	if err != nil {
		discount = 0
	}
	if monthly < 0 || after24 < 0 || discount < 0 {
		return models.WebWunderOffer{}, fmt.Errorf("negative amount in product %d", productID)
	}

	return models.WebWunderOffer{
		ID:                        strconv.Itoa(productID),
		ProviderName:              displayName,
		Speed:                     speed,
		MonthlyPrice:              float64(monthly) / 100,
		MonthlyPriceAfter24Months: float64(after24) / 100,
		ContractDuration:          duration,
		ConnectionType:            models.ParseConnectionType(connection),
		DiscountAvailable:         discount > 0,
		DiscountAmount:            float64(discount) / 100,
		InstallationService:       installation,
	}, nil
}
