package webwunder

import (
	"context"
	"encoding/xml"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

const sampleResponse = `<?xml version="1.0" encoding="UTF-8"?>
<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Header/>
  <SOAP-ENV:Body>
    <ns2:Output xmlns:ns2="http://webwunder.gendev7.check24.fun/offerservice">
      <ns2:products>
        <ns2:productId>11</ns2:productId>
        <ns2:providerName>WebWunder Fiber</ns2:providerName>
        <ns2:productInfo>
          <ns2:speed>1000</ns2:speed>
          <ns2:monthlyCostInCent>5999</ns2:monthlyCostInCent>
          <ns2:monthlyCostInCentFrom25thMonth>6999</ns2:monthlyCostInCentFrom25thMonth>
          <ns2:voucher>
            <ns2:discountInCent>2500</ns2:discountInCent>
          </ns2:voucher>
          <ns2:contractDurationInMonths>24</ns2:contractDurationInMonths>
          <ns2:connectionType>FIBER</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>
      <ns2:products>
        <ns2:productId>12</ns2:productId>
        <ns2:productInfo>
          <ns2:speed>100</ns2:speed>
          <ns2:monthlyCostInCent>2999</ns2:monthlyCostInCent>
          <ns2:monthlyCostInCentFrom25thMonth>3999</ns2:monthlyCostInCentFrom25thMonth>
          <ns2:contractDurationInMonths>12</ns2:contractDurationInMonths>
          <ns2:connectionType>DSL</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>
      <ns2:products>
        <ns2:productId>13</ns2:productId>
        <ns2:productInfo>
          <ns2:speed>fast</ns2:speed>
          <ns2:monthlyCostInCent>2999</ns2:monthlyCostInCent>
          <ns2:monthlyCostInCentFrom25thMonth>3999</ns2:monthlyCostInCentFrom25thMonth>
          <ns2:contractDurationInMonths>12</ns2:contractDurationInMonths>
          <ns2:connectionType>DSL</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>
      <ns2:products>
        <ns2:productId>14</ns2:productId>
        <ns2:productInfo>
          <ns2:speed>100</ns2:speed>
          <ns2:monthlyCostInCent>2999</ns2:monthlyCostInCent>
          <ns2:contractDurationInMonths>12</ns2:contractDurationInMonths>
          <ns2:connectionType>DSL</ns2:connectionType>
        </ns2:productInfo>
      </ns2:products>
    </ns2:Output>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

const faultResponse = `<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/">
  <SOAP-ENV:Body>
    <SOAP-ENV:Fault>
      <faultcode>SOAP-ENV:Client</faultcode>
      <faultstring>Invalid address</faultstring>
    </SOAP-ENV:Fault>
  </SOAP-ENV:Body>
</SOAP-ENV:Envelope>`

var testAddress = models.Address{
	Street:  "Bahnhofstrasse",
	Number:  "5",
	City:    "Zürich",
	Zip:     "8001",
	Country: models.CountrySwitzerland,
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), zerolog.Nop(), Config{BaseURL: srv.URL, APIKey: "key"})
}

func TestFetchOffers(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != soapPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "key" {
			t.Errorf("unexpected api key %q", got)
		}
		if got := r.Header.Get("Content-Type"); got != "text/xml; charset=utf-8" {
			t.Errorf("unexpected content type %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), "<gs:connectionEnum>CABLE</gs:connectionEnum>") {
			t.Errorf("expected CABLE in envelope, got %s", body)
		}
		if !strings.Contains(string(body), "<gs:countryCode>CH</gs:countryCode>") {
			t.Errorf("expected CH in envelope, got %s", body)
		}
		_, _ = w.Write([]byte(sampleResponse))
	})

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{
		Address:        testAddress,
		Installation:   true,
		ConnectionType: models.ConnectionCable,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}

	first := offers[0].(models.WebWunderOffer)
	if first.ID != "11" || first.Speed != 1000 || first.MonthlyPrice != 59.99 || first.MonthlyPriceAfter24Months != 69.99 {
		t.Errorf("unexpected first offer %+v", first)
	}
	if !first.DiscountAvailable || first.DiscountAmount != 25 {
		t.Errorf("expected 25 EUR discount, got %+v", first)
	}
	if !first.InstallationService {
		t.Errorf("expected installation flag to be echoed")
	}
	if first.ConnectionType != models.ConnectionFiber {
		t.Errorf("expected FIBER, got %s", first.ConnectionType)
	}

	second := offers[1].(models.WebWunderOffer)
	if second.DiscountAvailable || second.DiscountAmount != 0 {
		t.Errorf("expected no discount, got %+v", second)
	}
}

func TestFetchOffers_Failures(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		check func(error) bool
	}{
		{"malformed xml", "<Envelope><products>", func(err error) bool { return errors.Is(err, api.ErrDecode) }},
		{"soap fault", faultResponse, func(err error) bool {
			return errors.Is(err, ErrSOAPFault) && strings.Contains(err.Error(), "Invalid address")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
			if !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
			if len(offers) != 0 {
				t.Errorf("expected no offers, got %d", len(offers))
			}
		})
	}
}

func TestFetchOffers_Latin1Response(t *testing.T) {
	latin1 := strings.Replace(sampleResponse, `encoding="UTF-8"`, `encoding="ISO-8859-1"`, 1)
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml; charset=ISO-8859-1")
		_, _ = w.Write([]byte(latin1))
	})

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
}

func TestCheckDocument_Latin1Fault(t *testing.T) {
	// 0xFC is "ü" in ISO-8859-1.
	body := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>" +
		`<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"><SOAP-ENV:Body><SOAP-ENV:Fault>` +
		"<faultcode>SOAP-ENV:Client</faultcode><faultstring>Ung\xfcltige Adresse</faultstring>" +
		`</SOAP-ENV:Fault></SOAP-ENV:Body></SOAP-ENV:Envelope>`

	err := checkDocument([]byte(body))
	if !errors.Is(err, ErrSOAPFault) {
		t.Fatalf("expected ErrSOAPFault, got %v", err)
	}
	if !strings.Contains(err.Error(), "Ungültige Adresse") {
		t.Errorf("expected transcoded fault string, got %q", err.Error())
	}
}

func TestFetchOffers_MissingKey(t *testing.T) {
	p := New(http.DefaultClient, zerolog.Nop(), Config{})

	_, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if !errors.Is(err, api.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}

func TestBuildEnvelope(t *testing.T) {
	envelope := buildEnvelope(models.OfferRequest{
		Address: models.Address{
			Street:  `Müller & <Söhne> "Weg"`,
			Number:  "1",
			City:    "Wien",
			Zip:     "1010",
			Country: models.CountryAustria,
		},
		ConnectionType: models.ConnectionUnknown,
	})

	if err := xml.Unmarshal([]byte(envelope), new(struct{})); err != nil {
		t.Fatalf("envelope is not well-formed: %v", err)
	}
	if !strings.Contains(envelope, "Müller &amp; &lt;Söhne&gt; &#34;Weg&#34;") {
		t.Errorf("expected escaped street, got %s", envelope)
	}
	if !strings.Contains(envelope, "<gs:connectionEnum>DSL</gs:connectionEnum>") {
		t.Errorf("expected UNKNOWN to be sent as DSL")
	}
	if !strings.Contains(envelope, "<gs:installation>false</gs:installation>") {
		t.Errorf("expected installation false")
	}
}

func TestParseProduct_PrefixTolerant(t *testing.T) {
	block := `<productId>7</productId><speed>50</speed><monthlyCostInCent>1999</monthlyCostInCent>` +
		`<x:monthlyCostInCentFrom25thMonth>2999</x:monthlyCostInCentFrom25thMonth>` +
		`<contractDurationInMonths>24</contractDurationInMonths><connectionType>cable</connectionType>` +
		`<discountInCent>-1</discountInCent>`
	if _, err := parseProduct(block, false); err == nil {
		t.Fatal("expected negative discount to be rejected")
	}

	block = strings.Replace(block, "-1", "100", 1)
	offer, err := parseProduct(block, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if offer.MonthlyPriceAfter24Months != 29.99 || offer.ConnectionType != models.ConnectionCable || offer.DiscountAmount != 1 {
		t.Errorf("unexpected offer %+v", offer)
	}
}
