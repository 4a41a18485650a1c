package byteme

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

const sampleFeed = `productId,providerName,speed,monthlyCostInCent,afterTwoYearsMonthlyCost,durationInMonths,connectionType,installationService,tv,limitFrom,maxAge,voucherType,voucherValue
1,ByteMe Basic 50,50,2999,3999,24,DSL,true,,,,absolute,5000
2,ByteMe Cable 250,250,3999,4999,24,cable,false,ByteMe TV,200,27,relative,10
1,ByteMe Basic 50,50,2999,3999,24,DSL,true,,,,absolute,5000
3,ByteMe Broken,fast,2999,3999,24,DSL,true,,,,,
4,ByteMe Yes,100,2999,3999,24,DSL,yes,,,,,
5,ByteMe Negative,100,-100,3999,24,DSL,false,,,,,

6,ByteMe Fiber 1000,1000,6999,7999,12,Glasfaser,false,,,,percent,abc
`

var testAddress = models.Address{
	Street:  "Hauptstraße",
	Number:  "2a",
	City:    "Berlin",
	Zip:     "10115",
	Country: models.CountryGermany,
}

func newTestProvider(t *testing.T, handler http.HandlerFunc, key string) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), zerolog.Nop(), Config{BaseURL: srv.URL, APIKey: key})
}

func TestFetchOffers(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != dataPath {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-Api-Key"); got != "secret" {
			t.Errorf("unexpected api key %q", got)
		}
		q := r.URL.Query()
		if q.Get("street") != "Hauptstraße" || q.Get("houseNumber") != "2a" || q.Get("city") != "Berlin" || q.Get("plz") != "10115" {
			t.Errorf("unexpected query %v", q)
		}
		_, _ = w.Write([]byte(sampleFeed))
	}, "secret")

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 3 {
		t.Fatalf("expected 3 offers, got %d", len(offers))
	}

	first := offers[0].(models.ByteMeOffer)
	if first.ProductID != 1 || first.MonthlyPrice != 29.99 || first.MonthlyPriceAfter24Months != 39.99 {
		t.Errorf("unexpected first offer: %+v", first)
	}
	if first.LimitFrom != models.UnlimitedDataLimit {
		t.Errorf("expected unlimited data limit, got %d", first.LimitFrom)
	}
	if first.MaxAge != nil {
		t.Errorf("expected no max age, got %d", *first.MaxAge)
	}
	if first.VoucherType != "absolute" || first.VoucherValue != 5000 {
		t.Errorf("unexpected voucher %q/%d", first.VoucherType, first.VoucherValue)
	}

	second := offers[1].(models.ByteMeOffer)
	if second.ConnectionType != models.ConnectionCable {
		t.Errorf("expected CABLE, got %s", second.ConnectionType)
	}
	if second.LimitFrom != 200 || second.MaxAge == nil || *second.MaxAge != 27 {
		t.Errorf("unexpected disclaimer fields: %+v", second)
	}
	if second.TV != "ByteMe TV" {
		t.Errorf("unexpected tv %q", second.TV)
	}

	third := offers[2].(models.ByteMeOffer)
	if third.ConnectionType != models.ConnectionUnknown {
		t.Errorf("expected UNKNOWN for free text type, got %s", third.ConnectionType)
	}
	if third.VoucherType != "" || third.VoucherValue != 0 {
		t.Errorf("expected unparseable voucher to default, got %q/%d", third.VoucherType, third.VoucherValue)
	}
}

func TestFetchOffers_MissingKeySkipsRequest(t *testing.T) {
	called := false
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	}, "  ")

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if !errors.Is(err, api.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("expected no offers, got %d", len(offers))
	}
	if called {
		t.Errorf("expected no request without api key")
	}
}

func TestFetchOffers_ServerError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}, "secret")

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	var statusErr *api.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected HTTPStatusError 502, got %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("expected no offers, got %d", len(offers))
	}
}

func TestParseRow(t *testing.T) {
	tests := []struct {
		name    string
		row     string
		wantErr bool
	}{
		{"valid", "7,Name,100,1000,2000,24,FIBER,false,,,,,", false},
		{"quoted name", `7,"Name, with comma",100,1000,2000,24,FIBER,false,,,,,`, false},
		{"too few fields", "7,Name,100", true},
		{"bad product id", "x,Name,100,1000,2000,24,FIBER,false,,,,,", true},
		{"bad duration", "7,Name,100,1000,2000,two,FIBER,false,,,,,", true},
		{"bad post 24 price", "7,Name,100,1000,,24,FIBER,false,,,,,", true},
		{"capitalized bool", "7,Name,100,1000,2000,24,FIBER,True,,,,,", true},
		{"negative price", "7,Name,100,-1,2000,24,FIBER,false,,,,,", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRow(tt.row)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseRow(%q) error = %v, wantErr %v", tt.row, err, tt.wantErr)
			}
		})
	}
}

func TestDedupeRows(t *testing.T) {
	rows := dedupeRows("a,b\r\n\nc,d\na,b\n  \nc,d\n")
	if len(rows) != 2 || rows[0] != "a,b" || rows[1] != "c,d" {
		t.Errorf("unexpected rows %q", rows)
	}
}

func TestVoucherRoundTrip(t *testing.T) {
	offer, err := parseRow("9,Name,100,4299,4999,24,DSL,true,,,,absolute,1250")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cents := int(math.Round(offer.MonthlyPrice * 100)); cents != 4299 {
		t.Errorf("expected 4299 cents, got %d", cents)
	}
}
