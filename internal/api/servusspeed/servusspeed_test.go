package servusspeed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/karolinespohn/GenDevServer/internal/api"
	"github.com/karolinespohn/GenDevServer/internal/models"
)

var testAddress = models.Address{
	Street:  "Stephansplatz",
	Number:  "1",
	City:    "Wien",
	Zip:     "1010",
	Country: models.CountryAustria,
}

func detailJSON(name string, cost, discount int) string {
	return `{"servusSpeedProduct":{"providerName":"` + name + `",` +
		`"productInfo":{"speed":250,"contractDurationInMonths":24,"connectionType":"Cable","limitFrom":500},` +
		`"pricingDetails":{"monthlyCostInCent":` + strconv.Itoa(cost) + `,"installationService":true},` +
		`"discount":` + strconv.Itoa(discount) + `}}`
}

type fakeServer struct {
	products      []string
	details       map[string]func(w http.ResponseWriter)
	detailsCalled atomic.Int32
}

func (f *fakeServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "user" || pass != "pass" {
			t.Errorf("unexpected basic auth %q/%q", user, pass)
		}
		var body productRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if body.Address.Land != "AT" || body.Address.Postleitzahl != "1010" || body.Address.Hausnummer != "1" {
			t.Errorf("unexpected address %+v", body.Address)
		}

		switch {
		case r.URL.Path == availableProductsPath:
			_ = json.NewEncoder(w).Encode(availableProductsResponse{AvailableProducts: f.products})
		case strings.HasPrefix(r.URL.Path, productDetailsPath):
			f.detailsCalled.Add(1)
			id := strings.TrimPrefix(r.URL.Path, productDetailsPath)
			write, ok := f.details[id]
			if !ok {
				http.NotFound(w, r)
				return
			}
			write(w)
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}
}

func newTestProvider(t *testing.T, f *fakeServer) *Provider {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	return New(srv.Client(), zerolog.Nop(), Config{BaseURL: srv.URL, Username: "user", Password: "pass"})
}

func TestFetchOffers_PartialDetails(t *testing.T) {
	f := &fakeServer{
		products: []string{"A", "B", "C"},
		details: map[string]func(w http.ResponseWriter){
			"A": func(w http.ResponseWriter) { _, _ = w.Write([]byte(detailJSON("Servus A", 3999, 1500))) },
			"B": func(w http.ResponseWriter) { w.WriteHeader(http.StatusInternalServerError) },
			"C": func(w http.ResponseWriter) { _, _ = w.Write([]byte(detailJSON("Servus C", 4999, 0))) },
		},
	}
	p := newTestProvider(t, f)

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 2 {
		t.Fatalf("expected 2 offers, got %d", len(offers))
	}
	if got := f.detailsCalled.Load(); got != 3 {
		t.Errorf("expected 3 detail requests, got %d", got)
	}

	first := offers[0].(models.ServusSpeedOffer)
	if first.ProviderName != "Servus A" || first.Discount != 15 {
		t.Errorf("unexpected first offer %+v", first)
	}
	if first.ConnectionType != models.ConnectionCable {
		t.Errorf("expected CABLE, got %s", first.ConnectionType)
	}
	if first.LimitFrom == nil || *first.LimitFrom != 500 {
		t.Errorf("unexpected limit %v", first.LimitFrom)
	}
	if first.TV != nil {
		t.Errorf("expected no tv, got %q", *first.TV)
	}
	if offers[1].(models.ServusSpeedOffer).ProviderName != "Servus C" {
		t.Errorf("expected offers in product order, got %+v", offers[1])
	}
}

func TestFetchOffers_DropsInvalidDetails(t *testing.T) {
	f := &fakeServer{
		products: []string{"empty", "garbage", "negative", "ok"},
		details: map[string]func(w http.ResponseWriter){
			"empty":    func(w http.ResponseWriter) {},
			"garbage":  func(w http.ResponseWriter) { _, _ = w.Write([]byte("<html>")) },
			"negative": func(w http.ResponseWriter) { _, _ = w.Write([]byte(detailJSON("Neg", -1, 0))) },
			"ok":       func(w http.ResponseWriter) { _, _ = w.Write([]byte(detailJSON("Ok", 1999, 0))) },
		},
	}
	p := newTestProvider(t, f)

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 1 || offers[0].(models.ServusSpeedOffer).ProviderName != "Ok" {
		t.Fatalf("expected only the valid product, got %+v", offers)
	}
}

func TestFetchOffers_MissingConnectionType(t *testing.T) {
	const detail = `{"servusSpeedProduct":{"providerName":"Servus Basic",` +
		`"productInfo":{"speed":50,"contractDurationInMonths":12},` +
		`"pricingDetails":{"monthlyCostInCent":1999,"installationService":false},"discount":0}}`
	f := &fakeServer{
		products: []string{"basic"},
		details: map[string]func(w http.ResponseWriter){
			"basic": func(w http.ResponseWriter) { _, _ = w.Write([]byte(detail)) },
		},
	}
	p := newTestProvider(t, f)

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 1 {
		t.Fatalf("expected 1 offer, got %d", len(offers))
	}
	if got := offers[0].(models.ServusSpeedOffer).ConnectionType; got != models.ConnectionUnknown {
		t.Errorf("expected UNKNOWN, got %q", got)
	}
}

func TestFetchOffers_NoProductsSkipsDetails(t *testing.T) {
	f := &fakeServer{products: []string{}}
	p := newTestProvider(t, f)

	offers, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 0 {
		t.Errorf("expected no offers, got %d", len(offers))
	}
	if got := f.detailsCalled.Load(); got != 0 {
		t.Errorf("expected no detail requests, got %d", got)
	}
}

func TestFetchOffers_AvailableProductsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()
	p := New(srv.Client(), zerolog.Nop(), Config{BaseURL: srv.URL, Username: "user", Password: "pass"})

	_, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	var statusErr *api.HTTPStatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected HTTPStatusError 401, got %v", err)
	}
}

func TestFetchOffers_MissingCredentials(t *testing.T) {
	p := New(http.DefaultClient, zerolog.Nop(), Config{BaseURL: "http://127.0.0.1:0", Username: "user"})

	_, err := p.FetchOffers(context.Background(), models.OfferRequest{Address: testAddress})
	if !errors.Is(err, api.ErrMissingCredentials) {
		t.Fatalf("expected ErrMissingCredentials, got %v", err)
	}
}
