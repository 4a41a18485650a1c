package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownCountry is returned when a country name or ISO code is not supported.
var ErrUnknownCountry = errors.New("unknown country")

// Country is one of the countries the providers serve.
type Country string

const (
	// CountryGermany is Germany (DE).
	CountryGermany Country = "GERMANY"
	// CountryAustria is Austria (AT).
	CountryAustria Country = "AUSTRIA"
	// CountrySwitzerland is Switzerland (CH).
	CountrySwitzerland Country = "SWITZERLAND"
)

var countries = []struct {
	country Country
	iso     string
	name    string
}{
	{CountryGermany, "DE", "Germany"},
	{CountryAustria, "AT", "Austria"},
	{CountrySwitzerland, "CH", "Switzerland"},
}

// ISO returns the two-letter ISO 3166 code of the country.
func (c Country) ISO() string {
	for _, e := range countries {
		if e.country == c {
			return e.iso
		}
	}
	return ""
}

// PresentableName returns the English display name of the country.
func (c Country) PresentableName() string {
	for _, e := range countries {
		if e.country == c {
			return e.name
		}
	}
	return string(c)
}

// ParseCountry accepts the enum name ("germany") or the ISO code ("DE").
func ParseCountry(s string) (Country, error) {
	s = strings.TrimSpace(s)
	for _, e := range countries {
		if strings.EqualFold(s, string(e.country)) || strings.EqualFold(s, e.iso) {
			return e.country, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCountry, s)
}

// Address is the location an offer search is run for.
// It is created once per request and passed by value to every provider.
type Address struct {
	Street string `json:"street" yaml:"street"`
	// Number is a string because house numbers like "2a" are common.
	Number  string  `json:"number" yaml:"number"`
	City    string  `json:"city" yaml:"city"`
	Zip     string  `json:"zip" yaml:"zip"`
	Country Country `json:"country" yaml:"country"`
}

// OfferRequest bundles the address with the per-provider search flags.
type OfferRequest struct {
	Address Address
	// WantsFiber is forwarded to PingPerfect.
	WantsFiber bool
	// Installation and ConnectionType are forwarded to WebWunder.
	Installation   bool
	ConnectionType ConnectionType
}
