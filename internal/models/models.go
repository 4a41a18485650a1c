// Package models provides shared data types for the internet offer aggregator.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Company identifies one of the upstream offer providers.
type Company string

const (
	// CompanyByteMe is the ByteMe CSV feed.
	CompanyByteMe Company = "BYTEME"
	// CompanyPingPerfect is the PingPerfect signed JSON API.
	CompanyPingPerfect Company = "PINGPERFECT"
	// CompanyServusSpeed is the ServusSpeed two-phase JSON API.
	CompanyServusSpeed Company = "SERVUSSPEED"
	// CompanyVerbynDich is the VerbynDich paginated text API.
	CompanyVerbynDich Company = "VERBYNDICH"
	// CompanyWebWunder is the WebWunder SOAP service.
	CompanyWebWunder Company = "WEBWUNDER"
)

// AllCompanies returns every supported provider in a stable order.
func AllCompanies() []Company {
	return []Company{
		CompanyByteMe,
		CompanyPingPerfect,
		CompanyServusSpeed,
		CompanyVerbynDich,
		CompanyWebWunder,
	}
}

// ParseCompany matches a provider name case-insensitively.
func ParseCompany(s string) (Company, error) {
	s = strings.TrimSpace(s)
	for _, c := range AllCompanies() {
		if strings.EqualFold(s, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", s)
}

// ConnectionType is the physical access technology of an offer.
type ConnectionType string

const (
	ConnectionDSL     ConnectionType = "DSL"
	ConnectionCable   ConnectionType = "CABLE"
	ConnectionFiber   ConnectionType = "FIBER"
	ConnectionMobile  ConnectionType = "MOBILE"
	ConnectionUnknown ConnectionType = "UNKNOWN"
)

// ParseConnectionType maps free-text provider values onto ConnectionType.
// Matching is case-insensitive; anything unrecognized becomes ConnectionUnknown.
func ParseConnectionType(s string) ConnectionType {
	s = strings.TrimSpace(s)
	for _, ct := range []ConnectionType{ConnectionDSL, ConnectionCable, ConnectionFiber, ConnectionMobile} {
		if strings.EqualFold(s, string(ct)) {
			return ct
		}
	}
	return ConnectionUnknown
}

// OrUnknown returns ConnectionUnknown for the zero value, which a payload
// without a connectionType key leaves behind.
func (c ConnectionType) OrUnknown() ConnectionType {
	if c == "" {
		return ConnectionUnknown
	}
	return c
}

// UnmarshalJSON decodes a connection type leniently, see ParseConnectionType.
func (c *ConnectionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*c = ParseConnectionType(s)
	return nil
}
