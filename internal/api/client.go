package api

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultConnectTimeout bounds dialing and the TLS handshake.
	DefaultConnectTimeout = 15 * time.Second
	// DefaultReadTimeout bounds the wait for a response once the request is sent.
	DefaultReadTimeout = 30 * time.Second
)

// ClientOptions configures the shared provider HTTP client.
type ClientOptions struct {
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
}

// NewHTTPClient builds the pooled client shared by all providers.
//
// The client is safe for concurrent use and must not be modified after
// construction. Every call is bounded by ConnectTimeout + ReadTimeout.
func NewHTTPClient(opts ClientOptions) *http.Client {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = DefaultConnectTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultReadTimeout
	}

	dialer := &net.Dialer{
		Timeout:   opts.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   opts.ConnectTimeout,
		ResponseHeaderTimeout: opts.ReadTimeout,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.ConnectTimeout + opts.ReadTimeout,
	}
}
