package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

var (
	// ErrMissingCredentials is returned when a provider is called without its API key or secret.
	ErrMissingCredentials = errors.New("missing credentials")
	// ErrEmptyBody is returned when a provider answers 2xx without a body.
	ErrEmptyBody = errors.New("empty response body")
	// ErrDecode wraps failures to decode a provider response.
	ErrDecode = errors.New("decoding response")
)

// maxErrorBody limits how much of an error response is kept in the message.
const maxErrorBody = 512

// HTTPStatusError is returned when a provider answers with a non-2xx status code.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "unexpected HTTP status"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("unexpected status code %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, body)
}

// ReadBody drains and closes resp.Body, returning the payload of a 2xx response.
// Non-2xx responses yield *HTTPStatusError, empty payloads ErrEmptyBody.
func ReadBody(resp *http.Response) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil, ErrEmptyBody
	}
	return body, nil
}
