package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/r6lens/r6lens/internal/core"
)

const (
	defaultTimeout   = 10 * time.Second
	maxResponseBytes = 16 << 20
)

// ErrMissingToken is returned when the credential is empty after normalization.
var ErrMissingToken = errors.New("api token is required")

// Dispatcher performs authenticated GET requests. It knows nothing about
// rate limiting.
type Dispatcher struct {
	Client    *http.Client
	Token     string
	UserAgent string
}

// NewDispatcher normalizes token and returns a dispatcher using client, or a
// client with a default timeout when client is nil.
func NewDispatcher(token string, client *http.Client, userAgent string) (*Dispatcher, error) {
	token = NormalizeToken(token)
	if token == "" {
		return nil, ErrMissingToken
	}
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Dispatcher{Client: client, Token: token, UserAgent: strings.TrimSpace(userAgent)}, nil
}

// NormalizeToken strips surrounding whitespace and an optional "Bearer " prefix.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if len(token) >= len("Bearer ") && strings.EqualFold(token[:len("Bearer ")], "Bearer ") {
		token = strings.TrimSpace(token[len("Bearer "):])
	}
	return token
}

// ParseAddress validates that rawURL is an absolute http(s) address.
func ParseAddress(rawURL string) (*url.URL, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, core.NewAddressError(rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, core.NewAddressError(rawURL, fmt.Errorf("unsupported scheme %q", parsed.Scheme))
	}
	if parsed.Host == "" {
		return nil, core.NewAddressError(rawURL, errors.New("missing host"))
	}
	return parsed, nil
}

// Get sends one GET request and returns the response body. Failures are
// *core.RequestError values of kind KindAddress, KindTransport or
// KindUnsuccessfulResponse.
func (d *Dispatcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if d == nil {
		return nil, errors.New("dispatcher is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	target, err := ParseAddress(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, core.NewAddressError(rawURL, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.Token)
	if d.UserAgent != "" {
		req.Header.Set("User-Agent", d.UserAgent)
	}

	client := d.Client
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, core.NewTransportError(rawURL, err)
	}
	defer resp.Body.Close() // nolint:errcheck // best-effort cleanup on HTTP response body

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, core.NewUnsuccessfulResponse(rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, core.NewTransportError(rawURL, err)
	}
	return body, nil
}
