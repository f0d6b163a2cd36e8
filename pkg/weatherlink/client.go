// Package weatherlink is a client for the Davis WeatherLink v1 cloud API
package weatherlink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

const (
	// DefaultEndpoint is the WeatherLink v1 API base URL
	DefaultEndpoint = "https://api.weatherlink.com"

	// Placeholder is the value the host shows for a parameter the user has not set yet
	Placeholder = "set me"

	noaaExtPath    = "/v1/NoaaExt.json"
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

// Credentials authenticate against the WeatherLink v1 API
type Credentials struct {
	User     string
	Password string
	APIToken string
}

// Validate reports the first missing credential
func (c Credentials) Validate() error {
	fields := []struct {
		name, value string
	}{
		{"user", c.User},
		{"password", c.Password},
		{"API token", c.APIToken},
	}
	for _, f := range fields {
		if f.value == "" || f.value == Placeholder {
			return fmt.Errorf("weatherlink %s must be set", f.name)
		}
	}
	return nil
}

// Client fetches observations from the WeatherLink cloud
type Client struct {
	endpoint   string
	creds      Credentials
	httpClient *http.Client
	logger     *zap.SugaredLogger
}

// Option configures a Client
type Option func(*Client)

// WithEndpoint overrides the API base URL
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout of the default HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request diagnostics
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient creates a WeatherLink API client
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   DefaultEndpoint,
		creds:      creds,
		httpClient: newHTTPClient(defaultTimeout),
		logger:     zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if _, err := url.Parse(c.endpoint); err != nil {
		return nil, fmt.Errorf("invalid WeatherLink endpoint %q: %w", c.endpoint, err)
	}

	return c, nil
}

func newHTTPClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	// Falls back to HTTP/1.1 if the transport cannot be upgraded
	_ = http2.ConfigureTransport(transport)
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// Fetch retrieves the current NoaaExt observation
func (c *Client) Fetch(ctx context.Context) (Observation, error) {
	q := url.Values{}
	q.Set("user", c.creds.User)
	q.Set("pass", c.creds.Password)
	q.Set("apiToken", c.creds.APIToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+noaaExtPath+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", redact(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debugf("Query response = %d (%s)", resp.StatusCode, humanize.Bytes(uint64(len(body))))

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(body, maxErrorBody)}
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var obs Observation
	if err := dec.Decode(&obs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if obs == nil {
		return nil, errors.New("empty response")
	}

	return obs, nil
}

// StatusError is returned for non-200 API responses
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.Code)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.Code, e.Body)
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}

// redact strips the query string from url.Error values so credentials do not
// end up in logs
func redact(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		if u, perr := url.Parse(ue.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: ue.Op, URL: u.String(), Err: ue.Err}
		}
	}
	return err
}
