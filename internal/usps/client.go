package usps

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/usps/internal/address"
	"github.com/dukerupert/usps/internal/telemetry"
)

const (
	// DefaultBaseURL is the production Web Tools endpoint.
	DefaultBaseURL = "https://secure.shippingapis.com/ShippingAPI.dll"

	defaultTimeout  = 10 * time.Second
	maxResponseSize = 1 << 20
)

// Client implements address.Resolver using the USPS Web Tools Verify API.
type Client struct {
	userID  string
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// Compile-time check to ensure Client implements address.Resolver.
var _ address.Resolver = (*Client)(nil)

// Config contains configuration for the USPS client.
type Config struct {
	UserID     string
	BaseURL    string        // Optional: defaults to DefaultBaseURL
	Timeout    time.Duration // Optional: defaults to 10s, ignored when HTTPClient is set
	HTTPClient *http.Client  // Optional
	Logger     *slog.Logger  // Optional: defaults to slog.Default()
}

// NewClient creates a new USPS client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.UserID == "" {
		return nil, ErrMissingUserID
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid USPS base URL: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: &telemetry.HTTPTransport{Transport: http.DefaultTransport},
		}
	}

	return &Client{
		userID:  cfg.UserID,
		baseURL: baseURL,
		http:    httpClient,
		logger:  logger,
	}, nil
}

// Resolve sends up to MaxAddresses addresses to the Verify API and returns
// the standardized version of each.
func (c *Client) Resolve(ctx context.Context, addrs []*address.Address) (*address.Result, error) {
	if len(addrs) == 0 {
		return nil, ErrNoAddresses
	}
	if len(addrs) > MaxAddresses {
		return nil, ErrTooManyAddresses
	}

	logger := c.logger.With("address_count", len(addrs))
	logger.Debug("standardizing addresses")

	start := time.Now()
	result, err := c.resolve(ctx, addrs)
	elapsed := time.Since(start)

	if err != nil {
		telemetry.ObserveUSPSRequest("error", elapsed)
		logger.Error("address standardization failed", "error", err, "duration", elapsed)
		return nil, err
	}
	telemetry.ObserveUSPSRequest("ok", elapsed)

	failed := 0
	for _, s := range result.Slots() {
		if s.Err != nil {
			failed++
		}
	}
	logger.Info("addresses standardized", "failed", failed, "duration", elapsed)

	return result, nil
}

func (c *Client) resolve(ctx context.Context, addrs []*address.Address) (*address.Result, error) {
	body, err := buildRequest(c.userID, addrs)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	q := url.Values{}
	q.Set("API", "Verify")
	q.Set("XML", string(body))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &ServiceError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &ServiceError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ServiceError{StatusCode: resp.StatusCode}
	}

	return parseResponse(data, addrs)
}
