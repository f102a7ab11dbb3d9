package common

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/ratelimit"
)

// HTTPClient defines the interface for making rate-limited HTTP requests.
//
// The client deliberately performs a single attempt per call: signed exchange
// requests are time-bound (the signature covers a fresh timestamp), so a
// stale request must never be replayed as-is. Retry policy lives with the
// caller, which rebuilds and re-signs the request for every attempt.
type HTTPClient interface {
	// Do executes an HTTP request after acquiring a rate limit slot
	Do(ctx context.Context, req *http.Request) (*http.Response, error)

	// Get is a convenience method for making GET requests
	Get(ctx context.Context, url string) (*http.Response, error)

	// SetRateLimit updates the rate limiter configuration
	SetRateLimit(limit ratelimit.Rate) error
}

// ClientConfig holds configuration for the HTTP client
type ClientConfig struct {
	Timeout   time.Duration
	RateLimit ratelimit.Rate

	// Limiter, when set, is used instead of building a limiter from
	// RateLimit. Passing a shared limiter lets the owner keep feeding
	// exchange-reported usage into it.
	Limiter ratelimit.RateLimiter

	// Optional logger
	Logger logging.Logger
}

// DefaultConfig returns a default client configuration
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		Timeout: 30 * time.Second,
		RateLimit: ratelimit.Rate{
			Limit:    10,
			Interval: time.Second,
		},
		Logger: logging.NewNopLogger(),
	}
}

// client implements the HTTPClient interface
type client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    ratelimit.RateLimiter
	logger     logging.Logger
}

// NewHTTPClient creates a new HTTP client with the given configuration
func NewHTTPClient(config *ClientConfig) HTTPClient {
	if config == nil {
		config = DefaultConfig()
	}
	limiter := config.Limiter
	if limiter == nil {
		limiter = ratelimit.NewTokenBucketLimiter(config.RateLimit)
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}

	return &client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		limiter: limiter,
		logger:  logger,
	}
}

// Do implements HTTPClient interface
func (c *client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait error: %w", err)
	}

	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("http request error: %w", err)
	}
	return resp, nil
}

// Get implements HTTPClient interface
func (c *client) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// SetRateLimit implements HTTPClient interface
func (c *client) SetRateLimit(limit ratelimit.Rate) error {
	return c.limiter.SetLimit(limit)
}
