// Package binance implements the ExchangeConnector interface for Binance
// USDT-margined futures. It covers signed REST trading endpoints, market
// data with paginated kline retrieval, and kline streaming over websocket.
package binance

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/common"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/ratelimit"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/websocket"
)

const (
	mainnetRestURL = "https://fapi.binance.com"
	testnetRestURL = "https://testnet.binancefuture.com"

	// Combined-stream endpoints. Events arrive wrapped in a
	// {"stream":...,"data":...} envelope, which is what routes them
	// to the right subscription handler.
	mainnetWSURL = "wss://fstream.binance.com/stream"
	testnetWSURL = "wss://stream.binancefuture.com/stream"

	// Hard cap enforced by the exchange on /fapi/v1/klines.
	maxKlinesPerRequest = 1500
)

// Connector talks to Binance USDT-M futures. Safe for concurrent use:
// REST calls share only the rate limiter and the immutable credentials.
type Connector struct {
	options *interfaces.ExchangeOptions
	restURL string
	wsURL   string

	httpClient common.HTTPClient
	limiter    ratelimit.RateLimiter
	ws         websocket.WSConnector
	logger     logging.Logger
	validate   *validator.Validate

	// klinePageLimit is the per-request kline cap used by paginated
	// fetches. Overridable in tests, maxKlinesPerRequest otherwise.
	klinePageLimit int

	mu        sync.RWMutex
	connected bool
	streams   map[string]interfaces.CandleSubscription
}

var _ interfaces.ExchangeConnector = (*Connector)(nil)

// NewConnector creates a Binance futures connector. A nil options value
// gets the defaults from NewExchangeOptions; zero-valued fields on a
// caller-built options struct are filled with the same defaults.
func NewConnector(options *interfaces.ExchangeOptions) *Connector {
	options = normalizeOptions(options)

	logger := logging.NewZapLogger(
		logging.WithLogLevel(logging.ParseLevel(options.LogLevel)),
	).WithFields(logging.String("exchange", "binance"))

	restURL := mainnetRestURL
	wsURL := mainnetWSURL
	if options.Testnet {
		restURL = testnetRestURL
		wsURL = testnetWSURL
	}
	if options.RestURL != "" {
		restURL = options.RestURL
	}
	if options.WSURL != "" {
		wsURL = options.WSURL
	}

	limiter := ratelimit.NewTokenBucketLimiter(ratelimit.Rate{
		Limit:    options.MaxRequestsPerSecond,
		Interval: time.Second,
	})

	clientConfig := &common.ClientConfig{
		Timeout:   options.HTTPTimeout,
		RateLimit: ratelimit.Rate{Limit: options.MaxRequestsPerSecond, Interval: time.Second},
		Limiter:   limiter,
		Logger:    logger,
	}
	var httpClient common.HTTPClient
	if options.Debug {
		httpClient = common.NewDebugHTTPClient(&common.DebugClientConfig{
			ClientConfig:    clientConfig,
			LogRequestBody:  true,
			LogResponseBody: true,
		})
	} else {
		httpClient = common.NewHTTPClient(clientConfig)
	}

	c := &Connector{
		options:        options,
		restURL:        restURL,
		wsURL:          wsURL,
		httpClient:     httpClient,
		limiter:        limiter,
		logger:         logger,
		validate:       validator.New(),
		klinePageLimit: maxKlinesPerRequest,
		streams:        make(map[string]interfaces.CandleSubscription),
	}

	c.ws = websocket.NewConnector(websocket.Config{
		URL:                wsURL,
		HeartbeatInterval:  options.WSHeartbeatInterval,
		ReconnectInterval:  options.WSReconnectInterval,
		MaxRetries:         int(options.MaxRetries),
		Logger:             logger,
		SubscribeMessage:   subscribeFrame,
		UnsubscribeMessage: unsubscribeFrame,
	})

	return c
}

// normalizeOptions copies the caller's options and fills zero values with
// defaults, so the connector never mutates caller-owned state.
func normalizeOptions(options *interfaces.ExchangeOptions) *interfaces.ExchangeOptions {
	defaults := interfaces.NewExchangeOptions()
	if options == nil {
		return defaults
	}
	normalized := *options
	if normalized.RecvWindow <= 0 {
		normalized.RecvWindow = defaults.RecvWindow
	}
	if normalized.HTTPTimeout <= 0 {
		normalized.HTTPTimeout = defaults.HTTPTimeout
	}
	if normalized.MaxRequestsPerSecond <= 0 {
		normalized.MaxRequestsPerSecond = defaults.MaxRequestsPerSecond
	}
	if normalized.MaxRetries == 0 {
		normalized.MaxRetries = defaults.MaxRetries
	}
	if normalized.RetryDelay <= 0 {
		normalized.RetryDelay = defaults.RetryDelay
	}
	if normalized.WSReconnectInterval <= 0 {
		normalized.WSReconnectInterval = defaults.WSReconnectInterval
	}
	if normalized.WSHeartbeatInterval <= 0 {
		normalized.WSHeartbeatInterval = defaults.WSHeartbeatInterval
	}
	if normalized.LogLevel == "" {
		normalized.LogLevel = defaults.LogLevel
	}
	return &normalized
}

// Connect verifies REST connectivity and measures clock drift against the
// exchange. The websocket is dialed lazily by the first subscription, so
// REST-only callers never hold an idle stream connection.
func (c *Connector) Connect(ctx context.Context) error {
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("failed to reach exchange: %w", err)
	}

	serverTime, err := c.ServerTime(ctx)
	if err != nil {
		return fmt.Errorf("failed to read server time: %w", err)
	}
	drift := time.Since(serverTime)
	if drift < 0 {
		drift = -drift
	}
	if drift > c.options.RecvWindow/2 {
		c.logger.Warn("local clock drifts from exchange time, signed requests may be rejected",
			logging.Duration("drift", drift),
			logging.Duration("recv_window", c.options.RecvWindow))
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()

	c.logger.Info("connected to exchange",
		logging.String("rest_url", c.restURL),
		logging.Bool("testnet", c.options.Testnet))
	return nil
}

// Close tears down the websocket connection if one was established and
// marks the connector disconnected. REST calls made after Close fail with
// ErrNotConnected.
func (c *Connector) Close() error {
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.streams = make(map[string]interfaces.CandleSubscription)
	c.mu.Unlock()

	if !wasConnected {
		return nil
	}
	if c.ws != nil && c.ws.IsConnected() {
		if err := c.ws.Close(); err != nil {
			return fmt.Errorf("failed to close websocket: %w", err)
		}
	}
	c.logger.Info("disconnected from exchange")
	return nil
}

// IsConnected reports whether Connect succeeded and Close has not been
// called since.
func (c *Connector) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Connector) requireConnected() error {
	if !c.IsConnected() {
		return interfaces.ErrNotConnected
	}
	return nil
}
