package interfaces

import (
	"context"
	"time"
)

// ExchangeConnector defines the main interface for interacting with a
// derivatives exchange. All exchange-specific implementations must satisfy
// this interface.
//
// The interface covers the three concerns downstream trading logic needs:
// signed order placement, market data retrieval (historical candles and
// tickers), and real-time candle streaming. Implementations are expected to
// handle authentication, request signing, rate limiting according to exchange
// requirements, reconnection logic for WebSocket streams, and classification
// of exchange error responses into ExchangeError values.
//
// All methods are safe for concurrent use: calls share only the immutable
// credentials and the rate limiter, never mutable request state.
type ExchangeConnector interface {
	// Connect verifies connectivity and prepares the connector for data
	// operations. The context controls the connection timeout.
	Connect(ctx context.Context) error

	// Close terminates all connections to the exchange and releases any
	// resources, including active WebSocket subscriptions.
	Close() error

	// GetCandles retrieves one page of historical OHLCV candle data.
	//
	// The number of candles returned is capped by the exchange page limit
	// even if the request asks for more. RecentCandles on the concrete
	// connector stitches multiple pages together for larger quantities.
	GetCandles(ctx context.Context, req CandleRequest) ([]Candle, error)

	// GetTicker retrieves the current price for a symbol.
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)

	// PlaceOrder builds, signs and submits a single order. Transient
	// failures (gateway errors, rate limits) are retried with bounded
	// exponential backoff; request-semantic rejections are returned
	// immediately as *ExchangeError without retry.
	PlaceOrder(ctx context.Context, req OrderRequest) (*OrderAck, error)

	// ClosePosition submits a reduce-only order on the opposite side sized
	// to the full open position for the symbol. Closing a flat position is
	// a no-op: the returned ack carries OrderStatusNoop.
	ClosePosition(ctx context.Context, symbol string, side PositionSide, market bool) (*OrderAck, error)

	// GetOrder retrieves the current state of a previously placed order.
	GetOrder(ctx context.Context, symbol string, orderID int64) (*Order, error)

	// CancelOrder cancels a single resting order.
	CancelOrder(ctx context.Context, symbol string, orderID int64) error

	// SubscribeCandles establishes a real-time subscription to candle
	// updates. The handler is invoked from a goroutine managed by the
	// implementation; the subscription survives reconnects until
	// Unsubscribe is called or the connector is closed.
	SubscribeCandles(ctx context.Context, req CandleSubscription, handler CandleHandler) error

	// Unsubscribe terminates an active WebSocket subscription.
	Unsubscribe(ctx context.Context, subscriptionID string) error
}

// ExchangeOptions defines configuration options for exchange connectors.
// Credentials are read once at construction and held immutably for the
// connector's lifetime; they are never logged or persisted.
type ExchangeOptions struct {
	// APIKey is the authentication key for the exchange API.
	// Required for authenticated endpoints (trading, account info).
	APIKey string

	// APISecret is the secret key paired with the API key.
	// Required for generating signatures for authenticated requests.
	APISecret string

	// RestURL overrides the exchange REST base URL. Leave empty for the
	// connector default (or the testnet default when Testnet is set).
	RestURL string

	// WSURL overrides the exchange WebSocket base URL.
	WSURL string

	// Testnet routes all traffic to the exchange's testnet environment.
	Testnet bool

	// RecvWindow is how long a signed request stays valid on the exchange
	// side. Requests processed more than RecvWindow after their signed
	// timestamp are rejected, so large values mask clock drift while small
	// values bound replay exposure.
	RecvWindow time.Duration

	// HTTPTimeout specifies the maximum duration to wait for HTTP requests.
	HTTPTimeout time.Duration

	// MaxRequestsPerSecond controls client-side request pacing. The
	// exchange enforces weight-based limits per IP; staying under this
	// rate prevents throttling and bans.
	MaxRequestsPerSecond int

	// MaxRetries bounds how many attempts a transiently failing request
	// gets before the last classified error is returned.
	MaxRetries uint

	// RetryDelay is the base delay between retry attempts; the actual
	// delay grows exponentially with the attempt number.
	RetryDelay time.Duration

	// WSReconnectInterval is the duration to wait before attempting
	// to reconnect a dropped WebSocket connection.
	WSReconnectInterval time.Duration

	// WSHeartbeatInterval is the frequency at which heartbeat messages
	// should be sent to keep WebSocket connections alive.
	WSHeartbeatInterval time.Duration

	// LogLevel controls the verbosity of connector logging.
	// Common values include: "debug", "info", "warn", "error"
	LogLevel string

	// Debug switches the connector to an HTTP client that dumps every
	// request and response (with credentials redacted) at debug level.
	Debug bool
}

// NewExchangeOptions returns default exchange options with reasonable values.
// These defaults can be used as a starting point and modified as needed.
//
// Example usage:
//
//	options := interfaces.NewExchangeOptions()
//	options.APIKey = os.Getenv("BINANCE_API_KEY")
//	options.APISecret = os.Getenv("BINANCE_API_SECRET")
//	connector := binance.NewConnector(options)
func NewExchangeOptions() *ExchangeOptions {
	return &ExchangeOptions{
		RecvWindow:           5 * time.Second,
		HTTPTimeout:          15 * time.Second,
		MaxRequestsPerSecond: 10,
		MaxRetries:           3,
		RetryDelay:           time.Second,
		WSReconnectInterval:  5 * time.Second,
		WSHeartbeatInterval:  20 * time.Second,
		LogLevel:             "info",
	}
}
