// Package quandigital provides a typed client for the Binance USDT-M
// futures API.
//
// The library wraps the exchange's REST and WebSocket surfaces behind the
// ExchangeConnector interface, handling request signing, rate limiting,
// retry of transient failures, and reconnection so applications can focus
// on market data and order flow.
//
// Core Features:
//
//   - Signed REST access to market data, orders and account state
//   - Candle pagination past the exchange's per-request row cap
//   - Local re-bucketing of fine candles into coarser intervals
//   - Classified exchange errors with retry of transient kinds only
//   - WebSocket subscriptions for closed candles, with automatic
//     reconnection and resubscription
//
// The library is built around the ExchangeConnector interface which defines
// the methods for interacting with the exchange, including REST API for
// historical data and WebSocket connections for real-time streaming.
//
// # Standard Errors
//
// The interfaces package defines sentinel errors for conditions detected
// locally, before anything reaches the exchange:
//
//   - ErrNotConnected: Returned when an operation is attempted on a connector
//     that hasn't been connected yet or has lost connection
//
//   - ErrInvalidSymbol: Returned when an invalid trading pair symbol is provided
//
//   - ErrInvalidInterval: Returned when an unsupported time interval is provided
//
//   - ErrInvalidTimeRange: Returned when an invalid time range is provided (e.g., end time before start time)
//
//   - ErrInvalidOrder: Returned when an order request fails local validation
//
//   - ErrAuthenticationRequired: Returned when attempting an operation that requires authentication
//     without providing credentials
//
//   - ErrSubscriptionFailed: Returned when a WebSocket subscription cannot be established
//
//   - ErrSubscriptionNotFound: Returned when trying to unsubscribe from a non-existent subscription
//
// Failures reported by the exchange itself are wrapped in ExchangeError and
// classified into an ErrorKind (bad gateway, rate limited, order would
// trigger immediately, and so on). Every response maps to exactly one kind,
// with KindUnmapped as the fallback, and ErrorKind.Transient reports whether
// resending the same request can succeed. Use AsExchangeError to recover the
// classification from any error chain:
//
//	ack, err := connector.PlaceOrder(ctx, req)
//	if ee, ok := interfaces.AsExchangeError(err); ok {
//	    switch ee.Kind {
//	    case interfaces.KindOrderWouldTrigger:
//	        // adjust the stop price, resubmitting unchanged fails identically
//	    case interfaces.KindReduceOnlyRejected:
//	        // nothing left to reduce, treat the position as flat
//	    }
//	}
//
// Additionally, the library provides a MarketError type for market-specific
// error conditions, which can be created using NewMarketError(symbol, message, err).
//
// # Examples
//
// Basic usage:
//
//	// Create the connector; credentials are only needed for signed endpoints
//	options := interfaces.NewExchangeOptions()
//	options.APIKey = os.Getenv("BINANCE_API_KEY")
//	options.APISecret = os.Getenv("BINANCE_API_SECRET")
//	connector := binance.NewConnector(options)
//
//	// Connect to the exchange
//	ctx := context.Background()
//	if err := connector.Connect(ctx); err != nil {
//	    log.Fatalf("Failed to connect: %v", err)
//	}
//	defer connector.Close()
//
// # Candle Examples
//
// Getting historical candle data:
//
//	// Get historical candle data for the last hour with 1-minute intervals
//	candles, err := connector.GetCandles(ctx, interfaces.CandleRequest{
//	    Symbol:    "BTCUSDT",
//	    Interval:  "1m",
//	    StartTime: time.Now().Add(-1 * time.Hour),
//	    EndTime:   time.Now(),
//	    Limit:     60,
//	})
//
//	if err != nil {
//	    switch {
//	    case errors.Is(err, interfaces.ErrInvalidSymbol):
//	        log.Fatalf("Invalid trading pair symbol: %s", "BTCUSDT")
//	    case errors.Is(err, interfaces.ErrInvalidInterval):
//	        log.Fatalf("Invalid time interval: %s", "1m")
//	    case errors.Is(err, interfaces.ErrInvalidTimeRange):
//	        log.Fatalf("Invalid time range specified")
//	    default:
//	        log.Fatalf("Failed to get candles: %v", err)
//	    }
//	}
//
//	fmt.Printf("Retrieved %d candles for BTCUSDT\n", len(candles))
//	for i, candle := range candles[:3] {
//	    fmt.Printf("%d. %s | Open: %.2f, Close: %.2f\n",
//	        i+1,
//	        candle.OpenTime.Format("15:04:05"),
//	        candle.Open,
//	        candle.Close)
//	}
//
// Fetching more rows than the exchange returns per request is transparent;
// RecentCandles pages backward through history and returns what exists,
// oldest first:
//
//	// 2500 one-minute candles, fetched in three requests under the hood
//	series, err := connector.RecentCandles(ctx, "BTCUSDT", "1m", 2500)
//
// Re-bucketing fine candles into coarser windows, including widths the
// exchange does not serve natively:
//
//	// Closes of the eight most recent 15-minute windows, oldest first.
//	// The last element tracks the still-forming window.
//	closes, err := connector.CandleCloses(ctx, "BTCUSDT", "15m", 8)
//
//	// Per-window extremes cover only fully closed windows
//	highs, err := connector.CandleHighs(ctx, "BTCUSDT", "4h", 6)
//
// Subscribing to real-time candle updates:
//
//	// Subscribe to closed 1-minute candles for BTCUSDT. Forming updates
//	// are dropped, the handler sees each candle exactly once.
//	subscription := interfaces.CandleSubscription{
//	    Symbols:  []string{"BTCUSDT"},
//	    Interval: "1m",
//	}
//
//	err := connector.SubscribeCandles(ctx, subscription, func(candle interfaces.Candle) {
//	    fmt.Printf("[%s] BTCUSDT | Open: $%.2f | High: $%.2f | Low: $%.2f | Close: $%.2f | Volume: %.2f\n",
//	        candle.OpenTime.Format("15:04:05"),
//	        candle.Open,
//	        candle.High,
//	        candle.Low,
//	        candle.Close,
//	        candle.Volume)
//	})
//
//	if err != nil {
//	    switch {
//	    case errors.Is(err, interfaces.ErrInvalidSymbol):
//	        log.Fatalf("Invalid trading pair symbol provided")
//	    case errors.Is(err, interfaces.ErrInvalidInterval):
//	        log.Fatalf("Invalid candle interval specified")
//	    case errors.Is(err, interfaces.ErrSubscriptionFailed):
//	        log.Fatalf("Failed to establish subscription")
//	    default:
//	        log.Fatalf("Subscription failed: %v", err)
//	    }
//	}
//
// # Order Examples
//
// Placing an order. The connector signs the request, stamps an idempotent
// client order ID, and retries transient failures with the same ID so a
// resent submission cannot fill twice:
//
//	quantity, err := connector.QuantityFromUSD(ctx, "BTCUSDT", decimal.NewFromInt(200))
//	if err != nil {
//	    log.Fatalf("Failed to size order: %v", err)
//	}
//
//	ack, err := connector.PlaceOrder(ctx, interfaces.OrderRequest{
//	    Symbol:   "BTCUSDT",
//	    Side:     interfaces.SideBuy,
//	    Type:     interfaces.OrderMarket,
//	    Quantity: quantity,
//	})
//
// Flattening whatever position is open, long or short:
//
//	ack, err := connector.ClosePosition(ctx, "BTCUSDT", "", true)
//	if ack.Status == interfaces.OrderStatusNoop {
//	    // there was nothing to close, no order reached the exchange
//	}
//
// Credentials are read from the options at process start and used only to
// sign requests; the library never persists or logs them.
package quandigital
