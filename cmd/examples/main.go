package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/binance"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
)

func main() {
	// Load credentials from .env when present; environment wins otherwise.
	_ = godotenv.Load()

	// Create logger
	logger := logging.NewZapLogger(logging.WithLogLevel(logging.DEBUG))

	// Create exchange options
	options := interfaces.NewExchangeOptions()

	// API credentials (optional for public endpoints)
	options.APIKey = os.Getenv("BINANCE_API_KEY")
	options.APISecret = os.Getenv("BINANCE_API_SECRET")

	// The trading section below places real orders, so it only runs
	// against the testnet.
	options.Testnet = os.Getenv("BINANCE_TESTNET") == "true"

	// Logging
	options.LogLevel = "debug"

	// Create Binance connector
	connector := binance.NewConnector(options)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to exchange
	logger.Info("connecting to exchange")
	if err := connector.Connect(ctx); err != nil {
		logger.Error("failed to connect", logging.Error(err))
		os.Exit(1)
	}
	defer connector.Close()

	// Get historical candles
	logger.Info("fetching historical candles")
	candles, err := connector.GetCandles(ctx, interfaces.CandleRequest{
		Symbol:    "BTCUSDT",
		Interval:  "1m",
		StartTime: time.Now().Add(-1 * time.Hour),
		EndTime:   time.Now(),
		Limit:     60,
	})
	if err != nil {
		logger.Error("failed to get candles", logging.Error(err))
		os.Exit(1)
	}

	// Print historical candles
	for _, candle := range candles {
		logger.Info("historical candle",
			logging.String("symbol", candle.Symbol),
			logging.String("time", candle.OpenTime.Format(time.RFC3339)),
			logging.Float64("open", candle.Open),
			logging.Float64("close", candle.Close),
		)
	}

	// Aggregate closes into 15-minute buckets, the last one still forming
	logger.Info("aggregating candle closes")
	closes, err := connector.CandleCloses(ctx, "BTCUSDT", "15m", 8)
	if err != nil {
		logger.Error("failed to aggregate closes", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("15m closes", logging.Any("closes", closes))

	// Range of the last day, hour by hour
	high, err := connector.HighestPrice(ctx, "BTCUSDT", "1h", 24)
	if err != nil {
		logger.Error("failed to get highest price", logging.Error(err))
		os.Exit(1)
	}
	low, err := connector.LowestPrice(ctx, "BTCUSDT", "1h", 24)
	if err != nil {
		logger.Error("failed to get lowest price", logging.Error(err))
		os.Exit(1)
	}
	logger.Info("24h range",
		logging.Float64("high", high),
		logging.Float64("low", low),
	)

	// Get current ticker
	logger.Info("fetching current ticker")
	ticker, err := connector.GetTicker(ctx, "BTCUSDT")
	if err != nil {
		logger.Error("failed to get ticker", logging.Error(err))
		os.Exit(1)
	}

	logger.Info("current ticker",
		logging.String("symbol", ticker.Symbol),
		logging.Float64("last_price", ticker.LastPrice),
		logging.String("time", ticker.Time.Format(time.RFC3339)),
	)

	// Run the order lifecycle only with credentials and only on testnet.
	if options.APIKey != "" && options.Testnet {
		if err := tradingDemo(ctx, connector, logger); err != nil {
			logger.Error("trading demo failed", logging.Error(err))
			os.Exit(1)
		}
	} else {
		logger.Info("skipping trading demo, set BINANCE_API_KEY, BINANCE_API_SECRET and BINANCE_TESTNET=true to run it")
	}

	// Subscribe to real-time candle updates
	logger.Info("subscribing to real-time candles")
	err = connector.SubscribeCandles(ctx, interfaces.CandleSubscription{
		Symbols:  []string{"BTCUSDT", "ETHUSDT"},
		Interval: "1m",
	}, func(candle interfaces.Candle) {
		logger.Info("closed candle",
			logging.String("symbol", candle.Symbol),
			logging.String("time", candle.OpenTime.Format(time.RFC3339)),
			logging.Float64("open", candle.Open),
			logging.Float64("close", candle.Close),
		)
	})
	if err != nil {
		logger.Error("failed to subscribe to candles", logging.Error(err))
		os.Exit(1)
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("running... press Ctrl+C to exit")
	<-sigChan

	// Cleanup
	logger.Info("shutting down")
	cancel()
}

// tradingDemo walks one order lifecycle on the testnet: size a position
// from a USD notional, open it at market, protect it with a stop, then
// cancel the stop and flatten.
func tradingDemo(ctx context.Context, connector *binance.Connector, logger logging.Logger) error {
	const symbol = "BTCUSDT"

	quantity, err := connector.QuantityFromUSD(ctx, symbol, decimal.NewFromInt(200))
	if err != nil {
		return err
	}
	logger.Info("position size", logging.String("quantity", quantity.String()))

	entry, err := connector.PlaceOrder(ctx, interfaces.OrderRequest{
		Symbol:   symbol,
		Side:     interfaces.SideBuy,
		Type:     interfaces.OrderMarket,
		Quantity: quantity,
	})
	if err != nil {
		return err
	}
	logger.Info("entry order accepted",
		logging.Any("order_id", entry.OrderID),
		logging.String("client_order_id", entry.ClientOrderID),
	)

	// Protective stop 1% below the current price.
	ticker, err := connector.GetTicker(ctx, symbol)
	if err != nil {
		return err
	}
	stopPrice := decimal.NewFromFloat(ticker.LastPrice).
		Mul(decimal.NewFromFloat(0.99)).Round(1)

	ok, err := connector.CanPlaceStop(ctx, symbol, interfaces.SideSell, stopPrice)
	if err != nil {
		return err
	}
	if !ok {
		logger.Warn("stop price is already through the market, skipping stop",
			logging.String("stop_price", stopPrice.String()))
	} else {
		stop, err := connector.PlaceOrder(ctx, interfaces.OrderRequest{
			Symbol:     symbol,
			Side:       interfaces.SideSell,
			Type:       interfaces.OrderStopMarket,
			Quantity:   quantity,
			StopPrice:  stopPrice,
			ReduceOnly: true,
		})
		if ee, found := interfaces.AsExchangeError(err); found && ee.Kind == interfaces.KindOrderWouldTrigger {
			// The market moved through the trigger between the check and
			// the submission. Carry on and flatten below.
			logger.Warn("stop would trigger immediately, skipping stop", logging.Error(err))
		} else if err != nil {
			return err
		} else {
			logger.Info("stop order accepted",
				logging.Any("order_id", stop.OrderID),
				logging.String("stop_price", stopPrice.String()),
			)
		}
	}

	open, err := connector.OpenOrders(ctx, symbol)
	if err != nil {
		return err
	}
	logger.Info("open orders", logging.Int("count", len(open)))

	if err := connector.CancelAllOrders(ctx, symbol); err != nil {
		return err
	}

	ack, err := connector.ClosePosition(ctx, symbol, "", true)
	if err != nil {
		return err
	}
	if ack.Status == interfaces.OrderStatusNoop {
		logger.Info("no position to close")
	} else {
		logger.Info("position closed", logging.Any("order_id", ack.OrderID))
	}
	return nil
}
