package interfaces

import (
	"time"
)

// Candle represents OHLCV (Open, High, Low, Close, Volume) market data for a
// specific time period. Candles are immutable once fetched.
type Candle struct {
	// Symbol is the trading pair identifier (e.g., "BTCUSDT")
	Symbol string

	// OpenTime marks the beginning of the interval represented by this candle
	OpenTime time.Time

	// Open is the opening price for the interval
	Open float64

	// High is the highest price reached during the interval
	High float64

	// Low is the lowest price reached during the interval
	Low float64

	// Close is the closing price at the end of the interval
	Close float64

	// Volume is the trading volume during the interval
	Volume float64
}

// CandleSeries is a time-ordered candle sequence: open times strictly
// increasing, no duplicates. Gaps appear only where the exchange itself has
// no data for a slot. A series is owned by the caller that requested it and
// is never cached or shared.
type CandleSeries []Candle

// Closes returns the close prices in series order.
func (s CandleSeries) Closes() []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

// First returns the earliest candle; ok is false on an empty series.
func (s CandleSeries) First() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[0], true
}

// Last returns the most recent candle; ok is false on an empty series.
func (s CandleSeries) Last() (Candle, bool) {
	if len(s) == 0 {
		return Candle{}, false
	}
	return s[len(s)-1], true
}

// CandleRequest defines parameters for a single historical candle page.
type CandleRequest struct {
	// Symbol is the trading pair to fetch data for (e.g., "BTCUSDT")
	Symbol string

	// Interval specifies the time period each candle represents.
	// Common values include: "1m", "5m", "15m", "1h", "4h", "1d"
	Interval string

	// StartTime marks the beginning of the requested time range
	StartTime time.Time

	// EndTime marks the end of the requested time range
	EndTime time.Time

	// Limit is the maximum number of candles to retrieve. Exchanges cap
	// this per call (1500 on Binance futures klines).
	Limit int
}

// CandleSubscription defines parameters for real-time candle data
// subscriptions over WebSocket.
type CandleSubscription struct {
	// Symbols is a list of trading pairs to subscribe to
	Symbols []string

	// Interval specifies the time period each candle represents
	Interval string
}

// Ticker represents the most recent price for a trading pair.
type Ticker struct {
	// Symbol is the trading pair identifier (e.g., "BTCUSDT")
	Symbol string

	// LastPrice is the most recent traded price
	LastPrice float64

	// Time is the exchange timestamp of the quote, when provided
	Time time.Time
}

// CandleHandler processes real-time candle updates. The callback is invoked
// with each new or updated candle received.
type CandleHandler func(Candle)
