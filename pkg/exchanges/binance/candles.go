package binance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
)

// Intervals the exchange serves natively on /fapi/v1/klines. Coarser or
// non-native widths are produced locally by Rebucket.
var nativeIntervals = map[string]bool{
	"1m": true, "3m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "2h": true, "4h": true, "6h": true, "8h": true, "12h": true,
	"1d": true, "3d": true, "1w": true, "1M": true,
}

// GetCandles fetches a single page of candles. Limit is clamped to the
// exchange cap; zero means the exchange default of 500. For quantities
// beyond one page use RecentCandles.
func (c *Connector) GetCandles(ctx context.Context, req interfaces.CandleRequest) ([]interfaces.Candle, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if req.Symbol == "" {
		return nil, interfaces.ErrInvalidSymbol
	}
	if !nativeIntervals[req.Interval] {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrInvalidInterval, req.Interval)
	}
	if !req.StartTime.IsZero() && !req.EndTime.IsZero() && req.StartTime.After(req.EndTime) {
		return nil, interfaces.ErrInvalidTimeRange
	}

	var startMs, endMs int64
	if !req.StartTime.IsZero() {
		startMs = req.StartTime.UnixMilli()
	}
	if !req.EndTime.IsZero() {
		endMs = req.EndTime.UnixMilli()
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 0
	}
	if limit > maxKlinesPerRequest {
		limit = maxKlinesPerRequest
	}
	return c.fetchKlines(ctx, req.Symbol, req.Interval, startMs, endMs, limit)
}

// RecentCandles returns up to quantity most recent candles at a native
// interval, oldest first. Quantities beyond the per-request cap are
// collected by walking backward page by page, each page's end cursor set
// just before the earliest candle of the previous page. An empty or short
// page means the exchange has no older history, in which case the partial
// series is returned rather than an error. Any page failing past the
// retry policy aborts the whole fetch so callers never mistake truncated
// data for complete data.
func (c *Connector) RecentCandles(ctx context.Context, symbol, interval string, quantity int) (interfaces.CandleSeries, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, interfaces.ErrInvalidSymbol
	}
	if !nativeIntervals[interval] {
		return nil, fmt.Errorf("%w: %q", interfaces.ErrInvalidInterval, interval)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("candle quantity must be positive, got %d", quantity)
	}

	series := make(interfaces.CandleSeries, 0, quantity)
	var endMs int64
	remaining := quantity
	for remaining > 0 {
		pageLimit := remaining
		if pageLimit > c.klinePageLimit {
			pageLimit = c.klinePageLimit
		}
		page, err := c.fetchKlines(ctx, symbol, interval, 0, endMs, pageLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch candle page: %w", err)
		}
		if len(page) == 0 {
			break
		}
		series = append(page, series...)
		remaining -= len(page)
		c.logger.Debug("fetched candle page",
			logging.String("symbol", symbol),
			logging.String("interval", interval),
			logging.Int("page_size", len(page)),
			logging.Int("remaining", remaining))
		if len(page) < pageLimit {
			break
		}
		endMs = page[0].OpenTime.UnixMilli() - 1
	}
	return series, nil
}

// LastClose returns the close of the most recent fully closed 1-minute
// candle. The newest candle the exchange returns is still forming, so the
// one before it is the last settled price.
func (c *Connector) LastClose(ctx context.Context, symbol string) (float64, error) {
	series, err := c.RecentCandles(ctx, symbol, "1m", 2)
	if err != nil {
		return 0, err
	}
	if len(series) < 2 {
		return 0, interfaces.NewMarketError(symbol, "not enough candle history", nil)
	}
	return series[len(series)-2].Close, nil
}

// CandleCloses returns the quantity most recent closes at the given
// interval, oldest first, built by re-bucketing 1-minute candles. The
// last element tracks the still-forming window. Less history than
// requested yields fewer elements, never an error.
func (c *Connector) CandleCloses(ctx context.Context, symbol, interval string, quantity int) ([]float64, error) {
	window, err := parseWindow(interval)
	if err != nil {
		return nil, err
	}
	return c.aggregated(ctx, symbol, "1m", window, quantity, FieldClose)
}

// CandleHighs returns the highest price per window for the quantity most
// recent fully closed windows at the given interval, oldest first.
func (c *Connector) CandleHighs(ctx context.Context, symbol, interval string, quantity int) ([]float64, error) {
	window, err := parseWindow(interval)
	if err != nil {
		return nil, err
	}
	return c.aggregated(ctx, symbol, "1m", window, quantity, FieldHigh)
}

// CandleLows returns the lowest price per window for the quantity most
// recent fully closed windows at the given interval, oldest first.
func (c *Connector) CandleLows(ctx context.Context, symbol, interval string, quantity int) ([]float64, error) {
	window, err := parseWindow(interval)
	if err != nil {
		return nil, err
	}
	return c.aggregated(ctx, symbol, "1m", window, quantity, FieldLow)
}

// HourlyCandleCloses is CandleCloses built from 1-hour base candles, for
// wide intervals where minute-level resolution would pull thousands of
// rows per window.
func (c *Connector) HourlyCandleCloses(ctx context.Context, symbol, interval string, quantity int) ([]float64, error) {
	window, err := parseWindow(interval)
	if err != nil {
		return nil, err
	}
	return c.aggregated(ctx, symbol, "1h", window, quantity, FieldClose)
}

// HourlyCandleHighs is CandleHighs built from 1-hour base candles.
func (c *Connector) HourlyCandleHighs(ctx context.Context, symbol, interval string, quantity int) ([]float64, error) {
	window, err := parseWindow(interval)
	if err != nil {
		return nil, err
	}
	return c.aggregated(ctx, symbol, "1h", window, quantity, FieldHigh)
}

// HourlyCandleLows is CandleLows built from 1-hour base candles.
func (c *Connector) HourlyCandleLows(ctx context.Context, symbol, interval string, quantity int) ([]float64, error) {
	window, err := parseWindow(interval)
	if err != nil {
		return nil, err
	}
	return c.aggregated(ctx, symbol, "1h", window, quantity, FieldLow)
}

// HighestPrice returns the highest high across the quantity most recent
// candles at a native interval.
func (c *Connector) HighestPrice(ctx context.Context, symbol, interval string, quantity int) (float64, error) {
	series, err := c.RecentCandles(ctx, symbol, interval, quantity)
	if err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return 0, interfaces.NewMarketError(symbol, "no candle history", nil)
	}
	high := series[0].High
	for _, candle := range series[1:] {
		if candle.High > high {
			high = candle.High
		}
	}
	return high, nil
}

// LowestPrice returns the lowest low across the quantity most recent
// candles at a native interval.
func (c *Connector) LowestPrice(ctx context.Context, symbol, interval string, quantity int) (float64, error) {
	series, err := c.RecentCandles(ctx, symbol, interval, quantity)
	if err != nil {
		return 0, err
	}
	if len(series) == 0 {
		return 0, interfaces.NewMarketError(symbol, "no candle history", nil)
	}
	low := series[0].Low
	for _, candle := range series[1:] {
		if candle.Low < low {
			low = candle.Low
		}
	}
	return low, nil
}

// aggregated fetches enough base candles to cover the requested number of
// windows plus alignment spill, re-buckets them, and trims to the
// quantity most recent values. Extremum aggregations fetch one window
// extra and drop the still-forming window, so every returned high or low
// covers a complete window.
func (c *Connector) aggregated(ctx context.Context, symbol, baseInterval string, window time.Duration, quantity int, field PriceField) ([]float64, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("candle quantity must be positive, got %d", quantity)
	}
	base := time.Minute
	if baseInterval == "1h" {
		base = time.Hour
	}
	if window < base || window%base != 0 {
		return nil, fmt.Errorf("%w: %s window cannot be built from %s candles",
			interfaces.ErrInvalidInterval, window, baseInterval)
	}

	windows := quantity + 1
	if field != FieldClose {
		windows = quantity + 2
	}
	series, err := c.RecentCandles(ctx, symbol, baseInterval, windows*int(window/base))
	if err != nil {
		return nil, err
	}

	values := Rebucket(series, window, field)
	if field != FieldClose && len(values) > 0 {
		values = values[:len(values)-1]
	}
	if len(values) > quantity {
		values = values[len(values)-quantity:]
	}
	return values, nil
}

// fetchKlines requests one page from /fapi/v1/klines. Zero start, end or
// limit values are omitted so the exchange applies its defaults.
func (c *Connector) fetchKlines(ctx context.Context, symbol, interval string, startMs, endMs int64, limit int) (interfaces.CandleSeries, error) {
	symbol = strings.ToUpper(symbol)
	p := newParams().
		Add("symbol", symbol).
		Add("interval", interval)
	if startMs > 0 {
		p.AddInt("startTime", startMs)
	}
	if endMs > 0 {
		p.AddInt("endTime", endMs)
	}
	if limit > 0 {
		p.AddInt("limit", int64(limit))
	}
	data, err := c.doPublic(ctx, "/fapi/v1/klines", p)
	if err != nil {
		return nil, err
	}
	return parseKlines(symbol, data)
}
