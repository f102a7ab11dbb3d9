package binance

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
)

// Index layout of one kline row. The exchange returns each candle as a
// positional JSON array, numbers quoted as strings except the timestamps
// and the trade count.
const (
	klineOpenTime = iota
	klineOpen
	klineHigh
	klineLow
	klineClose
	klineVolume
	klineCloseTime
	klineQuoteVolume
	klineTradeCount
)

// kline is one decoded candle row.
type kline struct {
	OpenTime    int64
	Open        decimal.Decimal
	High        decimal.Decimal
	Low         decimal.Decimal
	Close       decimal.Decimal
	Volume      decimal.Decimal
	CloseTime   int64
	QuoteVolume decimal.Decimal
	TradeCount  int64
}

func (k *kline) UnmarshalJSON(data []byte) error {
	var row []interface{}
	if err := json.Unmarshal(data, &row); err != nil {
		return fmt.Errorf("failed to decode kline row: %w", err)
	}
	if len(row) <= klineCloseTime {
		return fmt.Errorf("kline row has %d fields, want at least %d", len(row), klineCloseTime+1)
	}

	var err error
	if k.OpenTime, err = fieldInt64(row, klineOpenTime); err != nil {
		return err
	}
	if k.Open, err = fieldDecimal(row, klineOpen); err != nil {
		return err
	}
	if k.High, err = fieldDecimal(row, klineHigh); err != nil {
		return err
	}
	if k.Low, err = fieldDecimal(row, klineLow); err != nil {
		return err
	}
	if k.Close, err = fieldDecimal(row, klineClose); err != nil {
		return err
	}
	if k.Volume, err = fieldDecimal(row, klineVolume); err != nil {
		return err
	}
	if k.CloseTime, err = fieldInt64(row, klineCloseTime); err != nil {
		return err
	}
	// Trailing fields were added to the row format over time; tolerate
	// their absence.
	if len(row) > klineQuoteVolume {
		if k.QuoteVolume, err = fieldDecimal(row, klineQuoteVolume); err != nil {
			return err
		}
	}
	if len(row) > klineTradeCount {
		if k.TradeCount, err = fieldInt64(row, klineTradeCount); err != nil {
			return err
		}
	}
	return nil
}

// Candle converts the wire row to the exchange-neutral candle type.
func (k *kline) Candle(symbol string) interfaces.Candle {
	return interfaces.Candle{
		Symbol:   symbol,
		OpenTime: time.UnixMilli(k.OpenTime).UTC(),
		Open:     k.Open.InexactFloat64(),
		High:     k.High.InexactFloat64(),
		Low:      k.Low.InexactFloat64(),
		Close:    k.Close.InexactFloat64(),
		Volume:   k.Volume.InexactFloat64(),
	}
}

func parseKlines(symbol string, data []byte) (interfaces.CandleSeries, error) {
	var rows []kline
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode kline response: %w", err)
	}
	series := make(interfaces.CandleSeries, 0, len(rows))
	for i := range rows {
		series = append(series, rows[i].Candle(symbol))
	}
	return series, nil
}

func fieldInt64(row []interface{}, idx int) (int64, error) {
	switch v := row[idx].(type) {
	case float64:
		return int64(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("kline field %d: %w", idx, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("kline field %d: unexpected type %T", idx, row[idx])
	}
}

func fieldDecimal(row []interface{}, idx int) (decimal.Decimal, error) {
	s, ok := row[idx].(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("kline field %d: unexpected type %T", idx, row[idx])
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("kline field %d: %w", idx, err)
	}
	return d, nil
}
