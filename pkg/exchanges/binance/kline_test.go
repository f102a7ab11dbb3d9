package binance

import (
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A full twelve-field row as the exchange sends it: timestamps and trade
// count are bare numbers, every price and volume is a quoted string.
const sampleKlineRow = `[
	1499040000000,
	"0.01634790",
	"0.80000000",
	"0.01575800",
	"0.01577100",
	"148976.11427815",
	1499644799999,
	"2434.19055334",
	308,
	"1756.87402397",
	"28.46694368",
	"17928899.62484339"
]`

func TestKline_UnmarshalFullRow(t *testing.T) {
	var k kline
	require.NoError(t, json.Unmarshal([]byte(sampleKlineRow), &k))

	assert.Equal(t, int64(1499040000000), k.OpenTime)
	assert.Equal(t, "0.0163479", k.Open.String())
	assert.Equal(t, "0.8", k.High.String())
	assert.Equal(t, "0.015758", k.Low.String())
	assert.Equal(t, "0.015771", k.Close.String())
	assert.Equal(t, "148976.11427815", k.Volume.String())
	assert.Equal(t, int64(1499644799999), k.CloseTime)
	assert.Equal(t, "2434.19055334", k.QuoteVolume.String())
	assert.Equal(t, int64(308), k.TradeCount)
}

func TestKline_UnmarshalMinimalRow(t *testing.T) {
	// Seven fields is the oldest row shape still seen in history dumps.
	row := `[1499040000000,"1.0","2.0","0.5","1.5","100.0",1499040059999]`

	var k kline
	require.NoError(t, json.Unmarshal([]byte(row), &k))

	assert.Equal(t, int64(1499040000000), k.OpenTime)
	assert.Equal(t, "1.5", k.Close.String())
	assert.True(t, k.QuoteVolume.IsZero())
	assert.Zero(t, k.TradeCount)
}

func TestKline_UnmarshalRejectsShortRow(t *testing.T) {
	row := `[1499040000000,"1.0","2.0","0.5","1.5","100.0"]`

	var k kline
	err := json.Unmarshal([]byte(row), &k)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fields")
}

func TestKline_UnmarshalRejectsBadTypes(t *testing.T) {
	tests := []struct {
		name string
		row  string
	}{
		{"numeric price", `[1499040000000,1.0,"2.0","0.5","1.5","100.0",1499040059999]`},
		{"string open time", `["1499040000000","1.0","2.0","0.5","1.5","100.0",1499040059999]`},
		{"unparsable price", `[1499040000000,"not-a-number","2.0","0.5","1.5","100.0",1499040059999]`},
		{"not an array", `{"openTime":1499040000000}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k kline
			assert.Error(t, json.Unmarshal([]byte(tt.row), &k))
		})
	}
}

func TestKline_Candle(t *testing.T) {
	var k kline
	require.NoError(t, json.Unmarshal([]byte(sampleKlineRow), &k))

	candle := k.Candle("ETHBTC")
	assert.Equal(t, "ETHBTC", candle.Symbol)
	assert.Equal(t, time.UnixMilli(1499040000000).UTC(), candle.OpenTime)
	assert.Equal(t, time.UTC, candle.OpenTime.Location())
	assert.InDelta(t, 0.0163479, candle.Open, 1e-12)
	assert.InDelta(t, 0.8, candle.High, 1e-12)
	assert.InDelta(t, 0.015758, candle.Low, 1e-12)
	assert.InDelta(t, 0.015771, candle.Close, 1e-12)
	assert.InDelta(t, 148976.11427815, candle.Volume, 1e-6)
}

func TestParseKlines(t *testing.T) {
	payload := `[
		[1499040000000,"1.0","2.0","0.5","1.5","100.0",1499040059999],
		[1499040060000,"1.5","2.5","1.0","2.0","200.0",1499040119999]
	]`

	series, err := parseKlines("BTCUSDT", []byte(payload))
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, "BTCUSDT", series[0].Symbol)
	assert.Equal(t, 1.5, series[0].Close)
	assert.Equal(t, 2.0, series[1].Close)
	assert.True(t, series[0].OpenTime.Before(series[1].OpenTime))
}

func TestParseKlines_Empty(t *testing.T) {
	series, err := parseKlines("BTCUSDT", []byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, series)
}

func TestParseKlines_BadPayload(t *testing.T) {
	_, err := parseKlines("BTCUSDT", []byte(`{"code":-1121}`))
	assert.Error(t, err)
}

func TestParseKlines_OneBadRowFailsWhole(t *testing.T) {
	payload := `[
		[1499040000000,"1.0","2.0","0.5","1.5","100.0",1499040059999],
		[1499040060000,"1.5","2.5"]
	]`

	_, err := parseKlines("BTCUSDT", []byte(payload))
	assert.Error(t, err)
}
