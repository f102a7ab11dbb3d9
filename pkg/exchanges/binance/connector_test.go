package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
)

// testConnector builds a connector pointed at a test server, with fast
// retries and the connected gate already open.
func testConnector(t *testing.T, serverURL string) *Connector {
	t.Helper()
	options := interfaces.NewExchangeOptions()
	options.APIKey = "test-key"
	options.APISecret = "test-secret"
	options.RestURL = serverURL
	options.MaxRetries = 3
	options.RetryDelay = time.Millisecond
	options.MaxRequestsPerSecond = 1000
	options.LogLevel = "error"

	c := NewConnector(options)
	c.connected = true
	return c
}

func TestNewConnector_Defaults(t *testing.T) {
	c := NewConnector(nil)
	require.NotNil(t, c)

	assert.Equal(t, mainnetRestURL, c.restURL)
	assert.Equal(t, mainnetWSURL, c.wsURL)
	assert.Equal(t, 5*time.Second, c.options.RecvWindow)
	assert.Equal(t, uint(3), c.options.MaxRetries)
	assert.Equal(t, maxKlinesPerRequest, c.klinePageLimit)
	assert.False(t, c.IsConnected())
	require.NotNil(t, c.ws)
	require.NotNil(t, c.validate)
	assert.Empty(t, c.streams)
}

func TestNewConnector_Testnet(t *testing.T) {
	c := NewConnector(&interfaces.ExchangeOptions{Testnet: true})
	assert.Equal(t, testnetRestURL, c.restURL)
	assert.Equal(t, testnetWSURL, c.wsURL)
}

func TestNewConnector_URLOverrides(t *testing.T) {
	c := NewConnector(&interfaces.ExchangeOptions{
		Testnet: true,
		RestURL: "http://localhost:9020",
		WSURL:   "ws://localhost:9021/stream",
	})
	assert.Equal(t, "http://localhost:9020", c.restURL)
	assert.Equal(t, "ws://localhost:9021/stream", c.wsURL)
}

func TestNewConnector_FillsZeroOptions(t *testing.T) {
	// A caller-built struct with only credentials set still gets every
	// default, and the caller's struct is left untouched.
	options := &interfaces.ExchangeOptions{APIKey: "k", APISecret: "s"}
	c := NewConnector(options)

	assert.Equal(t, 5*time.Second, c.options.RecvWindow)
	assert.Equal(t, 15*time.Second, c.options.HTTPTimeout)
	assert.Equal(t, 10, c.options.MaxRequestsPerSecond)
	assert.Equal(t, uint(3), c.options.MaxRetries)
	assert.Equal(t, time.Second, c.options.RetryDelay)
	assert.Equal(t, "info", c.options.LogLevel)

	assert.Zero(t, options.RecvWindow)
	assert.Empty(t, options.LogLevel)
}

func TestConnect_PingsAndChecksClock(t *testing.T) {
	var pinged, timed bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v1/ping":
			pinged = true
			w.Write([]byte("{}"))
		case "/fapi/v1/time":
			timed = true
			w.Write([]byte(`{"serverTime":` + unixMilliString(time.Now()) + `}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)
	c.connected = false

	err := c.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, pinged)
	assert.True(t, timed)
	assert.True(t, c.IsConnected())

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestConnect_FailsWhenUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // all requests now refuse

	c := testConnector(t, server.URL)
	c.connected = false
	c.options.MaxRetries = 1

	err := c.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, c.IsConnected())

	exchErr, ok := interfaces.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, interfaces.KindNetwork, exchErr.Kind)
}

func TestOperationsRequireConnect(t *testing.T) {
	c := NewConnector(&interfaces.ExchangeOptions{APIKey: "k", APISecret: "s"})
	ctx := context.Background()

	_, err := c.GetCandles(ctx, interfaces.CandleRequest{Symbol: "BTCUSDT", Interval: "1m"})
	assert.ErrorIs(t, err, interfaces.ErrNotConnected)

	_, err = c.PlaceOrder(ctx, interfaces.OrderRequest{})
	assert.ErrorIs(t, err, interfaces.ErrNotConnected)

	_, err = c.GetTicker(ctx, "BTCUSDT")
	assert.ErrorIs(t, err, interfaces.ErrNotConnected)

	err = c.CancelOrder(ctx, "BTCUSDT", 1)
	assert.ErrorIs(t, err, interfaces.ErrNotConnected)
}

func TestSignedOperationsRequireCredentials(t *testing.T) {
	c := NewConnector(nil)
	c.connected = true

	_, err := c.PositionRisk(context.Background(), "BTCUSDT")
	assert.ErrorIs(t, err, interfaces.ErrAuthenticationRequired)
}

func unixMilliString(ts time.Time) string {
	return strconv.FormatInt(ts.UnixMilli(), 10)
}
