package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
)

func limitBuy(qty, price string) interfaces.OrderRequest {
	return interfaces.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     interfaces.SideBuy,
		Type:     interfaces.OrderLimit,
		Quantity: decimal.RequireFromString(qty),
		Price:    decimal.RequireFromString(price),
	}
}

func orderAckJSON(clientOrderID string) string {
	return fmt.Sprintf(
		`{"symbol":"BTCUSDT","orderId":4321,"clientOrderId":"%s","status":"NEW","updateTime":1716000000000}`,
		clientOrderID)
}

func TestPlaceOrder_SubmitsSignedForm(t *testing.T) {
	var raw string
	var header http.Header
	var rawQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/fapi/v1/order", r.URL.Path)
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw = string(body)
		header = r.Header.Clone()
		rawQuery = r.URL.RawQuery

		vals, err := url.ParseQuery(raw)
		require.NoError(t, err)
		w.Write([]byte(orderAckJSON(vals.Get("newClientOrderId"))))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	ack, err := c.PlaceOrder(context.Background(), limitBuy("0.5", "50000"))
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", ack.Symbol)
	assert.Equal(t, int64(4321), ack.OrderID)
	assert.Equal(t, "NEW", ack.Status)
	assert.Equal(t, time.UnixMilli(1716000000000).UTC(), ack.UpdateTime)

	// The signed payload travels as a form body, not in the URL.
	assert.Empty(t, rawQuery)
	assert.Equal(t, "application/x-www-form-urlencoded", header.Get("Content-Type"))
	assert.Equal(t, "test-key", header.Get("X-MBX-APIKEY"))

	vals, err := url.ParseQuery(raw)
	require.NoError(t, err)
	assert.Equal(t, "BTCUSDT", vals.Get("symbol"))
	assert.Equal(t, "BUY", vals.Get("side"))
	assert.Equal(t, "LIMIT", vals.Get("type"))
	assert.Equal(t, "0.5", vals.Get("quantity"))
	assert.Equal(t, "GTC", vals.Get("timeInForce"))
	assert.Equal(t, "50000", vals.Get("price"))
	assert.Equal(t, "5000", vals.Get("recvWindow"))
	assert.NotEmpty(t, vals.Get("timestamp"))
	assert.NotEmpty(t, vals.Get("newClientOrderId"))
	assert.Equal(t, ack.ClientOrderID, vals.Get("newClientOrderId"))

	// The signature is computed over everything before it and comes last.
	sig := vals.Get("signature")
	require.NotEmpty(t, sig)
	require.True(t, strings.HasSuffix(raw, "&signature="+sig))
	base := strings.TrimSuffix(raw, "&signature="+sig)
	assert.Equal(t, sign(base, "test-secret"), sig)
}

func TestPlaceOrder_ParamOrder(t *testing.T) {
	tests := []struct {
		name   string
		req    interfaces.OrderRequest
		prefix string
	}{
		{
			name: "one-way reduce only market",
			req: interfaces.OrderRequest{
				Symbol:     "btcusdt",
				Side:       interfaces.SideSell,
				Type:       interfaces.OrderMarket,
				Quantity:   decimal.NewFromInt(1),
				ReduceOnly: true,
			},
			prefix: "symbol=BTCUSDT&side=SELL&type=MARKET&quantity=1&reduceOnly=true&newClientOrderId=",
		},
		{
			// Hedge mode: the position side implies reduce-only on the
			// closing order and the explicit flag must not be sent.
			name: "hedge mode drops reduce only flag",
			req: interfaces.OrderRequest{
				Symbol:       "BTCUSDT",
				Side:         interfaces.SideSell,
				PositionSide: interfaces.PositionLong,
				Type:         interfaces.OrderMarket,
				Quantity:     decimal.NewFromInt(1),
				ReduceOnly:   true,
			},
			prefix: "symbol=BTCUSDT&side=SELL&positionSide=LONG&type=MARKET&quantity=1&newClientOrderId=",
		},
		{
			name: "stop market carries trigger price",
			req: interfaces.OrderRequest{
				Symbol:    "BTCUSDT",
				Side:      interfaces.SideSell,
				Type:      interfaces.OrderStopMarket,
				Quantity:  decimal.NewFromInt(2),
				StopPrice: decimal.RequireFromString("48500.5"),
			},
			prefix: "symbol=BTCUSDT&side=SELL&type=STOP_MARKET&quantity=2&stopPrice=48500.5&newClientOrderId=",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var raw string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				raw = string(body)
				w.Write([]byte(orderAckJSON("x")))
			}))
			defer server.Close()

			c := testConnector(t, server.URL)

			_, err := c.PlaceOrder(context.Background(), tt.req)
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(raw, tt.prefix),
				"body %q does not start with %q", raw, tt.prefix)
		})
	}
}

func TestPlaceOrder_RetriesReuseClientOrderID(t *testing.T) {
	var ids []string
	var sigsValid []bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		raw := string(body)
		vals, err := url.ParseQuery(raw)
		require.NoError(t, err)

		ids = append(ids, vals.Get("newClientOrderId"))
		sig := vals.Get("signature")
		base := strings.TrimSuffix(raw, "&signature="+sig)
		sigsValid = append(sigsValid, sign(base, "test-secret") == sig)

		if len(ids) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte(`{"code":-1000,"msg":"upstream unavailable"}`))
			return
		}
		w.Write([]byte(orderAckJSON(vals.Get("newClientOrderId"))))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	ack, err := c.PlaceOrder(context.Background(), limitBuy("0.5", "50000"))
	require.NoError(t, err)

	// One logical order: the generated idempotency key is identical on
	// every attempt, while each attempt is signed afresh.
	require.Len(t, ids, 3)
	assert.NotEmpty(t, ids[0])
	assert.Equal(t, ids[0], ids[1])
	assert.Equal(t, ids[0], ids[2])
	assert.Equal(t, ids[0], ack.ClientOrderID)
	assert.Equal(t, []bool{true, true, true}, sigsValid)
}

func TestPlaceOrder_ExhaustsRetriesOnBadGateway(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"code":-1000,"msg":"upstream unavailable"}`))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	_, err := c.PlaceOrder(context.Background(), limitBuy("0.5", "50000"))
	require.Error(t, err)
	assert.Equal(t, 3, calls)

	exchErr, ok := interfaces.AsExchangeError(err)
	require.True(t, ok)
	assert.Equal(t, interfaces.KindBadGateway, exchErr.Kind)
	assert.True(t, exchErr.Transient())
}

func TestPlaceOrder_DoesNotRetrySemanticRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind interfaces.ErrorKind
	}{
		{
			name: "reduce only rejected",
			body: `{"code":-2022,"msg":"ReduceOnly Order is rejected."}`,
			kind: interfaces.KindReduceOnlyRejected,
		},
		{
			name: "order would trigger immediately",
			body: `{"code":-2021,"msg":"Order would immediately trigger."}`,
			kind: interfaces.KindOrderWouldTrigger,
		},
		{
			name: "unmapped rejection",
			body: `{"code":-4164,"msg":"Order's notional must be no smaller than 5.0"}`,
			kind: interfaces.KindUnmapped,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls++
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := testConnector(t, server.URL)

			_, err := c.PlaceOrder(context.Background(), limitBuy("0.5", "50000"))
			require.Error(t, err)
			assert.Equal(t, 1, calls, "non-transient rejection must not be retried")

			exchErr, ok := interfaces.AsExchangeError(err)
			require.True(t, ok)
			assert.Equal(t, tt.kind, exchErr.Kind)
			assert.False(t, exchErr.Transient())
		})
	}
}

func TestPlaceOrder_RetriesTimestampOutOfWindow(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1021,"msg":"Timestamp for this request is outside of the recvWindow."}`))
			return
		}
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		vals, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		w.Write([]byte(orderAckJSON(vals.Get("newClientOrderId"))))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	// A stale timestamp heals on the next attempt because the request is
	// rebuilt and re-signed with a fresh clock reading.
	ack, err := c.PlaceOrder(context.Background(), limitBuy("0.5", "50000"))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "NEW", ack.Status)
}

func TestPlaceOrder_Validation(t *testing.T) {
	c := testConnector(t, "http://127.0.0.1:0")
	ctx := context.Background()

	tests := []struct {
		name string
		req  interfaces.OrderRequest
	}{
		{"missing symbol", interfaces.OrderRequest{
			Side: interfaces.SideBuy, Type: interfaces.OrderMarket, Quantity: decimal.NewFromInt(1)}},
		{"unknown side", interfaces.OrderRequest{
			Symbol: "BTCUSDT", Side: "HOLD", Type: interfaces.OrderMarket, Quantity: decimal.NewFromInt(1)}},
		{"zero quantity", interfaces.OrderRequest{
			Symbol: "BTCUSDT", Side: interfaces.SideBuy, Type: interfaces.OrderMarket, Quantity: decimal.Zero}},
		{"limit without price", interfaces.OrderRequest{
			Symbol: "BTCUSDT", Side: interfaces.SideBuy, Type: interfaces.OrderLimit, Quantity: decimal.NewFromInt(1)}},
		{"stop without trigger", interfaces.OrderRequest{
			Symbol: "BTCUSDT", Side: interfaces.SideSell, Type: interfaces.OrderStopMarket, Quantity: decimal.NewFromInt(1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.PlaceOrder(ctx, tt.req)
			assert.ErrorIs(t, err, interfaces.ErrInvalidOrder)
		})
	}
}

func positionRiskJSON(side, amount string) string {
	return fmt.Sprintf(`[{
		"symbol":"BTCUSDT","positionSide":"%s","positionAmt":"%s",
		"entryPrice":"50000.0","markPrice":"50100.0",
		"unRealizedProfit":"50.0","liquidationPrice":"42000.0","leverage":"10"
	}]`, side, amount)
}

func TestClosePosition_NoopWhenFlat(t *testing.T) {
	var orderPosts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v2/positionRisk":
			w.Write([]byte(positionRiskJSON("BOTH", "0")))
		case "/fapi/v1/order":
			orderPosts++
			w.Write([]byte(orderAckJSON("x")))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	ack, err := c.ClosePosition(context.Background(), "BTCUSDT", "", true)
	require.NoError(t, err)
	assert.Equal(t, interfaces.OrderStatusNoop, ack.Status)
	assert.Equal(t, "BTCUSDT", ack.Symbol)
	assert.Zero(t, orderPosts, "a flat position must not produce an order")
}

func TestClosePosition_MarketClosesLong(t *testing.T) {
	var orderBody url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v2/positionRisk":
			w.Write([]byte(positionRiskJSON("BOTH", "0.5")))
		case "/fapi/v1/order":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			orderBody, err = url.ParseQuery(string(body))
			require.NoError(t, err)
			w.Write([]byte(orderAckJSON(orderBody.Get("newClientOrderId"))))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	ack, err := c.ClosePosition(context.Background(), "BTCUSDT", interfaces.PositionBoth, true)
	require.NoError(t, err)
	assert.Equal(t, "NEW", ack.Status)

	require.NotNil(t, orderBody)
	assert.Equal(t, "SELL", orderBody.Get("side"))
	assert.Equal(t, "MARKET", orderBody.Get("type"))
	assert.Equal(t, "0.5", orderBody.Get("quantity"))
	assert.Equal(t, "true", orderBody.Get("reduceOnly"))
}

func TestClosePosition_BuysBackShort(t *testing.T) {
	var orderBody url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v2/positionRisk":
			w.Write([]byte(positionRiskJSON("BOTH", "-2")))
		case "/fapi/v1/order":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			orderBody, err = url.ParseQuery(string(body))
			require.NoError(t, err)
			w.Write([]byte(orderAckJSON("x")))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	_, err := c.ClosePosition(context.Background(), "BTCUSDT", "", true)
	require.NoError(t, err)

	require.NotNil(t, orderBody)
	assert.Equal(t, "BUY", orderBody.Get("side"))
	assert.Equal(t, "2", orderBody.Get("quantity"))
}

func TestClosePosition_LimitUsesTickerPrice(t *testing.T) {
	var orderBody url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v2/positionRisk":
			w.Write([]byte(positionRiskJSON("BOTH", "0.5")))
		case "/fapi/v1/ticker/price":
			w.Write([]byte(`{"symbol":"BTCUSDT","price":"50123.4","time":1716000000000}`))
		case "/fapi/v1/order":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			orderBody, err = url.ParseQuery(string(body))
			require.NoError(t, err)
			w.Write([]byte(orderAckJSON("x")))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	_, err := c.ClosePosition(context.Background(), "BTCUSDT", "", false)
	require.NoError(t, err)

	require.NotNil(t, orderBody)
	assert.Equal(t, "LIMIT", orderBody.Get("type"))
	assert.Equal(t, "GTC", orderBody.Get("timeInForce"))
	assert.Equal(t, "50123.4", orderBody.Get("price"))
	assert.Equal(t, "true", orderBody.Get("reduceOnly"))
}

func TestClosePosition_ReduceOnlyRejectedMeansFlat(t *testing.T) {
	// The position can fill between the risk read and the close order.
	// The exchange then rejects the reduce-only close, which is the same
	// outcome as having nothing to close.
	var orderPosts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v2/positionRisk":
			w.Write([]byte(positionRiskJSON("BOTH", "0.5")))
		case "/fapi/v1/order":
			orderPosts++
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-2022,"msg":"ReduceOnly Order is rejected."}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	ack, err := c.ClosePosition(context.Background(), "BTCUSDT", "", true)
	require.NoError(t, err)
	assert.Equal(t, interfaces.OrderStatusNoop, ack.Status)
	assert.Equal(t, 1, orderPosts)
}

func TestClosePosition_HedgeModePicksRequestedSide(t *testing.T) {
	var orderBody url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fapi/v2/positionRisk":
			w.Write([]byte(`[
				{"symbol":"BTCUSDT","positionSide":"LONG","positionAmt":"0.3","entryPrice":"50000","markPrice":"50100","unRealizedProfit":"30","liquidationPrice":"42000","leverage":"10"},
				{"symbol":"BTCUSDT","positionSide":"SHORT","positionAmt":"-0.8","entryPrice":"50000","markPrice":"50100","unRealizedProfit":"-80","liquidationPrice":"61000","leverage":"10"}
			]`))
		case "/fapi/v1/order":
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			orderBody, err = url.ParseQuery(string(body))
			require.NoError(t, err)
			w.Write([]byte(orderAckJSON("x")))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	_, err := c.ClosePosition(context.Background(), "BTCUSDT", interfaces.PositionShort, true)
	require.NoError(t, err)

	require.NotNil(t, orderBody)
	assert.Equal(t, "BUY", orderBody.Get("side"))
	assert.Equal(t, "SHORT", orderBody.Get("positionSide"))
	assert.Equal(t, "0.8", orderBody.Get("quantity"))
	// Hedge mode: reduce-only is implied by the position side.
	assert.Empty(t, orderBody.Get("reduceOnly"))
}

func TestCanPlaceStop(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"symbol":"BTCUSDT","price":"50000","time":1716000000000}`))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)
	ctx := context.Background()

	tests := []struct {
		name string
		side interfaces.Side
		stop string
		want bool
	}{
		{"sell stop below market rests", interfaces.SideSell, "49000", true},
		{"sell stop above market triggers", interfaces.SideSell, "51000", false},
		{"sell stop at market triggers", interfaces.SideSell, "50000", false},
		{"buy stop above market rests", interfaces.SideBuy, "51000", true},
		{"buy stop below market triggers", interfaces.SideBuy, "49000", false},
		{"buy stop at market triggers", interfaces.SideBuy, "50000", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := c.CanPlaceStop(ctx, "BTCUSDT", tt.side, decimal.RequireFromString(tt.stop))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

const restingStopJSON = `{
	"symbol":"BTCUSDT","orderId":777,"clientOrderId":"stop-1","status":"NEW",
	"type":"STOP_MARKET","side":"SELL","positionSide":"BOTH",
	"price":"0","stopPrice":"48500.5","origQty":"0.5","executedQty":"0",
	"avgPrice":"0","reduceOnly":true,"updateTime":1716000000000
}`

func TestGetOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/fapi/v1/order", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "BTCUSDT", q.Get("symbol"))
		assert.Equal(t, "777", q.Get("orderId"))
		assert.NotEmpty(t, q.Get("signature"))
		assert.Equal(t, "test-key", r.Header.Get("X-MBX-APIKEY"))
		w.Write([]byte(restingStopJSON))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	order, err := c.GetOrder(context.Background(), "btcusdt", 777)
	require.NoError(t, err)

	assert.Equal(t, int64(777), order.OrderID)
	assert.Equal(t, "stop-1", order.ClientOrderID)
	assert.Equal(t, interfaces.OrderStopMarket, order.Type)
	assert.Equal(t, interfaces.SideSell, order.Side)
	assert.Equal(t, "48500.5", order.StopPrice.String())
	assert.Equal(t, "0.5", order.OrigQty.String())
	assert.True(t, order.ReduceOnly)
	assert.Equal(t, time.UnixMilli(1716000000000).UTC(), order.UpdateTime)
}

func TestOrderStatusAndStopPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(restingStopJSON))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)
	ctx := context.Background()

	status, err := c.OrderStatus(ctx, "BTCUSDT", 777)
	require.NoError(t, err)
	assert.Equal(t, "NEW", status)

	stop, err := c.StopPrice(ctx, "BTCUSDT", 777)
	require.NoError(t, err)
	assert.Equal(t, "48500.5", stop.String())
}

func TestCancelOrder(t *testing.T) {
	var method, path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		assert.Equal(t, "777", r.URL.Query().Get("orderId"))
		assert.NotEmpty(t, r.URL.Query().Get("signature"))
		w.Write([]byte(`{"symbol":"BTCUSDT","orderId":777,"clientOrderId":"stop-1","status":"CANCELED","updateTime":1716000000000}`))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	require.NoError(t, c.CancelOrder(context.Background(), "BTCUSDT", 777))
	assert.Equal(t, http.MethodDelete, method)
	assert.Equal(t, "/fapi/v1/order", path)
}

func TestCancelAllOrders(t *testing.T) {
	var path string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		require.Equal(t, http.MethodDelete, r.Method)
		w.Write([]byte(`{"code":200,"msg":"The operation of cancel all open order is done."}`))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	require.NoError(t, c.CancelAllOrders(context.Background(), "BTCUSDT"))
	assert.Equal(t, "/fapi/v1/allOpenOrders", path)
}

func TestOpenOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fapi/v1/openOrders", r.URL.Path)
		assert.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
		w.Write([]byte(`[` + restingStopJSON + `,
			{"symbol":"BTCUSDT","orderId":778,"clientOrderId":"limit-1","status":"PARTIALLY_FILLED",
			 "type":"LIMIT","side":"BUY","positionSide":"BOTH",
			 "price":"49000","stopPrice":"0","origQty":"1","executedQty":"0.25",
			 "avgPrice":"49000","reduceOnly":false,"updateTime":1716000060000}]`))
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	orders, err := c.OpenOrders(context.Background(), "BTCUSDT")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, int64(777), orders[0].OrderID)
	assert.Equal(t, int64(778), orders[1].OrderID)
	assert.Equal(t, "PARTIALLY_FILLED", orders[1].Status)
	assert.Equal(t, "0.25", orders[1].ExecutedQty.String())
}

func TestReplaceOrder(t *testing.T) {
	var deletes, posts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			deletes++
			w.Write([]byte(`{"symbol":"BTCUSDT","orderId":777,"status":"CANCELED","updateTime":1716000000000}`))
		case http.MethodPost:
			posts++
			w.Write([]byte(orderAckJSON("replacement")))
		default:
			t.Errorf("unexpected method %s", r.Method)
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	req := interfaces.OrderRequest{
		Symbol:    "BTCUSDT",
		Side:      interfaces.SideSell,
		Type:      interfaces.OrderStopMarket,
		Quantity:  decimal.RequireFromString("0.5"),
		StopPrice: decimal.RequireFromString("48000"),
	}
	ack, err := c.ReplaceOrder(context.Background(), "BTCUSDT", 777, req)
	require.NoError(t, err)
	assert.Equal(t, 1, deletes)
	assert.Equal(t, 1, posts)
	assert.Equal(t, int64(4321), ack.OrderID)
}

func TestReplaceOrder_StopsWhenCancelFails(t *testing.T) {
	var posts int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodDelete:
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-2011,"msg":"Unknown order sent."}`))
		case http.MethodPost:
			posts++
			w.Write([]byte(orderAckJSON("x")))
		}
	}))
	defer server.Close()

	c := testConnector(t, server.URL)

	req := limitBuy("0.5", "50000")
	_, err := c.ReplaceOrder(context.Background(), "BTCUSDT", 777, req)
	require.Error(t, err)
	assert.Zero(t, posts, "replacement must not be placed when the cancel fails")
}
