package binance

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/websocket"
)

// wsCommand is the control frame the stream endpoint accepts for managing
// subscriptions.
type wsCommand struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int64    `json:"id"`
}

var wsRequestID atomic.Int64

func subscribeFrame(stream string) interface{} {
	return wsCommand{Method: "SUBSCRIBE", Params: []string{stream}, ID: wsRequestID.Add(1)}
}

func unsubscribeFrame(stream string) interface{} {
	return wsCommand{Method: "UNSUBSCRIBE", Params: []string{stream}, ID: wsRequestID.Add(1)}
}

// KlineStreamName returns the stream identifier for a symbol and native
// interval, which doubles as the subscription ID accepted by Unsubscribe.
func KlineStreamName(symbol, interval string) string {
	return strings.ToLower(symbol) + "@kline_" + interval
}

// klineEvent is the kline payload pushed on a kline stream.
type klineEvent struct {
	EventType string `json:"e"`
	EventTime int64  `json:"E"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime  int64           `json:"t"`
		CloseTime int64           `json:"T"`
		Interval  string          `json:"i"`
		Open      decimal.Decimal `json:"o"`
		Close     decimal.Decimal `json:"c"`
		High      decimal.Decimal `json:"h"`
		Low       decimal.Decimal `json:"l"`
		Volume    decimal.Decimal `json:"v"`
		Closed    bool            `json:"x"`
	} `json:"k"`
}

// SubscribeCandles streams candles for the requested symbols at a native
// interval. The handler is invoked once per fully closed candle; updates
// for the still-forming window are dropped so every delivered candle is
// settled. The websocket is dialed on the first subscription and
// subscriptions survive reconnects.
func (c *Connector) SubscribeCandles(ctx context.Context, req interfaces.CandleSubscription, handler interfaces.CandleHandler) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if len(req.Symbols) == 0 {
		return interfaces.ErrInvalidSymbol
	}
	if !nativeIntervals[req.Interval] {
		return fmt.Errorf("%w: %q", interfaces.ErrInvalidInterval, req.Interval)
	}
	if handler == nil {
		return fmt.Errorf("%w: nil candle handler", interfaces.ErrSubscriptionFailed)
	}

	if !c.ws.IsConnected() {
		if err := c.ws.Connect(ctx); err != nil {
			return fmt.Errorf("%w: %v", interfaces.ErrSubscriptionFailed, err)
		}
	}

	for _, symbol := range req.Symbols {
		stream := KlineStreamName(symbol, req.Interval)
		if err := c.ws.Subscribe(stream, c.klineHandler(stream, handler)); err != nil {
			return fmt.Errorf("%w: %v", interfaces.ErrSubscriptionFailed, err)
		}
		c.mu.Lock()
		c.streams[stream] = req
		c.mu.Unlock()
		c.logger.Info("subscribed to candle stream", logging.String("stream", stream))
	}
	return nil
}

// Unsubscribe terminates the candle stream identified by its stream name
// (see KlineStreamName).
func (c *Connector) Unsubscribe(ctx context.Context, subscriptionID string) error {
	c.mu.Lock()
	_, exists := c.streams[subscriptionID]
	delete(c.streams, subscriptionID)
	c.mu.Unlock()
	if !exists {
		return interfaces.ErrSubscriptionNotFound
	}
	if err := c.ws.Unsubscribe(subscriptionID); err != nil {
		return fmt.Errorf("failed to unsubscribe from %s: %w", subscriptionID, err)
	}
	c.logger.Info("unsubscribed from candle stream", logging.String("stream", subscriptionID))
	return nil
}

// klineHandler adapts a raw stream payload into a Candle for the
// subscriber. Malformed payloads are logged and dropped rather than
// killing the stream.
func (c *Connector) klineHandler(stream string, handler interfaces.CandleHandler) websocket.MessageHandler {
	return func(message []byte) {
		var event klineEvent
		if err := json.Unmarshal(message, &event); err != nil {
			c.logger.Warn("failed to decode kline event",
				logging.String("stream", stream),
				logging.Error(err))
			return
		}
		if event.EventType != "kline" || !event.Kline.Closed {
			return
		}
		handler(interfaces.Candle{
			Symbol:   event.Symbol,
			OpenTime: time.UnixMilli(event.Kline.OpenTime).UTC(),
			Open:     event.Kline.Open.InexactFloat64(),
			High:     event.Kline.High.InexactFloat64(),
			Low:      event.Kline.Low.InexactFloat64(),
			Close:    event.Kline.Close.InexactFloat64(),
			Volume:   event.Kline.Volume.InexactFloat64(),
		})
	}
}
