package binance

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
)

// orderState is the JSON shape shared by order placement acks and order
// queries. Prices and quantities arrive as quoted decimal strings.
type orderState struct {
	Symbol        string          `json:"symbol"`
	OrderID       int64           `json:"orderId"`
	ClientOrderID string          `json:"clientOrderId"`
	Status        string          `json:"status"`
	Type          string          `json:"type"`
	Side          string          `json:"side"`
	PositionSide  string          `json:"positionSide"`
	Price         decimal.Decimal `json:"price"`
	StopPrice     decimal.Decimal `json:"stopPrice"`
	OrigQty       decimal.Decimal `json:"origQty"`
	ExecutedQty   decimal.Decimal `json:"executedQty"`
	AvgPrice      decimal.Decimal `json:"avgPrice"`
	ReduceOnly    bool            `json:"reduceOnly"`
	UpdateTime    int64           `json:"updateTime"`
}

func (o *orderState) ack() *interfaces.OrderAck {
	return &interfaces.OrderAck{
		Symbol:        o.Symbol,
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Status:        o.Status,
		UpdateTime:    time.UnixMilli(o.UpdateTime).UTC(),
	}
}

func (o *orderState) order() *interfaces.Order {
	return &interfaces.Order{
		Symbol:        o.Symbol,
		OrderID:       o.OrderID,
		ClientOrderID: o.ClientOrderID,
		Status:        o.Status,
		Type:          interfaces.OrderType(o.Type),
		Side:          interfaces.Side(o.Side),
		PositionSide:  interfaces.PositionSide(o.PositionSide),
		Price:         o.Price,
		StopPrice:     o.StopPrice,
		OrigQty:       o.OrigQty,
		ExecutedQty:   o.ExecutedQty,
		AvgPrice:      o.AvgPrice,
		ReduceOnly:    o.ReduceOnly,
		UpdateTime:    time.UnixMilli(o.UpdateTime).UTC(),
	}
}

// PlaceOrder validates, signs and submits a single order and returns the
// exchange acknowledgment. Transient failures are retried under the
// connector's backoff policy with the same client order ID, so a retried
// submission that actually reached the exchange the first time cannot
// create a duplicate. Request-semantic rejections (immediate trigger,
// reduce-only violation) come back on the first attempt as classified
// ExchangeErrors for the caller's strategy to handle.
func (c *Connector) PlaceOrder(ctx context.Context, req interfaces.OrderRequest) (*interfaces.OrderAck, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if err := c.validateOrder(&req); err != nil {
		return nil, err
	}
	if req.ClientOrderID == "" {
		req.ClientOrderID = uuid.NewString()
	}

	p := newParams().
		Add("symbol", strings.ToUpper(req.Symbol)).
		Add("side", string(req.Side))
	if req.PositionSide != "" {
		p.Add("positionSide", string(req.PositionSide))
	}
	p.Add("type", string(req.Type)).
		Add("quantity", req.Quantity.String())
	switch req.Type {
	case interfaces.OrderLimit:
		tif := req.TimeInForce
		if tif == "" {
			tif = interfaces.GTC
		}
		p.Add("timeInForce", string(tif)).
			Add("price", req.Price.String())
	case interfaces.OrderStopMarket:
		p.Add("stopPrice", req.StopPrice.String())
	}
	// Hedge mode rejects an explicit reduceOnly flag: LONG/SHORT position
	// sides already imply it on closing orders.
	if req.ReduceOnly && (req.PositionSide == "" || req.PositionSide == interfaces.PositionBoth) {
		p.Add("reduceOnly", "true")
	}
	p.Add("newClientOrderId", req.ClientOrderID)

	data, err := c.doSigned(ctx, http.MethodPost, "/fapi/v1/order", p)
	if err != nil {
		return nil, err
	}
	var state orderState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode order ack: %w", err)
	}

	c.logger.Info("order placed",
		logging.String("symbol", state.Symbol),
		logging.String("side", string(req.Side)),
		logging.String("type", string(req.Type)),
		logging.Int64("order_id", state.OrderID),
		logging.String("client_order_id", state.ClientOrderID))
	return state.ack(), nil
}

// validateOrder runs struct-tag validation plus the numeric checks tags
// cannot express on decimal fields.
func (c *Connector) validateOrder(req *interfaces.OrderRequest) error {
	if err := c.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", interfaces.ErrInvalidOrder, err)
	}
	if req.Quantity.Sign() <= 0 {
		return fmt.Errorf("%w: quantity must be positive", interfaces.ErrInvalidOrder)
	}
	switch req.Type {
	case interfaces.OrderLimit:
		if req.Price.Sign() <= 0 {
			return fmt.Errorf("%w: limit order requires a positive price", interfaces.ErrInvalidOrder)
		}
	case interfaces.OrderStopMarket:
		if req.StopPrice.Sign() <= 0 {
			return fmt.Errorf("%w: stop order requires a positive stop price", interfaces.ErrInvalidOrder)
		}
	}
	return nil
}

// ClosePosition flattens the open position on symbol for the given
// position side (empty means one-way mode) with a reduce-only order on
// the opposite side, sized from the live position. With market true the
// close is a MARKET order; otherwise a GTC LIMIT at the current ticker
// price. A flat position returns a NOOP acknowledgment without touching
// the exchange, and a reduce-only rejection racing a fill is folded into
// the same NOOP since both mean there is nothing left to close.
func (c *Connector) ClosePosition(ctx context.Context, symbol string, side interfaces.PositionSide, market bool) (*interfaces.OrderAck, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, interfaces.ErrInvalidSymbol
	}
	if side == "" {
		side = interfaces.PositionBoth
	}

	positions, err := c.PositionRisk(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to read position: %w", err)
	}
	var open *interfaces.Position
	for i := range positions {
		if positions[i].PositionSide == side {
			open = &positions[i]
			break
		}
	}
	if open == nil || open.Amount.IsZero() {
		c.logger.Info("no position to close",
			logging.String("symbol", symbol),
			logging.String("position_side", string(side)))
		return noopAck(symbol), nil
	}

	orderSide := interfaces.SideSell
	if open.Amount.Sign() < 0 {
		orderSide = interfaces.SideBuy
	}
	req := interfaces.OrderRequest{
		Symbol:       symbol,
		Side:         orderSide,
		PositionSide: side,
		Type:         interfaces.OrderMarket,
		Quantity:     open.Amount.Abs(),
		ReduceOnly:   true,
	}
	if !market {
		ticker, err := c.GetTicker(ctx, symbol)
		if err != nil {
			return nil, fmt.Errorf("failed to price closing order: %w", err)
		}
		req.Type = interfaces.OrderLimit
		req.TimeInForce = interfaces.GTC
		req.Price = decimal.NewFromFloat(ticker.LastPrice)
	}

	ack, err := c.PlaceOrder(ctx, req)
	if err != nil {
		if exchErr, ok := interfaces.AsExchangeError(err); ok &&
			exchErr.Kind == interfaces.KindReduceOnlyRejected {
			c.logger.Info("position already flat",
				logging.String("symbol", symbol),
				logging.String("position_side", string(side)))
			return noopAck(symbol), nil
		}
		return nil, err
	}
	return ack, nil
}

func noopAck(symbol string) *interfaces.OrderAck {
	return &interfaces.OrderAck{
		Symbol:     strings.ToUpper(symbol),
		Status:     interfaces.OrderStatusNoop,
		UpdateTime: time.Now().UTC(),
	}
}

// GetOrder retrieves the current state of an order by exchange order ID.
func (c *Connector) GetOrder(ctx context.Context, symbol string, orderID int64) (*interfaces.Order, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, interfaces.ErrInvalidSymbol
	}
	p := newParams().
		Add("symbol", strings.ToUpper(symbol)).
		AddInt("orderId", orderID)
	data, err := c.doSigned(ctx, http.MethodGet, "/fapi/v1/order", p)
	if err != nil {
		return nil, err
	}
	var state orderState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode order: %w", err)
	}
	return state.order(), nil
}

// OrderStatus returns just the status string of an order.
func (c *Connector) OrderStatus(ctx context.Context, symbol string, orderID int64) (string, error) {
	order, err := c.GetOrder(ctx, symbol, orderID)
	if err != nil {
		return "", err
	}
	return order.Status, nil
}

// StopPrice returns the trigger price of a resting stop order.
func (c *Connector) StopPrice(ctx context.Context, symbol string, orderID int64) (decimal.Decimal, error) {
	order, err := c.GetOrder(ctx, symbol, orderID)
	if err != nil {
		return decimal.Zero, err
	}
	return order.StopPrice, nil
}

// CancelOrder cancels a single resting order.
func (c *Connector) CancelOrder(ctx context.Context, symbol string, orderID int64) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if symbol == "" {
		return interfaces.ErrInvalidSymbol
	}
	p := newParams().
		Add("symbol", strings.ToUpper(symbol)).
		AddInt("orderId", orderID)
	if _, err := c.doSigned(ctx, http.MethodDelete, "/fapi/v1/order", p); err != nil {
		return err
	}
	c.logger.Info("order canceled",
		logging.String("symbol", symbol),
		logging.Int64("order_id", orderID))
	return nil
}

// CancelAllOrders cancels every resting order on the symbol.
func (c *Connector) CancelAllOrders(ctx context.Context, symbol string) error {
	if err := c.requireConnected(); err != nil {
		return err
	}
	if symbol == "" {
		return interfaces.ErrInvalidSymbol
	}
	p := newParams().Add("symbol", strings.ToUpper(symbol))
	if _, err := c.doSigned(ctx, http.MethodDelete, "/fapi/v1/allOpenOrders", p); err != nil {
		return err
	}
	c.logger.Info("all open orders canceled", logging.String("symbol", symbol))
	return nil
}

// OpenOrders lists resting orders, for every symbol when symbol is empty.
// The all-symbols form carries a much higher request weight, so prefer
// passing a symbol.
func (c *Connector) OpenOrders(ctx context.Context, symbol string) ([]interfaces.Order, error) {
	if err := c.requireConnected(); err != nil {
		return nil, err
	}
	p := newParams()
	if symbol != "" {
		p.Add("symbol", strings.ToUpper(symbol))
	}
	data, err := c.doSigned(ctx, http.MethodGet, "/fapi/v1/openOrders", p)
	if err != nil {
		return nil, err
	}
	var states []orderState
	if err := json.Unmarshal(data, &states); err != nil {
		return nil, fmt.Errorf("failed to decode open orders: %w", err)
	}
	orders := make([]interfaces.Order, 0, len(states))
	for i := range states {
		orders = append(orders, *states[i].order())
	}
	return orders, nil
}

// ReplaceOrder cancels an existing order and places a new one in its
// stead, the usual way to move a resting stop. Not atomic: if the cancel
// succeeds and the placement fails, the old order is already gone and the
// caller must resubmit.
func (c *Connector) ReplaceOrder(ctx context.Context, symbol string, orderID int64, req interfaces.OrderRequest) (*interfaces.OrderAck, error) {
	if err := c.CancelOrder(ctx, symbol, orderID); err != nil {
		return nil, fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	ack, err := c.PlaceOrder(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("replacement order after canceling %d failed: %w", orderID, err)
	}
	return ack, nil
}

// CanPlaceStop reports whether a stop order at stopPrice would rest
// rather than trigger immediately against the current market price: a
// SELL stop must sit below the market, a BUY stop above it. Placing one
// on the wrong side draws an immediate-trigger rejection.
func (c *Connector) CanPlaceStop(ctx context.Context, symbol string, side interfaces.Side, stopPrice decimal.Decimal) (bool, error) {
	ticker, err := c.GetTicker(ctx, symbol)
	if err != nil {
		return false, err
	}
	market := decimal.NewFromFloat(ticker.LastPrice)
	if side == interfaces.SideSell {
		return stopPrice.LessThan(market), nil
	}
	return stopPrice.GreaterThan(market), nil
}
