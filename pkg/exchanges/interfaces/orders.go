package interfaces

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is the order direction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the other direction, used when sizing closing orders.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// PositionSide distinguishes hedge-mode position tracking from one-way mode.
// In one-way mode every order carries PositionBoth; in hedge mode LONG and
// SHORT positions on the same symbol are tracked independently.
type PositionSide string

const (
	PositionBoth  PositionSide = "BOTH"
	PositionLong  PositionSide = "LONG"
	PositionShort PositionSide = "SHORT"
)

// OrderType is the exchange order type.
type OrderType string

const (
	OrderMarket     OrderType = "MARKET"
	OrderLimit      OrderType = "LIMIT"
	OrderStopMarket OrderType = "STOP_MARKET"
)

// TimeInForce controls how long a resting order stays on the book.
type TimeInForce string

const (
	GTC TimeInForce = "GTC"
	IOC TimeInForce = "IOC"
	FOK TimeInForce = "FOK"
)

// OrderRequest describes a single order to be placed.
//
// Price is required for LIMIT orders, StopPrice for STOP_MARKET orders.
// ReduceOnly guarantees the order can only decrease position size and is
// mutually exclusive with opening a new position; the exchange rejects the
// flag in hedge mode, where the LONG/SHORT PositionSide already implies it.
type OrderRequest struct {
	Symbol       string       `validate:"required"`
	Side         Side         `validate:"required,oneof=BUY SELL"`
	PositionSide PositionSide `validate:"omitempty,oneof=BOTH LONG SHORT"`
	Type         OrderType    `validate:"required,oneof=MARKET LIMIT STOP_MARKET"`

	// Quantity is the order size in base asset units.
	Quantity decimal.Decimal `validate:"required"`

	// Price is the limit price; ignored for MARKET and STOP_MARKET orders.
	Price decimal.Decimal

	// StopPrice is the trigger price for STOP_MARKET orders.
	StopPrice decimal.Decimal

	// TimeInForce defaults to GTC for order types that rest on the book.
	TimeInForce TimeInForce `validate:"omitempty,oneof=GTC IOC FOK"`

	// ReduceOnly restricts the order to reducing an open position.
	ReduceOnly bool

	// ClientOrderID is the idempotency key sent as newClientOrderId. When
	// empty the connector generates one; the same ID is reused across
	// retry attempts of the same logical order so a retried submission
	// cannot create a duplicate.
	ClientOrderID string
}

// Order statuses reported by the exchange, plus the connector's no-op marker.
const (
	OrderStatusNew             = "NEW"
	OrderStatusPartiallyFilled = "PARTIALLY_FILLED"
	OrderStatusFilled          = "FILLED"
	OrderStatusCanceled        = "CANCELED"
	OrderStatusExpired         = "EXPIRED"

	// OrderStatusNoop is returned by ClosePosition when there was no open
	// position to close. No order reaches the exchange in that case.
	OrderStatusNoop = "NOOP"
)

// OrderAck is the exchange's acknowledgment of an accepted order.
type OrderAck struct {
	Symbol        string
	OrderID       int64
	ClientOrderID string
	Status        string
	UpdateTime    time.Time
}

// Order is the full state of an order as reported by the exchange.
type Order struct {
	Symbol        string
	OrderID       int64
	ClientOrderID string
	Status        string
	Type          OrderType
	Side          Side
	PositionSide  PositionSide
	Price         decimal.Decimal
	StopPrice     decimal.Decimal
	OrigQty       decimal.Decimal
	ExecutedQty   decimal.Decimal
	AvgPrice      decimal.Decimal
	ReduceOnly    bool
	UpdateTime    time.Time
}

// Position is one side of an open position as reported by the exchange.
// Amount is signed in one-way mode: positive long, negative short.
type Position struct {
	Symbol           string
	PositionSide     PositionSide
	Amount           decimal.Decimal
	EntryPrice       decimal.Decimal
	MarkPrice        decimal.Decimal
	UnrealizedProfit decimal.Decimal
	LiquidationPrice decimal.Decimal
	Leverage         int
}

// Balance is a single asset balance in the futures wallet.
type Balance struct {
	Asset     string
	Balance   decimal.Decimal
	Available decimal.Decimal
}
