package interfaces

import (
	"errors"
	"fmt"
)

// Common error variables that exchange connectors may return
var (
	// ErrNotConnected is returned when an operation is attempted on a connector
	// that hasn't been connected yet or lost connection
	ErrNotConnected = errors.New("exchange connector not connected")

	// ErrInvalidSymbol is returned when an invalid trading pair symbol is provided
	ErrInvalidSymbol = errors.New("invalid trading pair symbol")

	// ErrInvalidInterval is returned when an unsupported time interval is provided
	ErrInvalidInterval = errors.New("invalid time interval")

	// ErrInvalidTimeRange is returned when an invalid time range is provided
	// (e.g., end time before start time)
	ErrInvalidTimeRange = errors.New("invalid time range")

	// ErrAuthenticationRequired is returned when attempting an operation that
	// requires authentication without providing credentials
	ErrAuthenticationRequired = errors.New("authentication required for this operation")

	// ErrInvalidOrder is returned when an order request fails local
	// validation before anything is sent to the exchange
	ErrInvalidOrder = errors.New("invalid order request")

	// ErrSubscriptionFailed is returned when a WebSocket subscription cannot be established
	ErrSubscriptionFailed = errors.New("failed to establish subscription")

	// ErrSubscriptionNotFound is returned when trying to unsubscribe from a non-existent subscription
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// ErrorKind is the classified category of an exchange failure. Classification
// is total: every response the exchange can produce maps to exactly one kind,
// with KindUnmapped as the guaranteed fallback so no condition is silently
// lost.
type ErrorKind string

const (
	// KindBadGateway covers 502/504 responses from the exchange edge.
	// Transient: the request never reached matching and can be resent.
	KindBadGateway ErrorKind = "BAD_GATEWAY"

	// KindRateLimited covers 429 responses and the exchange's request
	// weight violation code. Transient after backoff.
	KindRateLimited ErrorKind = "RATE_LIMITED"

	// KindOrderWouldTrigger means a stop order's trigger price is already
	// past the current market and would execute instantly. The caller
	// must adjust the price; resubmitting unchanged fails identically.
	KindOrderWouldTrigger ErrorKind = "ORDER_WOULD_TRIGGER_IMMEDIATELY"

	// KindReduceOnlyRejected means a reduce-only order would have grown
	// exposure, typically because there is no open position to reduce.
	KindReduceOnlyRejected ErrorKind = "REDUCE_ONLY_REJECTED"

	// KindPositionSideUnchanged means the account is already in the
	// requested position mode. Callers treat it as a no-op.
	KindPositionSideUnchanged ErrorKind = "POSITION_SIDE_UNCHANGED"

	// KindTimestampOutOfWindow means the signed timestamp fell outside
	// recvWindow by the time the exchange processed the request.
	// Transient: the request is re-signed with a fresh timestamp.
	KindTimestampOutOfWindow ErrorKind = "TIMESTAMP_OUT_OF_WINDOW"

	// KindNetwork covers transport-level failures: DNS, refused
	// connections, timeouts before any response. Transient.
	KindNetwork ErrorKind = "NETWORK"

	// KindUnmapped is the fallback for any condition not covered above.
	// The raw status and body are preserved verbatim.
	KindUnmapped ErrorKind = "UNMAPPED"
)

// Transient reports whether a failure of this kind is expected to resolve on
// retry without changing the request.
func (k ErrorKind) Transient() bool {
	switch k {
	case KindBadGateway, KindRateLimited, KindTimestampOutOfWindow, KindNetwork:
		return true
	}
	return false
}

// ExchangeError is a classified exchange failure. It is constructed once from
// the raw response (or transport error), never mutated, and consumed by
// callers for retry decisions or surfacing.
type ExchangeError struct {
	// Kind is the classified category
	Kind ErrorKind

	// StatusCode is the raw HTTP status, 0 for transport-level failures
	StatusCode int

	// Code is the exchange-defined numeric error code, 0 when absent
	Code int

	// Message is the exchange-provided message, or the raw body when the
	// body could not be parsed
	Message string

	// Err is the underlying transport error for KindNetwork
	Err error
}

// Error implements the error interface
func (e *ExchangeError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("exchange error %s (status %d, code %d): %s", e.Kind, e.StatusCode, e.Code, e.Message)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("exchange error %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("exchange error %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying transport error, if any
func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// Transient reports whether the error should be retried.
func (e *ExchangeError) Transient() bool {
	return e.Kind.Transient()
}

// AsExchangeError unwraps err to an *ExchangeError if one is in its chain.
func AsExchangeError(err error) (*ExchangeError, bool) {
	var ee *ExchangeError
	if errors.As(err, &ee) {
		return ee, true
	}
	return nil, false
}

// MarketError represents a market-specific error condition
type MarketError struct {
	Symbol  string
	Message string
	Err     error
}

// Error implements the error interface
func (e *MarketError) Error() string {
	return fmt.Sprintf("market error for %s: %s", e.Symbol, e.Message)
}

// Unwrap returns the underlying error
func (e *MarketError) Unwrap() error {
	return e.Err
}

// NewMarketError creates a new market-specific error
func NewMarketError(symbol, message string, err error) error {
	return &MarketError{
		Symbol:  symbol,
		Message: message,
		Err:     err,
	}
}
