// Package ratelimit paces outbound requests to the exchange REST API. Binance
// enforces per-IP request-weight limits (2400 weight per minute on USDT-M
// futures at the time of writing) and bans IPs that repeatedly exceed them, so
// every HTTP call made by this module is funneled through a limiter from this
// package.
//
// The package offers an abstraction over the underlying third-party limiter so
// the rest of the module depends only on a small interface:
//
//   - pkg/common/http: the shared HTTP client calls Wait before every request
//   - pkg/exchanges/binance: the connector sizes the limiter from its options
//     and feeds observed X-MBX-USED-WEIGHT-1M response headers back into it
//
// The current implementation uses Uber's leaky-bucket rate limiter for pacing
// and keeps a separate atomic record of the used weight the exchange last
// reported, so callers can watch how close they are to the hard cap.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/ratelimit"
)

// Rate represents a rate limit configuration with a specified number of
// operations allowed within a given time interval.
type Rate struct {
	// Limit specifies the maximum number of operations allowed within the
	// interval. A limit of 100 with an interval of one minute means 100
	// operations per minute.
	Limit int

	// Interval defines the time duration over which the limit applies.
	Interval time.Duration
}

// RateLimiter defines the interface for rate limiting functionality.
// Implementations control the pace of operations by forcing callers to wait
// when necessary to comply with defined rate limits.
type RateLimiter interface {
	// Wait blocks until an operation is permitted or the context is
	// cancelled. It should be called immediately before every rate-limited
	// operation.
	Wait(ctx context.Context) error

	// SetLimit updates the rate limiting configuration at runtime. It
	// returns an error if the provided rate is invalid (non-positive limit
	// or interval).
	SetLimit(limit Rate) error
}

// WeightTracker records the request weight the exchange reports having
// consumed. Binance returns the running 1-minute total in the
// X-MBX-USED-WEIGHT-1M response header; feeding those observations back in
// lets callers log or alert before the hard cap cuts them off.
type WeightTracker interface {
	// ObserveUsedWeight records the most recent used-weight value reported
	// by the exchange.
	ObserveUsedWeight(weight int64)

	// UsedWeight returns the last observed used-weight value.
	UsedWeight() int64
}

// uberLimiter implements RateLimiter using Uber's leaky-bucket limiter, plus
// WeightTracker for exchange-reported usage.
type uberLimiter struct {
	mu         sync.Mutex
	limiter    ratelimit.Limiter
	rate       Rate
	usedWeight atomic.Int64
}

// NewTokenBucketLimiter creates a new rate limiter from the given Rate. The
// rate is converted to operations per second for the underlying limiter: 120
// operations per minute becomes 2 per second.
//
//	limiter := ratelimit.NewTokenBucketLimiter(ratelimit.Rate{
//		Limit:    1200,
//		Interval: time.Minute,
//	})
//	if err := limiter.Wait(ctx); err != nil {
//		return err
//	}
//	// proceed with the API call
func NewTokenBucketLimiter(rate Rate) RateLimiter {
	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}
	return &uberLimiter{
		limiter: ratelimit.New(rps),
		rate:    rate,
	}
}

// Wait implements the RateLimiter interface. If the context is already
// cancelled it returns immediately; otherwise it blocks on the underlying
// limiter until the next slot opens.
func (l *uberLimiter) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limit wait cancelled: %w", ctx.Err())
	default:
	}
	l.mu.Lock()
	limiter := l.limiter
	l.mu.Unlock()
	limiter.Take()
	return nil
}

// SetLimit implements the RateLimiter interface. It validates the new rate and
// swaps in a fresh underlying limiter, allowing runtime adjustment without
// recreating the RateLimiter.
func (l *uberLimiter) SetLimit(rate Rate) error {
	if rate.Limit <= 0 || rate.Interval <= 0 {
		return fmt.Errorf("invalid rate limit: %+v", rate)
	}
	rps := int(float64(rate.Limit) / rate.Interval.Seconds())
	if rps < 1 {
		rps = 1
	}
	l.mu.Lock()
	l.limiter = ratelimit.New(rps)
	l.rate = rate
	l.mu.Unlock()
	return nil
}

// ObserveUsedWeight implements the WeightTracker interface.
func (l *uberLimiter) ObserveUsedWeight(weight int64) {
	l.usedWeight.Store(weight)
}

// UsedWeight implements the WeightTracker interface.
func (l *uberLimiter) UsedWeight() int64 {
	return l.usedWeight.Load()
}
