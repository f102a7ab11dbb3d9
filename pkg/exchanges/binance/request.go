package binance

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	retry "github.com/avast/retry-go"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/exchanges/interfaces"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/ratelimit"
)

// The exchange allows 2400 request weight per minute per IP. Above this
// observed usage a warning is logged before the hard limit trips 429s.
const usedWeightWarnThreshold = 2000

// doPublic performs an unauthenticated GET against a market-data endpoint
// under the shared retry policy.
func (c *Connector) doPublic(ctx context.Context, path string, p *params) ([]byte, error) {
	return c.execute(ctx, http.MethodGet, path, p, false)
}

// doSigned performs an authenticated call. Credentials are read, never
// logged; the API key travels in a header and the secret only ever feeds
// the HMAC.
func (c *Connector) doSigned(ctx context.Context, method, path string, p *params) ([]byte, error) {
	if c.options.APIKey == "" || c.options.APISecret == "" {
		return nil, interfaces.ErrAuthenticationRequired
	}
	return c.execute(ctx, method, path, p, true)
}

// execute runs one logical REST call with bounded exponential backoff.
// MaxRetries is the total attempt count: a request that keeps failing
// transiently is sent exactly that many times and the last error is
// returned. Non-transient classifications abort immediately since an
// unchanged request would fail identically.
//
// Each attempt rebuilds the request from scratch. For signed calls that
// means a fresh timestamp and a fresh signature, which is what makes a
// TIMESTAMP_OUT_OF_WINDOW rejection worth retrying at all.
func (c *Connector) execute(ctx context.Context, method, path string, p *params, signed bool) ([]byte, error) {
	var body []byte
	err := retry.Do(
		func() error {
			data, err := c.attempt(ctx, method, path, p, signed)
			if err != nil {
				return err
			}
			body = data
			return nil
		},
		retry.Attempts(c.options.MaxRetries),
		retry.Delay(c.options.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			exchErr, ok := interfaces.AsExchangeError(err)
			return ok && exchErr.Transient()
		}),
		retry.OnRetry(func(attempt uint, err error) {
			c.logger.Warn("retrying exchange request",
				logging.String("method", method),
				logging.String("path", path),
				logging.Int("attempt", int(attempt)+1),
				logging.Error(err))
		}),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}

// attempt builds, sends and reads one HTTP exchange. Transport failures
// come back as KindNetwork, non-2xx responses go through classify; both
// are ExchangeErrors so the retry policy can inspect them.
func (c *Connector) attempt(ctx context.Context, method, path string, p *params, signed bool) ([]byte, error) {
	var (
		req *http.Request
		err error
	)
	if signed {
		query := c.signQuery(p)
		switch method {
		case http.MethodGet, http.MethodDelete:
			req, err = http.NewRequestWithContext(ctx, method, c.restURL+path+"?"+query, nil)
		default:
			req, err = http.NewRequestWithContext(ctx, method, c.restURL+path, strings.NewReader(query))
			if err == nil {
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			}
		}
		if err == nil {
			req.Header.Set("X-MBX-APIKEY", c.options.APIKey)
		}
	} else {
		target := c.restURL + path
		if query := p.Encode(); query != "" {
			target += "?" + query
		}
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(ctx, req)
	if err != nil {
		return nil, networkError(err)
	}
	defer resp.Body.Close()

	c.observeUsedWeight(resp.Header)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(resp.StatusCode, data)
	}
	return data, nil
}

// observeUsedWeight feeds the X-MBX-USED-WEIGHT-1M response header into
// the rate limiter so pacing reflects what the exchange actually counted.
func (c *Connector) observeUsedWeight(header http.Header) {
	raw := header.Get("X-MBX-USED-WEIGHT-1M")
	if raw == "" {
		return
	}
	used, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return
	}
	if tracker, ok := c.limiter.(ratelimit.WeightTracker); ok {
		tracker.ObserveUsedWeight(used)
	}
	if used >= usedWeightWarnThreshold {
		c.logger.Warn("request weight near exchange limit",
			logging.Int64("used_weight_1m", used))
	}
}
