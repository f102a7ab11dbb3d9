package common

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httputil"
	"regexp"
	"time"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
	"github.com/LeonardoVieira1630/Quan-Digital/pkg/ratelimit"
)

// DebugClientConfig holds configuration for the HTTP debug client
type DebugClientConfig struct {
	// Inherits the base client configuration
	*ClientConfig

	// Debug-specific settings
	LogRequestBody  bool
	LogResponseBody bool

	// Maximum size of request/response body to log (to avoid massive logs)
	MaxBodyLogSize int
}

// DefaultDebugConfig returns a default debug client configuration
func DefaultDebugConfig() *DebugClientConfig {
	return &DebugClientConfig{
		ClientConfig:    DefaultConfig(),
		LogRequestBody:  true,
		LogResponseBody: true,
		MaxBodyLogSize:  4096, // 4KB max by default
	}
}

// NewDebugHTTPClient creates a new HTTP client with verbose debug logging.
// API keys and signatures are redacted from every dump, so debug output is
// safe to share when reporting exchange issues.
func NewDebugHTTPClient(config *DebugClientConfig) HTTPClient {
	if config == nil {
		config = DefaultDebugConfig()
	}

	// Default to a development zap logger at debug level
	if _, isZapLogger := config.Logger.(*logging.ZapLogger); !isZapLogger {
		config.Logger = logging.NewZapLogger(
			logging.WithLogLevel(logging.DEBUG),
			logging.WithDevelopmentMode(),
		)
	}

	return &debugClient{
		client: NewHTTPClient(config.ClientConfig).(*client),
		config: config,
	}
}

// debugClient implements the HTTPClient interface with additional debug logging
type debugClient struct {
	client *client
	config *DebugClientConfig
}

// signatureParam matches the signature value in a signed query or form body
var signatureParam = regexp.MustCompile(`(signature=)[0-9a-fA-F]+`)

// Do implements HTTPClient interface with debug logging
func (c *debugClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()

	c.logRequest(req)

	resp, err := c.client.Do(ctx, req)

	duration := time.Since(start)
	if err != nil {
		c.logError(req, err, duration)
		return nil, err
	}

	c.logResponse(req, resp, duration)
	return resp, nil
}

// Get implements HTTPClient interface
func (c *debugClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	return c.Do(ctx, req)
}

// SetRateLimit implements HTTPClient interface
func (c *debugClient) SetRateLimit(limit ratelimit.Rate) error {
	return c.client.SetRateLimit(limit)
}

// redact removes credential material from a request/response dump
func redact(dump []byte) []byte {
	out := signatureParam.ReplaceAll(dump, []byte("${1}REDACTED"))
	return out
}

// logRequest logs detailed information about the HTTP request
func (c *debugClient) logRequest(req *http.Request) {
	logger := c.client.logger

	// Never dump the API key header
	apiKey := req.Header.Get("X-MBX-APIKEY")
	if apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", "REDACTED")
	}

	var reqDump []byte
	var err error

	if c.config.LogRequestBody && req.Body != nil {
		bodyBytes, bodyErr := io.ReadAll(req.Body)
		if bodyErr != nil {
			logger.Warn("failed to read request body for logging",
				logging.Error(bodyErr))
		} else {
			logBody := bodyBytes
			if len(bodyBytes) > c.config.MaxBodyLogSize {
				logBody = bodyBytes[:c.config.MaxBodyLogSize]
			}

			reqDump, err = httputil.DumpRequestOut(req, false)
			if err == nil {
				reqDump = append(reqDump, "\r\n"...)
				reqDump = append(reqDump, logBody...)
			}

			// Restore the body for the actual send
			req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	} else {
		reqDump, err = httputil.DumpRequestOut(req, c.config.LogRequestBody)
	}

	if apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", apiKey)
	}

	if err != nil {
		logger.Warn("failed to dump request for logging",
			logging.Error(err))
	}

	logger.Debug("http request",
		logging.String("method", req.Method),
		logging.String("host", req.Host),
		logging.Int("headers", len(req.Header)),
		logging.String("dump", string(redact(reqDump))))
}

// logResponse logs detailed information about the HTTP response
func (c *debugClient) logResponse(req *http.Request, resp *http.Response, duration time.Duration) {
	logger := c.client.logger

	var respDump []byte
	var err error

	if c.config.LogResponseBody && resp.Body != nil {
		bodyBytes, bodyErr := io.ReadAll(resp.Body)
		if bodyErr != nil {
			logger.Warn("failed to read response body for logging",
				logging.Error(bodyErr))
		} else {
			logBody := bodyBytes
			if len(bodyBytes) > c.config.MaxBodyLogSize {
				logBody = bodyBytes[:c.config.MaxBodyLogSize]
			}

			respDump, err = httputil.DumpResponse(resp, false)
			if err == nil {
				respDump = append(respDump, "\r\n"...)
				respDump = append(respDump, logBody...)
			}

			// Restore the body for the caller
			resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	} else {
		respDump, err = httputil.DumpResponse(resp, c.config.LogResponseBody)
	}

	if err != nil {
		logger.Warn("failed to dump response for logging",
			logging.Error(err))
	}

	logger.Debug("http response",
		logging.String("method", req.Method),
		logging.Int("status", resp.StatusCode),
		logging.Duration("duration", duration),
		logging.String("dump", string(redact(respDump))))
}

// logError logs detailed information about an HTTP error
func (c *debugClient) logError(req *http.Request, err error, duration time.Duration) {
	c.client.logger.Error("http request failed",
		logging.String("method", req.Method),
		logging.Duration("duration", duration),
		logging.Error(err))
}
