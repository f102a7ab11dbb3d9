package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"
	"github.com/gorilla/websocket"

	"github.com/LeonardoVieira1630/Quan-Digital/pkg/logging"
)

// MessageHandler is a callback function type for handling incoming WebSocket messages
type MessageHandler func(message []byte)

// WSConnector defines the interface for managing WebSocket connections
type WSConnector interface {
	// Connect establishes the WebSocket connection
	Connect(ctx context.Context) error

	// Close cleanly closes the WebSocket connection
	Close() error

	// Subscribe registers a message handler for a stream and, when the
	// config provides a SubscribeMessage builder, announces the
	// subscription to the server
	Subscribe(stream string, handler MessageHandler) error

	// Unsubscribe removes a message handler for a stream
	Unsubscribe(stream string) error

	// Send sends a message through the WebSocket connection
	Send(message interface{}) error

	// IsConnected returns the current connection status
	IsConnected() bool
}

// Config holds WebSocket connection configuration
type Config struct {
	URL               string
	HeartbeatInterval time.Duration
	ReconnectInterval time.Duration
	MaxRetries        int

	// Logger receives connection lifecycle events. Nil means silent.
	Logger logging.Logger

	// SubscribeMessage builds the frame announcing a stream subscription
	// to the server. It is sent when Subscribe is called on a live
	// connection and replayed for every registered stream after a
	// reconnect, which is what makes reconnection transparent to
	// subscribers. Nil means the server needs no announcement.
	SubscribeMessage func(stream string) interface{}

	// UnsubscribeMessage builds the frame retiring a stream subscription.
	UnsubscribeMessage func(stream string) interface{}
}

// Metrics holds connection and message statistics
type Metrics struct {
	ConnectedTime   time.Time
	LastMessageTime time.Time
	MessageCount    int64
	ReconnectCount  int64
	ErrorCount      int64
}

// connector implements the WSConnector interface
type connector struct {
	config Config
	conn   *websocket.Conn

	handlers   map[string]MessageHandler
	handlersMu sync.RWMutex // Protect handlers map
	writeMu    sync.Mutex

	connected atomic.Bool
	done      chan struct{}
	doneMu    sync.Mutex
	closed    bool

	// For managing reconnection attempts
	reconnectMu  sync.Mutex
	reconnecting bool

	// Metrics
	metrics   Metrics
	metricsMu sync.RWMutex

	logger logging.Logger
}

// NewConnector creates a new WebSocket connector with the given configuration
func NewConnector(config Config) WSConnector {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &connector{
		config:   config,
		handlers: make(map[string]MessageHandler),
		logger:   logger,
	}
}

// GetMetrics returns the current connection metrics
func (c *connector) GetMetrics() Metrics {
	c.metricsMu.RLock()
	defer c.metricsMu.RUnlock()
	return c.metrics
}

// HealthCheck reports an error when the connection is down or has gone
// quiet for longer than three heartbeat intervals
func (c *connector) HealthCheck() error {
	if !c.IsConnected() {
		return fmt.Errorf("websocket not connected")
	}

	c.metricsMu.RLock()
	last := c.metrics.LastMessageTime
	if last.IsZero() {
		last = c.metrics.ConnectedTime
	}
	c.metricsMu.RUnlock()

	if silence := time.Since(last); silence > c.config.HeartbeatInterval*3 {
		return fmt.Errorf("no messages received in %v", silence)
	}

	return nil
}

// Connect establishes the WebSocket connection and starts background routines
func (c *connector) Connect(ctx context.Context) error {
	c.reconnectMu.Lock()
	defer c.reconnectMu.Unlock()

	if c.connected.Load() {
		return nil
	}

	if ctx.Err() != nil {
		return fmt.Errorf("context already cancelled: %w", ctx.Err())
	}

	c.logger.Debug("attempting websocket connection",
		logging.String("url", c.config.URL),
		logging.Duration("heartbeat", c.config.HeartbeatInterval),
		logging.Duration("reconnect", c.config.ReconnectInterval),
	)

	var lastErr error
	attempt := 0

	for {
		attempt++
		if attempt > c.config.MaxRetries {
			return fmt.Errorf("max retries exceeded: %w", lastErr)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}

		dialer := websocket.Dialer{
			HandshakeTimeout: 10 * time.Second,
		}
		conn, _, err := dialer.DialContext(ctx, c.config.URL, nil)
		if err != nil {
			lastErr = err
			c.metricsMu.Lock()
			c.metrics.ErrorCount++
			c.metricsMu.Unlock()
			c.logger.Warn("connection attempt failed",
				logging.Int("attempt", attempt),
				logging.Error(err),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.config.ReconnectInterval):
				continue
			}
		}

		c.conn = conn
		c.connected.Store(true)
		c.metricsMu.Lock()
		c.metrics.ConnectedTime = time.Now()
		c.metricsMu.Unlock()

		c.doneMu.Lock()
		c.done = make(chan struct{})
		c.closed = false
		c.doneMu.Unlock()

		// Start background routines
		go c.readPump(ctx)
		go c.heartbeat()

		// Monitor context cancellation
		go func() {
			select {
			case <-ctx.Done():
				c.logger.Info("context cancelled, closing connection")
				c.Close()
			case <-c.done:
				return
			}
		}()

		c.logger.Info("websocket connected successfully")

		// Replay subscription announcements for registered streams
		if err := c.resubscribe(); err != nil {
			c.logger.Warn("failed to resubscribe", logging.Error(err))
		}

		return nil
	}
}

// readPump continuously reads messages from the WebSocket
func (c *connector) readPump(ctx context.Context) {
	defer func() {
		c.connected.Store(false)
		if c.conn != nil {
			_ = c.conn.Close()
		}

		c.doneMu.Lock()
		if !c.closed {
			close(c.done)
			c.closed = true
		}
		c.doneMu.Unlock()

		c.logger.Info("readPump stopped")

		// Only attempt reconnection if not explicitly closed and context is not cancelled
		if !c.reconnecting && ctx.Err() == nil {
			go c.reconnect()
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))

	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("context cancelled, closing readPump")
			return
		default:
			c.conn.SetReadDeadline(time.Now().Add(c.config.HeartbeatInterval * 3))
			_, message, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Warn("read error", logging.Error(err))
					c.metricsMu.Lock()
					c.metrics.ErrorCount++
					c.metricsMu.Unlock()
				}
				return
			}

			c.metricsMu.Lock()
			c.metrics.MessageCount++
			c.metrics.LastMessageTime = time.Now()
			c.metricsMu.Unlock()

			c.processMessage(message)
		}
	}
}

// processMessage routes an incoming message to its stream handler.
// Messages arrive in a combined-stream envelope naming the stream they
// belong to; frames without one (command acks, errors) are only logged.
func (c *connector) processMessage(message []byte) {
	var msg struct {
		Stream string          `json:"stream"`
		Data   json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("failed to unmarshal message", logging.Error(err))
		return
	}
	if msg.Stream == "" {
		c.logger.Debug("unrouted frame", logging.String("frame", string(message)))
		return
	}

	c.handlersMu.RLock()
	handler, exists := c.handlers[msg.Stream]
	c.handlersMu.RUnlock()

	if !exists {
		return
	}

	payload := []byte(msg.Data)
	if len(payload) == 0 {
		payload = message
	}

	go func(stream string, data []byte, h MessageHandler) {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("handler panic recovered",
					logging.String("stream", stream),
					logging.String("panic", fmt.Sprintf("%v", r)),
				)
			}
		}()

		// Bound handler execution so one stuck consumer cannot pile up
		// goroutines forever
		handlerCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		done := make(chan struct{})
		go func() {
			h(data)
			close(done)
		}()

		select {
		case <-done:
		case <-handlerCtx.Done():
			c.logger.Warn("handler timeout", logging.String("stream", stream))
		}
	}(msg.Stream, payload, handler)
}

// heartbeat sends periodic ping messages to keep the connection alive
func (c *connector) heartbeat() {
	ticker := time.NewTicker(c.config.HeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.writeMu.Lock()
			if !c.connected.Load() {
				c.writeMu.Unlock()
				return
			}
			err := c.conn.WriteMessage(websocket.PingMessage, nil)
			c.writeMu.Unlock()
			if err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// reconnect attempts to reestablish the connection
func (c *connector) reconnect() {
	c.reconnectMu.Lock()
	if c.reconnecting {
		c.reconnectMu.Unlock()
		return
	}
	c.reconnecting = true
	c.reconnectMu.Unlock()

	defer func() {
		c.reconnectMu.Lock()
		c.reconnecting = false
		c.reconnectMu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	c.metricsMu.Lock()
	c.metrics.ReconnectCount++
	c.metricsMu.Unlock()

	err := retry.Do(
		func() error {
			if ctx.Err() != nil {
				return retry.Unrecoverable(ctx.Err())
			}
			return c.Connect(ctx)
		},
		retry.Attempts(uint(c.config.MaxRetries)),
		retry.Delay(c.config.ReconnectInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Warn("reconnection attempt failed",
				logging.Int("attempt", int(n+1)),
				logging.Error(err))
		}),
	)

	if err != nil {
		c.logger.Error("reconnection failed", logging.Error(err))
		c.metricsMu.Lock()
		c.metrics.ErrorCount++
		c.metricsMu.Unlock()
		return
	}

	c.logger.Info("reconnection successful")
}

// Subscribe implements WSConnector interface
func (c *connector) Subscribe(stream string, handler MessageHandler) error {
	if !c.IsConnected() {
		return fmt.Errorf("websocket not connected")
	}

	c.handlersMu.Lock()
	c.handlers[stream] = handler
	c.handlersMu.Unlock()

	if c.config.SubscribeMessage != nil {
		if err := c.Send(c.config.SubscribeMessage(stream)); err != nil {
			c.handlersMu.Lock()
			delete(c.handlers, stream)
			c.handlersMu.Unlock()
			return fmt.Errorf("failed to announce subscription: %w", err)
		}
	}
	return nil
}

// Unsubscribe implements WSConnector interface
func (c *connector) Unsubscribe(stream string) error {
	c.handlersMu.Lock()
	_, exists := c.handlers[stream]
	delete(c.handlers, stream)
	c.handlersMu.Unlock()

	if exists && c.config.UnsubscribeMessage != nil && c.IsConnected() {
		if err := c.Send(c.config.UnsubscribeMessage(stream)); err != nil {
			return fmt.Errorf("failed to announce unsubscription: %w", err)
		}
	}
	return nil
}

// Send implements WSConnector interface
func (c *connector) Send(message interface{}) error {
	if !c.connected.Load() {
		return fmt.Errorf("websocket not connected")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// If message is already []byte, send it directly
	if data, ok := message.([]byte); ok {
		return c.conn.WriteMessage(websocket.TextMessage, data)
	}

	// Otherwise, marshal to JSON
	data, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// IsConnected implements WSConnector interface
func (c *connector) IsConnected() bool {
	return c.connected.Load()
}

// Close implements WSConnector interface
func (c *connector) Close() error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.doneMu.Lock()
	wasClosed := c.closed
	if !c.closed {
		close(c.done)
		c.closed = true
	}
	c.doneMu.Unlock()

	if wasClosed {
		return nil // Already closed
	}

	// Stop all background goroutines
	c.connected.Store(false)

	// Safely close the connection
	if c.conn != nil {
		// Try to send close message but don't error if it fails
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "client closed connection"))

		// Give a bit of time for the close message to be sent before closing
		time.Sleep(100 * time.Millisecond)

		// Close the connection and ignore any "use of closed network connection" errors
		err := c.conn.Close()
		if err != nil && !strings.Contains(err.Error(), "use of closed network connection") {
			return err
		}
	}

	return nil
}

// resubscribe replays the subscription announcement for every registered
// stream after a reconnect. Handlers survive in the local map; the server
// only needs the announcements again.
func (c *connector) resubscribe() error {
	if c.config.SubscribeMessage == nil {
		return nil
	}

	c.handlersMu.RLock()
	streams := make([]string, 0, len(c.handlers))
	for stream := range c.handlers {
		streams = append(streams, stream)
	}
	c.handlersMu.RUnlock()

	var errs []error
	for _, stream := range streams {
		if err := c.Send(c.config.SubscribeMessage(stream)); err != nil {
			c.logger.Error("failed to resubscribe",
				logging.String("stream", stream),
				logging.Error(err),
			)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("failed to resubscribe to %d streams", len(errs))
	}
	return nil
}
