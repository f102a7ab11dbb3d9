package websocket

import (
	"context"
	"sync"
	"time"
)

// MockConnector implements WSConnector interface for testing
type MockConnector struct {
	mu sync.RWMutex

	connected bool
	handlers  map[string]MessageHandler
	config    Config

	// For verifying test expectations
	connectCalls     int
	subscribeCalls   map[string]int
	unsubscribeCalls map[string]int
	sentMessages     []interface{}
	closeCalls       int

	// For simulating errors
	connectError     error
	subscribeError   error
	unsubscribeError error
	sendError        error
	closeError       error
}

// NewMockConnector creates a new mock connector for testing
func NewMockConnector() *MockConnector {
	return &MockConnector{
		handlers:         make(map[string]MessageHandler),
		subscribeCalls:   make(map[string]int),
		unsubscribeCalls: make(map[string]int),
		config: Config{
			URL:               "ws://mock-server.test",
			HeartbeatInterval: 20 * time.Second,
			ReconnectInterval: 5 * time.Second,
			MaxRetries:        3,
		},
	}
}

// Connect implements WSConnector interface
func (m *MockConnector) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connectCalls++
	if m.connectError != nil {
		return m.connectError
	}

	m.connected = true
	return nil
}

// Close implements WSConnector interface
func (m *MockConnector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closeCalls++
	if m.closeError != nil {
		return m.closeError
	}

	m.connected = false
	return nil
}

// Subscribe implements WSConnector interface
func (m *MockConnector) Subscribe(stream string, handler MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.subscribeCalls[stream]++
	if m.subscribeError != nil {
		return m.subscribeError
	}

	m.handlers[stream] = handler
	return nil
}

// Unsubscribe implements WSConnector interface
func (m *MockConnector) Unsubscribe(stream string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.unsubscribeCalls[stream]++
	if m.unsubscribeError != nil {
		return m.unsubscribeError
	}

	delete(m.handlers, stream)
	return nil
}

// Send implements WSConnector interface
func (m *MockConnector) Send(message interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sendError != nil {
		return m.sendError
	}

	m.sentMessages = append(m.sentMessages, message)
	return nil
}

// IsConnected implements WSConnector interface
func (m *MockConnector) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// GetConfig returns the mock configuration
func (m *MockConnector) GetConfig() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SimulateMessage delivers a message to the handler registered for a
// stream, as if it had arrived over the wire
func (m *MockConnector) SimulateMessage(stream string, message []byte) {
	m.mu.RLock()
	handler, exists := m.handlers[stream]
	m.mu.RUnlock()

	if exists {
		handler(message)
	}
}

// SetConnectError sets an error to be returned by Connect
func (m *MockConnector) SetConnectError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectError = err
}

// SetSubscribeError sets an error to be returned by Subscribe
func (m *MockConnector) SetSubscribeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeError = err
}

// SetUnsubscribeError sets an error to be returned by Unsubscribe
func (m *MockConnector) SetUnsubscribeError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribeError = err
}

// SetSendError sets an error to be returned by Send
func (m *MockConnector) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendError = err
}

// SetCloseError sets an error to be returned by Close
func (m *MockConnector) SetCloseError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeError = err
}

// GetConnectCalls returns the number of times Connect was called
func (m *MockConnector) GetConnectCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connectCalls
}

// GetSubscribeCalls returns the number of times Subscribe was called for a stream
func (m *MockConnector) GetSubscribeCalls(stream string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.subscribeCalls[stream]
}

// GetUnsubscribeCalls returns the number of times Unsubscribe was called for a stream
func (m *MockConnector) GetUnsubscribeCalls(stream string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unsubscribeCalls[stream]
}

// GetSentMessages returns every message passed to Send, in order
func (m *MockConnector) GetSentMessages() []interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]interface{}, len(m.sentMessages))
	copy(out, m.sentMessages)
	return out
}

// GetCloseCalls returns the number of times Close was called
func (m *MockConnector) GetCloseCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closeCalls
}

// SetConfig allows setting mock config for testing
func (m *MockConnector) SetConfig(config Config) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.config = config
}
