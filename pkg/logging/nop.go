package logging

// NopLogger discards all log entries. Useful as a default in tests and
// anywhere a Logger is required but output is unwanted.
type NopLogger struct{}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return NopLogger{}
}

func (NopLogger) Debug(msg string, fields ...Field) {}

func (NopLogger) Info(msg string, fields ...Field) {}

func (NopLogger) Warn(msg string, fields ...Field) {}

func (NopLogger) Error(msg string, fields ...Field) {}

func (n NopLogger) WithFields(fields ...Field) Logger { return n }

func (NopLogger) SetLevel(level Level) {}
