package logger

// nopLogger discards every entry. Components accept a nil-free Logger, so
// tests and library callers that do not care about output pass NewNop().
type nopLogger struct{}

// NewNop returns a Logger that writes nothing.
func NewNop() Logger {
	return nopLogger{}
}

func (nopLogger) Debug(string, ...Field) {}
func (nopLogger) Info(string, ...Field)  {}
func (nopLogger) Warn(string, ...Field)  {}
func (nopLogger) Error(string, ...Field) {}

// Fatal does not exit.
func (nopLogger) Fatal(string, ...Field) {}

func (n nopLogger) With(...Field) Logger { return n }

func (nopLogger) Sync() error { return nil }
