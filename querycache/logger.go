package querycache

// Fields is a minimal structured field map for logs.
type Fields map[string]any

// Logger is a tiny leveled logger. Adapters for zap, logrus and zerolog live
// under log/.
type Logger interface {
	Debug(msg string, f Fields)
	Info(msg string, f Fields)
	Warn(msg string, f Fields)
	Error(msg string, f Fields)
}

type NopLogger struct{}

func (NopLogger) Debug(string, Fields) {}
func (NopLogger) Info(string, Fields)  {}
func (NopLogger) Warn(string, Fields)  {}
func (NopLogger) Error(string, Fields) {}

// fields decorates f with the trace correlation id when a trace is present.
func (c *Client) fields(t *Trace, f Fields) Fields {
	if f == nil {
		f = Fields{}
	}
	if id := t.ID(); id != "" {
		f["trace_id"] = id
	}
	return f
}
