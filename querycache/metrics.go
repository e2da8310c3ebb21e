package querycache

// Metrics receives cache and database counters. The Prometheus implementation
// lives in pkg/metrics.
type Metrics interface {
	CacheHit(mode Mode, n int)
	CacheMiss(mode Mode, n int)
	CacheWrite(mode Mode, n int)
	// Query is called once per database round trip; err is nil on success.
	Query(op string, err error)
}

type NopMetrics struct{}

func (NopMetrics) CacheHit(Mode, int)   {}
func (NopMetrics) CacheMiss(Mode, int)  {}
func (NopMetrics) CacheWrite(Mode, int) {}
func (NopMetrics) Query(string, error)  {}
