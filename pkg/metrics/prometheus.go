// Package metrics exports querycache counters to Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/goliatone/go-query-cache/querycache"
)

var _ querycache.Metrics = (*Prometheus)(nil)

// Prometheus implements querycache.Metrics with counters labelled by read
// mode ("simple", "row", "list") or database operation.
type Prometheus struct {
	hits     *prometheus.CounterVec
	misses   *prometheus.CounterVec
	writes   *prometheus.CounterVec
	queries  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Prometheus{
		hits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "querycache_cache_hits_total",
			Help:      "Total number of cache entries served, by read mode",
		}, []string{"mode"}),
		misses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "querycache_cache_misses_total",
			Help:      "Total number of cache entries not found, by read mode",
		}, []string{"mode"}),
		writes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "querycache_cache_writes_total",
			Help:      "Total number of cache entries written, by read mode",
		}, []string{"mode"}),
		queries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "querycache_db_queries_total",
			Help:      "Total number of database round trips, by operation",
		}, []string{"operation"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "querycache_db_errors_total",
			Help:      "Total number of failed database round trips, by operation",
		}, []string{"operation"}),
	}
}

func (p *Prometheus) CacheHit(mode querycache.Mode, n int) {
	p.hits.WithLabelValues(mode.String()).Add(float64(n))
}

func (p *Prometheus) CacheMiss(mode querycache.Mode, n int) {
	p.misses.WithLabelValues(mode.String()).Add(float64(n))
}

func (p *Prometheus) CacheWrite(mode querycache.Mode, n int) {
	p.writes.WithLabelValues(mode.String()).Add(float64(n))
}

func (p *Prometheus) Query(op string, err error) {
	p.queries.WithLabelValues(op).Inc()
	if err != nil {
		p.failures.WithLabelValues(op).Inc()
	}
}
