// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	Registry *prometheus.Registry

	CacheRequests    *prometheus.CounterVec
	UpstreamFailures prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	CachePurges      prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "updater",
			Name:      "cache_requests_total",
			Help:      "Cache lookups by result (hit, miss).",
		}, []string{"result"}),
		UpstreamFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "updater",
			Name:      "upstream_failures_total",
			Help:      "Failed change-history requests.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "updater",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		CachePurges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "updater",
			Name:      "cache_purges_total",
			Help:      "Explicit cache purges.",
		}),
	}

	reg.MustRegister(
		m.CacheRequests,
		m.UpstreamFailures,
		m.HTTPRequests,
		m.CachePurges,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// CacheResult records a cache lookup.
func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheRequests.WithLabelValues(result).Inc()
}

func (m *Metrics) UpstreamFailure() {
	if m == nil {
		return
	}
	m.UpstreamFailures.Inc()
}

func (m *Metrics) Purge() {
	if m == nil {
		return
	}
	m.CachePurges.Inc()
}
