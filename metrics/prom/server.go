package prom

import "github.com/prometheus/client_golang/prometheus"

// ServerAdapter exports request-serving gauges separate from the cache's
// own hit/miss/eviction metrics: total requests handled, requests served
// from cache, and requests served via sendfile(2) zero-copy transfer.
// Values are pulled from a snapshot function on every Prometheus scrape.
type ServerAdapter struct {
	totalRequests prometheus.GaugeFunc
	cacheHits     prometheus.GaugeFunc
	sendfileUsed  prometheus.GaugeFunc
}

// NewServerAdapter constructs a Prometheus adapter for server-level
// counters. snapshot is called on every scrape. reg defaults to
// prometheus.DefaultRegisterer when nil.
func NewServerAdapter(reg prometheus.Registerer, ns, sub string, constLabels prometheus.Labels, snapshot func() (total, hits, sendfile uint64)) *ServerAdapter {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	a := &ServerAdapter{
		totalRequests: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "requests_total",
			Help:        "Total HTTP requests handled",
			ConstLabels: constLabels,
		}, func() float64 { t, _, _ := snapshot(); return float64(t) }),
		cacheHits: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "requests_cache_hits_total",
			Help:        "Requests served from the in-memory cache",
			ConstLabels: constLabels,
		}, func() float64 { _, h, _ := snapshot(); return float64(h) }),
		sendfileUsed: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace:   ns,
			Subsystem:   sub,
			Name:        "requests_sendfile_total",
			Help:        "Requests served via sendfile(2) zero-copy transfer",
			ConstLabels: constLabels,
		}, func() float64 { _, _, s := snapshot(); return float64(s) }),
	}
	reg.MustRegister(a.totalRequests, a.cacheHits, a.sendfileUsed)
	return a
}
