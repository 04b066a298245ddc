package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	UpstreamRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elecciones",
		Name:      "upstream_requests_total",
		Help:      "Requests sent to the results API, by outcome kind.",
	}, []string{"outcome"})
	UpstreamLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "elecciones",
		Name:      "upstream_request_seconds",
		Help:      "Latency of results API requests.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
	})
	DistrictFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elecciones",
		Name:      "district_failures_total",
		Help:      "Districts recorded as failed during map aggregation.",
	}, []string{"distrito"})
	Aggregations = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "elecciones",
		Name:      "aggregations_total",
		Help:      "National map aggregations run.",
	})
	AggregationDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "elecciones",
		Name:      "aggregation_seconds",
		Help:      "Wall time of a full district fan-out.",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 9),
	})
	CacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elecciones",
		Name:      "cache_lookups_total",
		Help:      "Response cache lookups, by result (hit or miss).",
	}, []string{"result"})
	Exports = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "elecciones",
		Name:      "exports_total",
		Help:      "Documents exported, by format.",
	}, []string{"format"})
)

var initOnce sync.Once

// Init registers collectors; safe to call more than once.
func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(UpstreamRequests, UpstreamLatency, DistrictFailures,
			Aggregations, AggregationDuration, CacheLookups, Exports)
	})
}

// Handler exposes the default registry.
func Handler() http.Handler { return promhttp.Handler() }

// Serve starts a /metrics server on the given addr (e.g., ":9090"). Non-blocking when run in goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	return http.ListenAndServe(addr, mux)
}
