// Package metrics exposes Prometheus collectors for the HTTP layer, graph
// assembly, and the snapshot cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all collectors for the application.
type Registry struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	GraphBuildDuration *prometheus.HistogramVec
	GraphNodes         *prometheus.GaugeVec
	GraphEdges         *prometheus.GaugeVec

	CacheLookupsTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all collectors initialized.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.HTTPRequestsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "framl_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	r.HTTPRequestDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framl_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	r.GraphBuildDuration = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "framl_graph_build_duration_seconds",
			Help:    "Time spent assembling graph views",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)
	r.GraphNodes = promauto.With(reg).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framl_graph_nodes",
			Help: "Node count of the most recently assembled view",
		},
		[]string{"view"},
	)
	r.GraphEdges = promauto.With(reg).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "framl_graph_edges",
			Help: "Edge count of the most recently assembled view",
		},
		[]string{"view"},
	)

	r.CacheLookupsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "framl_cache_lookups_total",
			Help: "Graph cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	return r
}

// Handler serves the collected metrics in Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func (r *Registry) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveGraphBuild records one graph assembly.
func (r *Registry) ObserveGraphBuild(view string, duration time.Duration, nodes, edges int) {
	r.GraphBuildDuration.WithLabelValues(view).Observe(duration.Seconds())
	r.GraphNodes.WithLabelValues(view).Set(float64(nodes))
	r.GraphEdges.WithLabelValues(view).Set(float64(edges))
}

// ObserveCacheLookup records a cache hit or miss.
func (r *Registry) ObserveCacheLookup(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	r.CacheLookupsTotal.WithLabelValues(outcome).Inc()
}
