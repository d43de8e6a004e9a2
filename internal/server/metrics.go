package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Run outcomes recorded by optviewer_runs_finished_total
const (
	outcomeCompleted    = "completed"
	outcomeDisconnected = "disconnected"
	outcomeSetupFailed  = "setup_failed"
	outcomeWriteFailed  = "write_failed"
)

// Metrics owns a private Prometheus registry so that several servers can
// coexist in one process
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	runsStarted   *prometheus.CounterVec
	runsFinished  *prometheus.CounterVec
	activeStreams prometheus.Gauge
	runDuration   prometheus.Histogram
	cacheLookups  *prometheus.CounterVec
}

// NewMetrics registers every collector
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optviewer_http_requests_total",
			Help: "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		runsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optviewer_runs_started_total",
			Help: "Optimization runs started by algorithm and function.",
		}, []string{"algorithm", "function"}),
		runsFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optviewer_runs_finished_total",
			Help: "Stream requests by outcome.",
		}, []string{"outcome"}),
		activeStreams: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "optviewer_active_streams",
			Help: "Open SSE streams.",
		}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "optviewer_run_duration_seconds",
			Help:    "Wall time of streamed runs.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "optviewer_cache_lookups_total",
			Help: "Surface and preview cache lookups by result.",
		}, []string{"kind", "result"}),
	}

	m.registry.MustRegister(
		m.requests,
		m.runsStarted,
		m.runsFinished,
		m.activeStreams,
		m.runDuration,
		m.cacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// observeRequest buckets unknown paths together to bound label cardinality
func (m *Metrics) observeRequest(path string, status int) {
	route := path
	switch {
	case strings.HasPrefix(path, "/assets/"):
		route = "/assets/"
	case path == "/", path == "/config", path == "/surface", path == "/preview",
		path == "/stream", path == "/runs", path == "/metrics", path == "/healthz":
	default:
		route = "other"
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *Metrics) cacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(kind, result).Inc()
}
