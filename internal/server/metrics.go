package server

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/nodeplot/pkg/observability"
)

// Metrics holds the server's Prometheus collectors. It implements the
// observability hook interfaces so library packages report into it.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LoweringsTotal       *prometheus.CounterVec
	LoweringDuration     prometheus.Histogram
	DocumentDescriptors  prometheus.Gauge
	UnconnectedRoots     prometheus.Gauge
	FeedbackRecords      *prometheus.CounterVec
	StaleBatchesTotal    prometheus.Counter
	EngineRequestsTotal  *prometheus.CounterVec
	EngineRequestBytes   prometheus.Histogram
	EngineDuration       prometheus.Histogram
	CacheOperationsTotal *prometheus.CounterVec

	GraphNodes prometheus.Gauge
	GraphLinks prometheus.Gauge
}

var (
	_ observability.LoweringHooks = (*Metrics)(nil)
	_ observability.FeedbackHooks = (*Metrics)(nil)
	_ observability.EngineHooks   = (*Metrics)(nil)
	_ observability.CacheHooks    = (*Metrics)(nil)
)

// NewMetrics creates a metrics set on its own registry.
func NewMetrics() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}
	f := promauto.With(m.registry)

	m.HTTPRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeplot_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	m.HTTPRequestDuration = f.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nodeplot_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	m.LoweringsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeplot_lowerings_total",
			Help: "Total number of graph lowerings",
		},
		[]string{"result"},
	)
	m.LoweringDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodeplot_lowering_duration_seconds",
		Help:    "Time spent lowering the graph into a document",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})
	m.DocumentDescriptors = f.NewGauge(prometheus.GaugeOpts{
		Name: "nodeplot_document_descriptors",
		Help: "Descriptors in the last lowered document",
	})
	m.UnconnectedRoots = f.NewGauge(prometheus.GaugeOpts{
		Name: "nodeplot_document_unconnected",
		Help: "Nodes with unconnected inputs in the last lowered document",
	})

	m.FeedbackRecords = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeplot_feedback_records_total",
			Help: "Feedback records applied to the graph",
		},
		[]string{"kind"},
	)
	m.StaleBatchesTotal = f.NewCounter(prometheus.CounterOpts{
		Name: "nodeplot_feedback_stale_batches_total",
		Help: "Feedback batches dropped because a newer request superseded them",
	})

	m.EngineRequestsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeplot_engine_requests_total",
			Help: "Compute engine round trips",
		},
		[]string{"result"},
	)
	m.EngineRequestBytes = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodeplot_engine_request_bytes",
		Help:    "Size of documents sent to the compute engine",
		Buckets: prometheus.ExponentialBuckets(256, 4, 8),
	})
	m.EngineDuration = f.NewHistogram(prometheus.HistogramOpts{
		Name:    "nodeplot_engine_duration_seconds",
		Help:    "Compute engine round trip latency",
		Buckets: prometheus.DefBuckets,
	})

	m.CacheOperationsTotal = f.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nodeplot_cache_operations_total",
			Help: "Document cache operations",
		},
		[]string{"operation", "key_type"},
	)

	m.GraphNodes = f.NewGauge(prometheus.GaugeOpts{
		Name: "nodeplot_graph_nodes",
		Help: "Nodes in the live graph",
	})
	m.GraphLinks = f.NewGauge(prometheus.GaugeOpts{
		Name: "nodeplot_graph_links",
		Help: "Links in the live graph",
	})

	return m
}

// Registry returns the underlying Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Install registers m as the process-wide observability hooks.
func (m *Metrics) Install() {
	observability.SetLoweringHooks(m)
	observability.SetFeedbackHooks(m)
	observability.SetEngineHooks(m)
	observability.SetCacheHooks(m)
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordGraphSize updates the live graph gauges.
func (m *Metrics) RecordGraphSize(nodes, links int) {
	m.GraphNodes.Set(float64(nodes))
	m.GraphLinks.Set(float64(links))
}

func (m *Metrics) OnLowerStart(context.Context, int) {}

func (m *Metrics) OnLowerComplete(_ context.Context, descriptors, unconnected int, duration time.Duration, err error) {
	m.LoweringDuration.Observe(duration.Seconds())
	if err != nil {
		m.LoweringsTotal.WithLabelValues("error").Inc()
		return
	}
	m.LoweringsTotal.WithLabelValues("ok").Inc()
	m.DocumentDescriptors.Set(float64(descriptors))
	m.UnconnectedRoots.Set(float64(unconnected))
}

func (m *Metrics) OnFeedbackApplied(_ context.Context, errors, warnings, dropped int) {
	m.FeedbackRecords.WithLabelValues("error").Add(float64(errors))
	m.FeedbackRecords.WithLabelValues("warning").Add(float64(warnings))
	m.FeedbackRecords.WithLabelValues("dropped").Add(float64(dropped))
}

func (m *Metrics) OnStaleBatch(context.Context, string) {
	m.StaleBatchesTotal.Inc()
}

func (m *Metrics) OnRequest(_ context.Context, _ string, size int) {
	m.EngineRequestBytes.Observe(float64(size))
}

func (m *Metrics) OnResponse(_ context.Context, _ string, _ int, duration time.Duration) {
	m.EngineRequestsTotal.WithLabelValues("ok").Inc()
	m.EngineDuration.Observe(duration.Seconds())
}

func (m *Metrics) OnError(context.Context, string, error) {
	m.EngineRequestsTotal.WithLabelValues("error").Inc()
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.CacheOperationsTotal.WithLabelValues("hit", keyType).Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.CacheOperationsTotal.WithLabelValues("miss", keyType).Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, _ int) {
	m.CacheOperationsTotal.WithLabelValues("set", keyType).Inc()
}
