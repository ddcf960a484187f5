// Package metrics exposes Prometheus collectors for ingestion, provider calls and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketdata"

// Metrics 指標の集合。レジストリはインスタンスごとに独立しています。
type Metrics struct {
	registry *prometheus.Registry

	BarsFetched    *prometheus.CounterVec
	BarsStored     *prometheus.CounterVec
	ProviderErrors *prometheus.CounterVec
	ChainFailures  *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
}

// New creates and registers every collector, including the Go runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		BarsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bars_fetched_total",
			Help:      "Bars returned by the market data provider",
		}, []string{"symbol"}),
		BarsStored: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bars_stored_total",
			Help:      "Bars newly inserted into the store",
		}, []string{"symbol"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_errors_total",
			Help:      "Failed provider calls by operation",
		}, []string{"op"}),
		ChainFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chain_expiration_failures_total",
			Help:      "Option chain expirations skipped because the provider failed",
		}, []string{"symbol"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.BarsFetched,
		m.BarsStored,
		m.ProviderErrors,
		m.ChainFailures,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveIngest implements usecase.Recorder.
func (m *Metrics) ObserveIngest(symbol string, fetched, stored int) {
	m.BarsFetched.WithLabelValues(symbol).Add(float64(fetched))
	m.BarsStored.WithLabelValues(symbol).Add(float64(stored))
}

// ObserveProviderError implements usecase.Recorder.
func (m *Metrics) ObserveProviderError(op string) {
	m.ProviderErrors.WithLabelValues(op).Inc()
}

// ObserveChainFailure implements usecase.Recorder.
func (m *Metrics) ObserveChainFailure(symbol string) {
	m.ChainFailures.WithLabelValues(symbol).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records request counts and latency per matched route.
// Unmatched paths are grouped under "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
