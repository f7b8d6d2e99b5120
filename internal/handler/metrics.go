package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the collectors exposed on /metrics. Each instance owns its
// registry, so tests can build as many as they like.
type Metrics struct {
	registry      *prometheus.Registry
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	gridQueries   *prometheus.CounterVec
	gridRowsTotal *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "configgrid_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "configgrid_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		gridQueries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "configgrid_grid_queries_total",
			Help: "Grid queries by resource and outcome",
		}, []string{"resource", "outcome"}),
		gridRowsTotal: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "configgrid_grid_filtered_rows",
			Help:    "Filtered row count reported per grid query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"resource"}),
	}
}

// Middleware records request counts and latency keyed by route pattern, not raw path.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.duration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) observeGrid(resource, outcome string, filtered int) {
	m.gridQueries.WithLabelValues(resource, outcome).Inc()
	if outcome == "ok" {
		m.gridRowsTotal.WithLabelValues(resource).Observe(float64(filtered))
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
