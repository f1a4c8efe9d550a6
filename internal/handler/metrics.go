package handler

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// Metrics holds all Prometheus collectors for the review backend. The collectors
// exist from package init so handlers can record unconditionally; InitMetrics
// registers them.
var Metrics = struct {
	RequestDuration    *prometheus.HistogramVec
	RequestsInFlight   prometheus.Gauge
	SimulationsTotal   *prometheus.CounterVec
	InterpretTotal     *prometheus.CounterVec
	DetectionDuration  prometheus.Histogram
	EngineErrors       *prometheus.CounterVec
	CorrectionsTotal   *prometheus.CounterVec
	FalsePositiveMarks *prometheus.CounterVec
	CacheHits          prometheus.Counter
	CacheMisses        prometheus.Counter
}{
	RequestDuration: prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scriptreview_api_request_duration_seconds",
			Help:    "HTTP request duration in seconds, by endpoint and method.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint", "method", "status"},
	),
	RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scriptreview_requests_in_flight",
		Help: "Number of HTTP requests currently being served.",
	}),
	SimulationsTotal: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptreview_simulations_total",
			Help: "What-if simulations completed, by verdict.",
		},
		[]string{"verdict", "partial"},
	),
	InterpretTotal: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptreview_interpret_total",
			Help: "Modification requests interpreted, by outcome.",
		},
		[]string{"outcome"},
	),
	DetectionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scriptreview_detection_pass_duration_seconds",
		Help:    "Duration of full detection passes, engine call included.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
	}),
	EngineErrors: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptreview_engine_errors_total",
			Help: "Requests that failed because the rating engine was unavailable, by operation.",
		},
		[]string{"operation"},
	),
	CorrectionsTotal: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptreview_corrections_total",
			Help: "Reviewer corrections recorded, by type.",
		},
		[]string{"type"},
	),
	FalsePositiveMarks: prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scriptreview_false_positive_marks_total",
			Help: "Detection false-positive flag changes, by new value.",
		},
		[]string{"value"},
	),
	CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scriptreview_cache_hits_total",
		Help: "Total simulation cache hits.",
	}),
	CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scriptreview_cache_misses_total",
		Help: "Total simulation cache misses.",
	}),
}

var registerOnce sync.Once

// InitMetrics registers all Prometheus metrics. Safe to call more than once.
func InitMetrics(pool *pgxpool.Pool) {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			Metrics.RequestDuration,
			Metrics.RequestsInFlight,
			Metrics.SimulationsTotal,
			Metrics.InterpretTotal,
			Metrics.DetectionDuration,
			Metrics.EngineErrors,
			Metrics.CorrectionsTotal,
			Metrics.FalsePositiveMarks,
			Metrics.CacheHits,
			Metrics.CacheMisses,
		)

		// DB pool gauges read live stats from pgxpool
		if pool == nil {
			return
		}
		prometheus.MustRegister(
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "scriptreview_db_connection_pool_active",
					Help: "Number of active database connections.",
				},
				func() float64 { return float64(pool.Stat().AcquiredConns()) },
			),
			prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: "scriptreview_db_connection_pool_idle",
					Help: "Number of idle database connections.",
				},
				func() float64 { return float64(pool.Stat().IdleConns()) },
			),
		)
	})
}

// MetricsMiddleware records request duration and in-flight count for Prometheus.
func MetricsMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		// Don't instrument the /metrics endpoint itself
		if c.Path() == "/metrics" {
			return c.Next()
		}

		// Copy path and method into owned strings BEFORE c.Next(); Fiber
		// returns slices backed by the fasthttp buffer which can be reused.
		path := string([]byte(c.Path()))
		method := string([]byte(c.Method()))
		endpoint := sanitizeEndpoint(path)

		Metrics.RequestsInFlight.Inc()
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Response().StatusCode())

		Metrics.RequestDuration.WithLabelValues(endpoint, method, status).Observe(duration)
		Metrics.RequestsInFlight.Dec()

		return err
	}
}

// sanitizeEndpoint replaces numeric path segments so label cardinality stays bounded.
func sanitizeEndpoint(path string) string {
	parts := strings.Split(path, "/")
	for i, p := range parts {
		if p == "" {
			continue
		}
		if _, err := strconv.ParseInt(p, 10, 64); err == nil {
			parts[i] = ":id"
		}
	}
	return strings.Join(parts, "/")
}

// MetricsHandler serves the Prometheus /metrics endpoint via Fiber.
func MetricsHandler() fiber.Handler {
	httpHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c fiber.Ctx) error {
		httpHandler(c.RequestCtx())
		return nil
	}
}
