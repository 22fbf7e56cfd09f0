// Package metrics provides Prometheus instrumentation for fairvalue.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SnapshotCacheTotal counts snapshot cache lookups by result (hit, miss).
	SnapshotCacheTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairvalue_snapshot_cache_total",
		Help: "Snapshot cache lookups",
	}, []string{"result"})

	// SnapshotBuildDuration tracks how long a snapshot takes to build on a miss.
	SnapshotBuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fairvalue_snapshot_build_seconds",
		Help:    "Snapshot build latency in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// UpstreamErrorsTotal counts failed data source calls by operation.
	UpstreamErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairvalue_upstream_errors_total",
		Help: "Data source call failures",
	}, []string{"call"})

	// FXFallbackTotal counts FX lookups that fell back to a rate of 1.0.
	FXFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairvalue_fx_fallback_total",
		Help: "FX lookups that defaulted to 1.0",
	})

	// ValuationsTotal counts valuations by mode (dcf, ddm) and outcome (ok,
	// invalid, error).
	ValuationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairvalue_valuations_total",
		Help: "Valuations performed",
	}, []string{"mode", "outcome"})

	// RunStoreErrorsTotal counts valuation runs that could not be recorded.
	RunStoreErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fairvalue_run_store_errors_total",
		Help: "Failed valuation run saves",
	})

	// HTTPRequestsTotal counts HTTP requests by method, route and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fairvalue_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and route.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fairvalue_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request count and latency. The chi route pattern is
// used as the path label so ticker path segments do not explode cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		path := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if pattern := rc.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the response status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
