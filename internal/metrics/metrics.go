// Package metrics registers the Prometheus collectors of the organizer and
// the HTTP middleware that feeds the request metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Business metrics, updated from the ingestion pipeline and the organizer.
var (
	// FilesIngested counts files committed to the collection, by category.
	FilesIngested = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filehaven_files_ingested_total",
			Help: "Files committed to the collection, by category.",
		},
		[]string{"category"},
	)

	// FilesCurrent is the number of files currently held.
	FilesCurrent = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "filehaven_files_current",
			Help: "Files currently held in the collection.",
		},
	)

	// Batches counts ingestion batches by result (ok, failed).
	Batches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filehaven_batches_total",
			Help: "Ingestion batches by result.",
		},
		[]string{"result"},
	)

	// Previews counts preview generations by result (generated, none, failed).
	Previews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filehaven_previews_total",
			Help: "Preview generations by result.",
		},
		[]string{"result"},
	)

	// PreviewDuration observes how long preview tasks take.
	PreviewDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "filehaven_preview_duration_seconds",
			Help:    "Duration of preview tasks in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	PreviewCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filehaven_preview_cache_hits_total",
		Help: "Preview cache hits.",
	})
	PreviewCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "filehaven_preview_cache_misses_total",
		Help: "Preview cache misses.",
	})

	// PrefsSaveFailures counts preference writes that were dropped.
	PrefsSaveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filehaven_prefs_save_failures_total",
			Help: "Failed preference writes, by key.",
		},
		[]string{"key"},
	)
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "filehaven_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "filehaven_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Middleware records request count and duration. Routes are labelled by
// their chi pattern ("/files/{id}") to keep label cardinality bounded.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rw, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		httpRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}
