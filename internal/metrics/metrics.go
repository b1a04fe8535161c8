// Package metrics exposes Prometheus counters for imports and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/memberdesk/internal/core"
)

const namespace = "memberdesk"

// Recorder owns a registry and the collectors registered on it.
type Recorder struct {
	registry *prometheus.Registry

	importBatches  *prometheus.CounterVec
	importRows     *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

var _ core.ImportObserver = (*Recorder)(nil)

// New creates a Recorder with Go runtime and process collectors attached.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		importBatches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_batches_total",
			Help:      "Completed import batches by mode.",
		}, []string{"mode"}),
		importRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "import_rows_total",
			Help:      "Imported rows by mode and outcome.",
		}, []string{"mode", "outcome"}),
		importDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Wall time of import batches.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"mode"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}

// ObserveImport records the outcome of one batch.
func (r *Recorder) ObserveImport(mode core.ImportMode, res core.ImportResult, elapsed time.Duration) {
	m := string(mode)
	skipped := len(res.Errors) - res.Failed
	if skipped < 0 {
		skipped = 0
	}

	r.importBatches.WithLabelValues(m).Inc()
	r.importRows.WithLabelValues(m, "created").Add(float64(res.Created))
	r.importRows.WithLabelValues(m, "updated").Add(float64(res.Updated))
	r.importRows.WithLabelValues(m, "failed").Add(float64(res.Failed))
	r.importRows.WithLabelValues(m, "skipped").Add(float64(skipped))
	r.importDuration.WithLabelValues(m).Observe(elapsed.Seconds())
}

// Middleware counts requests by chi route pattern so IDs in paths do not
// explode label cardinality.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rc := chi.RouteContext(req.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
