// This code was originally written by Rene Zbinden and modified by Vladimir Konovalov.
// Copied from https://github.com/766b/chi-prometheus and further adapted.

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	chi_middleware "github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var defaultBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 15, 20, 30}

const (
	reqsName    = "requests_total"
	latencyName = "request_duration_seconds"
)

var (
	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: reqsName,
			Help: "How many HTTP requests processed, partitioned by status code, method and HTTP path.",
		},
		[]string{"service", "code", "method", "path"},
	)
	latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    latencyName,
			Help:    "How long it took to process the request, partitioned by status code, method and HTTP path.",
			Buckets: defaultBuckets,
		},
		[]string{"service", "code", "method", "path"},
	)
)

func init() {
	prometheus.MustRegister(requests, latency)
}

// Prometheus counts requests and their latency, partitioned by status code, method and route pattern.
type Prometheus struct {
	service string
}

func PrometheusMiddleware(service string) *Prometheus {
	return &Prometheus{service: service}
}

// Initialize pre-populates the metrics for a route so that rates are defined before the first request.
func (m *Prometheus) Initialize(path, method string, code int) {
	requests.WithLabelValues(m.service, strconv.Itoa(code), method, path)
}

func (m *Prometheus) Handler() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chi_middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && len(rctx.RoutePattern()) > 0 {
				path = rctx.RoutePattern()
			}
			code := strconv.Itoa(ww.Status())
			requests.WithLabelValues(m.service, code, r.Method, path).Inc()
			latency.WithLabelValues(m.service, code, r.Method, path).Observe(time.Since(start).Seconds())
		}
		return http.HandlerFunc(fn)
	}
}
