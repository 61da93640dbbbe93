package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/clinicdesk/identity/internal/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "identity_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	authOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "identity_auth_outcomes_total",
			Help: "Outcomes of account flows",
		},
		[]string{"flow", "outcome"},
	)

	rateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "identity_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)

// metrics records request count and latency per route pattern.
func metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := routePattern(r)
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(statusOf(ww))).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// routePattern keeps label cardinality bounded: reset tokens in the path
// collapse into {token}.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

func statusOf(ww middleware.WrapResponseWriter) int {
	if s := ww.Status(); s != 0 {
		return s
	}
	return http.StatusOK
}

func recordOutcome(flow string, err error) {
	authOutcomesTotal.WithLabelValues(flow, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, common.ErrorValidation):
		return "invalid_input"
	case errors.Is(err, common.ErrorDuplicateAccount):
		return "duplicate"
	case errors.Is(err, common.ErrorInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, common.ErrorInvalidOrExpiredCode), errors.Is(err, common.ErrorInvalidOrExpiredToken):
		return "invalid_token"
	case errors.Is(err, common.ErrorUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}
