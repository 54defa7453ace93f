package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/JaimeStill/scribe/pkg/metrics"
)

// Instrument returns middleware that counts requests and observes their
// latency. Requests are labelled by method, status and the matched route
// pattern, so path parameters do not inflate cardinality.
func Instrument(reg *metrics.Registry) func(http.Handler) http.Handler {
	requests := reg.Counter("http_requests_total", "HTTP requests served.", "method", "route", "status")
	latency := reg.Histogram("http_request_duration_seconds", "HTTP request latency.", nil, "method", "route")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := capture(w)
			next.ServeHTTP(sw, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			requests.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
			latency.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
		})
	}
}
