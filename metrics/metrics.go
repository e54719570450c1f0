// sqadmin/metrics/metrics.go

// Package metrics exposes the gateway's Prometheus instrumentation: one
// counter/histogram pair per upstream operation and a request counter for the
// gateway's own HTTP surface.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqadmin_upstream_requests_total",
		Help: "Upstream platform API calls by operation and outcome.",
	}, []string{"op", "outcome"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sqadmin_upstream_request_seconds",
		Help:    "Upstream platform API call latency by operation.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sqadmin_http_requests_total",
		Help: "Gateway HTTP responses by status class.",
	}, []string{"status"})
)

// ObserveUpstream records one upstream call.
func ObserveUpstream(op, outcome string, d time.Duration) {
	upstreamRequests.WithLabelValues(op, outcome).Inc()
	upstreamDuration.WithLabelValues(op).Observe(d.Seconds())
}

// ObserveHTTP records one gateway response.
func ObserveHTTP(status int) {
	httpRequests.WithLabelValues(strconv.Itoa(status / 100 * 100)).Inc()
}

// Handler serves the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
