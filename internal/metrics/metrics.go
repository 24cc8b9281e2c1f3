// Package metrics exposes Prometheus collectors for response provenance and
// inference server latency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	responsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "govassist",
		Name:      "responses_total",
		Help:      "Replies served, by endpoint and provenance (lm-studio, mock, mock-timeout).",
	}, []string{"endpoint", "source"})

	upstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "govassist",
		Name:      "upstream_request_duration_seconds",
		Help:      "Latency of calls to the LM Studio server.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"operation", "outcome"})
)

func RecordResponse(endpoint, source string) {
	responsesTotal.WithLabelValues(endpoint, source).Inc()
}

func ObserveUpstream(operation, outcome string, d time.Duration) {
	upstreamDuration.WithLabelValues(operation, outcome).Observe(d.Seconds())
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
