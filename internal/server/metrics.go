package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "docscan"

// Values of the "outcome" label on scan counters.
const (
	outcomeFound    = "found"
	outcomeNotFound = "not_found"
	outcomeError    = "error"
)

func counterVec(subsystem, name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help,
	}, labels)
}

func histogram(subsystem, name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: metricsNamespace, Subsystem: subsystem, Name: name, Help: help, Buckets: buckets,
	}
}

var (
	httpRequestsTotal = counterVec("http", "requests_total",
		"HTTP requests by method, route and status code.", "method", "endpoint", "status")
	httpRequestDuration = promauto.NewHistogramVec(histogram("http", "request_duration_seconds",
		"HTTP request latency.", prometheus.DefBuckets), []string{"method", "endpoint"})

	// type is detect, scan, pdf, batch or websocket_<kind>.
	scanRequestsTotal = counterVec("scan", "requests_total",
		"Detect and scan requests by endpoint type and outcome.", "type", "outcome")
	scanProcessingDuration = promauto.NewHistogramVec(histogram("scan", "processing_duration_seconds",
		"Time spent inside the detection and rectification pipeline.",
		prometheus.ExponentialBuckets(0.05, 2.2, 10)), []string{"type"})

	documentAreaRatio = promauto.NewHistogram(histogram("document", "area_ratio",
		"Fraction of the photo covered by the detected page.", prometheus.LinearBuckets(0.1, 0.1, 10)))
	uploadSizeBytes = promauto.NewHistogram(histogram("upload", "size_bytes",
		"Size of uploaded photos and PDFs.", prometheus.ExponentialBuckets(4<<10, 4, 8)))

	// type is minute, hour, requests or data.
	rateLimitHits = counterVec("rate_limit", "hits_total", "Requests rejected by the rate limiter.", "type")

	websocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace, Subsystem: "websocket", Name: "active_connections",
		Help: "Open WebSocket scan sessions.",
	})
	websocketMessagesTotal = counterVec("websocket", "messages_total",
		"WebSocket frames by direction (sent, received).", "direction")
)

// countScan records one pipeline run of the given endpoint type.
func countScan(kind, outcome string, took time.Duration) {
	scanRequestsTotal.WithLabelValues(kind, outcome).Inc()
	scanProcessingDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func metricsHandler() http.Handler {
	return promhttp.Handler()
}
