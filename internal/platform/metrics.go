package platform

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	DocumentOps       *prometheus.CounterVec
	EditorSessions    prometheus.Gauge

	metricsOnce sync.Once
)

// InitMetrics registers the collectors. Calling it again is a no-op.
func InitMetrics() {
	metricsOnce.Do(func() {
		HTTPRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "configdesk",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed, labeled by method, route and status.",
		}, []string{"method", "route", "status"})

		HTTPDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "configdesk",
			Name:      "http_request_duration_seconds",
			Help:      "Histogram of request durations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"})

		DocumentOps = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "configdesk",
			Name:      "document_operations_total",
			Help:      "Document loads and replacements, labeled by operation and result.",
		}, []string{"op", "result"})

		EditorSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "configdesk",
			Name:      "editor_sessions",
			Help:      "Live editor sessions.",
		})

		prometheus.MustRegister(HTTPRequestsTotal, HTTPDuration, DocumentOps, EditorSessions)
	})
}

func countDocumentOp(op string, err error) {
	if DocumentOps == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	DocumentOps.WithLabelValues(op, result).Inc()
}
