// Package metrics provides prometheus collectors for the upload pipeline
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Batches partitioned by how the run ended
	pipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedrop_pipeline_runs_total",
			Help: "Total number of upload pipeline runs",
		},
		[]string{"result"},
	)

	pipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "imagedrop_pipeline_duration_seconds",
			Help:    "Upload pipeline run latencies in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	sanitizeFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedrop_sanitize_failures_total",
			Help: "Images that could not be re-encoded",
		},
		[]string{"content_type"},
	)

	// Upload attempts per endpoint scheme, not per host, to keep cardinality low
	endpointUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "imagedrop_endpoint_uploads_total",
			Help: "Upload attempts partitioned by endpoint scheme and outcome",
		},
		[]string{"scheme", "outcome"},
	)

	inFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "imagedrop_pipeline_inflight",
			Help: "Number of upload pipeline runs currently executing",
		},
	)
)

// RunStarted returns a func that must be called with the run result label.
func RunStarted() func(result string) {
	start := time.Now()
	inFlight.Inc()
	return func(result string) {
		inFlight.Dec()
		pipelineRuns.WithLabelValues(result).Inc()
		pipelineDuration.WithLabelValues(result).Observe(time.Since(start).Seconds())
	}
}

func SanitizeFailed(contentType string) {
	sanitizeFailures.WithLabelValues(contentType).Inc()
}

func EndpointUpload(scheme string, ok bool) {
	outcome := "error"
	if ok {
		outcome = "ok"
	}
	endpointUploads.WithLabelValues(scheme, outcome).Inc()
}
