package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(uploadsTotal, uploadDuration, processingWaitTotal)
}

var (
	uploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Upload pipeline runs by host and result kind.",
		},
		[]string{"host", "result"},
	)

	uploadDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "upload_duration_seconds",
			Help:    "Wall time of the chunked transfer step.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"host"},
	)

	processingWaitTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "processing_wait_total",
			Help: "Post-upload processing waits by outcome (confirmed, unconfirmed, failed).",
		},
		[]string{"result"},
	)
)

func IncUpload(host, result string) {
	uploadsTotal.WithLabelValues(norm(host), norm(result)).Inc()
}

func ObserveUploadDuration(host string, d time.Duration) {
	uploadDuration.WithLabelValues(norm(host)).Observe(d.Seconds())
}

func IncProcessingWait(result string) {
	processingWaitTotal.WithLabelValues(norm(result)).Inc()
}
