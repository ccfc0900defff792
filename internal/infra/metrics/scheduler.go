package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(scheduledUploadsTotal, scheduledQueueDepth, dispatcherTickPanics)
}

var (
	scheduledUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_uploads_total",
			Help: "Scheduled uploads that reached a terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	scheduledQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scheduled_queue_depth",
			Help: "Waiting items in the scheduled upload queue after the last tick.",
		},
	)

	dispatcherTickPanics = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatcher_tick_panics_total",
			Help: "Panics recovered inside the scheduled dispatcher loop.",
		},
	)
)

func IncScheduledUpload(status string) {
	scheduledUploadsTotal.WithLabelValues(norm(status)).Inc()
}

func SetScheduledQueueDepth(n int) {
	scheduledQueueDepth.Set(float64(n))
}

func IncDispatcherPanic() {
	dispatcherTickPanics.Inc()
}
