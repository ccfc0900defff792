package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(generationJobsTotal, generationPollErrorsTotal, generationPollAttempts)
}

var (
	generationJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_total",
			Help: "Generation jobs that reached a terminal state, by provider and status.",
		},
		[]string{"provider", "status"},
	)

	generationPollErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_poll_errors_total",
			Help: "Transient errors absorbed while polling a generation job.",
		},
		[]string{"provider"},
	)

	generationPollAttempts = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_poll_attempts",
			Help:    "Poll attempts needed before a generation job reached a terminal state.",
			Buckets: []float64{1, 5, 10, 20, 40, 80, 120, 160, 200, 240},
		},
	)
)

func IncGenerationJob(provider, status string) {
	generationJobsTotal.WithLabelValues(norm(provider), norm(status)).Inc()
}

func IncGenerationPollError(provider string) {
	generationPollErrorsTotal.WithLabelValues(norm(provider)).Inc()
}

func ObserveGenerationAttempts(n int) {
	generationPollAttempts.Observe(float64(n))
}
