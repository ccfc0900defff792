package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(storeOpsTotal, storePoolConns) }

var (
	storeOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduled_store_ops_total",
			Help: "Scheduled queue store operations by backend, operation and result.",
		},
		[]string{"backend", "op", "result"},
	)

	storePoolConns = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduled_store_pool_connections",
			Help: "Connections of the SQL scheduled queue store by state.",
		},
		[]string{"state"}, // total, idle, acquired
	)
)

// IncStoreOp counts one queue store call; a nil err is recorded as ok.
func IncStoreOp(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	storeOpsTotal.WithLabelValues(norm(backend), norm(op), result).Inc()
}

func SetStorePoolConns(total, idle, acquired int32) {
	storePoolConns.WithLabelValues("total").Set(float64(total))
	storePoolConns.WithLabelValues("idle").Set(float64(idle))
	storePoolConns.WithLabelValues("acquired").Set(float64(acquired))
}
