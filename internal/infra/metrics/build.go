package metrics

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "build_info",
		Help: "Always 1; labels carry the binary version and the selected backends.",
	},
	[]string{"version", "commit", "go_version", "provider", "host", "queue"},
)

// SetBuildInfo publishes the running configuration once at startup.
func SetBuildInfo(version, commit, provider, host, queue string) {
	buildInfo.WithLabelValues(version, commit, runtime.Version(), norm(provider), norm(host), norm(queue)).Set(1)
}
