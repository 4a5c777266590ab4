package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(buildInfo) }

var buildInfo = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "membership_bot_build_info",
		Help: "Always 1; labels carry the running version and commit.",
	},
	[]string{"version", "commit"},
)

// SetBuildInfo is called once from main with the ldflags-provided values.
func SetBuildInfo(version, commit string) {
	buildInfo.WithLabelValues(version, commit).Set(1)
}
