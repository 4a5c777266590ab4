package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		membershipsExpiredTotal,
		sweepFailuresTotal,
		sweepDurationSeconds,
	)
}

var (
	membershipsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "memberships_expired_total",
			Help: "Total number of memberships downgraded by the expiry sweeper.",
		},
	)

	sweepFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sweep_failures_total",
			Help: "Per-user downgrade failures and aborted sweeps.",
		},
	)

	sweepDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Duration of one expiry sweep.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		},
	)
)

func IncMembershipsExpired(count int) {
	membershipsExpiredTotal.Add(float64(count))
}

func IncSweepFailures(count int) {
	sweepFailuresTotal.Add(float64(count))
}

func ObserveSweepDuration(seconds float64) {
	sweepDurationSeconds.Observe(seconds)
}
