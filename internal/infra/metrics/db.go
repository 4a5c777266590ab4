package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(pgPoolConns) }

// pgPoolConns is refreshed by postgres.ReportPoolStats.
var pgPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "pg_pool_connections",
		Help: "Postgres pool connections by state.",
	},
	[]string{"state"},
)

func SetDBPoolStats(total, idle, inUse int32) {
	for state, n := range map[string]int32{"total": total, "idle": idle, "in_use": inUse} {
		pgPoolConns.WithLabelValues(state).Set(float64(n))
	}
}
