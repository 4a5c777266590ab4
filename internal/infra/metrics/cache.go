package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(cacheLookups) }

var cacheLookups = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by cache name and outcome (hit|miss|error).",
	},
	[]string{"cache", "result"},
)

func IncCacheRequest(cacheName, result string) {
	cacheLookups.WithLabelValues(norm(cacheName), norm(result)).Inc()
}
