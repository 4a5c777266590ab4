// File: internal/infra/metrics/admin.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() { register(adminRequestsTotal, activationCodesProvisionedTotal) }

var (
	adminRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "admin_requests_total",
			Help: "Tracks calls to the admin HTTP API.",
		},
		[]string{"route", "status"}, // HTTP status code, or authorized/unauthorized for bot admin commands
	)

	activationCodesProvisionedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "activation_codes_provisioned_total",
			Help: "Activation codes created, by type.",
		},
		[]string{"type"},
	)
)

func IncAdminRequest(route, status string) {
	adminRequestsTotal.WithLabelValues(norm(route), norm(status)).Inc()
}

func AddActivationCodesProvisioned(codeType string, n int) {
	activationCodesProvisionedTotal.WithLabelValues(norm(codeType)).Add(float64(n))
}
