package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		invitesAttributedTotal,
		inviteCodeUnresolvedTotal,
		checkinsTotal,
		redemptionsTotal,
		pointsGrantedTotal,
	)
}

var (
	invitesAttributedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invites_attributed_total",
			Help: "Registrations credited to an inviter.",
		},
	)

	inviteCodeUnresolvedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "invite_code_unresolved_total",
			Help: "Registrations carrying an invite code that matched no inviter.",
		},
	)

	checkinsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkins_total",
			Help: "Check-in attempts by result.",
		},
		[]string{"result"}, // 'credited', 'cooldown', 'error'
	)

	redemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redemptions_total",
			Help: "Activation code redemptions by result and code type.",
		},
		[]string{"result", "type"},
	)

	pointsGrantedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_granted_total",
			Help: "Points credited to users, by source.",
		},
		[]string{"source"}, // 'checkin', 'invite', 'code'
	)
)

func IncInviteAttributed() { invitesAttributedTotal.Inc() }

func IncInviteCodeUnresolved() { inviteCodeUnresolvedTotal.Inc() }

func IncCheckIn(result string) {
	checkinsTotal.WithLabelValues(norm(result)).Inc()
}

func IncRedemption(result, codeType string) {
	redemptionsTotal.WithLabelValues(norm(result), norm(codeType)).Inc()
}

func AddPointsGranted(source string, n int64) {
	pointsGrantedTotal.WithLabelValues(norm(source)).Add(float64(n))
}
