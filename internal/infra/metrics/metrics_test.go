//go:build !integration

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegisterCleanly(t *testing.T) {
	reg := prometheus.NewRegistry()
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			t.Fatalf("collector failed to register: %v", err)
		}
	}
}

func TestLedgerCounters(t *testing.T) {
	before := testutil.ToFloat64(checkinsTotal.WithLabelValues("credited"))
	IncCheckIn(" Credited ")
	if got := testutil.ToFloat64(checkinsTotal.WithLabelValues("credited")); got != before+1 {
		t.Errorf("expected normalized label to be incremented, got %v", got)
	}

	beforeExp := testutil.ToFloat64(membershipsExpiredTotal)
	IncMembershipsExpired(3)
	if got := testutil.ToFloat64(membershipsExpiredTotal); got != beforeExp+3 {
		t.Errorf("expected +3 expired, got %v", got-beforeExp)
	}
}
