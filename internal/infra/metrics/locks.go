package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		locksGrantedTotal,
		locksReleasedTotal,
		locksReclaimedTotal,
	)
}

var (
	locksGrantedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_locks_granted_total",
			Help: "Total number of redemption holds granted.",
		},
	)

	locksReleasedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_locks_released_total",
			Help: "Total number of holds released voluntarily by their owner.",
		},
	)

	locksReclaimedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_locks_reclaimed_total",
			Help: "Total number of expired holds swept back to ASSIGNED by the reaper.",
		},
	)
)

func IncLockGranted()         { locksGrantedTotal.Inc() }
func IncLockReleased()        { locksReleasedTotal.Inc() }
func AddLocksReclaimed(n int) { locksReclaimedTotal.Add(float64(n)) }
