package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(redemptionsTotal) }

var redemptionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "coupon_redemptions_total",
		Help: "Redemption attempts by outcome (redeemed/forbidden/expired/rejected).",
	},
	[]string{"outcome"},
)

func IncRedemption(outcome string) {
	redemptionsTotal.WithLabelValues(norm(outcome)).Inc()
}
