package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		assignmentsTotal,
		codesGeneratedTotal,
	)
}

var (
	assignmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "coupon_assignments_total",
			Help: "Assignment attempts by outcome (assigned/exhausted/quota/rejected).",
		},
		[]string{"outcome"},
	)

	codesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "coupon_codes_generated_total",
			Help: "Total number of codes produced by the pattern generator.",
		},
	)
)

func IncAssignment(outcome string) {
	assignmentsTotal.WithLabelValues(norm(outcome)).Inc()
}

func AddCodesGenerated(count int) {
	codesGeneratedTotal.Add(float64(count))
}
