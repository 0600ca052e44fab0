package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "proofbridge"

var (
	ProofsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proofs_submitted_total",
			Help:      "Total number of proof jobs inserted into the store.",
		},
		[]string{},
	)

	ProofsDispatchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proofs_dispatched_total",
			Help:      "Total number of proof jobs dispatched to a worker.",
		},
		[]string{},
	)

	ProofsCompletedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proofs_completed_total",
			Help:      "Total number of proof jobs that reached a terminal status.",
		},
		[]string{"status"},
	)

	ProofLatencySeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "proof_latency_seconds",
			Help:      "End-to-end latency from job creation to terminal status (seconds).",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)

	ProofTimeoutsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "proof_timeouts_total",
			Help:      "Total number of proof jobs that hit the scheduler's timeout while generating.",
		},
		[]string{},
	)

	WorkersConnectedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "workers_connected",
			Help:      "Current number of live worker channel connections.",
		},
	)

	RateLimitHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the rate limiter, labeled by scope and operation.",
		},
		[]string{"scope", "operation"},
	)
)

func init() {
	prometheus.MustRegister(
		ProofsSubmittedTotal,
		ProofsDispatchedTotal,
		ProofsCompletedTotal,
		ProofLatencySeconds,
		ProofTimeoutsTotal,
		WorkersConnectedGauge,
		RateLimitHitsTotal,
	)
}
