package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	instructionsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peerlend",
		Subsystem: "node",
		Name:      "instructions_applied_total",
		Help:      "Instructions executed and committed, by subsystem.",
	}, []string{"subsystem"})

	instructionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "peerlend",
		Subsystem: "node",
		Name:      "instructions_rejected_total",
		Help:      "Instructions rejected before commit, by subsystem.",
	}, []string{"subsystem"})

	rpcRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "peerlend",
		Subsystem: "rpc",
		Name:      "request_duration_seconds",
		Help:      "JSON-RPC request latency, by method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})
)

// InstructionApplied records a committed instruction for a subsystem.
func InstructionApplied(subsystem string) {
	instructionsApplied.WithLabelValues(subsystem).Inc()
}

// InstructionRejected records an instruction rejected before commit.
func InstructionRejected(subsystem string) {
	instructionsRejected.WithLabelValues(subsystem).Inc()
}

// ObserveRPCDuration records the latency of one JSON-RPC request.
func ObserveRPCDuration(method string, seconds float64) {
	rpcRequestDuration.WithLabelValues(method).Observe(seconds)
}
