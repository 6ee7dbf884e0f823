package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RPCCallsTotal tracks single HTTP exchanges per provider and endpoint
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathem_rpc_calls_total",
			Help: "Total number of HTTP exchanges with the Fathem API",
		},
		[]string{"provider", "method"},
	)

	// RPCErrorsTotal tracks classified failures per provider and kind
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathem_rpc_errors_total",
			Help: "Total number of classified errors",
		},
		[]string{"provider", "kind"},
	)

	// RPCLatency tracks exchange latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathem_rpc_latency_seconds",
			Help:    "HTTP exchange latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider", "method"},
	)

	// RetryAttemptsTotal tracks attempts made by the retry driver
	RetryAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathem_retry_attempts_total",
			Help: "Total number of attempts made by the retry driver",
		},
		[]string{"operation"},
	)

	// RetryBackoff tracks scheduled waits, labelled by where the wait came from
	RetryBackoff = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fathem_retry_backoff_seconds",
			Help:    "Wait inserted between attempts in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"operation", "source"},
	)

	// RetryExhaustedTotal tracks calls that failed on their final attempt
	RetryExhaustedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fathem_retry_exhausted_total",
			Help: "Total number of calls that ran out of attempts",
		},
		[]string{"operation", "kind"},
	)
)
