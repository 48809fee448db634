package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	notifications = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chainsub",
			Subsystem: "dispatch",
			Name:      "notifications_total",
			Help:      "Successfully classified notifications.",
		},
		[]string{"topic"},
	)
	decodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chainsub",
			Subsystem: "dispatch",
			Name:      "decode_errors_total",
			Help:      "Malformed multipart messages dropped by the dispatcher.",
		},
		[]string{"reason"},
	)
	sequenceGaps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chainsub",
			Subsystem: "dispatch",
			Name:      "sequence_gaps_total",
			Help:      "Detected per-topic sequence discontinuities.",
		},
		[]string{"topic"},
	)
	transportErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chainsub",
			Subsystem: "dispatch",
			Name:      "transport_errors_total",
			Help:      "Hard transport failures that terminated a dispatch loop.",
		},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(notifications, decodeErrors, sequenceGaps, transportErrors)
	})
}

func RecordNotification(topic string) {
	RegisterMetrics()
	notifications.WithLabelValues(topic).Inc()
}

func RecordDecodeError(reason string) {
	RegisterMetrics()
	decodeErrors.WithLabelValues(reason).Inc()
}

func RecordSequenceGap(topic string) {
	RegisterMetrics()
	sequenceGaps.WithLabelValues(topic).Inc()
}

func RecordTransportError() {
	RegisterMetrics()
	transportErrors.Inc()
}
