package deletion

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records deletion outcomes and identity store latency. A nil *Metrics is a no-op.
type Metrics struct {
	outcomes *prometheus.CounterVec
	calls    *prometheus.HistogramVec
}

// NewMetrics registers the deletion collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "keepjoy",
			Subsystem: "account_deletion",
			Name:      "requests_total",
			Help:      "Account deletion requests by outcome.",
		}, []string{"outcome"}),
		calls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "keepjoy",
			Subsystem: "account_deletion",
			Name:      "identity_call_duration_seconds",
			Help:      "Latency of identity store calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation", "result"}),
	}
	reg.MustRegister(m.outcomes, m.calls)
	return m
}

func (m *Metrics) observeOutcome(k Kind) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(k.String()).Inc()
}

func (m *Metrics) observeCall(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.calls.WithLabelValues(op, result).Observe(time.Since(start).Seconds())
}
