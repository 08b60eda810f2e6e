package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics records the checkout flow's operational counters.
type CheckoutMetrics struct {
	stepTransitions *prometheus.CounterVec
	addressCreates  *prometheus.CounterVec
	submissions     *prometheus.CounterVec
	submitDuration  prometheus.Histogram
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	stepTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_step_transitions_total",
		Help: "Forward and backward checkout step transitions.",
	}, []string{"step", "result"})
	addressCreates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_address_creates_total",
		Help: "Address creation calls against the commerce backend.",
	}, []string{"address_type", "result"})
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_order_submissions_total",
		Help: "Order submission attempts.",
	}, []string{"result"})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_submit_duration_seconds",
		Help:    "Latency of order submission calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(stepTransitions, addressCreates, submissions, submitDuration)
	return &CheckoutMetrics{
		stepTransitions: stepTransitions,
		addressCreates:  addressCreates,
		submissions:     submissions,
		submitDuration:  submitDuration,
	}
}

// IncStepTransition records a step transition outcome.
func (m *CheckoutMetrics) IncStepTransition(step, result string) {
	if m == nil || m.stepTransitions == nil {
		return
	}
	m.stepTransitions.WithLabelValues(normalizeLabel(step), normalizeLabel(result)).Inc()
}

// IncAddressCreate records an address creation outcome.
func (m *CheckoutMetrics) IncAddressCreate(addressType, result string) {
	if m == nil || m.addressCreates == nil {
		return
	}
	m.addressCreates.WithLabelValues(normalizeLabel(addressType), normalizeLabel(result)).Inc()
}

// IncSubmission records an order submission outcome.
func (m *CheckoutMetrics) IncSubmission(result string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(result)).Inc()
}

// ObserveSubmitDuration records how long an order submission took.
func (m *CheckoutMetrics) ObserveSubmitDuration(duration time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
