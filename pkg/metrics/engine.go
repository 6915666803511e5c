package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics records cart and checkout activity.
type EngineMetrics struct {
	cartMutations  *prometheus.CounterVec
	ordersOK       prometheus.Counter
	ordersFailed   prometheus.Counter
	submitDuration prometheus.Histogram
}

// NewEngineMetrics registers the engine metrics on the provided registerer.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	if reg == nil {
		return &EngineMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation.",
	}, []string{"op"})
	ordersOK := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Successfully submitted orders.",
	})
	ordersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "order_submit_failures_total",
		Help: "Order submissions reported failed by the order service.",
	})
	submitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_submit_duration_seconds",
		Help:    "Duration of order submission calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(cartMutations, ordersOK, ordersFailed, submitDuration)
	return &EngineMetrics{
		cartMutations:  cartMutations,
		ordersOK:       ordersOK,
		ordersFailed:   ordersFailed,
		submitDuration: submitDuration,
	}
}

// IncCartMutation counts one cart mutation for the named operation.
func (m *EngineMetrics) IncCartMutation(op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op)).Inc()
}

// IncOrderSubmitted counts one confirmed order submission.
func (m *EngineMetrics) IncOrderSubmitted() {
	if m == nil || m.ordersOK == nil {
		return
	}
	m.ordersOK.Inc()
}

// IncOrderSubmitFailed counts one failed order submission.
func (m *EngineMetrics) IncOrderSubmitFailed() {
	if m == nil || m.ordersFailed == nil {
		return
	}
	m.ordersFailed.Inc()
}

// ObserveSubmitDuration records the duration of a submission attempt.
func (m *EngineMetrics) ObserveSubmitDuration(duration time.Duration) {
	if m == nil || m.submitDuration == nil {
		return
	}
	m.submitDuration.Observe(duration.Seconds())
}

func normalizeLabel(op string) string {
	if op == "" {
		return "unknown"
	}
	return op
}
