package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics counts submissions and mail dispatches.
type BookingMetrics struct {
	submissions      *prometheus.CounterVec
	dispatches       *prometheus.CounterVec
	dispatchDuration *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "gateway",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "gateway",
			Name:      "dispatches_total",
			Help:      "Mail transport calls by recipient role and status",
		}, []string{"role", "status"}),
		dispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appointments",
			Subsystem: "gateway",
			Name:      "dispatch_duration_seconds",
			Help:      "Latency of a single mail transport call",
			Buckets:   prometheus.DefBuckets,
		}, []string{"role"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissions, m.dispatches, m.dispatchDuration)
	return m
}

func (m *BookingMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveDispatch(role string, err error, seconds float64) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.dispatches.WithLabelValues(role, status).Inc()
	m.dispatchDuration.WithLabelValues(role).Observe(seconds)
}
