package metrics

import "github.com/prometheus/client_golang/prometheus"

// ContactMetrics exposes counters/histograms for the contact and alert flows.
type ContactMetrics struct {
	submissionsTotal   *prometheus.CounterVec
	rateLimitTotal     *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	alertsTotal        *prometheus.CounterVec
	stepLatency        *prometheus.HistogramVec
}

func NewContactMetrics(reg prometheus.Registerer) *ContactMetrics {
	m := &ContactMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blueflare",
			Subsystem: "contact",
			Name:      "submissions_total",
			Help:      "Contact form submissions by final outcome",
		}, []string{"outcome"}),
		rateLimitTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blueflare",
			Subsystem: "contact",
			Name:      "rate_limit_checks_total",
			Help:      "Daily quota checks by decision",
		}, []string{"decision"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blueflare",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Notification emails by kind and status",
		}, []string{"kind", "status"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blueflare",
			Subsystem: "gatus",
			Name:      "alerts_total",
			Help:      "Monitoring alerts received by status",
		}, []string{"status"}),
		stepLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blueflare",
			Subsystem: "contact",
			Name:      "step_latency_seconds",
			Help:      "Latency of each contact pipeline step",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.rateLimitTotal, m.notificationsTotal, m.alertsTotal, m.stepLatency)
	return m
}

func (m *ContactMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *ContactMetrics) ObserveRateLimit(decision string) {
	if m == nil {
		return
	}
	m.rateLimitTotal.WithLabelValues(decision).Inc()
}

func (m *ContactMetrics) ObserveNotification(kind, status string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *ContactMetrics) ObserveAlert(status string) {
	if m == nil {
		return
	}
	m.alertsTotal.WithLabelValues(status).Inc()
}

func (m *ContactMetrics) ObserveStepLatency(step string, seconds float64) {
	if m == nil {
		return
	}
	m.stepLatency.WithLabelValues(step).Observe(seconds)
}
