package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestContactMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewContactMetrics(reg)

	m.ObserveSubmission("accepted")
	m.ObserveSubmission("accepted")
	m.ObserveSubmission("rate_limited")
	m.ObserveRateLimit("limited")
	m.ObserveNotification("lead", "sent")
	m.ObserveAlert("UNHEALTHY")
	m.ObserveStepLatency("store_lead", 0.02)

	if got := testutil.ToFloat64(m.submissionsTotal.WithLabelValues("accepted")); got != 2 {
		t.Fatalf("expected 2 accepted submissions, got %v", got)
	}
	if got := testutil.ToFloat64(m.notificationsTotal.WithLabelValues("lead", "sent")); got != 1 {
		t.Fatalf("expected 1 sent lead email, got %v", got)
	}
	if n := testutil.CollectAndCount(m.stepLatency); n != 1 {
		t.Fatalf("expected one latency series, got %d", n)
	}
}

func TestContactMetricsDefaultRegistry(t *testing.T) {
	m := NewContactMetrics(nil)
	m.ObserveRateLimit("admitted")
	prometheus.DefaultRegisterer.Unregister(m.submissionsTotal)
	prometheus.DefaultRegisterer.Unregister(m.rateLimitTotal)
	prometheus.DefaultRegisterer.Unregister(m.notificationsTotal)
	prometheus.DefaultRegisterer.Unregister(m.alertsTotal)
	prometheus.DefaultRegisterer.Unregister(m.stepLatency)
}

func TestContactMetricsNilSafe(t *testing.T) {
	var m *ContactMetrics
	m.ObserveSubmission("accepted")
	m.ObserveRateLimit("error")
	m.ObserveNotification("alert", "failed")
	m.ObserveAlert("HEALTHY")
	m.ObserveStepLatency("notify", 0.1)
}
