package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewSagaMetricsIsReusable(t *testing.T) {
	// Each instance registers on its own registry, so constructing twice
	// must not panic on duplicate registration.
	m1 := NewSagaMetrics(prometheus.NewRegistry())
	m2 := NewSagaMetrics(prometheus.NewRegistry())
	if m1 == nil || m2 == nil {
		t.Fatalf("constructor returned nil")
	}
}

func TestSagaMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSagaMetrics(reg)

	m.Transitions.WithLabelValues("Submitted", "AwaitingStockValidation").Inc()
	m.EventsPublished.WithLabelValues("OrderStatusChangedToSubmitted").Inc()
	m.RemindersFired.WithLabelValues("grace-period").Inc()
	m.RemindersDropped.Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	want := map[string]bool{
		"ordering_saga_status_transitions_total": false,
		"ordering_saga_events_published_total":   false,
		"ordering_saga_reminders_fired_total":    false,
		"ordering_saga_reminders_dropped_total":  false,
	}
	for _, mf := range families {
		if _, ok := want[mf.GetName()]; ok {
			want[mf.GetName()] = true
			if mf.GetMetric()[0].GetCounter().GetValue() != 1 {
				t.Fatalf("%s: expected 1, got %v", mf.GetName(), mf.GetMetric()[0].GetCounter().GetValue())
			}
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("metric %s not registered", name)
		}
	}
}
