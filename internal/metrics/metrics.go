package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type SagaMetrics struct {
	Transitions      *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	RemindersFired   *prometheus.CounterVec
	RemindersDropped prometheus.Counter
}

// NewSagaMetrics registers the saga counters with reg. A nil reg means
// the default registerer.
func NewSagaMetrics(reg prometheus.Registerer) *SagaMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordering",
		Subsystem: "saga",
		Name:      "status_transitions_total",
		Help:      "Total number of observed order status transitions.",
	}, []string{"from", "to"})
	eventsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordering",
		Subsystem: "saga",
		Name:      "events_published_total",
		Help:      "Total number of integration events published.",
	}, []string{"event"})
	remindersFired := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ordering",
		Subsystem: "saga",
		Name:      "reminders_fired_total",
		Help:      "Total number of reminders dispatched to the saga.",
	}, []string{"name"})
	remindersDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ordering",
		Subsystem: "saga",
		Name:      "reminders_dropped_total",
		Help:      "Total number of reminders dropped for an unknown name.",
	})

	reg.MustRegister(transitions, eventsPublished, remindersFired, remindersDropped)
	return &SagaMetrics{
		Transitions:      transitions,
		EventsPublished:  eventsPublished,
		RemindersFired:   remindersFired,
		RemindersDropped: remindersDropped,
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}
