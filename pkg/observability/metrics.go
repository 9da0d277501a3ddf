package observability

import (
	"context"

	"github.com/aretw0/automata/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by machine lifecycle events.
type Metrics struct {
	Transitions *prometheus.CounterVec
	Rejections  *prometheus.CounterVec
	Traps       *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "automata",
				Name:      "transitions_total",
				Help:      "Total number of applied transitions",
			},
			[]string{"machine", "from", "to"},
		),
		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "automata",
				Name:      "rejections_total",
				Help:      "Total number of symbols without a matching transition",
			},
			[]string{"machine", "state"},
		),
		Traps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "automata",
				Name:      "traps_total",
				Help:      "Total number of outputs read in a trap state",
			},
			[]string{"machine", "state"},
		),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Transitions, m.Rejections, m.Traps} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks that record into the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(_ context.Context, e *domain.TransitionEvent) {
			m.Transitions.WithLabelValues(e.Machine, e.From.Name, e.To.Name).Inc()
		},
		OnReject: func(_ context.Context, e *domain.RejectEvent) {
			m.Rejections.WithLabelValues(e.Machine, e.State.Name).Inc()
		},
		OnTrap: func(_ context.Context, e *domain.TrapEvent) {
			m.Traps.WithLabelValues(e.Machine, e.State.Name).Inc()
		},
	}
}
