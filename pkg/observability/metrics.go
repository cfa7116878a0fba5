package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tqwhite/unity-data-generator-sub000/pkg/domain"
)

const namespace = "datagen"

// Metrics holds the collectors updated by lifecycle hooks.
type Metrics struct {
	registry *prometheus.Registry

	ThinkerCalls    *prometheus.CounterVec
	ThinkerDuration *prometheus.HistogramVec
	Attempts        prometheus.Counter
	Validations     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
// Pass nil to get a private registry; tests do.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		ThinkerCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "thinker_calls_total",
				Help:      "Thinker invocations by conversation, thinker and status.",
			},
			[]string{"conversation", "thinker", "status"},
		),
		ThinkerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "thinker_duration_seconds",
				Help:      "Duration of Thinker invocations.",
				Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"conversation", "thinker"},
		),
		Attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_total",
			Help:      "Generate/validate attempts started by the facilitator.",
		}),
		Validations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "validations_total",
				Help:      "Validator verdicts by result (passed, failed, benign).",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(m.ThinkerCalls, m.ThinkerDuration, m.Attempts, m.Validations)
	return m
}

// Registry returns the registry the collectors live in.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnThinkerFinish: func(_ context.Context, e *domain.ThinkerEvent) {
			status := "ok"
			if e.Err != nil {
				status = "error"
			}
			m.ThinkerCalls.WithLabelValues(e.Conversation, e.Thinker, status).Inc()
			m.ThinkerDuration.WithLabelValues(e.Conversation, e.Thinker).Observe(e.Duration.Seconds())
		},
		OnAttempt: func(context.Context, *domain.AttemptEvent) {
			m.Attempts.Inc()
		},
		OnValidation: func(_ context.Context, e *domain.ValidationEvent) {
			result := "failed"
			switch {
			case e.Benign:
				result = "benign"
			case e.Outcome.Passed:
				result = "passed"
			}
			m.Validations.WithLabelValues(result).Inc()
		},
	}
}
