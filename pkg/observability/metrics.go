package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/aretw0/textremind/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "textremind"

// Metrics groups every collector the application exports.
type Metrics struct {
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	Evaluations     *prometheus.CounterVec
	Actions         *prometheus.CounterVec
	Dispatched      *prometheus.CounterVec
	QueueDepth      prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to avoid duplicate registration.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of API requests by endpoint and status code",
			},
			[]string{"endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Duration of API requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "evaluations_total",
				Help:      "Async validations by cell and outcome",
			},
			[]string{"cell", "outcome"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "actions_total",
				Help:      "Form actions by name and outcome",
			},
			[]string{"action", "outcome"},
		),
		Dispatched: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "messages_dispatched_total",
				Help:      "Scheduled messages handed to the SMS provider by outcome",
			},
			[]string{"outcome"},
		),
		QueueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "queue_depth",
				Help:      "Messages waiting for delivery after the last dispatch",
			},
		),
	}
	reg.MustRegister(m.Requests, m.RequestDuration, m.Evaluations, m.Actions, m.Dispatched, m.QueueDepth)
	return m
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(endpoint string, status int, d time.Duration) {
	m.Requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(endpoint).Observe(d.Seconds())
}

// ObserveDispatch records the result of one delivery attempt.
func (m *Metrics) ObserveDispatch(err error) {
	m.Dispatched.WithLabelValues(outcome(err)).Inc()
}

// Hooks returns lifecycle hooks that count evaluations and actions.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvaluationSettle: func(_ context.Context, e *domain.EvaluationEvent) {
			var label string
			switch e.Type {
			case domain.EventEvaluationApplied:
				label = "applied"
			case domain.EventEvaluationDiscarded:
				label = "discarded"
			default:
				label = "failed"
			}
			m.Evaluations.WithLabelValues(e.Cell, label).Inc()
		},
		OnActionFinish: func(_ context.Context, e *domain.ActionEvent) {
			label := outcome(e.Err)
			if e.Skipped {
				label = "skipped"
			}
			m.Actions.WithLabelValues(e.Action, label).Inc()
		},
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
