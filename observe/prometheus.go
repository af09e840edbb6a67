package observe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"andy.dev/again"
)

// Prometheus records retries and execution outcomes as Prometheus metrics:
//
//	<namespace>_retries_total{policy,kind}
//	<namespace>_retry_delay_seconds{policy}
//	<namespace>_executions_total{outcome}
type Prometheus struct {
	retries    *prometheus.CounterVec
	delays     *prometheus.HistogramVec
	executions *prometheus.CounterVec
}

// NewPrometheus registers the metrics on reg. A nil reg uses
// prometheus.DefaultRegisterer, and an empty namespace defaults to "again".
// Like promauto, it panics if the metrics are already registered on reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "again"
	}
	factory := promauto.With(reg)
	return &Prometheus{
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retries scheduled",
			},
			[]string{"policy", "kind"},
		),
		delays: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "retry_delay_seconds",
				Help:      "Delay before each retry in seconds",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"policy"},
		),
		executions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "executions_total",
				Help:      "Total number of executions by outcome",
			},
			[]string{"outcome"},
		),
	}
}

// Observer returns the function to pass to [again.Observe].
func (p *Prometheus) Observer() func(again.Status) {
	return func(s again.Status) {
		p.retries.WithLabelValues(s.Policy, s.Kind.String()).Inc()
		p.delays.WithLabelValues(s.Policy).Observe(s.NextDelay.Seconds())
	}
}

// Done records the outcome of an execution. See [Outcome].
func (p *Prometheus) Done(err error) {
	p.executions.WithLabelValues(Outcome(err)).Inc()
}
