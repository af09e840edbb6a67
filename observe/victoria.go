package observe

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"

	"andy.dev/again"
)

// Victoria records the same series as [Prometheus] in a VictoriaMetrics
// metrics.Set, for programs that expose metrics without client_golang.
type Victoria struct {
	set    *metrics.Set
	prefix string
}

// NewVictoria returns a Victoria writing to set. A nil set creates a new
// one, and an empty prefix defaults to "again".
func NewVictoria(set *metrics.Set, prefix string) *Victoria {
	if set == nil {
		set = metrics.NewSet()
	}
	if prefix == "" {
		prefix = "again"
	}
	return &Victoria{set: set, prefix: prefix}
}

// Observer returns the function to pass to [again.Observe].
func (v *Victoria) Observer() func(again.Status) {
	return func(s again.Status) {
		v.set.GetOrCreateCounter(
			fmt.Sprintf(`%s_retries_total{policy=%q,kind=%q}`, v.prefix, s.Policy, s.Kind),
		).Inc()
		v.set.GetOrCreateHistogram(
			fmt.Sprintf(`%s_retry_delay_seconds{policy=%q}`, v.prefix, s.Policy),
		).Update(s.NextDelay.Seconds())
	}
}

// Done records the outcome of an execution. See [Outcome].
func (v *Victoria) Done(err error) {
	v.set.GetOrCreateCounter(
		fmt.Sprintf(`%s_executions_total{outcome=%q}`, v.prefix, Outcome(err)),
	).Inc()
}

// WritePrometheus writes the set in Prometheus text format.
func (v *Victoria) WritePrometheus(w io.Writer) {
	v.set.WritePrometheus(w)
}
