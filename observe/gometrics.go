package observe

import (
	"io"

	gometrics "github.com/rcrowley/go-metrics"

	"andy.dev/again"
)

// GoMetrics records retries in a go-metrics registry: a counter per policy
// and kind, a timer of retry delays per policy, and a counter per outcome.
type GoMetrics struct {
	reg    gometrics.Registry
	prefix string
}

// NewGoMetrics returns a GoMetrics writing to reg. A nil reg uses
// gometrics.DefaultRegistry, and an empty prefix defaults to "again".
func NewGoMetrics(reg gometrics.Registry, prefix string) *GoMetrics {
	if reg == nil {
		reg = gometrics.DefaultRegistry
	}
	if prefix == "" {
		prefix = "again"
	}
	return &GoMetrics{reg: reg, prefix: prefix}
}

// Observer returns the function to pass to [again.Observe].
func (g *GoMetrics) Observer() func(again.Status) {
	return func(s again.Status) {
		gometrics.GetOrRegisterCounter(g.prefix+".retries."+s.Policy+"."+s.Kind.String(), g.reg).Inc(1)
		gometrics.GetOrRegisterTimer(g.prefix+".delay."+s.Policy, g.reg).Update(s.NextDelay)
	}
}

// Done records the outcome of an execution. See [Outcome].
func (g *GoMetrics) Done(err error) {
	gometrics.GetOrRegisterCounter(g.prefix+".executions."+Outcome(err), g.reg).Inc(1)
}

// WriteOnce writes every metric in the registry to w in go-metrics' text
// format.
func (g *GoMetrics) WriteOnce(w io.Writer) {
	gometrics.WriteOnce(g.reg, w)
}
