package observe

import (
	"sort"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v3"

	"andy.dev/again"
)

// Recorder tallies retries by failure kind and executions by outcome. It is
// safe for concurrent use by any number of executions.
type Recorder struct {
	retries  *xsync.MapOf[again.Kind, *atomic.Int64]
	outcomes *xsync.MapOf[string, *atomic.Int64]
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		retries:  xsync.NewMapOf[again.Kind, *atomic.Int64](),
		outcomes: xsync.NewMapOf[string, *atomic.Int64](),
	}
}

// Observer returns the function to pass to [again.Observe].
func (r *Recorder) Observer() func(again.Status) {
	return func(s again.Status) {
		counter(r.retries, s.Kind).Add(1)
	}
}

// Done records the outcome of an execution. See [Outcome].
func (r *Recorder) Done(err error) {
	counter(r.outcomes, Outcome(err)).Add(1)
}

// Retries returns the number of retries recorded for kind.
func (r *Recorder) Retries(kind again.Kind) int64 {
	c, ok := r.retries.Load(kind)
	if !ok {
		return 0
	}
	return c.Load()
}

// Outcomes returns the number of executions recorded per outcome.
func (r *Recorder) Outcomes() map[string]int64 {
	out := make(map[string]int64, r.outcomes.Size())
	r.outcomes.Range(func(outcome string, c *atomic.Int64) bool {
		out[outcome] = c.Load()
		return true
	})
	return out
}

// KindCount is the number of retries of one kind.
type KindCount struct {
	Kind    again.Kind
	Retries int64
}

// Summary returns the retry counts of every kind seen, in kind order.
func (r *Recorder) Summary() []KindCount {
	var out []KindCount
	r.retries.Range(func(kind again.Kind, c *atomic.Int64) bool {
		out = append(out, KindCount{Kind: kind, Retries: c.Load()})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}

func counter[K comparable](m *xsync.MapOf[K, *atomic.Int64], key K) *atomic.Int64 {
	c, _ := m.LoadOrCompute(key, func() *atomic.Int64 {
		return new(atomic.Int64)
	})
	return c
}
