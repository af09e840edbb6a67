// Package observe provides observers for again executions: structured
// logging, Prometheus and VictoriaMetrics instrumentation, and an in-memory
// tally of retries by kind.
//
// Every observer is an ordinary func(again.Status) and can be passed to
// [again.Observe] directly or combined with [All].
package observe

import (
	"log/slog"

	"andy.dev/again"
)

// All returns an observer calling each of fns in order. Nil entries are
// skipped.
func All(fns ...func(again.Status)) func(again.Status) {
	live := make([]func(again.Status), 0, len(fns))
	for _, fn := range fns {
		if fn != nil {
			live = append(live, fn)
		}
	}
	return func(s again.Status) {
		for _, fn := range live {
			fn(s)
		}
	}
}

// Log returns an observer logging every retry at warn level. A nil logger
// uses slog.Default.
func Log(logger *slog.Logger) func(again.Status) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(s again.Status) {
		logger.Warn("retrying",
			"execution", s.Execution,
			"attempt", s.Attempt,
			"policy", s.Policy,
			"policy_attempt", s.PolicyAttempt,
			"max_attempts", s.MaxAttempts,
			"kind", s.Kind.String(),
			"delay", s.NextDelay,
			"error", s.Err,
		)
	}
}

// Outcome names the way an execution ended, for metric labels.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case again.Exhausted(err):
		return "exhausted"
	case again.TimedOut(err):
		return "timed_out"
	case again.Cancelled(err):
		return "cancelled"
	default:
		return "failed"
	}
}
