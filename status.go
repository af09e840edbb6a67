package again

import (
	"context"
	"fmt"
	"time"
)

type statusCtxKeyT string

const (
	statusCtxKey statusCtxKeyT = "again"
)

// GetStatus can be used to retrieve information about the current execution
// from within the operation being retried, as opposed to setting an observer
// with [Observe].
// It will return Status{} if not called in a retry context.
func GetStatus(ctx context.Context) Status {
	status, ok := ctx.Value(statusCtxKey).(Status)
	if !ok {
		return Status{}
	}
	return status
}

// Status represents the state of an execution at one attempt.
//
// Inside an operation (see [GetStatus]) Err, Kind and Policy describe the
// previous failure, if any. Passed to an observer, they describe the failure
// about to be retried, and NextDelay is the wait before the next attempt.
type Status struct {
	// Execution identifies one call to Execute.
	Execution string
	// Attempt is the 1-based number of the attempt, counting every invocation.
	Attempt int
	// Policy is the name of the policy handling Err.
	Policy string
	// PolicyAttempt is the policy's own attempt counter for this execution.
	PolicyAttempt int
	// MaxAttempts is the policy's attempt limit.
	MaxAttempts int
	Kind        Kind
	Err         error
	NextDelay   time.Duration
}

// String implements fmt.Stringer
func (s Status) String() string {
	if s.MaxAttempts <= 0 {
		return fmt.Sprintf("attempt %d", s.Attempt)
	}
	return fmt.Sprintf("attempt %d (%s %d/%d)", s.Attempt, s.Policy, s.PolicyAttempt, s.MaxAttempts)
}

// Format implements fmt.Formatter it supports the %s and %q print verbs. Output
// is flag-dependent:
//
//	%s -  "attempt # (policy #/#)"
//	%+s - "attempt # (policy #/#) - next in <duration>"
//
// Where '#' is the attempt number as an integer starting from '1', followed by
// the handling policy's counter and limit once a failure has been matched.
func (s Status) Format(state fmt.State, verb rune) {
	switch verb {
	case 's', 'q', 'v':
		str := s.String()
		if state.Flag('+') {
			str = fmt.Sprintf("%s - next in %v", str, shortNext(s.NextDelay))
		}
		if verb == 'q' {
			str = fmt.Sprintf("%q", str)
		}
		fmt.Fprint(state, str)
	}
}

// Next returns a time.Time value representing the approximate time the next
// attempt will occur, assuming it has just failed.
func (s Status) Next() time.Time {
	return time.Now().Add(s.NextDelay)
}

// shortNext rounds d for display: milliseconds below one second, whole
// seconds above.
func shortNext(d time.Duration) time.Duration {
	if d < time.Second {
		return d.Round(time.Millisecond)
	}
	return d.Round(time.Second)
}
