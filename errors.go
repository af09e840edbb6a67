package again

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidPolicy is wrapped by every error [NewChain] returns for a
	// malformed [Policy].
	ErrInvalidPolicy = errors.New("invalid retry policy")

	// ErrOverlappingKinds is returned by [NewChain] when two policies claim the
	// same [Kind].
	ErrOverlappingKinds = errors.New("policies claim overlapping kinds")

	// ErrNilOperation is returned when Execute is given a nil operation.
	ErrNilOperation = errors.New("nil operation")
)

// Exhausted returns true if the error is the final result after a policy ran
// out of attempts.
func Exhausted(e error) bool {
	var ee *ExhaustedError
	return errors.As(e, &ee)
}

// TimedOut returns true if the retry loop was stopped by its [Timeout].
func TimedOut(e error) bool {
	var te *TimeoutError
	return errors.As(e, &te)
}

// Cancelled returns true if the retry loop was stopped because the caller's
// context was cancelled or reached its deadline.
func Cancelled(e error) bool {
	var ce *CancelledError
	return errors.As(e, &ce)
}

// ExhaustedError is returned when the policy selected for a failure has used
// all of its attempts. Kind is the kind of the last failure, and Err the last
// failure itself.
type ExhaustedError struct {
	Kind   Kind
	Policy string
	// Attempts is the total number of invocations made by this execution.
	Attempts int
	// PolicyAttempts is the number of invocations that failed with a kind
	// claimed by Policy.
	PolicyAttempts int
	Err            error
}

// Error implements the error interface.
func (ee *ExhaustedError) Error() string {
	return fmt.Sprintf("retries exhausted after %d attempts (%s): %v", ee.Attempts, ee.Kind, ee.Err)
}

// Unwrap returns the last failure.
func (ee *ExhaustedError) Unwrap() error {
	return ee.Err
}

// FailureKind implements the kind discriminator.
func (ee *ExhaustedError) FailureKind() Kind {
	return KindRetriesExhausted
}

// TimeoutError is returned when the overall [Timeout] expires, whatever the
// remaining attempt budget. Err is the last failure observed, if any.
type TimeoutError struct {
	Timeout  time.Duration
	Attempts int
	Err      error
}

// Error implements the error interface.
func (te *TimeoutError) Error() string {
	if te.Err == nil {
		return fmt.Sprintf("timed out after %v (%d attempts)", te.Timeout, te.Attempts)
	}
	return fmt.Sprintf("timed out after %v (%d attempts): %v", te.Timeout, te.Attempts, te.Err)
}

// Unwrap allows a *TimeoutError to match [context.DeadlineExceeded] as well as
// the last failure.
func (te *TimeoutError) Unwrap() []error {
	if te.Err == nil {
		return []error{context.DeadlineExceeded}
	}
	return []error{context.DeadlineExceeded, te.Err}
}

// FailureKind implements the kind discriminator.
func (te *TimeoutError) FailureKind() Kind {
	return KindTimedOut
}

// CancelledError is returned when the caller's context ends the retry loop.
// Cause is the value of [context.Cause] for that context.
type CancelledError struct {
	Cause    error
	Attempts int
	Err      error
}

// Error implements the error interface.
func (ce *CancelledError) Error() string {
	if ce.Cause == nil {
		return context.Canceled.Error()
	}
	return ce.Cause.Error()
}

// Unwrap returns the cancellation cause and the last failure, if any.
func (ce *CancelledError) Unwrap() []error {
	cause := ce.Cause
	if cause == nil {
		cause = context.Canceled
	}
	if ce.Err == nil {
		return []error{cause}
	}
	return []error{cause, ce.Err}
}

// FailureKind implements the kind discriminator.
func (ce *CancelledError) FailureKind() Kind {
	return KindCancelled
}

// PanicError is the value Execute panics with when an operation panics. Value
// is what the operation panicked with and Stack the trace of the goroutine
// that ran the attempt.
type PanicError struct {
	Value any
	Stack []byte
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("again: operation panicked: %v\n\n%s", pe.Value, pe.Stack)
}

// Unwrap returns Value if it is an error.
func (pe *PanicError) Unwrap() error {
	err, _ := pe.Value.(error)
	return err
}
