package again

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
)

// Operation is a single fallible unit of work, typically one request to a
// database. Execute invokes it verbatim on every attempt, so any operation
// run under a policy that allows more than one attempt must be safe to repeat.
// Invoke makes a single attempt and must not retry internally.
type Operation[T any] interface {
	Invoke(ctx context.Context) (T, error)
}

// OperationFunc adapts a function to the [Operation] interface.
type OperationFunc[T any] func(context.Context) (T, error)

// Invoke calls f(ctx).
func (f OperationFunc[T]) Invoke(ctx context.Context) (T, error) {
	return f(ctx)
}

// errTimedOut is the cancellation cause of the context created by [Timeout].
var errTimedOut = errors.New("again: execution timed out")

// Do is a retrier for functions with the signature of:
//
//	func(context.Context) error
//
// It is [Execute] for operations that produce no value.
func Do(
	ctx context.Context,
	fn func(context.Context) error,
	chain *Chain,
	options ...Option,
) error {
	if fn == nil {
		return ErrNilOperation
	}
	_, err := Execute[struct{}](ctx, OperationFunc[struct{}](func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}), chain, options...)
	return err
}

// DoOut is a retrier for functions with the signature of:
//
//	func(context.Context) (OUT, error)
//
// Where OUT is a return value of any type. It is [Execute] for plain
// functions.
func DoOut[OUT any](
	ctx context.Context,
	fn func(context.Context) (OUT, error),
	chain *Chain,
	options ...Option,
) (OUT, error) {
	if fn == nil {
		var zero OUT
		return zero, ErrNilOperation
	}
	return Execute[OUT](ctx, OperationFunc[OUT](fn), chain, options...)
}

// Execute invokes op until it succeeds or chain decides to stop, and returns
// the value of the successful attempt.
//
// After each failure the error's [Kind] is determined (see [KindOf] and
// [Classify]) and matched against chain:
//   - If no policy claims the kind, the error is returned unchanged.
//   - Otherwise the claiming policy's attempt counter, private to this call,
//     is incremented. Once it reaches the policy's MaxAttempts, an
//     [*ExhaustedError] wrapping the failure is returned. Until then Execute
//     waits for the policy's delay and tries again.
//
// If op panics, Execute panics on the calling goroutine with a [*PanicError]
// carrying the value and the stack of the attempt.
//
// Attempts are strictly sequential. If ctx is done while an attempt is in
// flight or during a delay, Execute returns a [*CancelledError] straight away
// and makes no further attempts. An attempt that ignores ctx keeps running in
// the background until it returns, and its result is discarded. The same
// applies to the [Timeout] option, which yields a [*TimeoutError].
//
// A nil chain claims no kinds, so the first failure is returned as is.
func Execute[T any](
	ctx context.Context,
	op Operation[T],
	chain *Chain,
	options ...Option,
) (T, error) {
	var zero T
	if op == nil {
		return zero, ErrNilOperation
	}
	o := &opts{}
	for _, opt := range options {
		opt(o)
	}
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, o.timeout, errTimedOut)
		defer cancel()
	}

	ex := &execution{
		id:       uuid.NewString(),
		timeout:  o.timeout,
		counters: make([]int, chain.Len()),
	}
	t := time.NewTimer(DefaultMaxDelay)
	t.Stop()
	status := Status{Execution: ex.id}
	for {
		if ctx.Err() != nil {
			return zero, ex.stopped(ctx, status.Err)
		}
		ex.attempts++
		status.Attempt = ex.attempts
		out, ok := invoke(context.WithValue(ctx, statusCtxKey, status), op)
		if !ok {
			return zero, ex.stopped(ctx, status.Err)
		}
		if out.err == nil {
			return out.val, nil
		}
		if ctx.Err() != nil {
			return zero, ex.stopped(ctx, out.err)
		}

		kind := o.kindOf(out.err)
		idx, pol := chain.match(kind)
		if idx < 0 {
			return zero, out.err
		}
		ex.counters[idx]++
		n := ex.counters[idx]
		if n >= pol.maxAttempts {
			return zero, &ExhaustedError{
				Kind:           kind,
				Policy:         pol.name,
				Attempts:       ex.attempts,
				PolicyAttempts: n,
				Err:            out.err,
			}
		}

		delay := pol.next(n)
		status = Status{
			Execution:     ex.id,
			Attempt:       ex.attempts,
			Policy:        pol.name,
			PolicyAttempt: n,
			MaxAttempts:   pol.maxAttempts,
			Kind:          kind,
			Err:           out.err,
			NextDelay:     delay,
		}
		if o.observe != nil {
			o.observe(status)
		}
		if delay <= 0 {
			continue
		}
		t.Reset(delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return zero, ex.stopped(ctx, out.err)
		case <-t.C:
		}
	}
}

// execution is the mutable state of one Execute call.
type execution struct {
	id       string
	timeout  time.Duration
	attempts int
	counters []int
}

// stopped builds the terminal error for a context that is done, telling the
// Timeout option apart from the caller's own cancellation.
func (ex *execution) stopped(ctx context.Context, last error) error {
	cause := context.Cause(ctx)
	if errors.Is(cause, errTimedOut) {
		return &TimeoutError{
			Timeout:  ex.timeout,
			Attempts: ex.attempts,
			Err:      last,
		}
	}
	return &CancelledError{
		Cause:    cause,
		Attempts: ex.attempts,
		Err:      last,
	}
}

type outcome[T any] struct {
	val      T
	err      error
	panic *PanicError
}

// invoke runs a single attempt so that waiting on it can be abandoned when ctx
// is done. It reports false if ctx ended first. A panic in op is re-raised on
// the calling goroutine as a [*PanicError].
func invoke[T any](ctx context.Context, op Operation[T]) (outcome[T], bool) {
	done := make(chan outcome[T], 1)
	go func() {
		var out outcome[T]
		defer func() {
			if p := recover(); p != nil {
				out.panic = &PanicError{Value: p, Stack: debug.Stack()}
			}
			done <- out
		}()
		out.val, out.err = op.Invoke(ctx)
	}()

	var out outcome[T]
	select {
	case out = <-done:
	case <-ctx.Done():
		select {
		case out = <-done:
		default:
			return out, false
		}
	}
	if out.panic != nil {
		panic(out.panic)
	}
	return out, true
}
