package again

import "time"

// Option represents an optional setting for a single execution.
type Option func(o *opts)

// Timeout bounds the whole execution, attempts and delays included. When it
// expires the execution returns a [*TimeoutError] no matter how many attempts
// are left. A value <= 0 disables the timeout, which is the default.
func Timeout(d time.Duration) Option {
	return func(o *opts) {
		o.timeout = d
	}
}

// Observe sets a function to be called directly before each retry delay. It is
// passed a [Status] describing the failure that is about to be retried, for
// logging or reporting. It is called synchronously and cannot change what the
// execution does next. Defaults to nil, which will take no action.
//
// Terminal failures are not observed: they are returned to the caller.
func Observe(fn func(Status)) Option {
	return func(o *opts) {
		o.observe = fn
	}
}

// Classify sets a function used to find the [Kind] of errors that do not carry
// one themselves. It is consulted only when [KindOf] reports no explicit
// kind; if it also declines, the error is [KindGeneric]. See the classify
// package for classifiers of common database clients.
func Classify(fn func(error) (Kind, bool)) Option {
	return func(o *opts) {
		o.classify = fn
	}
}

type opts struct {
	timeout  time.Duration
	observe  func(Status)
	classify func(error) (Kind, bool)
}

func (o *opts) kindOf(err error) Kind {
	if k, ok := KindOf(err); ok {
		return k
	}
	if o.classify != nil {
		if k, ok := o.classify(err); ok && k.Valid() {
			return k
		}
	}
	return KindGeneric
}
