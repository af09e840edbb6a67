/*
Package again is a retry orchestrator for database and network clients that
decides whether to retry a failure based on what kind of failure it is.

An operation is retried according to a [Chain] of [Policy] values. Each policy
claims a set of failure kinds, a maximum number of attempts and a delay
function from the backoff package:

	chain := again.MustChain(
		again.Policy{
			Name:        "overload",
			Kinds:       []again.Kind{again.KindOverloaded, again.KindUnavailable},
			MaxAttempts: 5,
			Delay:       backoff.Exponential(50*time.Millisecond, 2*time.Second),
		},
		again.Policy{
			Name:        "cas",
			Kinds:       []again.Kind{again.KindConflict},
			MaxAttempts: 3,
			Delay:       backoff.Jittered(5*time.Millisecond, 25*time.Millisecond),
		},
	)

	doc, err := again.DoOut(ctx, fetchDocument, chain, again.Timeout(5*time.Second))

Chains are immutable once built and meant to be shared: build them once and
use them from as many goroutines as needed.

# Failure Kinds

Operations report a [Kind] by returning a [*Failure] (see [Fail]) or any error
with a FailureKind() Kind method. Errors from client libraries can be mapped to
kinds with the [Classify] option and the classifiers in the classify package.
Anything else is [KindGeneric]. Each kind has a fixed transience flag, see
[Kind.Transient].

Delays come only from the claiming policy's backoff function. Hints a server
sends with a failure, such as the gRPC RetryInfo read by grpcclass.RetryDelay,
are not consulted by [Execute]; they are helpers for callers that want to
inspect or log them.

# Retry Workflow

After every failure the first policy claiming its kind is selected. This
process will continue until one of the following conditions occurs:
  - The operation returns successfully with a nil error value.
  - The failure's kind is claimed by no policy. The error is returned as is.
  - The selected policy exhausts its attempts. See [Exhausted].
  - The [Timeout] expires. See [TimedOut].
  - The context is cancelled. See [Cancelled].

Each policy counts only the failures it handled during the current call, so a
chain retrying overloads five times and conflicts three times may make up to
seven attempts before either budget runs out.

In the case of context cancellation, context.Cause will be called on the
context to get the underlying error, if set.
*/
package again
